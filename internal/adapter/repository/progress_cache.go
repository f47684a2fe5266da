package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// progressTableDDL keeps the whole learning progress aggregate as one JSON
// document in a single-row table. The CHECK pins the row id so concurrent
// writers can only ever upsert the same row.
const progressTableDDL = `
CREATE TABLE IF NOT EXISTS learning_progress (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// ProgressCacheRepository implements repository.ProgressCache on top of a
// relational database. The aggregate is serialized wholesale; per-topic
// partial writes are deliberately not supported.
type ProgressCacheRepository struct {
	db *sqlx.DB
}

// NewProgressCacheRepository wraps an open database handle.
func NewProgressCacheRepository(db *sqlx.DB) *ProgressCacheRepository {
	return &ProgressCacheRepository{db: db}
}

// Migrate creates the progress table when it does not exist yet.
func (r *ProgressCacheRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, progressTableDDL); err != nil {
		return fmt.Errorf("create learning_progress table: %w", err)
	}
	return nil
}

// Load reads the stored aggregate. A missing row means no progress has been
// saved yet and yields (nil, nil); a row that fails to decode is reported as
// an error so the caller can fall back to a fresh aggregate.
func (r *ProgressCacheRepository) Load(ctx context.Context) (*entity.LearningProgress, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, "SELECT payload FROM learning_progress WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load learning progress: %w", err)
	}

	var progress entity.LearningProgress
	if err := json.Unmarshal([]byte(payload), &progress); err != nil {
		return nil, fmt.Errorf("decode learning progress: %w", err)
	}
	progress.Normalize()
	return &progress, nil
}

// Save upserts the aggregate as a fresh JSON document.
func (r *ProgressCacheRepository) Save(ctx context.Context, progress *entity.LearningProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode learning progress: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO learning_progress (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("save learning progress: %w", err)
	}
	return nil
}
