package repository

import (
	"context"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// ProgressCache is the local, durable persistence tier for the learning
// progress aggregate. It always stores the whole aggregate, never
// per-topic fragments. Load returns (nil, nil) when nothing is stored yet.
type ProgressCache interface {
	Load(ctx context.Context) (*entity.LearningProgress, error)
	Save(ctx context.Context, progress *entity.LearningProgress) error
}

// ProgressMirror is the best-effort remote tier. Fetch returns (nil, nil)
// when the remote has no aggregate for this user.
type ProgressMirror interface {
	Fetch(ctx context.Context) (*entity.LearningProgress, error)
	Push(ctx context.Context, progress *entity.LearningProgress) error
}
