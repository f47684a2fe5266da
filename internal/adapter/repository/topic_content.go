package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// TopicContentRepository serves read-only vocabulary content from a
// directory of topic JSON documents. The directory is scanned once and the
// parsed topics are cached for the lifetime of the process; content updates
// require a restart. A file that fails to parse or validate is skipped with
// a warning so one bad document never takes down the rest of the content.
type TopicContentRepository struct {
	dir    string
	logger *logrus.Logger

	once    sync.Once
	loadErr error
	topics  []entity.Topic
	byID    map[string]*entity.Topic
}

// NewTopicContentRepository points the repository at a content directory.
func NewTopicContentRepository(dir string, logger *logrus.Logger) *TopicContentRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &TopicContentRepository{dir: dir, logger: logger}
}

// ListTopics returns every topic, ordered by name.
func (r *TopicContentRepository) ListTopics(ctx context.Context) ([]entity.Topic, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	return r.topics, nil
}

// GetTopic looks up a single topic by id.
func (r *TopicContentRepository) GetTopic(ctx context.Context, id string) (*entity.Topic, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	topic, ok := r.byID[id]
	if !ok {
		return nil, entity.ErrTopicNotFound
	}
	return topic, nil
}

func (r *TopicContentRepository) load() error {
	r.once.Do(func() {
		entries, err := os.ReadDir(r.dir)
		if err != nil {
			r.loadErr = fmt.Errorf("read content directory: %w", err)
			return
		}

		byID := make(map[string]*entity.Topic)
		var topics []entity.Topic
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			topic, err := r.loadFile(e.Name(), byID)
			if err != nil {
				r.logger.WithError(err).WithField("file", e.Name()).Warn("skipping topic file")
				continue
			}
			topics = append(topics, *topic)
			byID[topic.ID] = &topics[len(topics)-1]
		}

		sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
		// Re-key after the sort moved the slice elements around.
		for i := range topics {
			byID[topics[i].ID] = &topics[i]
		}
		r.topics = topics
		r.byID = byID
	})
	return r.loadErr
}

func (r *TopicContentRepository) loadFile(name string, byID map[string]*entity.Topic) (*entity.Topic, error) {
	raw, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read topic file: %w", err)
	}
	var topic entity.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return nil, fmt.Errorf("parse topic file: %w", err)
	}
	if topic.ID == "" {
		topic.ID = strings.TrimSuffix(name, ".json")
	}
	if len(topic.Items) == 0 {
		return nil, fmt.Errorf("topic %s has no items", topic.ID)
	}
	if _, dup := byID[topic.ID]; dup {
		return nil, fmt.Errorf("duplicate topic id %s", topic.ID)
	}
	return &topic, nil
}
