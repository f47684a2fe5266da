package repository

import (
	"context"

	"github.com/eslsoft/vocadrill/internal/entity"
)

// TopicRepository abstracts the read-only vocabulary content source.
type TopicRepository interface {
	ListTopics(ctx context.Context) ([]entity.Topic, error)
	GetTopic(ctx context.Context, id string) (*entity.Topic, error)
}
