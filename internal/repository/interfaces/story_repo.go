package interfaces

import (
	"context"

	"ankahee-backend/internal/model"
)

type StoryRepository interface {
	ListSegments(ctx context.Context, storyID string) ([]*model.StorySegment, error)
	// CreateSegment 在 (story_id, order) 冲突时返回 repository.ErrDuplicate
	CreateSegment(ctx context.Context, segment *model.StorySegment) error
}
