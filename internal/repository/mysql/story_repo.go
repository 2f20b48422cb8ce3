package mysql

import (
	"context"
	"database/sql"

	"ankahee-backend/internal/model"
	"ankahee-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type storyRepository struct {
	db *sql.DB
}

func NewStoryRepository(db *sql.DB) *storyRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) ListSegments(ctx context.Context, storyID string) ([]*model.StorySegment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, story_id, `order`, user_id, content, created_at FROM story_segments WHERE story_id = ? ORDER BY `order` ASC",
		storyID)
	if err != nil {
		util.Logger.Error("查询故事失败", zap.Error(err), zap.String("story_id", storyID))
		return nil, err
	}
	defer rows.Close()

	segments := []*model.StorySegment{}
	for rows.Next() {
		var s model.StorySegment
		if err := rows.Scan(&s.ID, &s.StoryID, &s.Order, &s.UserID, &s.Content, &s.CreatedAt); err != nil {
			return nil, err
		}
		segments = append(segments, &s)
	}
	return segments, rows.Err()
}

func (r *storyRepository) CreateSegment(ctx context.Context, segment *model.StorySegment) error {
	if segment.ID == "" {
		segment.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO story_segments (id, story_id, `order`, user_id, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		segment.ID, segment.StoryID, segment.Order, segment.UserID, segment.Content, segment.CreatedAt)
	if err != nil {
		util.Logger.Warn("添加故事片段失败", zap.Error(err), zap.Int("order", segment.Order))
		return mapError(err)
	}
	return nil
}
