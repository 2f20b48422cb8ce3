package service

import (
	"context"
	stderrors "errors"
	"time"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/repository"
	"ankahee-backend/internal/repository/interfaces"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
)

const StorySegmentMaxLen = 280

// StoryPrompts 每日故事的开头，按一年中的第几天轮换
var StoryPrompts = []string{
	"The last train of the night stopped at a station that wasn't on the map.",
	"She found a letter addressed to her, dated ten years in the future.",
	"Every streetlight in the city went out at once, except one.",
	"The old radio only played stations that no longer existed.",
	"He woke up remembering a conversation he had never had.",
	"The lighthouse keeper kept a log of ships that never arrived.",
	"A stranger left an umbrella and a note that said 'You'll need this tomorrow.'",
	"The bookstore at the end of the street was open only when it rained.",
	"Somebody had been watering the plants in the empty apartment.",
	"The map showed a small island that hadn't been there yesterday.",
}

// StoryID 当天故事的ID：UTC 日期 YYYY-MM-DD
func StoryID(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// PromptFor 当天的故事开头
func PromptFor(t time.Time) string {
	return StoryPrompts[t.UTC().YearDay()%len(StoryPrompts)]
}

// CanAddSegment 最后一句不是自己写的才能接龙
func CanAddSegment(segments []*model.StorySegment, userID string) bool {
	if len(segments) == 0 {
		return true
	}
	return segments[len(segments)-1].UserID != userID
}

// StoryService 每日接龙故事
type StoryService struct {
	repo  interfaces.StoryRepository
	feed  realtime.Publisher
	clock expiry.Clock
}

func NewStoryService(repo interfaces.StoryRepository, feed realtime.Publisher, clock expiry.Clock) *StoryService {
	return &StoryService{repo: repo, feed: feed, clock: clock}
}

func (s *StoryService) Today(ctx context.Context) (*model.Story, error) {
	now := s.clock.Now()
	id := StoryID(now)
	segments, err := s.repo.ListSegments(ctx, id)
	if err != nil {
		return nil, storeError(err, "story")
	}
	return &model.Story{ID: id, Prompt: PromptFor(now), Segments: segments}, nil
}

// AddSegment 顺序号为最后一句加一，并发冲突时返回 ErrStoryRace
func (s *StoryService) AddSegment(ctx context.Context, userID, content string) (*model.StorySegment, error) {
	content, err := checkLength("sentence", content, 1, StorySegmentMaxLen)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	id := StoryID(now)
	segments, err := s.repo.ListSegments(ctx, id)
	if err != nil {
		return nil, storeError(err, "story")
	}
	if !CanAddSegment(segments, userID) {
		return nil, errors.New(errors.ErrStoryTurn, errors.MsgStoryTurn)
	}

	order := 1
	if n := len(segments); n > 0 {
		order = segments[n-1].Order + 1
	}
	segment := &model.StorySegment{StoryID: id, Order: order, UserID: userID, Content: content, CreatedAt: now}
	if err := s.repo.CreateSegment(ctx, segment); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			util.Logger.Info("故事接龙冲突", zap.String("story_id", id), zap.Int("order", order))
			return nil, errors.Wrap(errors.ErrStoryRace, errors.MsgStoryRace, err)
		}
		return nil, storeError(err, "segment")
	}
	realtime.Emit(s.feed, model.CollectionStory, model.EventInsert, segment.ID, id, segment)
	return segment, nil
}

// StoryServiceInterface 每日故事接口
type StoryServiceInterface interface {
	Today(ctx context.Context) (*model.Story, error)
	AddSegment(ctx context.Context, userID, content string) (*model.StorySegment, error)
}

var _ StoryServiceInterface = (*StoryService)(nil)
