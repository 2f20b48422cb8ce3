package service

import (
	"context"

	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/repository/interfaces"
)

const (
	LetterMinLength = 20
	LetterMaxLength = 5000
)

type LetterService struct {
	repo  interfaces.LetterRepository
	feed  realtime.Publisher
	clock expiry.Clock
}

func NewLetterService(repo interfaces.LetterRepository, feed realtime.Publisher, clock expiry.Clock) *LetterService {
	return &LetterService{repo: repo, feed: feed, clock: clock}
}

// Write 保存一封信，72小时后过期
func (s *LetterService) Write(ctx context.Context, userID, content string) (*model.Letter, error) {
	content, err := checkLength("letter", content, LetterMinLength, LetterMaxLength)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	letter := &model.Letter{
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		ExpiresAt: expiry.ForKind(expiry.KindLetter).ExpiresAt(now),
	}
	if err := s.repo.CreateLetter(ctx, letter); err != nil {
		return nil, storeError(err, "letter")
	}
	realtime.Emit(s.feed, model.CollectionLetters, model.EventInsert, letter.ID, "", letter)
	return letter, nil
}

func (s *LetterService) List(ctx context.Context) ([]*model.Letter, error) {
	letters, err := s.repo.ListLetters(ctx, s.clock.Now())
	return letters, storeError(err, "letters")
}

// LetterServiceInterface 信件接口
type LetterServiceInterface interface {
	Write(ctx context.Context, userID, content string) (*model.Letter, error)
	List(ctx context.Context) ([]*model.Letter, error)
}

var _ LetterServiceInterface = (*LetterService)(nil)
