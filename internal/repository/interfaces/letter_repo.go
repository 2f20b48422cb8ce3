package interfaces

import (
	"context"
	"time"

	"ankahee-backend/internal/model"
)

// LetterRepository 未寄出的信
type LetterRepository interface {
	CreateLetter(ctx context.Context, letter *model.Letter) error
	ListLetters(ctx context.Context, now time.Time) ([]*model.Letter, error)
}
