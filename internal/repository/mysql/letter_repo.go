package mysql

import (
	"context"
	"database/sql"
	"time"

	"ankahee-backend/internal/model"
	"ankahee-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type letterRepository struct {
	db *sql.DB
}

func NewLetterRepository(db *sql.DB) *letterRepository {
	return &letterRepository{db: db}
}

func (r *letterRepository) CreateLetter(ctx context.Context, letter *model.Letter) error {
	if letter.ID == "" {
		letter.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO letters (id, user_id, content, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		letter.ID, letter.UserID, letter.Content, letter.CreatedAt, letter.ExpiresAt)
	if err != nil {
		util.Logger.Error("保存信件失败", zap.Error(err))
		return mapError(err)
	}
	return nil
}

// ListLetters 返回所有未过期的信件
func (r *letterRepository) ListLetters(ctx context.Context, now time.Time) ([]*model.Letter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, content, created_at, expires_at FROM letters WHERE expires_at > ? ORDER BY created_at DESC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	letters := []*model.Letter{}
	for rows.Next() {
		var l model.Letter
		if err := rows.Scan(&l.ID, &l.UserID, &l.Content, &l.CreatedAt, &l.ExpiresAt); err != nil {
			return nil, err
		}
		letters = append(letters, &l)
	}
	return letters, rows.Err()
}
