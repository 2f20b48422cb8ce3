package mysql

import (
	"context"
	"database/sql"

	"ankahee-backend/internal/model"
	"ankahee-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db}
}

// Create 创建一个新用户，邮箱重复时返回 ErrDuplicate
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, email, password_hash, is_verified, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.IsVerified,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		util.Logger.Error("创建用户失败", zap.Error(err))
		return mapError(err)
	}
	util.Logger.Info("用户创建成功", zap.String("user_id", user.ID))
	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT id, email, password_hash, is_verified, created_at, updated_at
              FROM users WHERE ` + where + ` AND deleted_at IS NULL`
	var user model.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// FindByID 通过ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_verified = TRUE WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("更新用户验证状态失败", zap.Error(err), zap.String("user_id", id))
		return err
	}
	return checkAffected(result)
}

// Delete 在一个事务中删除用户的反应、评论、帖子和用户本身
// 删除前读出这些内容的主键，调用方据此发布删除事件
func (r *userRepository) Delete(ctx context.Context, id string) (*model.DeletedContent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	deleted, err := collectOwnedContent(ctx, tx, id)
	if err != nil {
		util.Logger.Error("读取账户内容失败", zap.Error(err), zap.String("user_id", id))
		return nil, err
	}

	for _, query := range []string{
		`DELETE FROM reactions WHERE user_id = ?`,
		`DELETE FROM comments WHERE user_id = ?`,
		`DELETE FROM posts WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			util.Logger.Error("删除账户失败", zap.Error(err), zap.String("user_id", id))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}
	util.Logger.Info("账户已删除",
		zap.String("user_id", id),
		zap.Int("posts", len(deleted.Posts)),
		zap.Int("comments", len(deleted.Comments)),
		zap.Int("reactions", len(deleted.Reactions)))
	return deleted, nil
}

func collectOwnedContent(ctx context.Context, tx *sql.Tx, userID string) (*model.DeletedContent, error) {
	deleted := &model.DeletedContent{}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM posts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		p := &model.Post{UserID: userID}
		if err := rows.Scan(&p.ID); err != nil {
			rows.Close()
			return nil, err
		}
		deleted.Posts = append(deleted.Posts, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT id, post_id FROM comments WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		c := &model.Comment{UserID: userID}
		if err := rows.Scan(&c.ID, &c.PostID); err != nil {
			rows.Close()
			return nil, err
		}
		deleted.Comments = append(deleted.Comments, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT post_id, reaction FROM reactions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		re := &model.Reaction{UserID: userID}
		if err := rows.Scan(&re.PostID, &re.Kind); err != nil {
			return nil, err
		}
		deleted.Reactions = append(deleted.Reactions, re)
	}
	return deleted, rows.Err()
}
