package interfaces

import (
	"context"

	"ankahee-backend/internal/model"
)

// UserRepository 接口定义了用户仓库应该实现的方法
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	MarkVerified(ctx context.Context, id string) error
	// Delete 删除用户及其反应、评论和帖子，返回被删除的内容
	Delete(ctx context.Context, id string) (*model.DeletedContent, error)
}
