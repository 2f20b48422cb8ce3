package interfaces

import (
	"context"
	"time"

	"ankahee-backend/internal/model"
)

// ConfessionRepository 定义了告白、评论、反应、投票、虚空回答和收藏的数据库操作
// 所有 now 参数用于过期过滤：只返回 expires_at > now 的帖子
type ConfessionRepository interface {
	CreatePost(ctx context.Context, post *model.Post, poll *model.Poll) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	GetPostDetails(ctx context.Context, id, viewer string, now time.Time) (*model.PostDetails, error)
	ListPosts(ctx context.Context, filter model.PostFilter, now time.Time) ([]*model.PostDetails, error)
	ListArchived(ctx context.Context, userID string, now time.Time) ([]*model.Post, error)
	ListAliveContents(ctx context.Context, now time.Time) ([]string, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*model.Comment, error)
	UpdateComment(ctx context.Context, comment *model.Comment) error
	DeleteComment(ctx context.Context, id string) error

	UpsertReaction(ctx context.Context, reaction *model.Reaction) error
	GetReaction(ctx context.Context, postID, userID string) (*model.Reaction, error)
	DeleteReaction(ctx context.Context, postID, userID string) error

	GetPoll(ctx context.Context, id string) (*model.Poll, error)
	CreateVote(ctx context.Context, vote *model.PollVote) error

	CreateVoidAnswer(ctx context.Context, answer *model.VoidAnswer) error
	ListVoidAnswers(ctx context.Context, postID string) ([]*model.VoidAnswer, error)

	CreateBookmark(ctx context.Context, bookmark *model.Bookmark) error
	DeleteBookmark(ctx context.Context, postID, userID string) error
	ListBookmarked(ctx context.Context, userID string, now time.Time) ([]*model.PostDetails, error)
}
