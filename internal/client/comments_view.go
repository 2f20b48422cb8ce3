package client

import (
	"context"

	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/reconcile"
	"ankahee-backend/internal/service"

	"github.com/google/uuid"
)

// CommentsAPI 提交评论
type CommentsAPI interface {
	CreateComment(ctx context.Context, postID, id, content string) (*model.Comment, error)
}

// CommentsView 单个帖子的评论，按时间顺序追加
type CommentsView struct {
	attachment

	postID  string
	viewer  string
	clock   expiry.Clock
	api     CommentsAPI
	mutator *reconcile.Mutator
	list    *reconcile.List[*model.Comment]
}

func NewCommentsView(postID, viewer string, snapshot []*model.Comment, api CommentsAPI, notifier reconcile.Notifier, clock expiry.Clock) *CommentsView {
	return &CommentsView{
		postID:  postID,
		viewer:  viewer,
		clock:   clock,
		api:     api,
		mutator: reconcile.NewMutator(notifier),
		list: reconcile.NewList(reconcile.Rules[*model.Comment]{
			Key: func(c *model.Comment) string { return c.ID },
		}, snapshot),
	}
}

func (v *CommentsView) Comments() []*model.Comment {
	return v.list.Items()
}

// Attach 只订阅本帖的评论
func (v *CommentsView) Attach(ctx context.Context, feed realtime.Feed) error {
	return v.attach(ctx, feed, route{
		topic: realtime.Topic{Collection: model.CollectionComments, ParentKey: v.postID},
		apply: func(raw model.ChangeEvent) {
			if ev, ok := decode[*model.Comment](raw); ok {
				v.list.Apply(ev)
			}
		},
	})
}

// Submit 用临时ID乐观插入，服务端沿用该ID，插入事件到达时按ID去重
func (v *CommentsView) Submit(ctx context.Context, content string) reconcile.Result[*model.Comment] {
	content, err := checkText("comment", content, 1, service.CommentMaxLength)
	if err != nil {
		return reconcile.Result[*model.Comment]{Err: err}
	}

	now := v.clock.Now()
	temp := &model.Comment{
		ID:        uuid.NewString(),
		PostID:    v.postID,
		UserID:    v.viewer,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	patch := reconcile.Patch{
		Apply:   func() { v.list.Insert(temp) },
		Inverse: func() { v.list.Remove(temp.ID) },
	}

	res := reconcile.Perform(ctx, v.mutator, patch, func(ctx context.Context) (*model.Comment, error) {
		return v.api.CreateComment(ctx, v.postID, temp.ID, content)
	})
	if res.OK() && res.Value != nil {
		v.list.Put(res.Value)
	}
	return res
}
