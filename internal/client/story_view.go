package client

import (
	"context"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/reconcile"
	"ankahee-backend/internal/service"
)

// StoryAPI 追加故事句子
type StoryAPI interface {
	AddSegment(ctx context.Context, content string) (*model.StorySegment, error)
}

// StoryView 当天的故事，按 order 排序
type StoryView struct {
	attachment

	storyID  string
	prompt   string
	viewer   string
	api      StoryAPI
	mutator  *reconcile.Mutator
	segments *reconcile.List[*model.StorySegment]
}

func NewStoryView(viewer string, story *model.Story, api StoryAPI, notifier reconcile.Notifier) *StoryView {
	return &StoryView{
		storyID: story.ID,
		prompt:  story.Prompt,
		viewer:  viewer,
		api:     api,
		mutator: reconcile.NewMutator(notifier),
		segments: reconcile.NewList(reconcile.Rules[*model.StorySegment]{
			Key:  func(s *model.StorySegment) string { return s.ID },
			Less: func(a, b *model.StorySegment) bool { return a.Order < b.Order },
		}, story.Segments),
	}
}

func (v *StoryView) Prompt() string {
	return v.prompt
}

func (v *StoryView) Segments() []*model.StorySegment {
	return v.segments.Items()
}

// CanPost 最后一句不是自己写的才能继续
func (v *StoryView) CanPost() bool {
	return service.CanAddSegment(v.segments.Items(), v.viewer)
}

func (v *StoryView) Attach(ctx context.Context, feed realtime.Feed) error {
	return v.attach(ctx, feed, route{
		topic: realtime.Topic{Collection: model.CollectionStory, ParentKey: v.storyID},
		apply: func(raw model.ChangeEvent) {
			if ev, ok := decode[*model.StorySegment](raw); ok {
				v.segments.Apply(ev)
			}
		},
	})
}

// Add 轮次检查在本地完成，不满足时不发请求
func (v *StoryView) Add(ctx context.Context, content string) reconcile.Result[*model.StorySegment] {
	content, err := checkText("sentence", content, 1, service.StorySegmentMaxLen)
	if err != nil {
		return reconcile.Result[*model.StorySegment]{Err: err}
	}
	if !v.CanPost() {
		return reconcile.Result[*model.StorySegment]{Err: errors.New(errors.ErrStoryTurn, errors.MsgStoryTurn)}
	}

	res := reconcile.Perform(ctx, v.mutator, reconcile.NoPatch, func(ctx context.Context) (*model.StorySegment, error) {
		return v.api.AddSegment(ctx, content)
	})
	if res.OK() && res.Value != nil {
		v.segments.Insert(res.Value)
	}
	return res
}
