package client

import (
	"context"
	"sync"

	"ankahee-backend/internal/expiry"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/reconcile"
)

// FeedAPI 信息流上的乐观操作
type FeedAPI interface {
	SetReaction(ctx context.Context, postID string, kind model.ReactionKind) (*model.Reaction, error)
	RemoveReaction(ctx context.Context, postID string) error
	Bookmark(ctx context.Context, postID string) error
	RemoveBookmark(ctx context.Context, postID string) error
}

// FeedView 告白信息流，评论数、反应和收藏由各自的变更事件推导
type FeedView struct {
	attachment

	viewer  string
	mood    *model.MoodTag
	clock   expiry.Clock
	api     FeedAPI
	mutator *reconcile.Mutator
	posts   *reconcile.List[*model.PostDetails]

	mu sync.Mutex
	// counted 已计入评论数的评论，deleted 已扣减的评论，保证重复投递幂等
	counted map[string]string
	deleted map[string]bool
	// reactSeq 每个帖子最近一次 React 的序号，confirmed 服务端已确认的自己的反应
	// 只有最近一次调用失败时才回滚到 confirmed，较早调用的失败不覆盖之后的结果
	reactSeq  map[string]uint64
	confirmed map[string]*model.Reaction
}

// NewFeedView mood 为 nil 时显示全部情绪
func NewFeedView(viewer string, mood *model.MoodTag, snapshot []*model.PostDetails, api FeedAPI, notifier reconcile.Notifier, clock expiry.Clock) *FeedView {
	v := &FeedView{
		viewer:    viewer,
		mood:      mood,
		clock:     clock,
		api:       api,
		mutator:   reconcile.NewMutator(notifier),
		counted:   make(map[string]string),
		deleted:   make(map[string]bool),
		reactSeq:  make(map[string]uint64),
		confirmed: make(map[string]*model.Reaction),
	}
	v.posts = reconcile.NewList(reconcile.Rules[*model.PostDetails]{
		Key:     func(p *model.PostDetails) string { return p.ID },
		Prepend: true,
		Accept:  v.visible,
		Merge: func(cur, in *model.PostDetails) *model.PostDetails {
			next := *cur
			next.Content = in.Content
			next.Mood = in.Mood
			next.UpdatedAt = in.UpdatedAt
			return &next
		},
	}, snapshot)
	return v
}

func (v *FeedView) visible(p *model.PostDetails) bool {
	if !expiry.IsAlive(p.ExpiresAt, v.clock.Now()) {
		return false
	}
	return v.mood == nil || (p.Mood != nil && *p.Mood == *v.mood)
}

// Posts 当前可见的帖子，已过期的不返回
func (v *FeedView) Posts() []*model.PostDetails {
	now := v.clock.Now()
	all := v.posts.Items()
	out := all[:0]
	for _, p := range all {
		if expiry.IsAlive(p.ExpiresAt, now) {
			out = append(out, p)
		}
	}
	return out
}

// Post 按ID查找
func (v *FeedView) Post(id string) (*model.PostDetails, bool) {
	return v.posts.Get(id)
}

// Attach 订阅帖子、评论、反应、投票和自己的收藏
func (v *FeedView) Attach(ctx context.Context, feed realtime.Feed) error {
	return v.attach(ctx, feed,
		route{realtime.Topic{Collection: model.CollectionPosts}, v.applyPost},
		route{realtime.Topic{Collection: model.CollectionComments}, v.applyComment},
		route{realtime.Topic{Collection: model.CollectionReactions}, v.applyReaction},
		route{realtime.Topic{Collection: model.CollectionPollVotes}, v.applyVote},
		route{realtime.Topic{Collection: model.CollectionBookmarks, ParentKey: v.viewer}, v.applyBookmark},
	)
}

func (v *FeedView) applyPost(raw model.ChangeEvent) {
	switch raw.Type {
	case model.EventInsert:
		if ev, ok := decode[*model.PostDetails](raw); ok {
			v.posts.Apply(ev)
		}
	case model.EventUpdate:
		// 更新事件只携带帖子本身，聚合字段保留本地值
		ev, ok := decode[*model.Post](raw)
		if !ok || ev.Record == nil {
			return
		}
		v.posts.Apply(reconcile.Update(raw.Key, &model.PostDetails{Post: *ev.Record}))
	case model.EventDelete:
		v.posts.Apply(reconcile.Delete[*model.PostDetails](raw.Key))
	}
}

// applyComment 评论插入加一，删除减一且不小于 0
func (v *FeedView) applyComment(raw model.ChangeEvent) {
	postID := raw.ParentKey
	if postID == "" || !v.posts.Has(postID) {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	delta := 0
	switch raw.Type {
	case model.EventInsert:
		if _, seen := v.counted[raw.Key]; seen || v.deleted[raw.Key] {
			return
		}
		v.counted[raw.Key] = postID
		delta = 1
	case model.EventDelete:
		if v.deleted[raw.Key] {
			return
		}
		v.deleted[raw.Key] = true
		delete(v.counted, raw.Key)
		delta = -1
	default:
		return
	}

	v.posts.Modify(postID, func(p *model.PostDetails) *model.PostDetails {
		next := *p
		next.CommentCount += delta
		if next.CommentCount < 0 {
			next.CommentCount = 0
		}
		return &next
	})
}

// withReaction 去掉该用户在帖子上的所有反应，再加上新的（如有）
func withReaction(p *model.PostDetails, userID string, r *model.Reaction) *model.PostDetails {
	next := *p
	next.Reactions = make([]*model.Reaction, 0, len(p.Reactions)+1)
	for _, existing := range p.Reactions {
		if existing.UserID != userID {
			next.Reactions = append(next.Reactions, existing)
		}
	}
	if r != nil {
		next.Reactions = append(next.Reactions, r)
	}
	return &next
}

func (v *FeedView) applyReaction(raw model.ChangeEvent) {
	ev, ok := decode[*model.Reaction](raw)
	if !ok || ev.Record == nil {
		return
	}
	r := ev.Record
	if raw.Type == model.EventDelete {
		r = nil
	}
	if ev.Record.UserID == v.viewer {
		v.confirm(ev.Record.PostID, r)
	}
	v.posts.Modify(ev.Record.PostID, func(p *model.PostDetails) *model.PostDetails {
		return withReaction(p, ev.Record.UserID, r)
	})
}

func (v *FeedView) applyVote(raw model.ChangeEvent) {
	if raw.Type != model.EventInsert {
		return
	}
	ev, ok := decode[*model.PollVote](raw)
	if !ok || ev.Record == nil {
		return
	}
	vote := ev.Record
	for _, p := range v.posts.Items() {
		if p.Poll == nil || p.Poll.ID != vote.PollID {
			continue
		}
		v.posts.Modify(p.ID, func(p *model.PostDetails) *model.PostDetails {
			for _, existing := range p.Poll.Votes {
				if existing.ID == vote.ID || existing.UserID == vote.UserID {
					return p
				}
			}
			next := *p
			poll := *p.Poll
			poll.Votes = append(append([]*model.PollVote(nil), p.Poll.Votes...), vote)
			next.Poll = &poll
			return &next
		})
		return
	}
}

func (v *FeedView) applyBookmark(raw model.ChangeEvent) {
	if raw.ParentKey != v.viewer {
		return
	}
	v.setBookmarked(raw.Key, raw.Type != model.EventDelete)
}

func (v *FeedView) setBookmarked(postID string, on bool) {
	v.posts.Modify(postID, func(p *model.PostDetails) *model.PostDetails {
		next := *p
		next.IsBookmarked = on
		return &next
	})
}

// MyReaction 当前用户在帖子上的反应
func (v *FeedView) MyReaction(postID string) *model.Reaction {
	p, ok := v.posts.Get(postID)
	if !ok {
		return nil
	}
	for _, r := range p.Reactions {
		if r.UserID == v.viewer {
			return r
		}
	}
	return nil
}

func (v *FeedView) confirm(postID string, r *model.Reaction) {
	v.mu.Lock()
	v.confirmed[postID] = r
	v.mu.Unlock()
}

// React 选择已选中的反应即取消，否则替换
func (v *FeedView) React(ctx context.Context, postID string, kind model.ReactionKind) reconcile.Result[*model.Reaction] {
	if _, ok := v.posts.Get(postID); !ok {
		return reconcile.Result[*model.Reaction]{Err: notInView(postID)}
	}

	current := v.MyReaction(postID)
	var next *model.Reaction
	if current == nil || current.Kind != kind {
		next = &model.Reaction{PostID: postID, UserID: v.viewer, Kind: kind, CreatedAt: v.clock.Now()}
	}

	v.mu.Lock()
	v.reactSeq[postID]++
	seq := v.reactSeq[postID]
	if _, ok := v.confirmed[postID]; !ok {
		v.confirmed[postID] = current
	}
	v.mu.Unlock()

	patch := reconcile.Patch{
		Apply: func() {
			v.posts.Modify(postID, func(p *model.PostDetails) *model.PostDetails {
				return withReaction(p, v.viewer, next)
			})
		},
		Inverse: func() {
			v.mu.Lock()
			latest := v.reactSeq[postID] == seq
			base := v.confirmed[postID]
			v.mu.Unlock()
			if !latest {
				return
			}
			v.posts.Modify(postID, func(p *model.PostDetails) *model.PostDetails {
				return withReaction(p, v.viewer, base)
			})
		},
	}

	return reconcile.Perform(ctx, v.mutator, patch, func(ctx context.Context) (*model.Reaction, error) {
		if next == nil {
			if err := v.api.RemoveReaction(ctx, postID); err != nil {
				return nil, err
			}
			v.confirm(postID, nil)
			return nil, nil
		}
		r, err := v.api.SetReaction(ctx, postID, kind)
		if err != nil {
			return nil, err
		}
		v.confirm(postID, next)
		return r, nil
	})
}

// ToggleBookmark 乐观切换收藏
func (v *FeedView) ToggleBookmark(ctx context.Context, postID string) reconcile.Result[bool] {
	p, ok := v.posts.Get(postID)
	if !ok {
		return reconcile.Result[bool]{Err: notInView(postID)}
	}
	on := !p.IsBookmarked

	patch := reconcile.Patch{
		Apply:   func() { v.setBookmarked(postID, on) },
		Inverse: func() { v.setBookmarked(postID, !on) },
	}
	return reconcile.Perform(ctx, v.mutator, patch, func(ctx context.Context) (bool, error) {
		if on {
			return true, v.api.Bookmark(ctx, postID)
		}
		return false, v.api.RemoveBookmark(ctx, postID)
	})
}

// Remaining 帖子剩余时间标签
func (v *FeedView) Remaining(postID string) string {
	p, ok := v.posts.Get(postID)
	if !ok {
		return "Expired"
	}
	return expiry.Remaining(p.ExpiresAt, v.clock.Now())
}

// Editable 编辑按钮是否可见，最终以服务端校验为准
func (v *FeedView) Editable(postID string) bool {
	p, ok := v.posts.Get(postID)
	return ok && p.UserID == v.viewer && expiry.IsEditable(p.CreatedAt, v.clock.Now())
}
