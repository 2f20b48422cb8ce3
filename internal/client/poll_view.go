package client

import (
	"context"
	"sync"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/reconcile"
	"ankahee-backend/internal/service"
)

// PollAPI 投票
type PollAPI interface {
	Vote(ctx context.Context, pollID string, option int) (*model.PollVote, error)
}

// PollView 二选一投票，每个用户一票
type PollView struct {
	attachment

	poll    model.Poll
	viewer  string
	api     PollAPI
	mutator *reconcile.Mutator
	votes   *reconcile.List[*model.PollVote]

	mu      sync.Mutex
	pending bool
}

func NewPollView(viewer string, poll *model.PollDetails, api PollAPI, notifier reconcile.Notifier) *PollView {
	return &PollView{
		poll:    poll.Poll,
		viewer:  viewer,
		api:     api,
		mutator: reconcile.NewMutator(notifier),
		votes: reconcile.NewList(reconcile.Rules[*model.PollVote]{
			Key: func(v *model.PollVote) string { return v.ID },
		}, poll.Votes),
	}
}

// Tally 按用户去重后的票数
func (v *PollView) Tally() model.PollTally {
	seen := make(map[string]bool)
	var votes []*model.PollVote
	for _, vote := range v.votes.Items() {
		if !seen[vote.UserID] {
			seen[vote.UserID] = true
			votes = append(votes, vote)
		}
	}
	return model.TallyVotes(votes)
}

func (v *PollView) HasVoted() bool {
	for _, vote := range v.votes.Items() {
		if vote.UserID == v.viewer {
			return true
		}
	}
	return false
}

// CanVote 投票进行中或已投过时禁用
func (v *PollView) CanVote() bool {
	v.mu.Lock()
	pending := v.pending
	v.mu.Unlock()
	return !pending && !v.HasVoted()
}

func (v *PollView) setPending(p bool) {
	v.mu.Lock()
	v.pending = p
	v.mu.Unlock()
}

func (v *PollView) Attach(ctx context.Context, feed realtime.Feed) error {
	return v.attach(ctx, feed, route{
		topic: realtime.Topic{Collection: model.CollectionPollVotes, ParentKey: v.poll.ID},
		apply: func(raw model.ChangeEvent) {
			if ev, ok := decode[*model.PollVote](raw); ok {
				v.votes.Apply(ev)
			}
		},
	})
}

// Vote 本地补丁只是禁用投票，失败时重新启用
func (v *PollView) Vote(ctx context.Context, option int) reconcile.Result[*model.PollVote] {
	if option != 1 && option != 2 {
		return reconcile.Result[*model.PollVote]{Err: errors.New(errors.ErrValidation, "option must be 1 or 2")}
	}
	if !v.CanVote() {
		return reconcile.Result[*model.PollVote]{Err: errors.New(errors.ErrAlreadyVoted, errors.MsgAlreadyVoted)}
	}

	patch := reconcile.Patch{
		Apply:   func() { v.setPending(true) },
		Inverse: func() { v.setPending(false) },
	}
	res := reconcile.Perform(ctx, v.mutator, patch, func(ctx context.Context) (*model.PollVote, error) {
		return v.api.Vote(ctx, v.poll.ID, option)
	})
	if res.OK() {
		if res.Value != nil {
			v.votes.Insert(res.Value)
		}
		v.setPending(false)
	}
	return res
}

// VoidAPI 回答虚空问题
type VoidAPI interface {
	AnswerVoid(ctx context.Context, postID, word string) (*model.VoidAnswer, error)
}

// VoidView 虚空问题的词云
type VoidView struct {
	attachment

	postID  string
	viewer  string
	api     VoidAPI
	mutator *reconcile.Mutator
	answers *reconcile.List[*model.VoidAnswer]

	mu       sync.Mutex
	answered bool
}

// NewVoidView answered 为服务端返回的当前用户是否已回答
func NewVoidView(viewer, postID string, answers []*model.VoidAnswer, answered bool, api VoidAPI, notifier reconcile.Notifier) *VoidView {
	return &VoidView{
		postID:   postID,
		viewer:   viewer,
		api:      api,
		mutator:  reconcile.NewMutator(notifier),
		answered: answered,
		answers: reconcile.NewList(reconcile.Rules[*model.VoidAnswer]{
			Key: func(a *model.VoidAnswer) string { return a.ID },
		}, answers),
	}
}

// Words 词频，降序
func (v *VoidView) Words() []model.WordCount {
	items := v.answers.Items()
	words := make([]string, 0, len(items))
	for _, a := range items {
		words = append(words, a.Word)
	}
	return service.WordFrequencies(words, service.VoidTopWords)
}

func (v *VoidView) Answered() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.answered
}

func (v *VoidView) setAnswered(a bool) {
	v.mu.Lock()
	v.answered = a
	v.mu.Unlock()
}

func (v *VoidView) Attach(ctx context.Context, feed realtime.Feed) error {
	return v.attach(ctx, feed, route{
		topic: realtime.Topic{Collection: model.CollectionVoidAnswers, ParentKey: v.postID},
		apply: func(raw model.ChangeEvent) {
			ev, ok := decode[*model.VoidAnswer](raw)
			if !ok {
				return
			}
			v.answers.Apply(ev)
			if ev.Record != nil && ev.Record.UserID == v.viewer {
				v.setAnswered(true)
			}
		},
	})
}

// Answer 单词先在本地规范化，非法输入不发请求
func (v *VoidView) Answer(ctx context.Context, word string) reconcile.Result[*model.VoidAnswer] {
	word, err := service.NormalizeWord(word)
	if err != nil {
		return reconcile.Result[*model.VoidAnswer]{Err: err}
	}
	if v.Answered() {
		return reconcile.Result[*model.VoidAnswer]{Err: errors.New(errors.ErrAlreadyAnswered, errors.MsgAlreadyAnswered)}
	}

	patch := reconcile.Patch{
		Apply:   func() { v.setAnswered(true) },
		Inverse: func() { v.setAnswered(false) },
	}
	res := reconcile.Perform(ctx, v.mutator, patch, func(ctx context.Context) (*model.VoidAnswer, error) {
		return v.api.AnswerVoid(ctx, v.postID, word)
	})
	if res.OK() && res.Value != nil {
		v.answers.Insert(res.Value)
	}
	return res
}
