package reconcile

import (
	"context"
	"sync"

	apperrors "ankahee-backend/internal/errors"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
)

// Patch 一次本地的推测性修改及其逆操作
type Patch struct {
	Apply   func()
	Inverse func()
}

// NoPatch 不需要本地修改的远程调用
var NoPatch = Patch{}

// Combine 把多个补丁合并成一个，逆操作按相反顺序执行
func Combine(patches ...Patch) Patch {
	return Patch{
		Apply: func() {
			for _, p := range patches {
				if p.Apply != nil {
					p.Apply()
				}
			}
		},
		Inverse: func() {
			for i := len(patches) - 1; i >= 0; i-- {
				if patches[i].Inverse != nil {
					patches[i].Inverse()
				}
			}
		},
	}
}

// Result 乐观修改的结果
type Result[T any] struct {
	Value T
	Err   error
}

// OK 远程调用是否成功
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Message 失败时展示给用户的文案
func (r Result[T]) Message() string {
	if r.Err == nil {
		return ""
	}
	return apperrors.UserMessage(r.Err)
}

// Notice 瞬时通知（toast）
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier 向用户展示通知
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc 函数适配器
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Mutator 执行乐观修改：先本地应用补丁，远程失败时回滚并通知用户
type Mutator struct {
	notifier Notifier
	// 同一个视图的补丁和回滚互斥执行
	mu sync.Mutex
}

// NewMutator 创建 Mutator，notifier 可以为 nil
func NewMutator(notifier Notifier) *Mutator {
	return &Mutator{notifier: notifier}
}

// Perform 同步应用补丁，执行远程调用，失败时应用逆补丁
// 成功后变更流送达的事件按主键幂等合并，不会重复
func Perform[T any](ctx context.Context, m *Mutator, patch Patch, remote func(context.Context) (T, error)) Result[T] {
	if patch.Apply != nil {
		m.mu.Lock()
		patch.Apply()
		m.mu.Unlock()
	}

	value, err := remote(ctx)
	if err == nil {
		return Result[T]{Value: value}
	}

	if patch.Inverse != nil {
		m.mu.Lock()
		patch.Inverse()
		m.mu.Unlock()
	}

	util.Logger.Warn("乐观修改失败，已回滚",
		zap.Int("error_code", int(apperrors.CodeOf(err))),
		zap.Error(err))

	if m.notifier != nil {
		m.notifier.Notify(Notice{
			Title:       "Error",
			Description: apperrors.UserMessage(err),
			Destructive: true,
		})
	}
	return Result[T]{Value: value, Err: err}
}
