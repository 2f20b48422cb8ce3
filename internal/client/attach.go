package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/model"
	"ankahee-backend/internal/realtime"
	"ankahee-backend/internal/reconcile"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
)

// route 一个订阅主题及其处理函数
type route struct {
	topic realtime.Topic
	apply func(model.ChangeEvent)
}

// attachment 视图持有的订阅，ctx 结束时全部释放
type attachment struct {
	wg sync.WaitGroup
}

// attach 任何一个订阅失败时关闭已打开的订阅并返回错误
// 每个订阅一个 goroutine，同一集合内按投递顺序处理
func (a *attachment) attach(ctx context.Context, feed realtime.Feed, routes ...route) error {
	ctx, cancel := context.WithCancel(ctx)
	subs := make([]*realtime.Subscription, 0, len(routes))
	for _, r := range routes {
		sub, err := feed.Subscribe(ctx, r.topic)
		if err != nil {
			cancel()
			for _, s := range subs {
				s.Close()
			}
			return err
		}
		subs = append(subs, sub)
	}

	var pending sync.WaitGroup
	for i, sub := range subs {
		apply := routes[i].apply
		a.wg.Add(1)
		pending.Add(1)
		go func(sub *realtime.Subscription) {
			defer a.wg.Done()
			defer pending.Done()
			for ev := range sub.C {
				apply(ev)
			}
		}(sub)
	}
	// 所有订阅结束后释放派生的 ctx
	go func() {
		pending.Wait()
		cancel()
	}()
	return nil
}

// Wait 阻塞到所有订阅释放
func (a *attachment) Wait() {
	a.wg.Wait()
}

// decode 把变更事件转换为类型化事件，无法解析的事件丢弃
func decode[T any](ev model.ChangeEvent) (reconcile.Event[T], bool) {
	out := reconcile.Event[T]{Type: ev.Type, Key: ev.Key}
	if len(ev.Record) == 0 {
		return out, ev.Type == model.EventDelete
	}
	if err := ev.Decode(&out.Record); err != nil {
		util.Logger.Warn("无法解析变更事件",
			zap.String("collection", ev.Collection),
			zap.String("key", ev.Key),
			zap.Error(err))
		return out, false
	}
	return out, true
}

func notInView(id string) error {
	return errors.New(errors.ErrResourceNotFound, "this item is no longer available")
}

// checkText 客户端校验，不合法的输入不会发到服务端
func checkText(field, value string, min, max int) (string, error) {
	value = strings.TrimSpace(value)
	if n := utf8.RuneCountInString(value); n < min || n > max {
		return "", errors.New(errors.ErrValidation, fmt.Sprintf("%s must be %d to %d characters", field, min, max))
	}
	return value, nil
}
