// Package realtime 进程内的变更流，服务层在写入提交后发布事件，
// 订阅者按集合和父级主键过滤接收
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ankahee-backend/internal/model"
	"ankahee-backend/internal/util"

	"go.uber.org/zap"
)

// DefaultBuffer 每个订阅的缓冲区大小
const DefaultBuffer = 64

// ErrHubClosed Hub 关闭后不再接受订阅
var ErrHubClosed = errors.New("realtime: hub closed")

// Topic 订阅的集合，ParentKey 为空时接收整个集合
type Topic struct {
	Collection string
	ParentKey  string
}

func (t Topic) matches(ev *model.ChangeEvent) bool {
	return t.Collection == ev.Collection && (t.ParentKey == "" || t.ParentKey == ev.ParentKey)
}

// Feed 变更流的订阅接口，进程内 Hub 和 websocket 客户端都实现它
type Feed interface {
	Subscribe(ctx context.Context, topic Topic) (*Subscription, error)
}

// Publisher 发布已提交的变更
type Publisher interface {
	Publish(ev model.ChangeEvent)
}

// Subscription 一个订阅句柄，由创建它的视图持有
// Close 或 ctx 结束时释放，C 随之关闭
type Subscription struct {
	C <-chan model.ChangeEvent

	topic   Topic
	ch      chan model.ChangeEvent
	mu      sync.Mutex
	closed  bool
	once    sync.Once
	done    chan struct{}
	release func()
	dropped atomic.Int64
}

// NewSubscription 创建订阅，release 在关闭时调用一次
func NewSubscription(ctx context.Context, topic Topic, buffer int, release func()) *Subscription {
	s := newSubscription(topic, buffer)
	s.release = release
	s.watch(ctx)
	return s
}

func newSubscription(topic Topic, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan model.ChangeEvent, buffer)
	return &Subscription{
		C:     ch,
		topic: topic,
		ch:    ch,
		done:  make(chan struct{}),
	}
}

// watch ctx 结束时关闭订阅，必须在 release 设置之后调用
func (s *Subscription) watch(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
}

// Topic 订阅的主题
func (s *Subscription) Topic() Topic {
	return s.topic
}

// Deliver 非阻塞投递，缓冲区满或已关闭时返回 false
func (s *Subscription) Deliver(ev model.ChangeEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Dropped 因缓冲区满被丢弃的事件数
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close 释放订阅，可重复调用
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		close(s.done)
	})
}

// Hub 进程内变更流
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	now    func() time.Time
}

// NewHub 创建 Hub
func NewHub(buffer int) *Hub {
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		now:    time.Now,
	}
}

// Subscribe 打开一个订阅
func (h *Hub) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := newSubscription(topic, h.buffer)
	sub.release = func() { h.remove(sub) }
	if h.subs[topic.Collection] == nil {
		h.subs[topic.Collection] = make(map[*Subscription]struct{})
	}
	h.subs[topic.Collection][sub] = struct{}{}
	// ctx 已结束时 watcher 会等到本次注册完成后再移除
	sub.watch(ctx)

	util.Logger.Debug("打开订阅",
		zap.String("collection", topic.Collection),
		zap.String("parent_key", topic.ParentKey))
	return sub, nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[sub.topic.Collection]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.topic.Collection)
	}
}

// Publish 把事件投递给所有匹配的订阅，慢订阅者会丢事件而不是阻塞写入方
func (h *Hub) Publish(ev model.ChangeEvent) {
	if ev.CommitTime.IsZero() {
		ev.CommitTime = h.now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.Collection] {
		if !sub.topic.matches(&ev) {
			continue
		}
		if !sub.Deliver(ev) {
			util.Logger.Warn("订阅缓冲区已满，丢弃事件",
				zap.String("collection", ev.Collection),
				zap.String("key", ev.Key))
		}
	}
}

// Count 当前打开的订阅数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

// Close 关闭所有订阅
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.Close()
	}
}

// Emit 序列化记录并发布，序列化失败只记录日志
func Emit(p Publisher, collection string, typ model.EventType, key, parentKey string, record interface{}) {
	if p == nil {
		return
	}
	raw, err := json.Marshal(record)
	if err != nil {
		util.Logger.Error("序列化变更事件失败",
			zap.String("collection", collection),
			zap.String("key", key),
			zap.Error(err))
		return
	}
	p.Publish(model.ChangeEvent{
		Collection: collection,
		Type:       typ,
		Key:        key,
		ParentKey:  parentKey,
		Record:     raw,
	})
}
