// Package reconcile 把变更流中的事件合并到内存列表中，避免整表重新拉取
package reconcile

import (
	"sort"
	"sync"

	"ankahee-backend/internal/model"
)

// Event 一条已解码的变更事件
type Event[T any] struct {
	Type   model.EventType
	Key    string
	Record T
}

// Insert 构造插入事件
func Insert[T any](key string, rec T) Event[T] {
	return Event[T]{Type: model.EventInsert, Key: key, Record: rec}
}

// Update 构造更新事件
func Update[T any](key string, rec T) Event[T] {
	return Event[T]{Type: model.EventUpdate, Key: key, Record: rec}
}

// Delete 构造删除事件
func Delete[T any](key string) Event[T] {
	return Event[T]{Type: model.EventDelete, Key: key}
}

// Rules 每种实体的合并规则
type Rules[T any] struct {
	// Key 返回记录的稳定主键
	Key func(T) string
	// Merge 处理 Update 事件，nil 时整体替换
	Merge func(current, incoming T) T
	// Less 非 nil 时列表按其保持有序
	Less func(a, b T) bool
	// Prepend 新记录插入到最前面
	Prepend bool
	// Accept 非 nil 时拒绝当前视图不可见的记录
	Accept func(T) bool
}

// List 按主键去重的有序实体列表，可并发使用
type List[T any] struct {
	mu    sync.RWMutex
	rules Rules[T]
	items []T
}

// NewList 用初始快照创建列表
func NewList[T any](rules Rules[T], initial []T) *List[T] {
	l := &List[T]{rules: rules}
	l.Reset(initial)
	return l
}

// Reset 用新的快照替换全部内容
func (l *List[T]) Reset(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = l.items[:0]
	for _, item := range items {
		if l.accepts(item) && l.indexOf(l.rules.Key(item)) < 0 {
			l.items = append(l.items, item)
		}
	}
	if l.rules.Less != nil {
		sort.SliceStable(l.items, func(i, j int) bool {
			return l.rules.Less(l.items[i], l.items[j])
		})
	}
}

// Apply 应用一条事件，返回状态是否发生变化
// 重复的 Insert 和不存在记录的 Delete 都是空操作
func (l *List[T]) Apply(ev Event[T]) bool {
	switch ev.Type {
	case model.EventInsert:
		return l.Insert(ev.Record)
	case model.EventUpdate:
		key := ev.Key
		if key == "" {
			key = l.rules.Key(ev.Record)
		}
		return l.replace(key, ev.Record)
	case model.EventDelete:
		_, ok := l.Remove(ev.Key)
		return ok
	}
	return false
}

// Insert 追加记录，主键已存在时忽略
func (l *List[T]) Insert(rec T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.accepts(rec) || l.indexOf(l.rules.Key(rec)) >= 0 {
		return false
	}
	l.insertLocked(rec)
	return true
}

// Put 插入或整体替换记录，用于乐观补丁及其回滚
func (l *List[T]) Put(rec T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexOf(l.rules.Key(rec)); i >= 0 {
		l.items[i] = rec
		return
	}
	l.insertLocked(rec)
}

func (l *List[T]) insertLocked(rec T) {
	switch {
	case l.rules.Less != nil:
		i := len(l.items)
		for i > 0 && l.rules.Less(rec, l.items[i-1]) {
			i--
		}
		l.items = append(l.items, rec)
		copy(l.items[i+1:], l.items[i:])
		l.items[i] = rec
	case l.rules.Prepend:
		l.items = append([]T{rec}, l.items...)
	default:
		l.items = append(l.items, rec)
	}
}

func (l *List[T]) replace(key string, rec T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(key)
	if i < 0 {
		return false
	}
	if l.rules.Merge != nil {
		rec = l.rules.Merge(l.items[i], rec)
	}
	if !l.accepts(rec) {
		l.items = append(l.items[:i], l.items[i+1:]...)
		return true
	}
	l.items[i] = rec
	return true
}

// Remove 按主键删除，返回被删除的记录
func (l *List[T]) Remove(key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	i := l.indexOf(key)
	if i < 0 {
		return zero, false
	}
	removed := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return removed, true
}

// Modify 原地修改一条记录，用于派生聚合字段
func (l *List[T]) Modify(key string, fn func(T) T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(key)
	if i < 0 {
		return false
	}
	l.items[i] = fn(l.items[i])
	return true
}

// Get 按主键查找
func (l *List[T]) Get(key string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var zero T
	if i := l.indexOf(key); i >= 0 {
		return l.items[i], true
	}
	return zero, false
}

// Has 判断主键是否存在
func (l *List[T]) Has(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// Items 返回当前列表的副本
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len 列表长度
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Last 返回最后一条记录
func (l *List[T]) Last() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	return l.items[len(l.items)-1], true
}

func (l *List[T]) accepts(rec T) bool {
	return l.rules.Accept == nil || l.rules.Accept(rec)
}

func (l *List[T]) indexOf(key string) int {
	for i := range l.items {
		if l.rules.Key(l.items[i]) == key {
			return i
		}
	}
	return -1
}
