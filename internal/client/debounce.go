package client

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"ankahee-backend/internal/model"
)

const (
	// SuggestDelay 输入停顿多久后请求情绪建议
	SuggestDelay = time.Second
	// SuggestMinLength 太短的文本不请求建议
	SuggestMinLength = 20
)

// SuggestFunc 请求情绪建议
type SuggestFunc func(ctx context.Context, text string) (*model.MoodTag, error)

// Debouncer 情绪建议的防抖：以最后一次输入为准，过期的结果直接丢弃
type Debouncer struct {
	delay   time.Duration
	suggest SuggestFunc
	deliver func(*model.MoodTag)

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewDebouncer deliver 收到 nil 表示清除建议
func NewDebouncer(delay time.Duration, suggest SuggestFunc, deliver func(*model.MoodTag)) *Debouncer {
	return &Debouncer{delay: delay, suggest: suggest, deliver: deliver}
}

// Input 每次文本变化时调用
func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.seq++
	d.stopLocked()

	short := utf8.RuneCountInString(text) < SuggestMinLength
	if !short {
		seq := d.seq
		d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, text) })
	}
	d.mu.Unlock()

	if short {
		d.deliver(nil)
	}
}

func (d *Debouncer) fire(seq uint64, text string) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	tag, err := d.suggest(ctx, text)
	cancel()

	d.mu.Lock()
	current := !d.closed && seq == d.seq
	d.mu.Unlock()
	// 建议失败时静默，不影响输入
	if err != nil || !current {
		return
	}
	d.deliver(tag)
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Close 取消等待中的和进行中的请求
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopLocked()
}
