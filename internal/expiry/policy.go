// Package expiry 统一管理内容的可编辑窗口和存活时间
// 过期只在查询时过滤，不存在主动清理的后台任务
package expiry

import (
	"fmt"
	"math"
	"time"
)

// Kind 带时间限制的实体类型
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
	KindLetter  Kind = "letter"
	KindRoom    Kind = "room"
)

const (
	// EditWindow 创建后允许修改的时间
	EditWindow = 20 * time.Minute
	// PostLifetime 帖子和评论的存活时间
	PostLifetime = 24 * time.Hour
	// RoomLifetime 聊天室的存活时间
	RoomLifetime = 24 * time.Hour
	// LetterLifetime 信件的存活时间
	LetterLifetime = 72 * time.Hour
	// CountdownInterval 倒计时标签的刷新间隔
	CountdownInterval = time.Minute
)

// Window 某类实体的编辑窗口和存活时间，Edit 为 0 表示不可编辑
type Window struct {
	Edit time.Duration
	Life time.Duration
}

var windows = map[Kind]Window{
	KindPost:    {Edit: EditWindow, Life: PostLifetime},
	KindComment: {Edit: EditWindow, Life: PostLifetime},
	KindLetter:  {Life: LetterLifetime},
	KindRoom:    {Life: RoomLifetime},
}

// ForKind 返回实体类型的时间窗口
func ForKind(k Kind) Window {
	return windows[k]
}

// ExpiresAt 计算过期时间
func (w Window) ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(w.Life)
}

// Editable 判断在 now 时刻是否仍可编辑
func (w Window) Editable(createdAt, now time.Time) bool {
	if w.Edit <= 0 || createdAt.IsZero() {
		return false
	}
	return now.Sub(createdAt) < w.Edit
}

// IsEditable 帖子和评论的编辑窗口判断
func IsEditable(createdAt, now time.Time) bool {
	return ForKind(KindPost).Editable(createdAt, now)
}

// IsAlive 判断内容是否仍然可见
func IsAlive(expiresAt, now time.Time) bool {
	return now.Before(expiresAt)
}

// Clock 可替换的时钟，测试中注入固定时间
type Clock func() time.Time

// Now 返回当前时间，nil 时使用系统时钟
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Remaining 生成倒计时文案，过期后返回 "Expired"
func Remaining(expiresAt, now time.Time) string {
	if !IsAlive(expiresAt, now) {
		return "Expired"
	}
	return "in " + humanize(expiresAt.Sub(now))
}

func humanize(d time.Duration) string {
	minutes := d.Minutes()
	switch {
	case minutes < 1:
		return "less than a minute"
	case minutes < 1.5:
		return "1 minute"
	case minutes < 44.5:
		return fmt.Sprintf("%d minutes", int(math.Round(minutes)))
	case minutes < 89.5:
		return "about 1 hour"
	case d < 24*time.Hour:
		return fmt.Sprintf("about %d hours", int(math.Round(d.Hours())))
	case d < 48*time.Hour:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", int(math.Round(d.Hours()/24)))
	}
}
