package client

import (
	"context"
	"time"

	"ankahee-backend/internal/expiry"
)

// Countdown 按固定间隔刷新剩余时间标签，不做逐秒计时
type Countdown struct {
	expiresAt time.Time
	clock     expiry.Clock
	interval  time.Duration
}

// NewCountdown interval 为 0 时使用 expiry.CountdownInterval
func NewCountdown(expiresAt time.Time, clock expiry.Clock, interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = expiry.CountdownInterval
	}
	return &Countdown{expiresAt: expiresAt, clock: clock, interval: interval}
}

// Label 当前标签
func (c *Countdown) Label() string {
	return expiry.Remaining(c.expiresAt, c.clock.Now())
}

// Run 立即回调一次，此后每个间隔回调一次，回调 "Expired" 或 ctx 结束后返回
func (c *Countdown) Run(ctx context.Context, onTick func(label string)) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		now := c.clock.Now()
		onTick(expiry.Remaining(c.expiresAt, now))
		if !expiry.IsAlive(c.expiresAt, now) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
