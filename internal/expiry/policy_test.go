package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEditableBoundary(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsEditable(now.Add(-(19*time.Minute+59*time.Second)), now))
	assert.False(t, IsEditable(now.Add(-(20*time.Minute+time.Second)), now))
	assert.False(t, IsEditable(now.Add(-EditWindow), now))
	assert.False(t, IsEditable(time.Time{}, now))
}

func TestIsAliveBoundary(t *testing.T) {
	expiresAt := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsAlive(expiresAt, expiresAt.Add(-time.Second)))
	assert.False(t, IsAlive(expiresAt, expiresAt.Add(time.Second)))
	assert.False(t, IsAlive(expiresAt, expiresAt))
}

func TestWindowsPerKind(t *testing.T) {
	created := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, created.Add(24*time.Hour), ForKind(KindPost).ExpiresAt(created))
	assert.Equal(t, created.Add(24*time.Hour), ForKind(KindRoom).ExpiresAt(created))
	assert.Equal(t, created.Add(72*time.Hour), ForKind(KindLetter).ExpiresAt(created))

	// 信件和房间没有编辑窗口
	assert.False(t, ForKind(KindLetter).Editable(created, created.Add(time.Second)))
	assert.False(t, ForKind(KindRoom).Editable(created, created.Add(time.Second)))
	assert.True(t, ForKind(KindComment).Editable(created, created.Add(time.Minute)))
}

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		in   time.Duration
		want string
	}{
		{-time.Minute, "Expired"},
		{30 * time.Second, "in less than a minute"},
		{time.Minute, "in 1 minute"},
		{10 * time.Minute, "in 10 minutes"},
		{time.Hour, "in about 1 hour"},
		{3 * time.Hour, "in about 3 hours"},
		{50 * time.Hour, "in 2 days"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Remaining(now.Add(c.in), now))
	}
}

func TestClockDefaultsToSystemTime(t *testing.T) {
	var c Clock
	assert.WithinDuration(t, time.Now(), c.Now(), time.Second)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c = func() time.Time { return fixed }
	assert.Equal(t, fixed, c.Now())
}
