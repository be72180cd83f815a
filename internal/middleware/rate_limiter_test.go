package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindow_ResetsAndSweeps(t *testing.T) {
	clock := time.Date(2026, 10, 5, 22, 0, 0, 0, time.UTC)
	w := newFixedWindow(2, defaultLoginLimit, time.Minute)
	w.now = func() time.Time { return clock }

	ok, resetAt := w.hit("203.0.113.7")
	assert.True(t, ok)
	assert.Equal(t, clock.Add(time.Minute), resetAt)
	ok, _ = w.hit("203.0.113.7")
	assert.True(t, ok)
	ok, _ = w.hit("203.0.113.7")
	assert.False(t, ok)

	// Other clients have their own counter.
	ok, _ = w.hit("198.51.100.4")
	assert.True(t, ok)
	assert.Equal(t, 2, w.size())

	clock = clock.Add(time.Minute)
	ok, _ = w.hit("203.0.113.7")
	assert.True(t, ok, "a new window starts after the reset")
	assert.Equal(t, 1, w.size(), "expired counters are swept")
}

func TestFixedWindow_Defaults(t *testing.T) {
	w := newFixedWindow(0, defaultLoginLimit, 0)
	assert.Equal(t, defaultLoginLimit, w.limit)
	assert.Equal(t, defaultWindow, w.window)
}
