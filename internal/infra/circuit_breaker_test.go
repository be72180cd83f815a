package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"pastel24h/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("smtp down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg BreakerConfig) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 5, 8, 0, 0, 0, time.UTC)}
	b := NewBreaker(cfg)
	b.now = clock.now
	return b, clock
}

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestBreaker_TripsAndRecovers(t *testing.T) {
	ctx := context.Background()
	b, clock := newTestBreaker(BreakerConfig{Name: "smtp", FailureThreshold: 2, SuccessThreshold: 2, OpenTimeout: time.Minute})

	assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	assert.Equal(t, BreakerClosed, b.State())
	assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	assert.Equal(t, BreakerOpen, b.State())

	calls := 0
	err := b.Do(ctx, func(context.Context) error { calls++; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Contains(t, err.Error(), "smtp")
	assert.Zero(t, calls)

	clock.advance(time.Minute)
	assert.Equal(t, BreakerHalfOpen, b.State())
	require.NoError(t, b.Do(ctx, succeed))
	assert.Equal(t, BreakerHalfOpen, b.State())
	require.NoError(t, b.Do(ctx, succeed))
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	ctx := context.Background()
	b, clock := newTestBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: 10 * time.Second})
	_ = b.Do(ctx, fail)
	assert.Equal(t, BreakerOpen, b.State())

	clock.advance(10 * time.Second)
	assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	assert.Equal(t, BreakerOpen, b.State())
	assert.Equal(t, "open", b.State().String())
}

func TestBreaker_HalfOpenAdmitsOneCall(t *testing.T) {
	ctx := context.Background()
	b, clock := newTestBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	_ = b.Do(ctx, fail)
	clock.advance(time.Second)

	var second error
	err := b.Do(ctx, func(context.Context) error {
		second = b.Do(ctx, succeed)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, second, ErrBreakerOpen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 2})
	_ = b.Do(ctx, fail)
	_ = b.Do(ctx, succeed)
	_ = b.Do(ctx, fail)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_CancellationIsNotAFailure(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{FailureThreshold: 1})

	err := b.Do(context.Background(), func(context.Context) error { return context.DeadlineExceeded })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, BreakerClosed, b.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err = b.Do(ctx, func(context.Context) error { calls++; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestBreakerConfigFrom(t *testing.T) {
	cfg := BreakerConfigFrom(&config.Config{
		BreakerFailureThreshold: 3,
		BreakerSuccessThreshold: 1,
		BreakerOpenTimeout:      30 * time.Second,
	}, "report-storage")
	assert.Equal(t, BreakerConfig{Name: "report-storage", FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: 30 * time.Second}, cfg)

	b := NewBreaker(BreakerConfig{})
	assert.Equal(t, "breaker", b.Name())
	assert.Equal(t, 5, b.failureThreshold)
	assert.Equal(t, 60*time.Second, b.openTimeout)
}
