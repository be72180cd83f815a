package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pastel24h/internal/config"

	"github.com/rs/zerolog/log"
)

// BreakerState is the position of a Breaker: closed lets calls through, open
// rejects them until OpenTimeout passes, half-open lets a single trial call through.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is wrapped with the breaker name when a call is rejected.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerConfig tunes one breaker. Zero values fall back to 5 failures,
// 2 half-open successes and a 60s open period.
type BreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// BreakerConfigFrom reads the BREAKER_* thresholds shared by every outbound
// dependency and names the breaker.
func BreakerConfigFrom(cfg *config.Config, name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		FailureThreshold: cfg.BreakerFailureThreshold,
		SuccessThreshold: cfg.BreakerSuccessThreshold,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	}
}

// Breaker guards one outbound dependency (SMTP, the report bucket).
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	now              func() time.Time

	mu            sync.Mutex
	state         BreakerState
	failures      int
	successes     int
	openedAt      time.Time
	trialInFlight bool
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	b := &Breaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		now:              time.Now,
	}
	if b.name == "" {
		b.name = "breaker"
	}
	if b.failureThreshold <= 0 {
		b.failureThreshold = 5
	}
	if b.successThreshold <= 0 {
		b.successThreshold = 2
	}
	if b.openTimeout <= 0 {
		b.openTimeout = 60 * time.Second
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireOpen()
	return b.state
}

// Do runs fn unless the breaker rejects the call. A cancelled context is the
// caller giving up, so it neither trips nor heals the breaker.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.admit() {
		return fmt.Errorf("%s: %w", b.name, ErrBreakerOpen)
	}
	err := fn(ctx)
	b.record(err)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireOpen()
	switch b.state {
	case BreakerOpen:
		return false
	case BreakerHalfOpen:
		if b.trialInFlight {
			return false
		}
		b.trialInFlight = true
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialInFlight = false

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if err == nil {
		switch b.state {
		case BreakerClosed:
			b.failures = 0
		case BreakerHalfOpen:
			b.successes++
			if b.successes >= b.successThreshold {
				b.moveTo(BreakerClosed)
			}
		}
		return
	}

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.moveTo(BreakerOpen)
		}
	case BreakerHalfOpen:
		b.moveTo(BreakerOpen)
	}
}

// expireOpen must be called with mu held.
func (b *Breaker) expireOpen() {
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		b.moveTo(BreakerHalfOpen)
	}
}

// moveTo must be called with mu held.
func (b *Breaker) moveTo(to BreakerState) {
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	if to == BreakerOpen {
		b.openedAt = b.now()
	}

	ev := log.Info()
	if to == BreakerOpen {
		ev = log.Warn().Dur("open_for", b.openTimeout)
	}
	ev.Str("breaker", b.name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state changed")
}
