package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Payphone-Digital/accounts/pkg/logger"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

type Config struct {
	Threshold        int           // consecutive failures that open the circuit
	Timeout          time.Duration // open period before a trial call is let through
	SuccessThreshold int           // trial successes needed to close again
	MaxHalfOpen      int           // concurrent trial calls
}

func DefaultConfig() Config {
	return Config{
		Threshold:        5,
		Timeout:          30 * time.Second,
		SuccessThreshold: 2,
		MaxHalfOpen:      1,
	}
}

// Option customises a Breaker.
type Option func(*Breaker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// WithStateHook is called, outside the lock, after every transition.
func WithStateHook(hook func(name string, from, to State)) Option {
	return func(b *Breaker) { b.onChange = hook }
}

// Breaker fails fast once a dependency has failed Threshold times in a row.
// Cancelled or timed out contexts of the caller are not counted as failures.
type Breaker struct {
	mu               sync.Mutex
	name             string
	config           Config
	state            State
	failures         int
	successes        int
	halfOpenInFlight int
	openedAt         time.Time
	now              func() time.Time
	onChange         func(name string, from, to State)
}

func NewBreaker(name string, config Config, opts ...Option) *Breaker {
	b := &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs fn unless the circuit is open.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		logger.WarnWithContext(ctx, "Call rejected by circuit breaker").
			String("breaker", b.name).
			Err(err).
			Log()
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		b.release()
		return err
	}
	b.record(ctx, err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.Timeout {
			return ErrCircuitOpen
		}
		b.setState(StateHalfOpen)
		b.halfOpenInFlight = 1
		return nil
	case StateHalfOpen:
		if b.halfOpenInFlight >= b.config.MaxHalfOpen {
			return ErrTooManyRequests
		}
		b.halfOpenInFlight++
		return nil
	default:
		return nil
	}
}

func (b *Breaker) release() {
	b.mu.Lock()
	if b.state == StateHalfOpen && b.halfOpenInFlight > 0 {
		b.halfOpenInFlight--
	}
	b.mu.Unlock()
}

func (b *Breaker) record(ctx context.Context, err error) {
	b.mu.Lock()
	from := b.state

	if err != nil {
		b.failures++
		b.successes = 0
		if b.state == StateHalfOpen || (b.state == StateClosed && b.failures >= b.config.Threshold) {
			b.setState(StateOpen)
			b.openedAt = b.now()
		}
	} else {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.successes++
			b.halfOpenInFlight--
			if b.successes >= b.config.SuccessThreshold {
				b.setState(StateClosed)
			}
		}
	}

	to := b.state
	failures := b.failures
	hook := b.onChange
	b.mu.Unlock()

	if from != to {
		logger.InfoWithContext(ctx, "Circuit breaker state changed").
			String("breaker", b.name).
			String("from", from.String()).
			String("to", to.String()).
			Int("failures", failures).
			Log()
		if hook != nil {
			hook(b.name, from, to)
		}
	}
}

// setState must be called with the lock held.
func (b *Breaker) setState(s State) {
	b.state = s
	b.halfOpenInFlight = 0
	if s == StateClosed {
		b.failures = 0
		b.successes = 0
	}
	if s == StateHalfOpen {
		b.successes = 0
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Name() string {
	return b.name
}

// Stats is reported by the health endpoint.
func (b *Breaker) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"name":      b.name,
		"state":     b.state.String(),
		"failures":  b.failures,
		"threshold": b.config.Threshold,
		"timeout":   b.config.Timeout.String(),
	}
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	b.setState(StateClosed)
	b.mu.Unlock()
}
