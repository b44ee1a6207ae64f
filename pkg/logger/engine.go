package logger

import (
	"sync"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options tunes how much the engine lets through.
type Options struct {
	MinLevel        zapcore.Level
	MaxLogPerSecond int
	EnableRateLimit bool
}

// OptionsFor returns the defaults for an APP_ENV value.
func OptionsFor(env string) Options {
	switch env {
	case constants.EnvProduction:
		return Options{
			MinLevel:        zapcore.InfoLevel,
			MaxLogPerSecond: 500,
			EnableRateLimit: true,
		}
	case constants.EnvStaging:
		return Options{
			MinLevel:        zapcore.DebugLevel,
			MaxLogPerSecond: 1000,
			EnableRateLimit: true,
		}
	default:
		return Options{
			MinLevel:        zapcore.DebugLevel,
			MaxLogPerSecond: 10000,
		}
	}
}

// Engine wraps a zap logger with level filtering and a per second budget.
type Engine struct {
	opts    Options
	zap     *zap.Logger
	limiter *rateLimiter
}

func NewEngine(zl *zap.Logger, opts Options) *Engine {
	return &Engine{
		opts:    opts,
		zap:     zl,
		limiter: newRateLimiter(opts.MaxLogPerSecond),
	}
}

func (e *Engine) shouldLog(level zapcore.Level) bool {
	if level < e.opts.MinLevel {
		return false
	}
	// errors are never dropped by the budget
	if e.opts.EnableRateLimit && level < zapcore.ErrorLevel && !e.limiter.allow() {
		return false
	}
	return true
}

func (e *Engine) write(level zapcore.Level, msg string, fields []zap.Field) {
	switch level {
	case zapcore.DebugLevel:
		e.zap.Debug(msg, fields...)
	case zapcore.InfoLevel:
		e.zap.Info(msg, fields...)
	case zapcore.WarnLevel:
		e.zap.Warn(msg, fields...)
	default:
		e.zap.Error(msg, fields...)
	}
}

type rateLimiter struct {
	maxLogs   int
	current   int
	lastReset time.Time
	mu        sync.Mutex
}

func newRateLimiter(maxLogs int) *rateLimiter {
	return &rateLimiter{
		maxLogs:   maxLogs,
		lastReset: time.Now(),
	}
}

func (rl *rateLimiter) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastReset) >= time.Second {
		rl.current = 0
		rl.lastReset = now
	}

	if rl.current >= rl.maxLogs {
		return false
	}

	rl.current++
	return true
}
