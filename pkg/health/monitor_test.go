package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Payphone-Digital/accounts/pkg/circuit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_CriticalFailureMakesReportUnhealthy(t *testing.T) {
	m := NewMonitor(0)
	m.Register("database", &PingChecker{Name: "database", Ping: func(context.Context) error {
		return errors.New("connection refused")
	}}, true)
	m.Register("redis", &PingChecker{Name: "redis", Ping: func(context.Context) error { return nil }}, false)

	report := m.CheckAll(context.Background())

	assert.Equal(t, StatusUnhealthy, report.Status)
	require.Contains(t, report.Checks, "database")
	assert.Equal(t, StatusUnhealthy, report.Checks["database"].Status)
	assert.Contains(t, report.Checks["database"].Message, "connection refused")
	assert.Equal(t, 1, report.Checks["database"].FailureCount)
	assert.Equal(t, StatusHealthy, report.Checks["redis"].Status)
	assert.False(t, m.IsHealthy("database"))
	assert.True(t, m.IsHealthy("redis"))
}

func TestMonitor_OptionalFailureOnlyDegrades(t *testing.T) {
	m := NewMonitor(0)
	m.Register("database", &PingChecker{Name: "database", Ping: func(context.Context) error { return nil }}, true)
	m.Register("redis", &PingChecker{Name: "redis", Ping: func(context.Context) error {
		return errors.New("i/o timeout")
	}}, false)
	m.Register("cache", &PingChecker{Name: "cache"}, false)

	report := m.CheckAll(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, StatusDisabled, report.Checks["cache"].Status)

	report = m.CheckAll(context.Background())
	assert.Equal(t, 2, report.Checks["redis"].CheckCount)
	assert.Equal(t, 2, report.Checks["redis"].FailureCount)
}

func TestBreakerChecker_FollowsState(t *testing.T) {
	b := circuit.NewBreaker("smtp", circuit.Config{Threshold: 1, Timeout: time.Hour, SuccessThreshold: 1, MaxHalfOpen: 1})
	checker := &BreakerChecker{Breaker: b}

	assert.Equal(t, StatusHealthy, checker.Check(context.Background()).Status)

	_ = b.Execute(context.Background(), func(context.Context) error { return errors.New("smtp down") })
	result := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "circuit OPEN", result.Message)
}

func TestMonitor_UncheckedCriticalIsUnhealthy(t *testing.T) {
	m := NewMonitor(time.Minute)
	m.Register("database", &PingChecker{Name: "database", Ping: func(context.Context) error { return nil }}, true)

	report := m.Report()
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, StatusUnknown, report.Checks["database"].Status)
}
