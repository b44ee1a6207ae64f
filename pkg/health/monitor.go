package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Payphone-Digital/accounts/pkg/circuit"
	"github.com/Payphone-Digital/accounts/pkg/logger"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
	StatusDegraded
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusDegraded:
		return "degraded"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult is the outcome of one check of a dependency.
type CheckResult struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	Message      string        `json:"message,omitempty"`
	Latency      time.Duration `json:"latency"`
	LastCheck    time.Time     `json:"last_check"`
	CheckCount   int           `json:"check_count"`
	FailureCount int           `json:"failure_count"`
	err          error
}

func (r CheckResult) Err() error {
	return r.err
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// PingChecker reports healthy when Ping returns nil. A nil Ping means the
// dependency is not configured.
type PingChecker struct {
	Name string
	Ping func(ctx context.Context) error
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	result := CheckResult{Name: c.Name, LastCheck: time.Now()}
	if c.Ping == nil {
		result.Status = StatusDisabled
		result.Message = c.Name + " is not configured"
		return result
	}

	start := time.Now()
	err := c.Ping(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = c.Name + " ping failed: " + err.Error()
		result.err = err
		return result
	}
	result.Status = StatusHealthy
	return result
}

// BreakerChecker maps a circuit breaker's state onto a status. An open
// breaker is unhealthy and a half open one is degraded.
type BreakerChecker struct {
	Breaker *circuit.Breaker
}

func (c *BreakerChecker) Check(_ context.Context) CheckResult {
	result := CheckResult{LastCheck: time.Now()}
	if c.Breaker == nil {
		result.Status = StatusDisabled
		return result
	}
	result.Name = c.Breaker.Name()

	state := c.Breaker.State()
	switch state {
	case circuit.StateClosed:
		result.Status = StatusHealthy
	case circuit.StateHalfOpen:
		result.Status = StatusDegraded
	default:
		result.Status = StatusUnhealthy
	}
	result.Message = "circuit " + state.String()
	return result
}

type registration struct {
	checker  Checker
	critical bool
}

// Report aggregates the latest results. Only critical checkers can make the
// overall status unhealthy, the rest at most degrade it.
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Monitor runs registered checkers on demand and, once started, on an
// interval so the health endpoint can serve cached results.
type Monitor struct {
	mu       sync.RWMutex
	checkers map[string]registration
	results  map[string]CheckResult
	interval time.Duration
	timeout  time.Duration
	cancel   context.CancelFunc
	running  bool
}

func NewMonitor(interval time.Duration) *Monitor {
	return &Monitor{
		checkers: make(map[string]registration),
		results:  make(map[string]CheckResult),
		interval: interval,
		timeout:  5 * time.Second,
	}
}

// Register adds a checker under name, replacing any previous one.
func (m *Monitor) Register(name string, checker Checker, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = registration{checker: checker, critical: critical}

	logger.Debug("Registered health checker").
		String("name", name).
		Bool("critical", critical).
		Log()
}

func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running || m.interval <= 0 {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	go m.run(ctx)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.cancel()
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll runs every checker and returns the fresh report.
func (m *Monitor) CheckAll(ctx context.Context) Report {
	m.mu.RLock()
	names := make([]string, 0, len(m.checkers))
	regs := make(map[string]registration, len(m.checkers))
	for name, reg := range m.checkers {
		names = append(names, name)
		regs[name] = reg
	}
	m.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		result := regs[name].checker.Check(checkCtx)
		cancel()
		result.Name = name

		m.mu.Lock()
		prev, seen := m.results[name]
		result.CheckCount = 1
		if seen {
			result.CheckCount = prev.CheckCount + 1
			result.FailureCount = prev.FailureCount
		}
		if result.Status == StatusUnhealthy {
			result.FailureCount++
		}
		m.results[name] = result
		m.mu.Unlock()

		if result.Status == StatusUnhealthy || result.Status == StatusDegraded {
			logger.WarnWithContext(ctx, "Health check failed").
				String("name", name).
				String("status", result.Status.String()).
				Duration(result.Latency).
				Err(result.err).
				Log()
		}
	}

	return m.Report()
}

// Report builds the aggregate from the latest cached results.
func (m *Monitor) Report() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult, len(m.results)),
	}
	for name, reg := range m.checkers {
		result, ok := m.results[name]
		if !ok {
			result = CheckResult{Name: name, Status: StatusUnknown}
		}
		report.Checks[name] = result

		switch result.Status {
		case StatusUnhealthy, StatusUnknown:
			if reg.critical {
				report.Status = StatusUnhealthy
			} else if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		case StatusDegraded:
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

// IsHealthy reports false only for a tracked checker whose last result was
// unhealthy.
func (m *Monitor) IsHealthy(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if result, ok := m.results[name]; ok {
		return result.Status != StatusUnhealthy
	}
	return true
}
