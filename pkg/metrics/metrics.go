package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accounts"

// Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	AuthEvents       *prometheus.CounterVec
	CodesIssued      *prometheus.CounterVec
	CodesSwept       prometheus.Counter
	EmailsSent       *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
	TokensRevoked    prometheus.Counter
	BlacklistHits    prometheus.Counter
	RateLimitBlocked prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		AuthEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Account and token events by type and outcome.",
		}, []string{"event", "outcome"}),
		CodesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_codes_issued_total",
			Help:      "Verification codes issued by type. Reused reset codes count too.",
		}, []string{"type"}),
		CodesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_codes_swept_total",
			Help:      "Expired verification codes deleted by the sweeper.",
		}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Outgoing emails by template and outcome.",
		}, []string{"template", "outcome"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "0 closed, 1 open, 2 half open.",
		}, []string{"breaker"}),
		TokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_revoked_total",
			Help:      "Refresh tokens added to the blacklist.",
		}),
		BlacklistHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blacklist_hits_total",
			Help:      "Refresh attempts rejected because the token was revoked.",
		}),
		RateLimitBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_blocked_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.AuthEvents,
		m.CodesIssued,
		m.CodesSwept,
		m.EmailsSent,
		m.BreakerState,
		m.TokensRevoked,
		m.BlacklistHits,
		m.RateLimitBlocked,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Event bumps auth_events_total. Safe on a nil receiver so services can run
// without metrics in tests.
func (m *Metrics) Event(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

func (m *Metrics) CodeIssued(codeType string) {
	if m == nil {
		return
	}
	m.CodesIssued.WithLabelValues(codeType).Inc()
}

func (m *Metrics) CodesDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.CodesSwept.Add(float64(n))
}

func (m *Metrics) EmailSent(template string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.EmailsSent.WithLabelValues(template, outcome).Inc()
}

func (m *Metrics) TokenRevoked() {
	if m == nil {
		return
	}
	m.TokensRevoked.Inc()
}

func (m *Metrics) BlacklistHit() {
	if m == nil {
		return
	}
	m.BlacklistHits.Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.RateLimitBlocked.Inc()
}

// SetBreakerState takes the numeric value of a circuit.State.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
