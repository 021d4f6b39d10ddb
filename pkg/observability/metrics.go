package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

const namespace = "tenant_rls"

// Outcome labels of tenant_rls_executions_total.
const (
	OutcomeScoped      = "scoped"
	OutcomeUnscoped    = "unscoped"
	OutcomeRejected    = "rejected"
	OutcomeConfigError = "config_error"
	OutcomeSession     = "session_error"
	OutcomeError       = "error"
)

// DurationBuckets covers guarded units from a fast query to a long job.
var DurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120}

// Metrics records guarded executions. It implements tenant.Observer.
type Metrics struct {
	executions    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	sessionErrors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg, or with the
// default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Guarded executions by origin, strategy and outcome",
			},
			[]string{"origin", "strategy", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Guarded execution duration",
				Buckets:   DurationBuckets,
			},
			[]string{"origin", "strategy"},
		),
		sessionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_errors_total",
				Help:      "Failures to bind or clear the tenant on the database session",
			},
			[]string{"origin"},
		),
	}

	for _, c := range []prometheus.Collector{m.executions, m.duration, m.sessionErrors} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Join(ErrRegisterMetrics, err)
		}
	}
	return m, nil
}

// ObserveExecution implements tenant.Observer.
func (m *Metrics) ObserveExecution(_ context.Context, e tenant.Execution) {
	origin, strategy := e.Origin.String(), e.Strategy.String()
	outcome := Outcome(e)

	m.executions.WithLabelValues(origin, strategy, outcome).Inc()
	m.duration.WithLabelValues(origin, strategy).Observe(e.Duration.Seconds())
	if outcome == OutcomeSession {
		m.sessionErrors.WithLabelValues(origin).Inc()
	}
}

// Outcome classifies an execution for the outcome label.
func Outcome(e tenant.Execution) string {
	switch {
	case e.Err == nil && e.Resolved:
		return OutcomeScoped
	case e.Err == nil:
		return OutcomeUnscoped
	case errors.Is(e.Err, tenant.ErrTenantRequired):
		return OutcomeRejected
	case errors.Is(e.Err, tenant.ErrInvalidConfig):
		return OutcomeConfigError
	case errors.Is(e.Err, tenant.ErrSession):
		return OutcomeSession
	default:
		return OutcomeError
	}
}

// Handler serves the metrics gathered by g, or by the default gatherer
// when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
