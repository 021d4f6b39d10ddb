package observability_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantrls/pkg/observability"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		exec tenant.Execution
		want string
	}{
		{name: "scoped", exec: tenant.Execution{Resolved: true}, want: observability.OutcomeScoped},
		{name: "unscoped", exec: tenant.Execution{}, want: observability.OutcomeUnscoped},
		{name: "rejected", exec: tenant.Execution{Err: tenant.ErrTenantRequired}, want: observability.OutcomeRejected},
		{name: "config", exec: tenant.Execution{Err: errors.Join(tenant.ErrInvalidConfig, tenant.ErrUnknownStrategy)}, want: observability.OutcomeConfigError},
		{name: "session", exec: tenant.Execution{Resolved: true, Err: errors.Join(tenant.ErrSession, errors.New("conn reset"))}, want: observability.OutcomeSession},
		{name: "work error", exec: tenant.Execution{Resolved: true, Err: errors.New("boom")}, want: observability.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, observability.Outcome(tt.exec))
		})
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("observes executions", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		m, err := observability.NewMetrics(reg)
		require.NoError(t, err)

		ctx := context.Background()
		m.ObserveExecution(ctx, tenant.Execution{
			Origin: tenant.OriginJob, Strategy: tenant.StrategyJobPayload,
			TenantID: 7, Resolved: true, Bound: true, Duration: 20 * time.Millisecond,
		})
		m.ObserveExecution(ctx, tenant.Execution{
			Origin: tenant.OriginJob, Strategy: tenant.StrategyJobPayload,
		})
		m.ObserveExecution(ctx, tenant.Execution{
			Origin: tenant.OriginController, Strategy: tenant.StrategySessionPrincipal,
			Resolved: true, Err: errors.Join(tenant.ErrSession, errors.New("conn reset")),
		})

		expected := `
# HELP tenant_rls_executions_total Guarded executions by origin, strategy and outcome
# TYPE tenant_rls_executions_total counter
tenant_rls_executions_total{origin="Controller",outcome="session_error",strategy="session_principal"} 1
tenant_rls_executions_total{origin="Job",outcome="scoped",strategy="job_payload"} 1
tenant_rls_executions_total{origin="Job",outcome="unscoped",strategy="job_payload"} 1
# HELP tenant_rls_session_errors_total Failures to bind or clear the tenant on the database session
# TYPE tenant_rls_session_errors_total counter
tenant_rls_session_errors_total{origin="Controller"} 1
`
		require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
			"tenant_rls_executions_total", "tenant_rls_session_errors_total"))
		n, err := testutil.GatherAndCount(reg, "tenant_rls_execution_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		_, err := observability.NewMetrics(reg)
		require.NoError(t, err)

		_, err = observability.NewMetrics(reg)
		assert.ErrorIs(t, err, observability.ErrRegisterMetrics)
	})

	t.Run("guard observer", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		m, err := observability.NewMetrics(reg)
		require.NoError(t, err)

		guard, err := tenant.NewGuard(tenant.NopBinder{},
			tenant.WithObserver(m),
			tenant.WithLogger(slog.New(slog.DiscardHandler)),
			tenant.WithConfigSource(func() tenant.Config {
				return tenant.Config{Strategy: tenant.StrategyManual, TenantColumn: "company_id"}
			}),
		)
		require.NoError(t, err)

		require.NoError(t, guard.Run(context.Background(), tenant.ManualOrigin{TenantID: 3}, nil))
		require.NoError(t, guard.Run(context.Background(), tenant.ManualOrigin{TenantID: "3"}, nil))

		expected := `
# HELP tenant_rls_executions_total Guarded executions by origin, strategy and outcome
# TYPE tenant_rls_executions_total counter
tenant_rls_executions_total{origin="Manual",outcome="scoped",strategy="manual"} 1
tenant_rls_executions_total{origin="Manual",outcome="unscoped",strategy="manual"} 1
`
		require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tenant_rls_executions_total"))

		srv := httptest.NewServer(observability.Handler(reg))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
