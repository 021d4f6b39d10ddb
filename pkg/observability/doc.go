// Package observability exports Prometheus metrics for guarded executions.
//
//	reg := prometheus.NewRegistry()
//	metrics, err := observability.NewMetrics(reg)
//	if err != nil {
//		return err
//	}
//	guard, err := tenant.NewGuard(binder, tenant.WithObserver(metrics))
//	...
//	r.Handle("/metrics", observability.Handler(reg))
//
// Collected series:
//
//	tenant_rls_executions_total{origin,strategy,outcome}
//	tenant_rls_execution_duration_seconds{origin,strategy}
//	tenant_rls_session_errors_total{origin}
//
// The unscoped outcome counts units that ran without a resolved tenant, which
// is the signal to watch while the guard runs fail-open.
package observability
