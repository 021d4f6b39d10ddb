// Command documents is a tenant-scoped documents service: bearer tokens
// carry company_id, every request and background task runs on a database
// session bound to that tenant, and PostgreSQL row-level security does the
// filtering.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantrls/pkg/config"
	"github.com/dmitrymomot/tenantrls/pkg/httpserver"
	"github.com/dmitrymomot/tenantrls/pkg/jwtauth"
	"github.com/dmitrymomot/tenantrls/pkg/logger"
	"github.com/dmitrymomot/tenantrls/pkg/observability"
	"github.com/dmitrymomot/tenantrls/pkg/pg"
	"github.com/dmitrymomot/tenantrls/pkg/queue"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("documents service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := defaultConfig()
	var loadOpts []config.Option
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loadOpts = append(loadOpts, config.WithYAMLFile(path))
	}
	if err := config.Load(&cfg, loadOpts...); err != nil {
		return err
	}

	log := logger.New(append(cfg.Log.Options(),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)...)
	logger.SetAsDefault(log)

	if err := tenant.SetConfig(cfg.Tenant); err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.DB, log); err != nil {
		return err
	}

	binder, err := pg.NewBinder(pool, pg.WithSettingName(cfg.DB.TenantSetting), pg.WithLogger(log))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}

	guard, err := tenant.NewGuard(binder, tenant.WithLogger(log), tenant.WithObserver(metrics))
	if err != nil {
		return err
	}
	workerGuard, err := tenant.NewGuard(binder,
		tenant.WithLogger(log),
		tenant.WithObserver(metrics),
		tenant.WithConfigSource(func() tenant.Config { return backgroundTenant(tenant.CurrentConfig()) }),
	)
	if err != nil {
		return err
	}

	verifier, err := jwtauth.NewVerifier([]byte(cfg.JWTSecret), jwtauth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return err
	}

	storage := queue.NewMemoryStorage()
	enqueuer, err := queue.NewEnqueuer(storage)
	if err != nil {
		return err
	}
	worker, err := queue.NewWorker(storage, workerGuard, append(cfg.Queue.WorkerOptions(), queue.WithLogger(log))...)
	if err != nil {
		return err
	}
	store := pgStore{pool: pool}
	if err := worker.RegisterHandlers(jobHandlers(store, log)...); err != nil {
		return err
	}

	router := newRouter(routerDeps{
		api:      api{store: store, enqueuer: enqueuer, logger: log},
		guard:    guard,
		verifier: verifier,
		probes: map[string]http.Handler{
			"/livez":   httpserver.LivenessHandler(),
			"/readyz":  httpserver.ReadinessHandler(log, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)}),
			"/metrics": observability.Handler(reg),
		},
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))
	g.Go(func() error {
		return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, router)
	})
	return g.Wait()
}
