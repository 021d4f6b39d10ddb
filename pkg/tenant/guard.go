package tenant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantrls/pkg/logger"
)

const defaultCleanupTimeout = 5 * time.Second

// Execution describes one finished guarded execution.
type Execution struct {
	Origin   OriginKind
	Strategy Strategy
	TenantID ID
	Resolved bool
	Bound    bool
	// Phase is the furthest phase the unit reached.
	Phase    Phase
	Duration time.Duration
	Err      error
}

// Observer is notified after every guarded execution.
type Observer interface {
	ObserveExecution(ctx context.Context, e Execution)
}

// ObserverFunc is an adapter to allow ordinary functions to act as observers.
type ObserverFunc func(ctx context.Context, e Execution)

func (f ObserverFunc) ObserveExecution(ctx context.Context, e Execution) { f(ctx, e) }

type nopObserver struct{}

func (nopObserver) ObserveExecution(context.Context, Execution) {}

// Guard runs units of work with their tenant bound to the execution context
// and to the database session, and always tears both down afterwards.
//
// By default a unit whose tenant cannot be resolved still runs, without
// row-level security scoping. Use WithRequireTenant to reject such units.
type Guard struct {
	binder         SessionBinder
	logger         *slog.Logger
	configSource   func() Config
	observer       Observer
	requireTenant  bool
	cleanupTimeout time.Duration
}

// NewGuard creates a guard binding tenants through binder.
func NewGuard(binder SessionBinder, opts ...GuardOption) (*Guard, error) {
	if binder == nil {
		return nil, ErrNilBinder
	}

	g := &Guard{
		binder:         binder,
		logger:         slog.Default(),
		configSource:   CurrentConfig,
		observer:       nopObserver{},
		cleanupTimeout: defaultCleanupTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Run normalizes origin, resolves its tenant, binds it and runs work.
//
// The caller's context is never modified: work receives a child context with
// its own Current holder, which is reset to empty when Run returns. The
// session is cleared whenever it was bound, including when work fails, panics
// or its context is cancelled.
//
// Configuration errors are returned before anything is bound. Session errors
// wrap ErrSession. A clear failure is returned only when work succeeded.
func (g *Guard) Run(ctx context.Context, origin Origin, work func(context.Context) error) (err error) {
	cfg := g.configSource()
	u := &unit{}
	exec := Execution{Origin: kindOf(origin), Strategy: cfg.Strategy}
	start := time.Now()

	defer func() {
		exec.Phase = u.last
		exec.Duration = time.Since(start)
		exec.Err = err
		u.advance(PhaseIdle)
		g.observer.ObserveExecution(ctx, exec)
	}()

	u.advance(PhaseNormalizing)
	in := Normalize(cfg, g.prepare(ctx, origin))

	u.advance(PhaseResolving)
	id, resolved, err := ResolveTenantID(ctx, cfg, in, g.logger)
	if err != nil {
		g.logger.ErrorContext(ctx, "tenant resolution misconfigured",
			logger.Origin(exec.Origin.String()),
			logger.Error(err),
		)
		return err
	}
	user := ExtractUser(cfg, in)
	exec.TenantID, exec.Resolved = id, resolved

	attrs := []any{
		logger.Origin(exec.Origin.String()),
		logger.Strategy(cfg.Strategy.String()),
	}
	if !resolved {
		g.logger.WarnContext(ctx, "no tenant resolved, row-level security will not be applied", attrs...)
		if g.requireTenant {
			return ErrTenantRequired
		}
	} else {
		attrs = append(attrs, logger.TenantID(id.String()))
		g.logger.InfoContext(ctx, "tenant context resolved", attrs...)
	}

	u.advance(PhaseBound)
	ctx, cur := withNewCurrent(ctx)
	cur.Set(id, user)

	defer func() {
		u.advance(PhaseUnbinding)
		if exec.Bound {
			if cerr := g.clear(ctx, attrs); cerr != nil && err == nil {
				err = errors.Join(ErrSession, cerr)
			}
		}
		cur.Reset()
	}()

	if resolved {
		sctx, berr := g.binder.BindTenant(ctx, id)
		if berr != nil {
			g.logger.ErrorContext(ctx, "failed to bind tenant to database session",
				append(attrs, logger.Error(berr))...)
			return errors.Join(ErrSession, berr)
		}
		ctx, exec.Bound = sctx, true
		g.logger.InfoContext(ctx, "session tenant set", attrs...)

		if cfg.Debug {
			g.verify(ctx, id, attrs)
		}
	}

	u.advance(PhaseRunning)
	if work == nil {
		return nil
	}
	return work(ctx)
}

// prepare applies the job payload parse hook. A failing hook falls back to
// the raw payload.
func (g *Guard) prepare(ctx context.Context, origin Origin) Origin {
	job, ok := origin.(JobOrigin)
	if !ok || job.Parse == nil || job.Payload == nil {
		return origin
	}
	parsed, err := job.Parse(job.Payload)
	if err != nil {
		g.logger.WarnContext(ctx, "job payload parse hook failed, using raw payload",
			logger.Origin(OriginJob.String()),
			logger.Error(err),
		)
		return origin
	}
	job.Payload = parsed
	return job
}

// clear runs on a context detached from cancellation so a cancelled unit
// still resets its session.
func (g *Guard) clear(ctx context.Context, attrs []any) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cleanupTimeout)
	defer cancel()

	if err := g.binder.ClearTenant(cctx); err != nil {
		g.logger.ErrorContext(cctx, "failed to clear tenant from database session",
			append(attrs, logger.Error(err))...)
		return err
	}
	g.logger.InfoContext(cctx, "session tenant reset", attrs...)
	return nil
}

func (g *Guard) verify(ctx context.Context, want ID, attrs []any) {
	got, ok, err := g.binder.CurrentTenant(ctx)
	switch {
	case err != nil:
		g.logger.ErrorContext(ctx, "session tenant verification error",
			append(attrs, logger.Error(err))...)
	case !ok || got != want:
		g.logger.ErrorContext(ctx, "session tenant verification failed",
			append(attrs, slog.String("session_tenant_id", got.String()))...)
	default:
		g.logger.DebugContext(ctx, "session tenant verification passed", attrs...)
	}
}
