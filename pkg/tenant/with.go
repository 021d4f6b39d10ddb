package tenant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantrls/pkg/logger"
)

// RunWithTenant binds id explicitly and runs work. It is the nesting-safe
// entry point: when it returns, the holder seen by work goes back to the
// tenant and user that the caller's context carried on entry.
//
// An invalid id runs work without binding the session. Clear failures are
// logged to slog.Default(); use Guard.RunWithTenant to log them through the
// guard's logger.
func RunWithTenant(ctx context.Context, binder SessionBinder, id ID, work func(context.Context) error) error {
	if binder == nil {
		return ErrNilBinder
	}
	return runWithTenant(ctx, binder, slog.Default(), defaultCleanupTimeout, id, work)
}

// RunWithTenant is the package-level RunWithTenant bound to the guard's
// binder, logger and cleanup timeout.
func (g *Guard) RunWithTenant(ctx context.Context, id ID, work func(context.Context) error) error {
	return runWithTenant(ctx, g.binder, g.logger, g.cleanupTimeout, id, work)
}

func runWithTenant(ctx context.Context, binder SessionBinder, log *slog.Logger, timeout time.Duration, id ID, work func(context.Context) error) (err error) {
	prior, hadPrior := CurrentTenantID(ctx)
	user := CurrentUser(ctx)

	ctx, cur := withNewCurrent(ctx)
	cur.Set(id, user)
	defer func() {
		if hadPrior {
			cur.Set(prior, user)
			return
		}
		cur.Reset()
	}()

	if work == nil {
		work = func(context.Context) error { return nil }
	}
	if !id.Valid() {
		return work(ctx)
	}

	sctx, err := binder.BindTenant(ctx, id)
	if err != nil {
		return errors.Join(ErrSession, err)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(sctx), timeout)
		defer cancel()
		if cerr := binder.ClearTenant(cctx); cerr != nil {
			log.ErrorContext(cctx, "failed to clear tenant from database session",
				logger.TenantID(id.String()),
				logger.Error(cerr),
			)
			if err == nil {
				err = errors.Join(ErrSession, cerr)
			}
		}
	}()

	return work(sctx)
}
