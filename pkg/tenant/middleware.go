package tenant

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tenantrls/pkg/logger"
)

// requestOrigin adapts an *http.Request to RequestOrigin and TenantObjectSource.
type requestOrigin struct {
	r   *http.Request
	cfg *middlewareConfig
}

func (o requestOrigin) CurrentPrincipal() (any, bool) {
	if o.cfg.principal == nil {
		return nil, false
	}
	return o.cfg.principal(o.r)
}

func (o requestOrigin) CurrentTenantObject(key string) (any, bool) {
	if o.cfg.tenantObject == nil {
		return nil, false
	}
	return o.cfg.tenantObject(o.r, key)
}

// Middleware runs every request inside guard as a controller origin.
// Handlers read the tenant with CurrentTenantID(r.Context()) and query through
// the session bound to that context.
//
// Guard errors returned before the handler ran go to the error handler.
// Errors after the handler ran (session clear failures) are only logged,
// because the response has already been written.
func Middleware(guard *Guard, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: defaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			origin := ControllerOrigin{Request: requestOrigin{r: r, cfg: cfg}}
			if cfg.currentUser != nil {
				origin.CurrentUser = cfg.currentUser(r)
			}
			if cfg.currentCompany != nil {
				origin.CurrentCompany = cfg.currentCompany(r)
			}
			if cfg.values != nil {
				origin.Values = cfg.values(r)
			}

			served := false
			err := guard.Run(r.Context(), origin, func(ctx context.Context) error {
				served = true
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			})
			if err == nil {
				return
			}
			if served {
				guard.logger.ErrorContext(r.Context(), "tenant session cleanup failed after response",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Error(err),
				)
				return
			}
			cfg.errorHandler(w, r, err)
		})
	}
}

// RequireTenant creates middleware that rejects requests without a bound tenant.
// Place it after Middleware on routes that must never run unscoped.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentTenantID(r.Context()); !ok {
				errorHandler(w, r, ErrTenantRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
