package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLogger sets a custom logger for the guard.
func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithConfigSource replaces the process-wide configuration provider.
// The source is read once per execution.
func WithConfigSource(source func() Config) GuardOption {
	return func(g *Guard) {
		if source != nil {
			g.configSource = source
		}
	}
}

// WithObserver registers an observer notified after every execution.
func WithObserver(o Observer) GuardOption {
	return func(g *Guard) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithRequireTenant makes the guard fail closed: units without a resolved
// tenant return ErrTenantRequired and their work does not run.
func WithRequireTenant(require bool) GuardOption {
	return func(g *Guard) {
		g.requireTenant = require
	}
}

// WithCleanupTimeout bounds the session clear that runs after work returns.
func WithCleanupTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.cleanupTimeout = d
		}
	}
}

// ErrorHandler handles errors returned by the guard before the request was served.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// middlewareConfig holds middleware configuration.
type middlewareConfig struct {
	principal      func(r *http.Request) (any, bool)
	currentUser    func(r *http.Request) any
	currentCompany func(r *http.Request) any
	tenantObject   func(r *http.Request, key string) (any, bool)
	values         func(r *http.Request) map[string]any
	errorHandler   ErrorHandler
	skipPaths      []string
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*middlewareConfig)

// WithPrincipal sets the lookup of the session-authenticated principal.
func WithPrincipal(fn func(r *http.Request) (any, bool)) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.principal = fn
	}
}

// WithCurrentUser sets the lookup of the acting user.
func WithCurrentUser(fn func(r *http.Request) any) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.currentUser = fn
	}
}

// WithCurrentCompany sets the legacy current company lookup.
func WithCurrentCompany(fn func(r *http.Request) any) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.currentCompany = fn
	}
}

// WithTenantObject sets the lookup of the current tenant object by its
// configured key.
func WithTenantObject(fn func(r *http.Request, key string) (any, bool)) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.tenantObject = fn
	}
}

// WithValues sets the source of flat external auth values, e.g. token claims.
func WithValues(fn func(r *http.Request) map[string]any) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.values = fn
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets paths that bypass the guard.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantRequired):
		http.Error(w, "Tenant required", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
