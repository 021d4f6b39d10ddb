// Package tenant resolves the tenant of every unit of work and propagates it
// to the execution context and to the database session, so row-level
// security policies scope all queries of that unit.
//
// # Architecture
//
// A unit of work starts at one of four origins: an HTTP request
// (ControllerOrigin), a worker invocation with positional arguments
// (WorkerOrigin), a job with a payload (JobOrigin) or an explicit override
// (ManualOrigin). The Guard turns it into a guarded execution:
//
//  1. Normalize maps the origin to an Input shaped for the configured Strategy.
//  2. The Resolver selected by the strategy extracts a tenant ID.
//  3. The ID and the acting user are stored in a Current holder carried by a
//     child context.
//  4. A SessionBinder sets the tenant on the database session.
//  5. The work runs.
//  6. The session is cleared and the holder reset, whatever the outcome.
//
// Structured input is converted once to the canonical Bag form, and typed
// values expose tenant data through capability interfaces (HasTenantColumn,
// HasTenantObject, HasAssociation, HasID, HasCompany, HasUser).
//
// A tenant ID is valid only when it is an integer strictly greater than zero.
// Strings are never coerced.
//
// # Usage
//
//	import "github.com/dmitrymomot/tenantrls/pkg/tenant"
//
//	if err := tenant.SetConfig(tenant.Config{
//		Strategy:     tenant.StrategySessionPrincipal,
//		TenantColumn: "company_id",
//	}); err != nil {
//		return err
//	}
//
//	guard, err := tenant.NewGuard(binder, tenant.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	router.Use(tenant.Middleware(guard, tenant.WithPrincipal(userFromSession)))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		id, ok := tenant.CurrentTenantID(r.Context())
//		// ...
//	}
//
// Background work runs through the same guard:
//
//	err := guard.Run(ctx, tenant.WorkerOrigin{Args: args}, func(ctx context.Context) error {
//		return process(ctx)
//	})
//
// # Fail-open resolution
//
// When no tenant can be resolved, the guard logs a warning and still runs the
// work, without binding the session. Row-level security is therefore fail-open
// for unresolved tenants, and unscoped queries see whatever the database
// policies allow without a tenant. Create the guard with
// WithRequireTenant(true) to reject such units with ErrTenantRequired, or put
// RequireTenant in front of routes that must never run unscoped.
//
// # Nesting
//
// Each guarded execution gets its own holder and, with pg.Binder, its own
// pooled connection. When the guard returns, its holder is reset to empty and
// the caller's context is untouched. RunWithTenant restores the caller's
// tenant on the holder it hands to work.
//
// # Error Handling
//
//   - ErrInvalidConfig, ErrUnknownStrategy, ErrInvalidColumn: deployment defects,
//     raised before anything is bound
//   - ErrSession: the session rejected a bind or clear command
//   - ErrTenantRequired: fail-closed guard without a resolved tenant
//
// Malformed tenant data is never an error: it is logged and treated as absent.
package tenant
