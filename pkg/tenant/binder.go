package tenant

import "context"

// SessionBinder sets the tenant on the database session used by one
// execution unit. Implementations own the session handle: BindTenant returns
// a context carrying it, and ClearTenant and CurrentTenant read it back from
// that context.
//
// A pooled implementation must never hand a session with a stale tenant to
// another unit.
type SessionBinder interface {
	BindTenant(ctx context.Context, id ID) (context.Context, error)
	ClearTenant(ctx context.Context) error
	// CurrentTenant reads the session variable. It is used only for debug
	// verification.
	CurrentTenant(ctx context.Context) (ID, bool, error)
}

// NopBinder is a SessionBinder for code paths without a database session.
type NopBinder struct{}

func (NopBinder) BindTenant(ctx context.Context, _ ID) (context.Context, error) { return ctx, nil }
func (NopBinder) ClearTenant(context.Context) error                            { return nil }
func (NopBinder) CurrentTenant(ctx context.Context) (ID, bool, error) {
	id, ok := CurrentTenantID(ctx)
	return id, ok, nil
}
