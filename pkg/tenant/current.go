package tenant

import (
	"context"
	"log/slog"
	"sync"
)

// Current holds the tenant ID and acting user of one execution unit.
// It travels in the unit's context, so concurrent units never share a holder.
// A nil *Current behaves as an empty holder.
type Current struct {
	mu   sync.RWMutex
	id   ID
	user any
}

// Set stores the tenant ID and user. An invalid id is stored as absent.
func (c *Current) Set(id ID, user any) {
	if c == nil {
		return
	}
	if !id.Valid() {
		id = 0
	}
	c.mu.Lock()
	c.id, c.user = id, user
	c.mu.Unlock()
}

// Get returns the tenant ID, whether it is present, and the user.
func (c *Current) Get() (ID, bool, any) {
	if c == nil {
		return 0, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id, c.id.Valid(), c.user
}

// TenantID returns the stored tenant ID.
func (c *Current) TenantID() (ID, bool) {
	id, ok, _ := c.Get()
	return id, ok
}

// User returns the stored user, if any.
func (c *Current) User() any {
	_, _, user := c.Get()
	return user
}

// Reset clears both slots.
func (c *Current) Reset() {
	c.Set(0, nil)
}

type currentKey struct{}

// WithCurrent returns ctx carrying the holder found in ctx, or a new empty one.
func WithCurrent(ctx context.Context) (context.Context, *Current) {
	if cur, ok := CurrentFromContext(ctx); ok {
		return ctx, cur
	}
	cur := &Current{}
	return context.WithValue(ctx, currentKey{}, cur), cur
}

func withNewCurrent(ctx context.Context) (context.Context, *Current) {
	cur := &Current{}
	return context.WithValue(ctx, currentKey{}, cur), cur
}

// CurrentFromContext returns the holder carried by ctx.
func CurrentFromContext(ctx context.Context) (*Current, bool) {
	cur, ok := ctx.Value(currentKey{}).(*Current)
	return cur, ok && cur != nil
}

// CurrentTenantID returns the tenant ID bound to the execution unit of ctx.
func CurrentTenantID(ctx context.Context) (ID, bool) {
	cur, _ := CurrentFromContext(ctx)
	return cur.TenantID()
}

// CurrentUser returns the acting user recorded for the execution unit of ctx.
// It is informational only and must not drive authorization.
func CurrentUser(ctx context.Context) any {
	cur, _ := CurrentFromContext(ctx)
	return cur.User()
}

// Reset empties the holder carried by ctx, if any.
func Reset(ctx context.Context) {
	if cur, ok := CurrentFromContext(ctx); ok {
		cur.Reset()
	}
}

// LoggerExtractor returns a ContextExtractor for the logger that extracts tenant ID from context
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := CurrentTenantID(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
