package queue_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

var discardLogger = slog.New(slog.DiscardHandler)

type invoicePayload struct {
	Number string `json:"number"`
}

// scopedPayload keeps its tenant under a field the raw JSON resolver does
// not know about; only the decoded object exposes it.
type scopedPayload struct {
	Org   int64  `json:"org"`
	Title string `json:"title"`
}

func (p scopedPayload) TenantColumn(column string) (any, bool) {
	if column != tenant.DefaultTenantColumn {
		return nil, false
	}
	return p.Org, true
}

// recordingBinder records the tenants bound by the guard.
type recordingBinder struct {
	mu      sync.Mutex
	bound   []tenant.ID
	cleared int
}

func (b *recordingBinder) BindTenant(ctx context.Context, id tenant.ID) (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = append(b.bound, id)
	return ctx, nil
}

func (b *recordingBinder) ClearTenant(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleared++
	return nil
}

func (b *recordingBinder) CurrentTenant(ctx context.Context) (tenant.ID, bool, error) {
	id, ok := tenant.CurrentTenantID(ctx)
	return id, ok, nil
}

func (b *recordingBinder) Bound() []tenant.ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tenant.ID(nil), b.bound...)
}

func (b *recordingBinder) Cleared() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cleared
}

func jobConfig() tenant.Config {
	return tenant.Config{Strategy: tenant.StrategyJobPayload, TenantColumn: tenant.DefaultTenantColumn}
}

func newGuard(t *testing.T, binder tenant.SessionBinder, opts ...tenant.GuardOption) *tenant.Guard {
	t.Helper()
	opts = append([]tenant.GuardOption{
		tenant.WithLogger(discardLogger),
		tenant.WithConfigSource(jobConfig),
	}, opts...)
	guard, err := tenant.NewGuard(binder, opts...)
	require.NoError(t, err)
	return guard
}

// tenantContext returns a context bound to id, as inside a guarded request.
func tenantContext(id tenant.ID) context.Context {
	ctx, cur := tenant.WithCurrent(context.Background())
	cur.Set(id, nil)
	return ctx
}
