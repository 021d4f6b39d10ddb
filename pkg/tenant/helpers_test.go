package tenant_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

// company is a tenant object exposing its primary key.
type company struct {
	id any
}

func (c company) GetID() any { return c.id }

// user is a principal with a tenant column, a tenant object and associations.
type user struct {
	name    string
	columns map[string]any
	objects map[string]any
	assocs  map[string][]any
}

func (u *user) TenantColumn(column string) (any, bool) {
	v, ok := u.columns[column]
	return v, ok
}

func (u *user) TenantObject(key string) (any, bool) {
	v, ok := u.objects[key]
	return v, ok
}

func (u *user) Association(name string) ([]any, bool) {
	v, ok := u.assocs[name]
	return v, ok
}

// request is a RequestOrigin with an optional current tenant object.
type request struct {
	principal any
	objects   map[string]any
}

func (r request) CurrentPrincipal() (any, bool) {
	return r.principal, r.principal != nil
}

func (r request) CurrentTenantObject(key string) (any, bool) {
	v, ok := r.objects[key]
	return v, ok
}

// payload is a job payload object exposing accessors instead of a mapping.
type payload struct {
	objects map[string]any
	company any
	user    any
}

func (p payload) TenantObject(key string) (any, bool) {
	v, ok := p.objects[key]
	return v, ok
}

func (p payload) Company() any { return p.company }
func (p payload) User() any    { return p.user }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func config(strategy tenant.Strategy) tenant.Config {
	return tenant.Config{Strategy: strategy, TenantColumn: tenant.DefaultTenantColumn}
}

func resolve(t *testing.T, cfg tenant.Config, origin tenant.Origin) (tenant.ID, bool) {
	t.Helper()
	in := tenant.Normalize(cfg, origin)
	id, ok, err := tenant.ResolveTenantID(context.Background(), cfg, in, discardLogger())
	require.NoError(t, err)
	return id, ok
}
