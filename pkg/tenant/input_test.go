package tenant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("controller per strategy", func(t *testing.T) {
		t.Parallel()
		req := request{principal: &user{name: "jane"}}
		origin := tenant.ControllerOrigin{
			Request:     req,
			CurrentUser: "jane",
			Values:      map[string]any{"company_id": 1, "tenant_id": 2, "user": "bob"},
		}

		in := tenant.Normalize(config(tenant.StrategySessionPrincipal), origin)
		assert.Equal(t, tenant.OriginController, in.Kind)
		assert.Equal(t, req, in.Request)
		assert.Nil(t, in.Values)

		in = tenant.Normalize(config(tenant.StrategyExternalPrincipal), origin)
		assert.Nil(t, in.Request)
		assert.Equal(t, tenant.Bag{"company_id": 1, "tenant_id": 2, "user": "bob", "current_user": "jane"}, in.Values)

		in = tenant.Normalize(config(tenant.StrategyManual), origin)
		assert.Equal(t, tenant.Bag{"tenant_id": 2, "user": "bob"}, in.Values)

		in = tenant.Normalize(config(tenant.StrategyJobPayload), origin)
		assert.Equal(t, tenant.Input{Kind: tenant.OriginController}, in)
	})

	t.Run("controller tenant object", func(t *testing.T) {
		t.Parallel()
		obj := company{id: 3}
		in := tenant.Normalize(config(tenant.StrategyExternalPrincipal), tenant.ControllerOrigin{
			Request: request{objects: map[string]any{"company": obj}},
		})
		assert.Equal(t, tenant.Bag{"company": obj, "current_company": obj}, in.Values)
	})

	t.Run("worker args are canonical", func(t *testing.T) {
		t.Parallel()
		in := tenant.Normalize(config(tenant.StrategyJobPayload), tenant.WorkerOrigin{
			Args: []any{"todo", map[string]any{"user": map[string]any{"id": 1}}, 123},
		})
		assert.Equal(t, tenant.OriginWorker, in.Kind)
		assert.Equal(t, []any{"todo", tenant.Bag{"user": tenant.Bag{"id": 1}}, 123}, in.WorkerArgs)
	})

	t.Run("job payload text is kept", func(t *testing.T) {
		t.Parallel()
		in := tenant.Normalize(config(tenant.StrategyJobPayload), tenant.JobOrigin{Payload: `{"company_id": 1}`})
		assert.Equal(t, tenant.OriginJob, in.Kind)
		assert.Equal(t, `{"company_id": 1}`, in.JobPayload)
	})

	t.Run("manual", func(t *testing.T) {
		t.Parallel()
		in := tenant.Normalize(config(tenant.StrategyManual), tenant.ManualOrigin{TenantID: 9, User: "ops"})
		assert.Equal(t, tenant.Input{Kind: tenant.OriginManual, Values: tenant.Bag{"tenant_id": 9, "user": "ops"}}, in)
	})

	t.Run("nil origin", func(t *testing.T) {
		t.Parallel()
		in := tenant.Normalize(config(tenant.StrategyManual), nil)
		assert.Equal(t, tenant.Input{}, in)
		assert.Equal(t, "Unknown", in.Kind.String())
	})
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	type key string

	got := tenant.Canonical(map[key]any{
		"company": map[string]int{"id": 1},
		"list":    []string{"a", "b"},
		"raw":     []byte("x"),
	})
	assert.Equal(t, tenant.Bag{
		"company": tenant.Bag{"id": 1},
		"list":    []any{"a", "b"},
		"raw":     []byte("x"),
	}, got)

	assert.Equal(t, tenant.Bag{}, tenant.Canonical(map[int]any{1: "dropped"}))
	assert.Nil(t, tenant.Canonical(nil))
	assert.Equal(t, "text", tenant.Canonical("text"))
}

func TestExtractUser(t *testing.T) {
	t.Parallel()

	jane := map[string]any{"id": 1, "name": "jane"}
	canonicalJane := tenant.Bag{"id": 1, "name": "jane"}

	tests := []struct {
		name     string
		strategy tenant.Strategy
		origin   tenant.Origin
		want     any
	}{
		{
			name:     "worker data user",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.WorkerOrigin{Args: []any{"todo", map[string]any{"user": jane}, 1}},
			want:     canonicalJane,
		},
		{
			name:     "worker all_data user",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.WorkerOrigin{Args: []any{"todo", map[string]any{"all_data": map[string]any{"user": jane}}}},
			want:     canonicalJane,
		},
		{
			name:     "worker without data",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.WorkerOrigin{Args: []any{123}},
		},
		{
			name:     "job payload mapping",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.JobOrigin{Payload: map[string]any{"user": jane}},
			want:     canonicalJane,
		},
		{
			name:     "job payload text",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.JobOrigin{Payload: `{"all_data": {"user": "jane"}}`},
			want:     "jane",
		},
		{
			name:     "job payload accessor",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.JobOrigin{Payload: payload{user: "jane"}},
			want:     "jane",
		},
		{
			name:     "job payload invalid json",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.JobOrigin{Payload: "invalid json"},
		},
		{
			name:     "session principal",
			strategy: tenant.StrategySessionPrincipal,
			origin:   tenant.ControllerOrigin{Request: request{principal: "jane"}},
			want:     "jane",
		},
		{
			name:     "session without request",
			strategy: tenant.StrategySessionPrincipal,
			origin:   tenant.ControllerOrigin{},
		},
		{
			name:     "external current user",
			strategy: tenant.StrategyExternalPrincipal,
			origin:   tenant.ControllerOrigin{CurrentUser: "jane"},
			want:     "jane",
		},
		{
			name:     "controller manual user",
			strategy: tenant.StrategyManual,
			origin:   tenant.ControllerOrigin{Values: map[string]any{"user": "jane"}},
			want:     "jane",
		},
		{
			name:     "controller with job strategy",
			strategy: tenant.StrategyJobPayload,
			origin:   tenant.ControllerOrigin{CurrentUser: "jane"},
		},
		{
			name:     "manual origin",
			strategy: tenant.StrategyManual,
			origin:   tenant.ManualOrigin{User: "ops"},
			want:     "ops",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config(tt.strategy)
			got := tenant.ExtractUser(cfg, tenant.Normalize(cfg, tt.origin))
			assert.Equal(t, tt.want, got)
		})
	}
}
