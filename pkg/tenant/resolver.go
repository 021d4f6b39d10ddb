package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tenantrls/pkg/logger"
)

// Resolver extracts a tenant ID from a normalized input.
// Malformed or missing tenant data yields (0, false); it is never an error.
type Resolver interface {
	Resolve(ctx context.Context, cfg Config, in Input) (ID, bool)
}

// ResolverFunc is an adapter to allow ordinary functions to act as resolvers.
type ResolverFunc func(ctx context.Context, cfg Config, in Input) (ID, bool)

// Resolve calls f(ctx, cfg, in).
func (f ResolverFunc) Resolve(ctx context.Context, cfg Config, in Input) (ID, bool) {
	return f(ctx, cfg, in)
}

// ResolverFor returns the resolver for the strategy. An unknown strategy is a
// configuration error.
func ResolverFor(s Strategy, log *slog.Logger) (Resolver, error) {
	switch s {
	case StrategySessionPrincipal:
		return SessionPrincipalResolver{}, nil
	case StrategyExternalPrincipal:
		return ExternalPrincipalResolver{}, nil
	case StrategyJobPayload:
		return JobPayloadResolver{Logger: log}, nil
	case StrategyManual:
		return ManualResolver{}, nil
	default:
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("%w: %s", ErrUnknownStrategy, s))
	}
}

// ResolveTenantID dispatches in to the resolver selected by cfg.Strategy.
func ResolveTenantID(ctx context.Context, cfg Config, in Input, log *slog.Logger) (ID, bool, error) {
	if log == nil {
		log = slog.Default()
	}
	r, err := ResolverFor(cfg.Strategy, log)
	if err != nil {
		return 0, false, err
	}
	id, ok := r.Resolve(ctx, cfg, in)
	if cfg.Debug {
		log.DebugContext(ctx, "tenant resolution finished",
			logger.Strategy(cfg.Strategy.String()),
			logger.Origin(in.Kind.String()),
			logger.TenantID(id.String()),
			slog.Bool("resolved", ok),
		)
	}
	return id, ok, nil
}

// SessionPrincipalResolver reads the tenant from the principal authenticated
// by the request session.
//
// Probe order: the tenant column attribute, the tenant object id, the first
// record of the <key>s_users association, then the legacy companies_users
// association.
type SessionPrincipalResolver struct{}

func (SessionPrincipalResolver) Resolve(_ context.Context, cfg Config, in Input) (ID, bool) {
	if in.Request == nil {
		return 0, false
	}
	principal, ok := in.Request.CurrentPrincipal()
	if !ok || !present(principal) {
		return 0, false
	}
	principal = Canonical(principal)

	if p, ok := principal.(HasTenantColumn); ok {
		if v, ok := p.TenantColumn(cfg.TenantColumn); ok {
			if id, ok := ParseID(v); ok {
				return id, true
			}
		}
	}
	if p, ok := principal.(HasTenantObject); ok {
		if obj, ok := p.TenantObject(cfg.TenantObjectKey()); ok {
			if id, ok := idOf(obj); ok {
				return id, true
			}
		}
	}
	if id, ok := viaAssociation(principal, cfg.JoinAssociation(), cfg.TenantColumn); ok {
		return id, true
	}
	return viaAssociation(principal, legacyJoinAssoc, legacyTenantColumn)
}

func viaAssociation(principal any, name, column string) (ID, bool) {
	p, ok := principal.(HasAssociation)
	if !ok {
		return 0, false
	}
	items, ok := p.Association(name)
	if !ok {
		return 0, false
	}
	first, ok := firstOf(items)
	if !ok {
		return 0, false
	}
	rec, ok := first.(HasTenantColumn)
	if !ok {
		return 0, false
	}
	v, ok := rec.TenantColumn(column)
	if !ok {
		return 0, false
	}
	return ParseID(v)
}

// ExternalPrincipalResolver reads the tenant from a flat mapping populated by
// an external auth layer.
//
// Probe order: the tenant column key, the tenant object key (a raw ID or an
// object exposing an id), then the legacy current_company object.
type ExternalPrincipalResolver struct{}

func (ExternalPrincipalResolver) Resolve(_ context.Context, cfg Config, in Input) (ID, bool) {
	if v, ok := in.Values.Lookup(cfg.TenantColumn); ok {
		if id, ok := ParseID(v); ok {
			return id, true
		}
	}
	if obj, ok := in.Values.Lookup(cfg.TenantObjectKey()); ok {
		if id, ok := ParseID(obj); ok {
			return id, true
		}
		if id, ok := idOf(obj); ok {
			return id, true
		}
	}
	if obj, ok := in.Values.Lookup(legacyCurrentObject); ok {
		return idOf(obj)
	}
	return 0, false
}

// ManualResolver trusts the explicitly supplied tenant_id, subject only to
// the positive integer rule.
type ManualResolver struct{}

func (ManualResolver) Resolve(_ context.Context, _ Config, in Input) (ID, bool) {
	return ParseID(in.Values[manualTenantKey])
}
