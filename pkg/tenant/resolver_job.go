package tenant

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dmitrymomot/tenantrls/pkg/logger"
)

const snippetLimit = 100

// JobPayloadResolver reads the tenant from background work: worker
// positional arguments, a job payload, or a tenant column key placed
// directly in the input values.
//
// No worker or job Origin fills Input.Values, so the last fallback only
// applies to an Input constructed directly and passed to Resolve.
type JobPayloadResolver struct {
	Logger *slog.Logger
}

func (r JobPayloadResolver) Resolve(ctx context.Context, cfg Config, in Input) (ID, bool) {
	if in.WorkerArgs != nil {
		if id, ok := fromWorkerArgs(cfg, in.WorkerArgs); ok {
			return id, true
		}
	}
	if in.JobPayload != nil {
		if id, ok := r.fromPayload(ctx, cfg, in.JobPayload); ok {
			return id, true
		}
	}
	if v, ok := in.Values.Lookup(cfg.TenantColumn); ok {
		if id, ok := ParseID(v); ok {
			return id, true
		}
	}

	r.logger().WarnContext(ctx, "no tenant id could be resolved from job context",
		logger.Origin(in.Kind.String()),
		slog.String("worker_args", describe(in.WorkerArgs)),
		slog.String("job_payload", describe(in.JobPayload)),
	)
	return 0, false
}

// fromWorkerArgs applies the trailing parameter convention: the last
// argument, then the one before it to tolerate a single extra parameter.
func fromWorkerArgs(cfg Config, args any) (ID, bool) {
	switch a := args.(type) {
	case []any:
		n := len(a)
		if n == 0 {
			return 0, false
		}
		if id, ok := ParseID(a[n-1]); ok {
			return id, true
		}
		if n >= 2 {
			return ParseID(a[n-2])
		}
	case Bag:
		if v, ok := a.Lookup(cfg.TenantColumn); ok {
			return ParseID(v)
		}
	}
	return 0, false
}

func (r JobPayloadResolver) fromPayload(ctx context.Context, cfg Config, payload any) (ID, bool) {
	if text, ok := asText(payload); ok {
		decoded, err := decodeJSON(text)
		if err != nil {
			r.logger().ErrorContext(ctx, "failed to parse job payload as JSON",
				logger.Error(err),
				slog.String("payload", snippet(text)),
			)
			return 0, false
		}
		return r.fromPayload(ctx, cfg, decoded)
	}

	if data, ok := payload.(Bag); ok {
		return fromPayloadBag(cfg, data)
	}

	if o, ok := payload.(HasTenantColumn); ok && present(o) {
		if v, ok := o.TenantColumn(cfg.TenantColumn); ok {
			if id, ok := ParseID(v); ok {
				return id, true
			}
		}
	}
	key := cfg.TenantObjectKey()
	if o, ok := payload.(HasTenantObject); ok {
		if obj, ok := o.TenantObject(key); ok {
			if id, ok := idOf(obj); ok {
				return id, true
			}
		}
	}
	if o, ok := payload.(HasCompany); ok && present(o) {
		return idOf(o.Company())
	}
	return 0, false
}

// fromPayloadBag checks the direct column key first so an explicit value
// wins over a nested tenant object.
func fromPayloadBag(cfg Config, data Bag) (ID, bool) {
	if v, ok := data.Lookup(cfg.TenantColumn); ok {
		if id, ok := ParseID(v); ok {
			return id, true
		}
	}
	if v, ok := data.Lookup(cfg.TenantObjectKey()); ok {
		if nested, ok := v.(Bag); ok {
			if id, ok := ParseID(nested.GetID()); ok {
				return id, true
			}
		} else if id, ok := ParseID(v); ok {
			return id, true
		}
	}
	if legacy, ok := data.Nested(legacyTenantObject); ok {
		return ParseID(legacy.GetID())
	}
	return 0, false
}

func (r JobPayloadResolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func snippet(text []byte) string {
	if len(text) > snippetLimit {
		return string(text[:snippetLimit]) + "..."
	}
	return string(text)
}

func describe(v any) string {
	if v == nil {
		return "<none>"
	}
	if text, ok := asText(v); ok {
		return snippet(text)
	}
	switch x := v.(type) {
	case []any:
		return "sequence of " + strconv.Itoa(len(x))
	case Bag:
		return "mapping with " + strconv.Itoa(len(x)) + " keys"
	default:
		return "object"
	}
}
