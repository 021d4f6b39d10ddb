package tenant

import (
	"encoding/json"
	"reflect"
)

const (
	manualTenantKey = "tenant_id"
	userKey         = "user"
	allDataKey      = "all_data"
	currentUserKey  = "current_user"
)

// Input is the normalized context bag consumed by exactly one resolver and
// one user extraction. It is built fresh for every execution.
type Input struct {
	Kind       OriginKind
	Request    RequestOrigin
	Values     Bag
	WorkerArgs any
	JobPayload any
}

// Normalize maps a call-site origin to the input shape expected by the
// configured strategy. Controller inputs are shaped per strategy; the other
// origins have a fixed shape.
func Normalize(cfg Config, o Origin) Input {
	switch o := o.(type) {
	case ControllerOrigin:
		return normalizeController(cfg, o)
	case WorkerOrigin:
		return Input{Kind: OriginWorker, WorkerArgs: Canonical(o.Args)}
	case JobOrigin:
		return Input{Kind: OriginJob, JobPayload: Canonical(o.Payload)}
	case ManualOrigin:
		return Input{Kind: OriginManual, Values: Bag{manualTenantKey: o.TenantID, userKey: o.User}}
	default:
		return Input{}
	}
}

func normalizeController(cfg Config, o ControllerOrigin) Input {
	in := Input{Kind: OriginController}

	switch cfg.Strategy {
	case StrategySessionPrincipal:
		in.Request = o.Request
	case StrategyExternalPrincipal:
		values := toBag(o.Values)
		if present(o.CurrentUser) {
			values[currentUserKey] = o.CurrentUser
		}
		if present(o.CurrentCompany) {
			values[legacyCurrentObject] = o.CurrentCompany
		}
		key := cfg.TenantObjectKey()
		obj := o.TenantObject
		if !present(obj) {
			if src, ok := o.Request.(TenantObjectSource); ok {
				obj, _ = src.CurrentTenantObject(key)
			}
		}
		if present(obj) {
			if _, exists := values.Lookup(key); !exists {
				values[key] = obj
			}
			values["current_"+key] = obj
		}
		in.Values = values
	case StrategyManual:
		values := toBag(o.Values)
		in.Values = Bag{manualTenantKey: values[manualTenantKey], userKey: values[userKey]}
	case StrategyJobPayload:
		// requests carry no job data
	}
	return in
}

// ExtractUser finds the acting user for observability. It mirrors the
// resolver dispatch and is independent of tenant resolution success.
// The result is never used for authorization.
func ExtractUser(cfg Config, in Input) any {
	switch in.Kind {
	case OriginWorker:
		return userFromWorkerArgs(in.WorkerArgs)
	case OriginJob:
		return userFromPayload(in.JobPayload)
	case OriginController:
		switch cfg.Strategy {
		case StrategySessionPrincipal:
			if in.Request == nil {
				return nil
			}
			if p, ok := in.Request.CurrentPrincipal(); ok {
				return p
			}
			return nil
		case StrategyExternalPrincipal:
			return in.Values[currentUserKey]
		case StrategyManual:
			return in.Values[userKey]
		default:
			return nil
		}
	case OriginManual:
		return in.Values[userKey]
	default:
		return nil
	}
}

// worker convention: perform(kind, data, tenant_id) with data.user or data.all_data.user
func userFromWorkerArgs(args any) any {
	list, ok := args.([]any)
	if !ok || len(list) < 2 {
		return nil
	}
	data, ok := list[1].(Bag)
	if !ok {
		return nil
	}
	return userFromBag(data)
}

func userFromPayload(payload any) any {
	if text, ok := asText(payload); ok {
		decoded, err := decodeJSON(text)
		if err != nil {
			return nil
		}
		payload = decoded
	}
	switch p := payload.(type) {
	case nil:
		return nil
	case Bag:
		return userFromBag(p)
	case HasUser:
		if u := p.User(); present(u) {
			return u
		}
	}
	return nil
}

func userFromBag(data Bag) any {
	if u, ok := data.Lookup(userKey); ok {
		return u
	}
	if all, ok := data.Nested(allDataKey); ok {
		if u, ok := all.Lookup(userKey); ok {
			return u
		}
	}
	return nil
}

func toBag(m map[string]any) Bag {
	if m == nil {
		return Bag{}
	}
	return canonicalStringMap(m)
}

func asText(v any) ([]byte, bool) {
	switch t := v.(type) {
	case string:
		return []byte(t), true
	case []byte:
		return t, true
	case json.RawMessage:
		return t, true
	default:
		return nil, false
	}
}

// present reports whether v holds a usable value: not nil and not a nil
// pointer, map, slice or interface hidden behind a non-nil interface.
func present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}
