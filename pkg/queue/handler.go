package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

type (
	Handler interface {
		Name() string
		Kind() TaskKind
		Handle(ctx context.Context, payload json.RawMessage) error
	}

	// PayloadParser is implemented by job handlers whose payload type exposes
	// tenant capabilities. The worker passes it to the guard as the parse hook.
	PayloadParser interface {
		ParsePayload(raw any) (any, error)
	}

	TaskHandlerFunc[T any] func(ctx context.Context, payload T) error
	ArgsHandlerFunc        func(ctx context.Context, args []any) error
)

// NewTaskHandler creates a job handler named after the payload type.
// When T (or *T) implements a tenant payload capability the decoded value
// is used for tenant resolution instead of the raw JSON.
func NewTaskHandler[T any](handler TaskHandlerFunc[T]) Handler {
	var payload T
	h := &jobHandler[T]{
		name:    qualifiedStructName(payload),
		handler: handler,
	}
	switch {
	case tenant.IsPayloadObject(payload):
		return &objectJobHandler[T]{jobHandler: h}
	case tenant.IsPayloadObject(&payload):
		return &objectJobHandler[T]{jobHandler: h, pointer: true}
	default:
		return h
	}
}

// NewArgsHandler creates a worker handler receiving positional arguments.
// Numbers are delivered as json.Number.
func NewArgsHandler(name string, handler ArgsHandlerFunc) Handler {
	return &argsHandler{
		name:    name,
		handler: handler,
	}
}

type jobHandler[T any] struct {
	name    string
	handler TaskHandlerFunc[T]
}

func (h *jobHandler[T]) Name() string {
	return h.name
}

func (h *jobHandler[T]) Kind() TaskKind {
	return TaskKindJob
}

func (h *jobHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return err
	}
	return h.handler(ctx, t)
}

type objectJobHandler[T any] struct {
	*jobHandler[T]
	pointer bool
}

func (h *objectJobHandler[T]) ParsePayload(raw any) (any, error) {
	var data []byte
	switch v := raw.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil, fmt.Errorf("unsupported payload type %T", raw)
	}
	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if h.pointer {
		return &t, nil
	}
	return t, nil
}

type argsHandler struct {
	name    string
	handler ArgsHandlerFunc
}

func (h *argsHandler) Name() string {
	return h.name
}

func (h *argsHandler) Kind() TaskKind {
	return TaskKindWorker
}

func (h *argsHandler) Handle(ctx context.Context, payload json.RawMessage) error {
	args, err := decodeArgs(payload)
	if err != nil {
		return err
	}
	return h.handler(ctx, args)
}
