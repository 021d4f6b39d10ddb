package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

// EnqueuerRepository defines the interface for task creation
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Enqueuer handles task enqueueing
type Enqueuer struct {
	repo            EnqueuerRepository
	defaultQueue    string
	defaultPriority Priority
	configSource    func() tenant.Config
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &enqueuerOptions{
		defaultQueue:    DefaultQueueName,
		defaultPriority: PriorityDefault,
		configSource:    tenant.CurrentConfig,
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		repo:            repo,
		defaultQueue:    options.defaultQueue,
		defaultPriority: options.defaultPriority,
		configSource:    options.configSource,
	}, nil
}

// Enqueue adds a job task. The payload must marshal to JSON; with WithTenant
// the tenant bound to ctx is written under the configured tenant column
// unless the payload already carries one.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	if payload == nil {
		return ErrPayloadNil
	}

	options, err := e.options(opts)
	if err != nil {
		return err
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return errors.Join(ErrPayloadMarshal, fmt.Errorf("payload of type %T: %w", payload, err))
	}

	if options.stampTenant {
		if id, ok := tenant.CurrentTenantID(ctx); ok {
			payloadBytes, err = stampPayload(payloadBytes, e.configSource().TenantColumn, id)
			if err != nil {
				return err
			}
		}
	}

	name := options.taskName
	if name == "" {
		name = qualifiedStructName(payload)
	}

	return e.create(ctx, e.buildTask(TaskKindJob, name, payloadBytes, options))
}

// EnqueueArgs adds a worker task with positional arguments. With WithTenant
// the tenant bound to ctx is appended as the trailing argument.
func (e *Enqueuer) EnqueueArgs(ctx context.Context, name string, args []any, opts ...EnqueueOption) error {
	if name == "" {
		return ErrTaskNameRequired
	}

	options, err := e.options(opts)
	if err != nil {
		return err
	}

	if args == nil {
		args = []any{}
	}
	if options.stampTenant {
		if id, ok := tenant.CurrentTenantID(ctx); ok {
			args = append(slices.Clone(args), int64(id))
		}
	}

	argsBytes, err := json.Marshal(args)
	if err != nil {
		return errors.Join(ErrPayloadMarshal, err)
	}

	return e.create(ctx, e.buildTask(TaskKindWorker, name, argsBytes, options))
}

func (e *Enqueuer) options(opts []EnqueueOption) (*enqueueOptions, error) {
	options := &enqueueOptions{
		queue:      e.defaultQueue,
		priority:   e.defaultPriority,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(options)
	}
	if !options.priority.Valid() {
		return nil, ErrInvalidPriority
	}
	return options, nil
}

func (e *Enqueuer) create(ctx context.Context, task *Task) error {
	if err := e.repo.CreateTask(ctx, task); err != nil {
		return errors.Join(ErrTaskCreate, fmt.Errorf("task %q in queue %q: %w", task.TaskName, task.Queue, err))
	}
	return nil
}

func (e *Enqueuer) buildTask(kind TaskKind, name string, payload []byte, options *enqueueOptions) *Task {
	now := time.Now()
	scheduledAt := now
	if options.scheduledAt != nil {
		scheduledAt = *options.scheduledAt
	} else if options.delay > 0 {
		scheduledAt = scheduledAt.Add(options.delay)
	}

	return &Task{
		ID:          uuid.New(),
		Queue:       options.queue,
		Kind:        kind,
		TaskName:    name,
		Payload:     payload,
		Status:      TaskStatusPending,
		Priority:    options.priority,
		MaxRetries:  options.maxRetries,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
	}
}

// stampPayload sets column to id in a JSON object payload. An existing
// column value is kept.
func stampPayload(payload []byte, column string, id tenant.ID) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, ErrPayloadNotObject
	}
	if _, exists := fields[column]; exists {
		return payload, nil
	}
	fields[column] = json.RawMessage(id.String())
	stamped, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Join(ErrPayloadMarshal, err)
	}
	return stamped, nil
}
