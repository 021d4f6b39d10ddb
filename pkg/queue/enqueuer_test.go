package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantrls/pkg/queue"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

type MockEnqueuerRepository struct {
	mock.Mock
}

func (m *MockEnqueuerRepository) CreateTask(ctx context.Context, task *queue.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

// capture enqueues through a mock and returns the stored task.
func capture(t *testing.T, opts []queue.EnqueuerOption, enqueue func(e *queue.Enqueuer) error) *queue.Task {
	t.Helper()

	repo := new(MockEnqueuerRepository)
	var task *queue.Task
	repo.On("CreateTask", mock.Anything, mock.AnythingOfType("*queue.Task")).
		Run(func(args mock.Arguments) { task = args.Get(1).(*queue.Task) }).
		Return(nil).Once()

	e, err := queue.NewEnqueuer(repo, opts...)
	require.NoError(t, err)
	require.NoError(t, enqueue(e))
	repo.AssertExpectations(t)
	return task
}

func TestNewEnqueuer(t *testing.T) {
	t.Parallel()

	e, err := queue.NewEnqueuer(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
	assert.Nil(t, e)

	e, err = queue.NewEnqueuer(queue.NewMemoryStorage(),
		queue.WithDefaultQueue("critical"),
		queue.WithDefaultPriority(queue.PriorityHigh),
	)
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("builds job task", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.Enqueue(context.Background(), invoicePayload{Number: "A-1"})
		})

		assert.Equal(t, queue.TaskKindJob, task.Kind)
		assert.Equal(t, "queue_test.invoicePayload", task.TaskName)
		assert.Equal(t, queue.DefaultQueueName, task.Queue)
		assert.Equal(t, queue.PriorityDefault, task.Priority)
		assert.Equal(t, queue.TaskStatusPending, task.Status)
		assert.Equal(t, int8(3), task.MaxRetries)
		assert.JSONEq(t, `{"number":"A-1"}`, string(task.Payload))
		assert.False(t, task.ScheduledAt.Before(before))
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		at := time.Now().Add(time.Hour)
		task := capture(t, []queue.EnqueuerOption{queue.WithDefaultQueue("billing")}, func(e *queue.Enqueuer) error {
			return e.Enqueue(context.Background(), invoicePayload{},
				queue.WithPriority(queue.PriorityMax),
				queue.WithMaxRetries(0),
				queue.WithTaskName("invoices.send"),
				queue.WithScheduledAt(at),
			)
		})

		assert.Equal(t, "billing", task.Queue)
		assert.Equal(t, queue.PriorityMax, task.Priority)
		assert.Equal(t, int8(0), task.MaxRetries)
		assert.Equal(t, "invoices.send", task.TaskName)
		assert.True(t, task.ScheduledAt.Equal(at))
	})

	t.Run("delay", func(t *testing.T) {
		t.Parallel()

		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.Enqueue(context.Background(), invoicePayload{}, queue.WithDelay(time.Hour))
		})
		assert.True(t, task.ScheduledAt.After(time.Now().Add(59*time.Minute)))
	})

	t.Run("stamps current tenant", func(t *testing.T) {
		t.Parallel()

		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.Enqueue(tenantContext(7), invoicePayload{Number: "A-1"}, queue.WithTenant())
		})
		assert.JSONEq(t, `{"number":"A-1","company_id":7}`, string(task.Payload))
	})

	t.Run("stamps configured column", func(t *testing.T) {
		t.Parallel()

		cfg := func() tenant.Config {
			return tenant.Config{Strategy: tenant.StrategyJobPayload, TenantColumn: "account_id"}
		}
		task := capture(t, []queue.EnqueuerOption{queue.WithTenantConfig(cfg)}, func(e *queue.Enqueuer) error {
			return e.Enqueue(tenantContext(7), map[string]any{"x": 1}, queue.WithTenant())
		})
		assert.JSONEq(t, `{"x":1,"account_id":7}`, string(task.Payload))
	})

	t.Run("keeps explicit tenant", func(t *testing.T) {
		t.Parallel()

		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.Enqueue(tenantContext(7), map[string]any{"company_id": 3}, queue.WithTenant())
		})
		assert.JSONEq(t, `{"company_id":3}`, string(task.Payload))
	})

	t.Run("no tenant bound", func(t *testing.T) {
		t.Parallel()

		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.Enqueue(context.Background(), invoicePayload{Number: "A-1"}, queue.WithTenant())
		})
		assert.JSONEq(t, `{"number":"A-1"}`, string(task.Payload))
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		e, err := queue.NewEnqueuer(queue.NewMemoryStorage())
		require.NoError(t, err)

		assert.ErrorIs(t, e.Enqueue(context.Background(), nil), queue.ErrPayloadNil)
		assert.ErrorIs(t, e.Enqueue(context.Background(), invoicePayload{}, queue.WithPriority(queue.Priority(101))), queue.ErrInvalidPriority)
		assert.ErrorIs(t, e.Enqueue(context.Background(), make(chan int)), queue.ErrPayloadMarshal)
		assert.ErrorIs(t, e.Enqueue(tenantContext(7), []int{1, 2}, queue.WithTenant()), queue.ErrPayloadNotObject)
	})

	t.Run("repository error", func(t *testing.T) {
		t.Parallel()

		repo := new(MockEnqueuerRepository)
		defer repo.AssertExpectations(t)
		storageErr := errors.New("storage down")
		repo.On("CreateTask", mock.Anything, mock.Anything).Return(storageErr).Once()

		e, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		err = e.Enqueue(context.Background(), invoicePayload{})
		assert.ErrorIs(t, err, queue.ErrTaskCreate)
		assert.ErrorIs(t, err, storageErr)
	})
}

func TestEnqueuer_EnqueueArgs(t *testing.T) {
	t.Parallel()

	t.Run("builds worker task", func(t *testing.T) {
		t.Parallel()

		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.EnqueueArgs(context.Background(), "reports.generate", []any{"monthly", 2024})
		})
		assert.Equal(t, queue.TaskKindWorker, task.Kind)
		assert.Equal(t, "reports.generate", task.TaskName)
		assert.JSONEq(t, `["monthly",2024]`, string(task.Payload))
	})

	t.Run("appends current tenant", func(t *testing.T) {
		t.Parallel()

		args := []any{"monthly"}
		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.EnqueueArgs(tenantContext(7), "reports.generate", args, queue.WithTenant())
		})
		assert.JSONEq(t, `["monthly",7]`, string(task.Payload))
		assert.Equal(t, []any{"monthly"}, args)
	})

	t.Run("nil args", func(t *testing.T) {
		t.Parallel()

		task := capture(t, nil, func(e *queue.Enqueuer) error {
			return e.EnqueueArgs(context.Background(), "noop", nil)
		})
		assert.Equal(t, json.RawMessage(`[]`), json.RawMessage(task.Payload))
	})

	t.Run("requires name", func(t *testing.T) {
		t.Parallel()

		e, err := queue.NewEnqueuer(queue.NewMemoryStorage())
		require.NoError(t, err)
		assert.ErrorIs(t, e.EnqueueArgs(context.Background(), "", nil), queue.ErrTaskNameRequired)
	})
}
