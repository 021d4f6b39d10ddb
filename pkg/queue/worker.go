package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantrls/pkg/logger"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

// WorkerRepository is the storage side of a worker.
type WorkerRepository interface {
	// ClaimTask locks the next due task for workerID, or returns
	// ErrNoTaskToClaim.
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)
	CompleteTask(ctx context.Context, taskID uuid.UUID) error
	// FailTask records the error and increments the retry count.
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string) error
	MoveToDLQ(ctx context.Context, taskID uuid.UUID) error
	ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error
}

// Guard runs the work of one task as a tenant-bound unit.
// *tenant.Guard implements it.
type Guard interface {
	Run(ctx context.Context, origin tenant.Origin, work func(context.Context) error) error
}

// Worker polls the repository and runs each claimed task inside the guard:
// job tasks as tenant.JobOrigin, worker tasks as tenant.WorkerOrigin.
type Worker struct {
	repo     WorkerRepository
	guard    Guard
	workerID uuid.UUID
	queues   []string
	slots    int

	pullInterval time.Duration
	lockTimeout  time.Duration
	logger       *slog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	cancel   context.CancelFunc
	loopDone chan struct{}
	tasks    *errgroup.Group
}

// NewWorker creates a worker. It does not poll until Start.
func NewWorker(repo WorkerRepository, guard Guard, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	if guard == nil {
		return nil, ErrGuardNil
	}

	options := &workerOptions{
		queues:             []string{DefaultQueueName},
		pullInterval:       5 * time.Second,
		lockTimeout:        5 * time.Minute,
		maxConcurrentTasks: 1,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	id := uuid.New()
	return &Worker{
		repo:         repo,
		guard:        guard,
		workerID:     id,
		queues:       options.queues,
		slots:        options.maxConcurrentTasks,
		pullInterval: options.pullInterval,
		lockTimeout:  options.lockTimeout,
		logger: options.logger.With(
			logger.Component("queue"),
			slog.String("worker_id", id.String()),
		),
		handlers: make(map[string]Handler),
	}, nil
}

// RegisterHandler adds handler under its name. A nil handler is ignored.
func (w *Worker) RegisterHandler(handler Handler) error {
	if handler == nil {
		return nil
	}
	w.mu.Lock()
	w.handlers[handler.Name()] = handler
	w.mu.Unlock()
	return nil
}

func (w *Worker) RegisterHandlers(handlers ...Handler) error {
	for _, h := range handlers {
		if err := w.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

// Start begins polling in the background. Each tick claims at most one task
// and is skipped while every slot is busy.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerStarted
	}
	if len(w.handlers) == 0 {
		return ErrNoHandlers
	}

	pollCtx, cancel := context.WithCancel(ctx)
	tasks := new(errgroup.Group)
	tasks.SetLimit(w.slots)

	w.cancel = cancel
	w.tasks = tasks
	w.loopDone = make(chan struct{})

	go w.poll(pollCtx, tasks, w.loopDone)

	w.logger.Info("worker started",
		slog.Any("queues", w.queues),
		slog.Int("max_concurrent", w.slots))
	return nil
}

// Stop ends polling and waits for in-flight tasks to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}
	cancel, loopDone, tasks := w.cancel, w.loopDone, w.tasks
	w.cancel, w.loopDone, w.tasks = nil, nil, nil
	w.mu.Unlock()

	cancel()
	<-loopDone

	w.logger.Info("worker stopping, waiting for active tasks")
	_ = tasks.Wait()
	w.logger.Info("worker stopped")
	return nil
}

// Run returns a function for errgroup.Group.Go that starts the worker and
// stops it when ctx is done.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) poll(ctx context.Context, tasks *errgroup.Group, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			started := tasks.TryGo(func() error {
				if err := w.claimAndProcess(ctx); err != nil && !errors.Is(err, ErrHandlerNotFound) {
					w.logger.Error("failed to process task", logger.Error(err))
				}
				return nil
			})
			if !started {
				w.logger.Debug("all worker slots busy, skipping tick")
			}
		}
	}
}

func (w *Worker) claimAndProcess(ctx context.Context) error {
	task, err := w.repo.ClaimTask(ctx, w.workerID, w.queues, w.lockTimeout)
	if errors.Is(err, ErrNoTaskToClaim) || (err == nil && task == nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim task: %w", err)
	}

	// a claimed task outlives worker cancellation so shutdown lets it finish
	return w.process(context.WithoutCancel(ctx), task)
}

// process runs task with its handler inside the tenant guard and settles
// the outcome in the repository.
func (w *Worker) process(ctx context.Context, task *Task) (err error) {
	start := time.Now()
	log := w.logger.With(
		logger.TaskID(task.ID.String()),
		slog.String("task_name", task.TaskName),
		slog.String("queue", task.Queue),
	)
	log.Debug("claimed task")

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", slog.Any("panic", r))
			err = w.fail(ctx, log, task, fmt.Errorf("panic in handler: %v", r), time.Since(start))
		}
	}()

	w.mu.RLock()
	handler, ok := w.handlers[task.TaskName]
	w.mu.RUnlock()
	if !ok {
		return w.deadLetter(ctx, log, task)
	}

	origin, err := originFor(task, handler)
	if err != nil {
		return w.fail(ctx, log, task, err, time.Since(start))
	}

	runCtx, cancel := context.WithTimeout(ctx, w.lockTimeout)
	defer cancel()

	err = w.guard.Run(runCtx, origin, func(ctx context.Context) error {
		return handler.Handle(ctx, task.Payload)
	})
	if err != nil {
		return w.fail(ctx, log, task, err, time.Since(start))
	}

	if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to mark task %s as completed: %w", task.ID, err)
	}
	log.Info("task completed", logger.Duration(time.Since(start)))
	return nil
}

// originFor describes the task to the guard. Worker arguments are decoded
// up front so the resolver sees numbers as json.Number.
func originFor(task *Task, handler Handler) (tenant.Origin, error) {
	if task.Kind == TaskKindWorker {
		args, err := decodeArgs(task.Payload)
		if err != nil {
			return nil, err
		}
		return tenant.WorkerOrigin{Args: args}, nil
	}

	origin := tenant.JobOrigin{Payload: json.RawMessage(task.Payload)}
	if p, ok := handler.(PayloadParser); ok {
		origin.Parse = p.ParsePayload
	}
	return origin, nil
}

// deadLetter parks a task without a registered handler. Retrying cannot
// help until the handler is deployed.
func (w *Worker) deadLetter(ctx context.Context, log *slog.Logger, task *Task) error {
	log.Error("no handler registered for task")

	if err := w.repo.FailTask(ctx, task.ID, "no handler registered for task: "+task.TaskName); err != nil {
		return fmt.Errorf("failed to mark task %s as failed: %w", task.ID, err)
	}
	if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to move task %s to DLQ: %w", task.ID, err)
	}
	return ErrHandlerNotFound
}

// fail records execErr. The repository reschedules the task while retries
// remain; the last failure moves it to the DLQ.
func (w *Worker) fail(ctx context.Context, log *slog.Logger, task *Task, execErr error, duration time.Duration) error {
	log.Error("task failed",
		logger.RetryCount(int(task.RetryCount)),
		slog.Int("max_retries", int(task.MaxRetries)),
		logger.Duration(duration),
		logger.Error(execErr))

	if err := w.repo.FailTask(ctx, task.ID, execErr.Error()); err != nil {
		return fmt.Errorf("failed to mark task %s as failed: %w", task.ID, err)
	}

	// task is the claimed copy; FailTask incremented the stored count
	if task.RetryCount+1 < task.MaxRetries {
		return nil
	}
	if err := w.repo.MoveToDLQ(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to move task %s to DLQ: %w", task.ID, err)
	}
	log.Warn("task moved to dead letter queue")
	return nil
}

// ExtendLockForTask extends the lock of a long-running task.
func (w *Worker) ExtendLockForTask(ctx context.Context, taskID uuid.UUID, extension time.Duration) error {
	return w.repo.ExtendLock(ctx, taskID, extension)
}

// WorkerInfo identifies this worker process.
func (w *Worker) WorkerInfo() (id string, hostname string, pid int) {
	hostname, _ = os.Hostname()
	return w.workerID.String(), hostname, os.Getpid()
}
