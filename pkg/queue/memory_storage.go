package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// retryBackoff is the delay added per failed attempt.
const retryBackoff = 30 * time.Second

// MemoryStorage implements all queue repository interfaces for testing and
// local development. Expired locks are released when the next task is claimed.
type MemoryStorage struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*Task
	dlq   []TasksDlq

	byStatus map[TaskStatus][]uuid.UUID
	now      func() time.Time
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks:    make(map[uuid.UUID]*Task),
		byStatus: make(map[TaskStatus][]uuid.UUID),
		now:      time.Now,
	}
}

// CreateTask implements EnqueuerRepository
func (ms *MemoryStorage) CreateTask(_ context.Context, task *Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	taskCopy := *task
	ms.tasks[task.ID] = &taskCopy
	ms.byStatus[task.Status] = append(ms.byStatus[task.Status], task.ID)

	return nil
}

// ClaimTask implements WorkerRepository. The highest priority ready task
// wins; ties go to the earliest scheduled one.
func (ms *MemoryStorage) ClaimTask(_ context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	ms.expireLocks(now)

	var best *Task
	for _, taskID := range ms.byStatus[TaskStatusPending] {
		task := ms.tasks[taskID]

		if !slices.Contains(queues, task.Queue) {
			continue
		}
		if task.ScheduledAt.After(now) {
			continue
		}

		if best == nil ||
			task.Priority > best.Priority ||
			(task.Priority == best.Priority && task.ScheduledAt.Before(best.ScheduledAt)) {
			best = task
		}
	}

	if best == nil {
		return nil, ErrNoTaskToClaim
	}

	lockUntil := now.Add(lockDuration)
	best.LockedUntil = &lockUntil
	best.LockedBy = &workerID
	ms.setStatus(best, TaskStatusProcessing)

	taskCopy := *best
	return &taskCopy, nil
}

// CompleteTask implements WorkerRepository
func (ms *MemoryStorage) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, err := ms.processing(taskID)
	if err != nil {
		return err
	}

	now := ms.now()
	task.ProcessedAt = &now
	task.LockedUntil = nil
	task.LockedBy = nil
	ms.setStatus(task, TaskStatusCompleted)

	return nil
}

// FailTask implements WorkerRepository. While retries remain the task goes
// back to pending with a linear backoff.
func (ms *MemoryStorage) FailTask(_ context.Context, taskID uuid.UUID, errorMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, err := ms.processing(taskID)
	if err != nil {
		return err
	}

	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil
	task.LockedBy = nil

	if task.RetryCount >= task.MaxRetries {
		ms.setStatus(task, TaskStatusFailed)
		return nil
	}

	task.ScheduledAt = ms.now().Add(time.Duration(task.RetryCount) * retryBackoff)
	ms.setStatus(task, TaskStatusPending)
	return nil
}

// MoveToDLQ implements WorkerRepository
func (ms *MemoryStorage) MoveToDLQ(_ context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, exists := ms.tasks[taskID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	now := ms.now()
	entry := TasksDlq{
		ID:         uuid.New(),
		TaskID:     task.ID,
		Queue:      task.Queue,
		Kind:       task.Kind,
		TaskName:   task.TaskName,
		Payload:    task.Payload,
		Priority:   task.Priority,
		RetryCount: task.RetryCount,
		FailedAt:   now,
		CreatedAt:  now,
	}
	if task.Error != nil {
		entry.Error = *task.Error
	}
	ms.dlq = append(ms.dlq, entry)

	ms.removeFromStatusIndex(taskID, task.Status)
	delete(ms.tasks, taskID)

	return nil
}

// ExtendLock implements WorkerRepository
func (ms *MemoryStorage) ExtendLock(_ context.Context, taskID uuid.UUID, duration time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, err := ms.processing(taskID)
	if err != nil {
		return err
	}

	lockUntil := ms.now().Add(duration)
	task.LockedUntil = &lockUntil

	return nil
}

// Task returns a copy of the stored task.
func (ms *MemoryStorage) Task(taskID uuid.UUID) (Task, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	task, ok := ms.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Tasks returns copies of all stored tasks with the given status.
func (ms *MemoryStorage) Tasks(status TaskStatus) []Task {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	ids := ms.byStatus[status]
	tasks := make([]Task, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, *ms.tasks[id])
	}
	return tasks
}

// DLQ returns the dead letter entries in insertion order.
func (ms *MemoryStorage) DLQ() []TasksDlq {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return slices.Clone(ms.dlq)
}

func (ms *MemoryStorage) processing(taskID uuid.UUID) (*Task, error) {
	task, exists := ms.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if task.Status != TaskStatusProcessing {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotProcessing, taskID)
	}
	return task, nil
}

func (ms *MemoryStorage) setStatus(task *Task, status TaskStatus) {
	ms.removeFromStatusIndex(task.ID, task.Status)
	task.Status = status
	ms.byStatus[status] = append(ms.byStatus[status], task.ID)
}

func (ms *MemoryStorage) removeFromStatusIndex(taskID uuid.UUID, status TaskStatus) {
	ms.byStatus[status] = slices.DeleteFunc(ms.byStatus[status], func(id uuid.UUID) bool {
		return id == taskID
	})
}

// expireLocks returns processing tasks whose lock has passed to pending,
// recovering work from crashed workers. The retry count is kept.
// Callers hold ms.mu.
func (ms *MemoryStorage) expireLocks(now time.Time) {
	for _, taskID := range slices.Clone(ms.byStatus[TaskStatusProcessing]) {
		task := ms.tasks[taskID]
		if task.LockedUntil != nil && task.LockedUntil.Before(now) {
			task.LockedUntil = nil
			task.LockedBy = nil
			ms.setStatus(task, TaskStatusPending)
		}
	}
}
