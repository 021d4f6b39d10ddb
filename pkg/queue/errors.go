package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrGuardNil is returned when a worker is created without a tenant guard
	ErrGuardNil = errors.New("tenant guard cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrPayloadMarshal is returned when payload marshaling fails
	ErrPayloadMarshal = errors.New("failed to marshal payload to JSON")

	// ErrPayloadNotObject is returned when a tenant must be stamped into a
	// payload that does not encode as a JSON object
	ErrPayloadNotObject = errors.New("payload must encode as a JSON object to carry a tenant")

	// ErrInvalidArgs is returned when worker task arguments are not a JSON array
	ErrInvalidArgs = errors.New("worker task arguments must be a JSON array")

	// ErrTaskCreate is returned when task creation in storage fails
	ErrTaskCreate = errors.New("failed to create task in storage")

	// ErrTaskNameRequired is returned when worker arguments are enqueued without a name
	ErrTaskNameRequired = errors.New("task name is required")

	// ErrInvalidPriority is returned when priority is outside valid range
	ErrInvalidPriority = errors.New("priority must be between 0 and 100")

	// ErrHandlerNotFound is returned when no handler is registered for a task
	ErrHandlerNotFound = errors.New("no handler registered for task type")

	// ErrNoHandlers is returned when worker has no handlers registered
	ErrNoHandlers = errors.New("no task handlers registered")

	// ErrNoTaskToClaim is returned by storage when no task is ready
	ErrNoTaskToClaim = errors.New("no task available to claim")

	// ErrTaskNotFound is returned when storage has no task with the given ID
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotProcessing is returned when a task is not in the processing state
	ErrTaskNotProcessing = errors.New("task is not in processing state")

	// ErrWorkerStarted is returned by Start on a running worker
	ErrWorkerStarted = errors.New("worker already started")

	// ErrWorkerNotStarted is returned by Stop on a stopped worker
	ErrWorkerNotStarted = errors.New("worker not started")
)
