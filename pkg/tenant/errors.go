package tenant

import "errors"

var (
	// ErrInvalidConfig is returned when the tenant configuration cannot be used.
	// It indicates a deployment defect and is never retried.
	ErrInvalidConfig = errors.New("invalid tenant configuration")

	// ErrUnknownStrategy is returned when a resolver strategy is outside the supported set.
	ErrUnknownStrategy = errors.New("unknown tenant resolver strategy")

	// ErrInvalidColumn is returned when the tenant column name has an invalid shape.
	ErrInvalidColumn = errors.New("invalid tenant column name")

	// ErrSession is returned when the database session rejects a bind or clear command.
	ErrSession = errors.New("tenant session error")

	// ErrTenantRequired is returned by a fail-closed guard when no tenant was resolved.
	ErrTenantRequired = errors.New("tenant required but not resolved")

	// ErrNilBinder is returned when a guard is created without a session binder.
	ErrNilBinder = errors.New("session binder cannot be nil")
)
