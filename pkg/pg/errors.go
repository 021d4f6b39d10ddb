package pg

import "errors"

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, use PG_CONN_URL env var")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
	ErrMigrationsDirNotFound    = errors.New("migrations directory not found")
	ErrMigrationPathNotProvided = errors.New("migration path not provided")

	ErrNilPool             = errors.New("connection pool cannot be nil")
	ErrInvalidSettingName  = errors.New("invalid session setting name")
	ErrAcquireConn         = errors.New("failed to acquire connection for tenant session")
	ErrBindTenant          = errors.New("failed to set tenant session variable")
	ErrClearTenant         = errors.New("failed to reset tenant session variable")
	ErrInvalidSessionValue = errors.New("tenant session variable is not a valid tenant id")
)
