package pg

import (
	"fmt"
	"time"
)

const DefaultTenantSetting = "tenant_rls.tenant_id"

type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL,required" yaml:"conn_url"`                       // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10" yaml:"max_open_conns"`     // MaxOpenConns is the maximum number of open connections to the database.
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5" yaml:"max_idle_conns"`      // MaxIdleConns is the minimum number of connections kept open.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m" yaml:"healthcheck"`    // HealthCheckPeriod is the period between health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m" yaml:"max_idle_time"` // MaxConnIdleTime is the maximum amount of time a connection may be idle to be reused.
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m" yaml:"max_lifetime"`   // MaxConnLifetime is the maximum amount of time a connection may be reused.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts"`  // RetryAttempts is the number of attempts to connect to the database.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval"` // RetryInterval is the base interval between attempts, e.g. "5s".

	MigrationsPath  string `env:"PG_MIGRATIONS_PATH" envDefault:"internal/db/migrations" yaml:"migrations_path"` // MigrationsPath is the path to the migrations directory.
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations" yaml:"migrations_table"`    // MigrationsTable is the name of the table used to store the migration version.

	// TenantSetting is the session variable read by row-level security policies.
	TenantSetting string `env:"PG_TENANT_SETTING" envDefault:"tenant_rls.tenant_id" yaml:"tenant_setting"`
}

// Validate checks the fields the pool and the binder cannot recover from.
func (c Config) Validate() error {
	if c.ConnectionString == "" {
		return ErrEmptyConnectionString
	}
	if c.TenantSetting != "" && !settingPattern.MatchString(c.TenantSetting) {
		return fmt.Errorf("%w: %q", ErrInvalidSettingName, c.TenantSetting)
	}
	return nil
}
