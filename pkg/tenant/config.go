package tenant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

const (
	// DefaultTenantColumn is the tenant column used when none is configured.
	DefaultTenantColumn = "company_id"

	// legacy keys kept for schemas that predate the configurable column
	legacyTenantColumn  = "company_id"
	legacyTenantObject  = "company"
	legacyCurrentObject = "current_company"
	legacyJoinAssoc     = "companies_users"
)

var columnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config is the process-wide tenant resolution configuration.
// Fields carry env and yaml tags so it can be loaded with pkg/config.
type Config struct {
	Strategy     Strategy `env:"STRATEGY" yaml:"strategy"`
	TenantColumn string   `env:"TENANT_COLUMN" yaml:"tenant_column"`
	Debug        bool     `env:"DEBUG" yaml:"debug"`
}

// DefaultConfig returns the configuration used until SetConfig is called.
func DefaultConfig() Config {
	return Config{
		Strategy:     StrategySessionPrincipal,
		TenantColumn: DefaultTenantColumn,
		Debug:        false,
	}
}

// TenantObjectKey derives the tenant entity key from the column name by
// stripping a trailing "_id": company_id -> company, account_id -> account.
func (c Config) TenantObjectKey() string {
	return strings.TrimSuffix(c.TenantColumn, "_id")
}

// JoinAssociation is the join collection probed on principals, e.g. companys_users.
func (c Config) JoinAssociation() string {
	return c.TenantObjectKey() + "s_users"
}

// Validate checks the strategy against the supported set and the column name shape.
func (c Config) Validate() error {
	if !c.Strategy.Valid() {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("%w: %s", ErrUnknownStrategy, c.Strategy))
	}
	if !columnPattern.MatchString(c.TenantColumn) {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("%w: %q", ErrInvalidColumn, c.TenantColumn))
	}
	return nil
}

var activeConfig atomic.Pointer[Config]

func init() {
	cfg := DefaultConfig()
	activeConfig.Store(&cfg)
}

// CurrentConfig returns the active process-wide configuration.
// It is read on every resolution, so replacements take effect immediately.
func CurrentConfig() Config {
	return *activeConfig.Load()
}

// SetConfig validates cfg and replaces the process-wide configuration wholesale.
func SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	activeConfig.Store(&cfg)
	return nil
}

// ResetConfig restores DefaultConfig. Intended for tests.
func ResetConfig() {
	cfg := DefaultConfig()
	activeConfig.Store(&cfg)
}
