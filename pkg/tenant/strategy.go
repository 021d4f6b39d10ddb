package tenant

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects how the tenant is resolved for every execution in the process.
// The zero value is not a valid strategy.
type Strategy uint8

const (
	// StrategySessionPrincipal reads the tenant from the authenticated principal of an HTTP session.
	StrategySessionPrincipal Strategy = iota + 1
	// StrategyExternalPrincipal reads the tenant from a flat mapping supplied by an external auth layer.
	StrategyExternalPrincipal
	// StrategyJobPayload reads the tenant from worker arguments or job payloads.
	StrategyJobPayload
	// StrategyManual takes the tenant verbatim from the caller.
	StrategyManual
)

// Strategies lists every supported strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{
		StrategySessionPrincipal,
		StrategyExternalPrincipal,
		StrategyJobPayload,
		StrategyManual,
	}
}

var strategyNames = map[Strategy]string{
	StrategySessionPrincipal:  "session_principal",
	StrategyExternalPrincipal: "external_principal",
	StrategyJobPayload:        "job_payload",
	StrategyManual:            "manual",
}

// legacy names accepted on input for deployments configured before the rename
var strategyAliases = map[string]Strategy{
	"warden":      StrategySessionPrincipal,
	"custom_auth": StrategyExternalPrincipal,
	"job_context": StrategyJobPayload,
}

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// ParseStrategy converts a configuration value into a Strategy.
// Legacy names (warden, custom_auth, job_context) are accepted.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	if s, ok := strategyAliases[name]; ok {
		return s, nil
	}

	valid := make([]string, 0, len(strategyNames))
	for _, s := range Strategies() {
		valid = append(valid, s.String())
	}
	return 0, errors.Join(ErrInvalidConfig, fmt.Errorf("%w: %q, valid strategies are: %s",
		ErrUnknownStrategy, name, strings.Join(valid, ", ")))
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so env and YAML loading
// reject unrecognised strategies when the configuration is written.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
