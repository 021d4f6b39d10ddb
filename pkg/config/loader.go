package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration structs that check themselves
// after loading.
type Validator interface {
	Validate() error
}

type options struct {
	envFiles []string
	yamlFile string
	prefix   string
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles loads the given .env files instead of the default one.
// Missing explicit files are an error.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.envFiles = append(o.envFiles, files...)
	}
}

// WithYAMLFile decodes the given YAML file before environment variables are
// applied.
func WithYAMLFile(path string) Option {
	return func(o *options) {
		o.yamlFile = path
	}
}

// WithPrefix prepends prefix to every env tag, e.g. TENANT_RLS_ + STRATEGY.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// Load populates v in layers: the values already in v act as defaults, then
// the YAML file, then environment variables (after loading .env files).
// Existing process variables are never overwritten by .env files.
// If v implements Validator, it is validated last.
//
// Example:
//
//	cfg := tenant.DefaultConfig()
//	if err := config.Load(&cfg, config.WithPrefix("TENANT_RLS_")); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.envFiles) > 0 {
		if err := godotenv.Load(o.envFiles...); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	} else {
		// the default .env file is optional
		_ = godotenv.Load()
	}

	if o.yamlFile != "" {
		data, err := os.ReadFile(o.yamlFile)
		if err != nil {
			return errors.Join(ErrReadingFile, err)
		}
		if err := yaml.Unmarshal(data, v); err != nil {
			return errors.Join(ErrParsingFile, fmt.Errorf("%s: %w", o.yamlFile, err))
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
