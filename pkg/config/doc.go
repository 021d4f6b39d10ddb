// Package config loads configuration structs from layered sources.
//
// It wraps `github.com/joho/godotenv`, `gopkg.in/yaml.v3` and
// `github.com/caarlos0/env/v11`. Load applies, in order:
//
//  1. the values already present in the struct (defaults)
//  2. an optional YAML file (WithYAMLFile)
//  3. environment variables, after loading .env files, with an optional
//     prefix (WithPrefix)
//  4. the struct's Validate method, if it has one
//
// An envDefault tag is applied whenever its variable is unset, so it also
// overrides the YAML value of that field.
//
// # Usage
//
//	cfg := tenant.DefaultConfig()
//	if err := config.Load(&cfg,
//		config.WithYAMLFile("tenant.yaml"),
//		config.WithPrefix("TENANT_RLS_"),
//	); err != nil {
//		log.Fatal(err)
//	}
//	if err := tenant.SetConfig(cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Types implementing encoding.TextUnmarshaler, such as tenant.Strategy, are
// decoded through it by both the YAML and the env layer, so invalid values are
// rejected while loading.
//
// # Error Handling
//
//   - `ErrParsingConfig`  – failed to parse env vars into struct.
//   - `ErrLoadingEnvFile` – an explicit .env file could not be loaded.
//   - `ErrReadingFile` / `ErrParsingFile` – the YAML file is missing or malformed.
//   - `ErrInvalidConfig`  – Validate rejected the result.
//   - `ErrNilPointer`     – nil pointer passed to `Load`/`MustLoad`.
package config
