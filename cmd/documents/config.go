package main

import (
	"errors"

	"github.com/dmitrymomot/tenantrls/pkg/httpserver"
	"github.com/dmitrymomot/tenantrls/pkg/logger"
	"github.com/dmitrymomot/tenantrls/pkg/pg"
	"github.com/dmitrymomot/tenantrls/pkg/queue"
	"github.com/dmitrymomot/tenantrls/pkg/tenant"
)

type appConfig struct {
	Tenant tenant.Config     `yaml:"tenant" envPrefix:"TENANT_RLS_"`
	DB     pg.Config         `yaml:"db"`
	Queue  queue.Config      `yaml:"queue"`
	HTTP   httpserver.Config `yaml:"http"`
	Log    logger.Config     `yaml:"log"`

	JWTSecret string `env:"JWT_SECRET,required" yaml:"jwt_secret"`
	JWTIssuer string `env:"JWT_ISSUER" yaml:"jwt_issuer"`
}

// defaultConfig resolves tenants from verified token claims.
func defaultConfig() appConfig {
	cfg := appConfig{Tenant: tenant.DefaultConfig()}
	cfg.Tenant.Strategy = tenant.StrategyExternalPrincipal
	return cfg
}

// backgroundTenant keeps the tenant column and session setting of c but reads
// the tenant from queued task payloads.
func backgroundTenant(c tenant.Config) tenant.Config {
	c.Strategy = tenant.StrategyJobPayload
	return c
}

func (c appConfig) Validate() error {
	return errors.Join(
		c.Tenant.Validate(),
		c.DB.Validate(),
		c.HTTP.Validate(),
		c.Log.Validate(),
	)
}
