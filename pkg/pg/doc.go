// Package pg connects to PostgreSQL with pgx/v5 and binds the tenant of a
// unit of work to a database session, so row-level security policies can
// filter rows by tenant.
//
// Connect opens a *pgxpool.Pool from Config with retries, Migrate applies goose
// migrations through the pool and Healthcheck returns a ping closure for
// readiness probes.
//
// Binder implements tenant.SessionBinder. BindTenant pins a pooled connection
// to the unit context and runs
//
//	SELECT set_config('tenant_rls.tenant_id', '<id>', false)
//
// on it. Queries issued through Querier(ctx, pool) use that connection, so a
// policy such as
//
//	CREATE POLICY tenant_isolation ON documents
//	    USING (company_id = NULLIF(current_setting('tenant_rls.tenant_id', true), '')::bigint);
//
// only sees the rows of the bound tenant. ClearTenant resets the setting and
// releases the connection; a connection whose reset failed is closed rather
// than returned to the pool.
//
// Usage:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	binder, err := pg.NewBinder(pool, pg.WithSettingName(cfg.TenantSetting))
//	if err != nil {
//		return err
//	}
//	guard, err := tenant.NewGuard(binder)
//	if err != nil {
//		return err
//	}
//	err = guard.Run(ctx, tenant.ManualOrigin{TenantID: 42}, func(ctx context.Context) error {
//		_, err := pg.Querier(ctx, pool).Exec(ctx, "UPDATE documents SET archived = true")
//		return err
//	})
//
// Row-level security is bypassed by superusers and table owners, so the
// application must connect as a role that is neither, or the tables must use
// FORCE ROW LEVEL SECURITY.
package pg
