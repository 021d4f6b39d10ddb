// Package httpserver runs the HTTP side of a tenant-scoped service.
//
// Run takes a context instead of trapping signals, so it composes with
// the queue worker under one errgroup:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(worker.Run(ctx))
//	g.Go(func() error { return httpserver.NewFromConfig(cfg.HTTP).Run(ctx, router) })
//	return g.Wait()
//
// Request contexts detach from the run context, so a request already inside
// a tenant guard finishes its cleanup during the drain window.
//
// LivenessHandler and ReadinessHandler back the /livez and /readyz probes.
// Mount them outside tenant.Middleware or list them in tenant.WithSkipPaths.
package httpserver
