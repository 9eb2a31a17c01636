// Package bootstrap runs a reqpipe binary through a uniform lifecycle:
// validated config, logger, component startup, start hooks, a ready check,
// a long-running or finite body, then stop hooks and component shutdown
// under a graceful timeout.
//
//	app, err := bootstrap.NewApp(&cfg, bootstrap.WithComponents(redis.NewComponent(client)))
//	app.OnStop(tracer.Shutdown)
//	err = app.RunTask(ctx, func(ctx context.Context) error { return work(ctx) })
package bootstrap
