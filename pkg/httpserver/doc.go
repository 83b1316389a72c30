// Package httpserver runs an http.Handler with graceful shutdown.
//
// Server.Run listens, serves and blocks until the context is cancelled or the
// process receives SIGINT/SIGTERM, then shuts down within the configured
// timeout. Because live notification streams never become idle, callers
// register a WithShutdownHook that ends them (for the dev backend, closing the
// broadcaster registry) so that graceful shutdown can finish.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithShutdownHook(func() { _ = streams.Close() }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// HealthCheckHandler serves liveness or readiness probes as JSON.
package httpserver
