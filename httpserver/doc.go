/*
Package httpserver implements the HTTP front end of the rest2grpc gateway.

The server combines two routers:

  • a chi router for operational endpoints, wrapped in the access-log middleware
  • a gin engine holding the gateway routes, mounted at "/" behind the chi router

Gateway routes are registered through Handle, which implements
interfaces.Registrar. Paths use the ":name" positional parameter syntax; the
matched parameters are passed to handlers through interfaces.PathParams.

Operational endpoints:

  • GET /livez - Liveness check
  • GET /readyz - Readiness check
  • GET /drain - Gracefully mark server as not ready
  • GET /undrain - Mark server as ready
  • /debug/pprof - Profiling, when EnablePprof is set

These paths are reserved: Handle rejects a gateway route declaring one of
them (and anything under /debug when pprof is enabled). A parameterized
gateway route such as "/:name" still matches them in gin, but requests for
them are answered by the operational router.

Prometheus metrics are served on a separate listener when MetricsAddr is set.

Example usage:

	cfg := &httpserver.HTTPServerConfig{
		Log:                      logger,
		DrainDuration:            45 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}

	server, err := httpserver.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	gw := gateway.New(sch, server, gateway.WithLogger(logger))
	if err := gw.RegisterFile("rules.yaml", "localhost:50051"); err != nil {
		log.Fatalf("Failed to register rules: %v", err)
	}

	if err := gw.Start("0.0.0.0:3000"); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer gw.Close(context.Background())
*/
package httpserver
