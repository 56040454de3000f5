/*
Package gateway implements the routing and invocation engine of rest2grpc.

A Gateway reads rules, resolves one gRPC target per rule selector and
registers one HTTP handler per declared method and path. Every request runs
through the interceptor pipeline:

	PreHandle (each interceptor, in order)
	  -> RPC invocation
	  -> PostHandle (each interceptor, in order)
	  -> response written
	  -> AfterCompletion (each interceptor, in order)

A PreHandle hook returning false ends the request immediately: no RPC call
is made, nothing is written by the gateway and no further hook runs.

When a hook fails (returns an error or panics) the configured
interfaces.ErrorHandler decides: true suppresses the failure and the phase
continues with the next interceptor, false aborts the request and returns the
error to the HTTP server. The default handler logs and propagates.

RPC errors are not hook failures. They flow through PostHandle and
AfterCompletion as Result.Err and are written as the JSON form of a
google.rpc.Status with status 200, unless a PostHandle hook sets
Result.Status (see StatusMappingInterceptor).

Usage:

	sch, err := schema.Load(ctx, []string{"protos"}, "example.proto")
	srv, err := httpserver.New(cfg)
	gw := gateway.New(sch, srv, gateway.WithLogger(log))
	gw.AddInterceptor(gateway.NewLoggingInterceptor(log))
	err = gw.RegisterFile("rules.yaml", "localhost:50051")
	err = gw.Start(":3000")
	defer gw.Close(ctx)

Registration must complete before Start; targets and interceptors are
read-only while serving.
*/
package gateway
