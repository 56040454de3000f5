// Package main (cmd/gateway) runs the rest2grpc gateway.
//
// The gateway loads gRPC service definitions, either by compiling .proto
// sources or from a prebuilt descriptor set, reads the route mappings from a
// YAML rule file and serves them as a JSON REST API. Every rule binds one RPC
// of the backend at --rpc-addr to one or more HTTP method/path pairs:
//
//	http:
//	  rules:
//	    - selector: example.v1.Example.SayHello
//	      get: /v1/hello
//	      post: /v1/hello/{name}
//
// Path templates may use either "{name}" or ":name" parameters.
//
// The server implements graceful shutdown on SIGINT/SIGTERM, exposes
// /livez, /readyz, /drain and /undrain, and serves Prometheus metrics on
// --metrics-addr.
//
// Example usage:
//
//	rest2grpc --config ./examples/rules.yaml \
//	    --proto-path ./protos --proto example/v1/example.proto \
//	    --rpc-addr localhost:50051 \
//	    --listen-addr 0.0.0.0:3000
package main
