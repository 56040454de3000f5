// Package main (cmd/example-server) serves the example.Example gRPC service
// from protos/example.proto, for trying the gateway locally:
//
//	example-server --proto-path ./protos
//	rest2grpc --config ./protos/example.yaml --proto-path ./protos --proto example.proto
//	curl localhost:3000/v1/hello
package main
