// Package rpc implements gateway targets on top of gRPC.
//
// A ServiceClient owns one client connection to a single address and invokes
// the unary methods of one service descriptor. Requests and replies cross the
// package boundary as JSON; the conversion to and from protobuf happens here
// with dynamicpb, so no generated code is needed for the backend services.
//
// RegisterDynamicService does the reverse for servers: it exposes a service
// descriptor on a grpc.Server with handlers working on dynamic messages. It
// backs the example server binary and in-process tests.
package rpc
