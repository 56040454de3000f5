// Package rpctest provides an in-process gRPC backend for tests.
package rpctest

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/ruteri/rest2grpc/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Address is the dial target of servers started with NewServer.
const Address = "passthrough:///bufnet"

// ExampleFile returns the descriptor of a small test schema:
//
//	package example.v1;
//	message HelloRequest { string name = 1; }
//	message HelloReply { string msg = 1; int64 count = 2; }
//	service Example {
//	  rpc SayHello(HelloRequest) returns (HelloReply);
//	  rpc Fail(HelloRequest) returns (HelloReply);
//	  rpc StreamHellos(HelloRequest) returns (stream HelloReply);
//	}
func ExampleFile() protoreflect.FileDescriptor {
	field := func(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(name),
			JsonName: proto.String(name),
			Number:   proto.Int32(number),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     typ.Enum(),
		}
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("example/v1/example.proto"),
		Package: proto.String("example.v1"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name:  proto.String("HelloRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{field("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING)},
			},
			{
				Name: proto.String("HelloReply"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("msg", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					field("count", 2, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("Example"),
				Method: []*descriptorpb.MethodDescriptorProto{
					{
						Name:       proto.String("SayHello"),
						InputType:  proto.String(".example.v1.HelloRequest"),
						OutputType: proto.String(".example.v1.HelloReply"),
					},
					{
						Name:       proto.String("Fail"),
						InputType:  proto.String(".example.v1.HelloRequest"),
						OutputType: proto.String(".example.v1.HelloReply"),
					},
					{
						Name:            proto.String("StreamHellos"),
						InputType:       proto.String(".example.v1.HelloRequest"),
						OutputType:      proto.String(".example.v1.HelloReply"),
						ServerStreaming: proto.Bool(true),
					},
				},
			},
		},
	}

	fd, err := protodesc.NewFile(fdp, new(protoregistry.Files))
	if err != nil {
		panic(fmt.Sprintf("rpctest: building example descriptor: %v", err))
	}
	return fd
}

// ExampleService returns the example.v1.Example service descriptor.
func ExampleService() protoreflect.ServiceDescriptor {
	return ExampleFile().Services().ByName("Example")
}

// ExampleHandlers implements SayHello as "Hello <name>" (or "Hello world")
// and Fail as a NotFound error.
func ExampleHandlers() map[string]rpc.UnaryHandler {
	sd := ExampleService()
	reply := sd.Methods().ByName("SayHello").Output()

	return map[string]rpc.UnaryHandler{
		"SayHello": func(_ context.Context, req *dynamicpb.Message) (proto.Message, error) {
			name := req.Get(req.Descriptor().Fields().ByName("name")).String()
			if name == "" {
				name = "world"
			}
			out := dynamicpb.NewMessage(reply)
			out.Set(reply.Fields().ByName("msg"), protoreflect.ValueOfString("Hello "+name))
			out.Set(reply.Fields().ByName("count"), protoreflect.ValueOfInt64(int64(len(name))))
			return out, nil
		},
		"Fail": func(_ context.Context, req *dynamicpb.Message) (proto.Message, error) {
			return nil, status.Error(codes.NotFound, "no such greeting")
		},
	}
}

// NewServer serves sd with handlers on an in-memory listener and returns the
// dial options that reach it through Address. The server stops when the test ends.
func NewServer(t testing.TB, sd protoreflect.ServiceDescriptor, handlers map[string]rpc.UnaryHandler) []grpc.DialOption {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	if err := rpc.RegisterDynamicService(srv, sd, handlers); err != nil {
		t.Fatalf("registering %s: %v", sd.FullName(), err)
	}

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	return []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}
}
