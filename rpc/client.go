package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/ruteri/rest2grpc/interfaces"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var (
	// ErrMethodNotFound is returned when the service has no method with the requested name.
	ErrMethodNotFound = errors.New("method not found")

	// ErrStreamingUnsupported is returned for client or server streaming methods.
	ErrStreamingUnsupported = errors.New("streaming methods are not supported")
)

var (
	// Field names are kept as declared in the .proto file, 64-bit integers are
	// strings and enums are names, unpopulated fields are emitted.
	marshalOptions = protojson.MarshalOptions{
		UseProtoNames:   true,
		EmitUnpopulated: true,
	}
	unmarshalOptions = protojson.UnmarshalOptions{
		DiscardUnknown: true,
	}
)

// ServiceClient invokes the methods of one gRPC service over a dedicated connection.
type ServiceClient struct {
	conn    *grpc.ClientConn
	service protoreflect.ServiceDescriptor
}

// NewServiceClient creates a client for service at address. A nil creds means
// plaintext. The connection is established lazily on first use.
func NewServiceClient(service protoreflect.ServiceDescriptor, address string, creds credentials.TransportCredentials, opts ...grpc.DialOption) (*ServiceClient, error) {
	if creds == nil {
		creds = insecure.NewCredentials()
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating client for %s at %s: %w", service.FullName(), address, err)
	}

	return &ServiceClient{conn: conn, service: service}, nil
}

// Service returns the descriptor of the service this client talks to.
func (c *ServiceClient) Service() protoreflect.ServiceDescriptor {
	return c.service
}

// Method looks up a method by name. A lower-case first letter also matches
// the capitalized method name, so "sayHello" finds "SayHello".
func (c *ServiceClient) Method(name string) (protoreflect.MethodDescriptor, error) {
	methods := c.service.Methods()
	if md := methods.ByName(protoreflect.Name(name)); md != nil {
		return md, nil
	}

	r, size := utf8.DecodeRuneInString(name)
	if unicode.IsLower(r) {
		if md := methods.ByName(protoreflect.Name(string(unicode.ToUpper(r)) + name[size:])); md != nil {
			return md, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrMethodNotFound, c.service.FullName(), name)
}

// Invoke performs one unary call. req is decoded from JSON into the method's
// input message; an empty body is an empty message.
func (c *ServiceClient) Invoke(ctx context.Context, method string, req interfaces.Payload) (interfaces.Payload, error) {
	md, err := c.Method(method)
	if err != nil {
		return nil, status.Error(codes.Unimplemented, err.Error())
	}
	if md.IsStreamingClient() || md.IsStreamingServer() {
		return nil, status.Errorf(codes.Unimplemented, "%s: %s", ErrStreamingUnsupported, md.FullName())
	}

	in := dynamicpb.NewMessage(md.Input())
	if len(bytes.TrimSpace(req)) > 0 {
		if err := unmarshalOptions.Unmarshal(req, in); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decoding %s: %v", md.Input().FullName(), err)
		}
	}

	out := dynamicpb.NewMessage(md.Output())
	if err := c.conn.Invoke(ctx, FullMethodName(md), in, out); err != nil {
		return nil, err
	}

	resp, err := marshalOptions.Marshal(out)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding %s: %v", md.Output().FullName(), err)
	}
	return resp, nil
}

// Close closes the underlying connection.
func (c *ServiceClient) Close() error {
	return c.conn.Close()
}

// FullMethodName returns the gRPC wire name of md, e.g. "/example.v1.Example/SayHello".
func FullMethodName(md protoreflect.MethodDescriptor) string {
	return fmt.Sprintf("/%s/%s", md.Parent().FullName(), md.Name())
}
