package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// UnaryHandler serves one unary method with dynamic messages.
type UnaryHandler func(ctx context.Context, req *dynamicpb.Message) (proto.Message, error)

type dynamicService struct{}

// RegisterDynamicService exposes the unary methods of sd on s. Every method
// in handlers must exist in sd and be unary; methods without a handler are
// answered with Unimplemented by grpc.
func RegisterDynamicService(s grpc.ServiceRegistrar, sd protoreflect.ServiceDescriptor, handlers map[string]UnaryHandler) error {
	desc := grpc.ServiceDesc{
		ServiceName: string(sd.FullName()),
		HandlerType: (*any)(nil),
		Metadata:    sd.ParentFile().Path(),
	}

	for name, h := range handlers {
		md := sd.Methods().ByName(protoreflect.Name(name))
		if md == nil {
			return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, sd.FullName(), name)
		}
		if md.IsStreamingClient() || md.IsStreamingServer() {
			return fmt.Errorf("%w: %s", ErrStreamingUnsupported, md.FullName())
		}
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: string(md.Name()),
			Handler:    unaryMethodHandler(md, h),
		})
	}

	s.RegisterService(&desc, dynamicService{})
	return nil
}

func unaryMethodHandler(md protoreflect.MethodDescriptor, h UnaryHandler) grpc.MethodHandler {
	fullMethod := FullMethodName(md)
	return func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := dynamicpb.NewMessage(md.Input())
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return h(ctx, in)
		}
		info := &grpc.UnaryServerInfo{FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return h(ctx, req.(*dynamicpb.Message))
		})
	}
}
