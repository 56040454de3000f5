package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/rest2grpc/cmd/flags"
	"github.com/ruteri/rest2grpc/rpc"
	"github.com/ruteri/rest2grpc/schema"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const serviceName = "example.Example"

var exampleFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "0.0.0.0:50051",
		Usage: "address to listen on for gRPC",
	},
	&cli.StringSliceFlag{
		Name:  "proto-path",
		Value: cli.NewStringSlice("protos"),
		Usage: "directory containing example.proto",
	},
	flags.LogJsonFlag,
	flags.LogDebugFlag,
	flags.LogUidFlag,
	flags.LogServiceFlag,
}

func main() {
	app := &cli.App{
		Name:  "example-server",
		Usage: "Serve the example.Example gRPC service",
		Flags: exampleFlags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			importPaths := cCtx.StringSlice("proto-path")

			logger := flags.SetupLogger(cCtx)

			sch, err := schema.Load(cCtx.Context, importPaths, "example.proto")
			if err != nil {
				logger.Error("Failed to load example.proto", "err", err)
				return err
			}
			sd, ok := sch.Service(serviceName)
			if !ok {
				logger.Error("Service not defined", "service", serviceName)
				return schema.ErrClassNotFound
			}

			reply := sd.Methods().ByName("SayHello").Output()
			handlers := map[string]rpc.UnaryHandler{
				"SayHello": func(_ context.Context, req *dynamicpb.Message) (proto.Message, error) {
					name := req.Get(req.Descriptor().Fields().ByName("name")).String()
					if name == "" {
						name = "world"
					}
					logger.Info("Saluting", "name", name)

					out := dynamicpb.NewMessage(reply)
					out.Set(reply.Fields().ByName("msg"), protoreflect.ValueOfString("Hello "+name))
					return out, nil
				},
			}

			srv := grpc.NewServer()
			if err := rpc.RegisterDynamicService(srv, sd, handlers); err != nil {
				logger.Error("Failed to register service", "err", err)
				return err
			}
			healthSrv := health.NewServer()
			healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
			healthpb.RegisterHealthServer(srv, healthSrv)

			lis, err := net.Listen("tcp", listenAddr)
			if err != nil {
				logger.Error("Failed to listen", "addr", listenAddr, "err", err)
				return err
			}

			go func() {
				logger.Info("Starting gRPC server", "listenAddress", lis.Addr().String())
				if err := srv.Serve(lis); err != nil {
					logger.Error("gRPC server failed", "err", err)
				}
			}()

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			healthSrv.Shutdown()
			srv.GracefulStop()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
