package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/rest2grpc/cmd/flags"
	"github.com/ruteri/rest2grpc/common"
	"github.com/ruteri/rest2grpc/gateway"
	"github.com/ruteri/rest2grpc/httpserver"
	"github.com/ruteri/rest2grpc/interfaces"
	"github.com/ruteri/rest2grpc/metrics"
	"github.com/ruteri/rest2grpc/schema"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "rest2grpc",
		Usage:   "Serve a REST API backed by gRPC services",
		Version: common.Version,
		Flags:   append(append([]cli.Flag{}, flags.GatewayFlags...), flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
			configFile := cCtx.String(flags.ConfigFileFlag.Name)
			protoFiles := cCtx.StringSlice(flags.ProtoFilesFlag.Name)
			importPaths := cCtx.StringSlice(flags.ImportPathsFlag.Name)
			descriptorSet := cCtx.String(flags.DescriptorSetFlag.Name)
			rpcAddr := cCtx.String(flags.RpcAddrFlag.Name)
			normalizePaths := cCtx.Bool(flags.NormalizePathsFlag.Name)
			maxBodyBytes := cCtx.Int64(flags.MaxBodyBytesFlag.Name)

			logger := flags.SetupLogger(cCtx)

			// Load service definitions
			var sch *schema.Schema
			var err error
			switch {
			case descriptorSet != "":
				logger.Info("Loading descriptor set", "file", descriptorSet)
				sch, err = schema.LoadDescriptorSet(descriptorSet)
			case len(protoFiles) > 0:
				logger.Info("Compiling proto files", "files", protoFiles, "importPaths", importPaths)
				sch, err = schema.Load(cCtx.Context, importPaths, protoFiles...)
			default:
				err = errors.New("one of --proto or --descriptor-set is required")
			}
			if err != nil {
				logger.Error("Failed to load service definitions", "err", err)
				return err
			}
			logger.Info("Service definitions loaded", "services", sch.Services())

			creds, err := flags.TransportCredentials(cCtx)
			if err != nil {
				logger.Error("Failed to load transport credentials", "err", err)
				return err
			}

			m := metrics.New(common.PackageName)
			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger, m))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			gw := gateway.New(sch, server,
				gateway.WithLogger(logger),
				gateway.WithCredentials(creds),
				gateway.WithPathNormalization(normalizePaths),
				gateway.WithMaxBodySize(maxBodyBytes),
				gateway.WithErrorHandler(m.ErrorHandler(&gateway.LoggingErrorHandler{Log: logger})),
			)

			if err := gw.RegisterFile(configFile, rpcAddr); err != nil {
				logger.Error("Failed to register routes", "config", configFile, "err", err)
				_ = gw.Close(context.Background())
				return err
			}

			interceptors := []interfaces.Interceptor{
				gateway.NewLoggingInterceptor(logger),
				gateway.StatusMappingInterceptor{},
				m.Interceptor(),
			}
			for _, ic := range interceptors {
				if err := gw.AddInterceptor(ic); err != nil {
					return err
				}
			}

			if err := gw.Start(listenAddr); err != nil {
				logger.Error("Failed to start gateway", "err", err)
				_ = gw.Close(context.Background())
				return err
			}

			// Wait for termination signal
			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			if err := gw.Close(context.Background()); err != nil {
				logger.Error("Gateway shutdown failed", "err", err)
				return err
			}
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
