package flags

import (
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/rest2grpc/common"
	"github.com/ruteri/rest2grpc/httpserver"
	"github.com/ruteri/rest2grpc/metrics"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, m *metrics.Metrics) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		MetricsAddr:              metricsAddr,
		Metrics:                  m,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// TransportCredentials returns the credentials used to dial the backend:
// plaintext by default, TLS when a CA file is set or verification is skipped.
func TransportCredentials(cCtx *cli.Context) (credentials.TransportCredentials, error) {
	if cCtx.Bool(RpcInsecureSkipVerifyFlag.Name) {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec
	}

	caFile := cCtx.String(RpcCAFileFlag.Name)
	if caFile == "" {
		return insecure.NewCredentials(), nil
	}
	return credentials.NewClientTLSFromFile(caFile, cCtx.String(RpcServerNameFlag.Name))
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:3000",
	Usage: "address to listen on for the REST API",
}

var ConfigFileFlag = &cli.StringFlag{
	Name:     "config",
	Aliases:  []string{"c"},
	Required: true,
	Usage:    "YAML file with the http.rules route mappings",
}

var ProtoFilesFlag = &cli.StringSliceFlag{
	Name:  "proto",
	Usage: "proto source file defining the backend services, relative to an import path (repeatable)",
}

var ImportPathsFlag = &cli.StringSliceFlag{
	Name:    "proto-path",
	Aliases: []string{"I"},
	Value:   cli.NewStringSlice("."),
	Usage:   "directory to search for proto imports (repeatable)",
}

var DescriptorSetFlag = &cli.StringFlag{
	Name:  "descriptor-set",
	Usage: "binary FileDescriptorSet (protoc --include_imports -o) used instead of --proto",
}

var RpcAddrFlag = &cli.StringFlag{
	Name:  "rpc-addr",
	Value: "localhost:50051",
	Usage: "address of the gRPC backend",
}

var RpcCAFileFlag = &cli.StringFlag{
	Name:  "rpc-ca-file",
	Usage: "PEM CA bundle; enables TLS to the gRPC backend",
}

var RpcServerNameFlag = &cli.StringFlag{
	Name:  "rpc-server-name",
	Usage: "override the server name checked against the backend certificate",
}

var RpcInsecureSkipVerifyFlag = &cli.BoolFlag{
	Name:  "rpc-insecure-skip-verify",
	Value: false,
	Usage: "use TLS to the backend without verifying its certificate",
}

var NormalizePathsFlag = &cli.BoolFlag{
	Name:  "normalize-paths",
	Value: true,
	Usage: "rewrite {name} path parameters to :name before registering routes",
}

var MaxBodyBytesFlag = &cli.Int64Flag{
	Name:  "max-body-bytes",
	Value: 1024 * 1024,
	Usage: "maximum accepted request body size",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics, empty to disable",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

var GatewayFlags = []cli.Flag{
	ListenAddrFlag,
	ConfigFileFlag,
	ProtoFilesFlag,
	ImportPathsFlag,
	DescriptorSetFlag,
	RpcAddrFlag,
	RpcCAFileFlag,
	RpcServerNameFlag,
	RpcInsecureSkipVerifyFlag,
	NormalizePathsFlag,
	MaxBodyBytesFlag,
}
