package gateway

import (
	"log/slog"

	"github.com/ruteri/rest2grpc/interfaces"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// DefaultMaxBodySize limits request bodies read by the gateway.
const DefaultMaxBodySize = 1024 * 1024

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. The default discards all output.
func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) {
		g.log = log
	}
}

// WithErrorHandler sets the policy consulted when an interceptor hook fails.
// The default is a LoggingErrorHandler.
func WithErrorHandler(h interfaces.ErrorHandler) Option {
	return func(g *Gateway) {
		g.errorHandler = h
	}
}

// WithCredentials sets the transport credentials used for every target.
// The default is plaintext.
func WithCredentials(creds credentials.TransportCredentials) Option {
	return func(g *Gateway) {
		g.creds = creds
	}
}

// WithDialOptions appends gRPC dial options used for every target.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(g *Gateway) {
		g.dialOpts = append(g.dialOpts, opts...)
	}
}

// WithPathNormalization controls whether "{name}" path parameters are
// rewritten to ":name" before registration. Enabled by default.
func WithPathNormalization(enabled bool) Option {
	return func(g *Gateway) {
		g.normalizePaths = enabled
	}
}

// WithMaxBodySize limits the request body size in bytes.
func WithMaxBodySize(n int64) Option {
	return func(g *Gateway) {
		g.maxBodySize = n
	}
}
