package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ruteri/rest2grpc/interfaces"
	"github.com/ruteri/rest2grpc/rpc"
	"google.golang.org/grpc/status"
)

// StatusMappingInterceptor sets the HTTP status of failed RPCs from their
// gRPC status code, e.g. NotFound becomes 404.
type StatusMappingInterceptor struct {
	interfaces.NoopInterceptor
}

func (StatusMappingInterceptor) PostHandle(_ http.ResponseWriter, _ *http.Request, res *interfaces.Result) error {
	if res.Err != nil && res.Status == 0 {
		res.Status = rpc.HTTPStatusFromCode(status.Code(res.Err))
	}
	return nil
}

// LoggingInterceptor logs every completed gateway request.
type LoggingInterceptor struct {
	interfaces.NoopInterceptor
	log *slog.Logger
}

func NewLoggingInterceptor(log *slog.Logger) *LoggingInterceptor {
	return &LoggingInterceptor{log: log}
}

func (l *LoggingInterceptor) AfterCompletion(_ http.ResponseWriter, r *http.Request, res *interfaces.Result) error {
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"code", status.Code(res.Err).String(),
	}
	if info := interfaces.RouteInfoFrom(r); info != nil {
		attrs = append(attrs, "selector", info.Selector, "duration", time.Since(info.Start))
	}

	if res.Err != nil {
		l.log.Warn("Gateway request failed", append(attrs, "err", res.Err)...)
		return nil
	}
	l.log.Debug("Gateway request completed", attrs...)
	return nil
}
