package gateway

import (
	"log/slog"

	"github.com/ruteri/rest2grpc/common"
	"github.com/ruteri/rest2grpc/interfaces"
)

// LoggingErrorHandler logs every hook failure and propagates it.
// A nil Log discards the output.
type LoggingErrorHandler struct {
	Log *slog.Logger
}

func (h *LoggingErrorHandler) Handle(source interfaces.ErrorSource, err error) bool {
	logger(h.Log).Error("Interceptor failed", "source", source.String(), "err", err)
	return false
}

// SuppressingErrorHandler logs every hook failure and suppresses it.
// A nil Log discards the output.
type SuppressingErrorHandler struct {
	Log *slog.Logger
}

func (h *SuppressingErrorHandler) Handle(source interfaces.ErrorSource, err error) bool {
	logger(h.Log).Warn("Ignoring interceptor failure", "source", source.String(), "err", err)
	return true
}

func logger(log *slog.Logger) *slog.Logger {
	if log == nil {
		return common.DiscardLogger()
	}
	return log
}
