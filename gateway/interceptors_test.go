package gateway

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/rest2grpc/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusMappingInterceptor(t *testing.T) {
	ic := StatusMappingInterceptor{}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	res := &interfaces.Result{Err: status.Error(codes.NotFound, "missing")}
	require.NoError(t, ic.PostHandle(w, r, res))
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = &interfaces.Result{Err: status.Error(codes.Unavailable, "down"), Status: http.StatusTeapot}
	require.NoError(t, ic.PostHandle(w, r, res))
	assert.Equal(t, http.StatusTeapot, res.Status)

	res = &interfaces.Result{Payload: interfaces.Payload(`{}`)}
	require.NoError(t, ic.PostHandle(w, r, res))
	assert.Zero(t, res.Status)

	proceed, err := ic.PreHandle(w, r)
	assert.True(t, proceed)
	assert.NoError(t, err)
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ic := NewLoggingInterceptor(log)

	r := httptest.NewRequest(http.MethodPost, "/hello", nil)
	r = r.WithContext(interfaces.WithRouteInfo(r.Context(), &interfaces.RouteInfo{
		Selector: "example.Example.SayHello",
		Start:    time.Now(),
	}))

	require.NoError(t, ic.AfterCompletion(httptest.NewRecorder(), r, &interfaces.Result{}))
	assert.Contains(t, buf.String(), "Gateway request completed")
	assert.Contains(t, buf.String(), "selector=example.Example.SayHello")

	buf.Reset()
	require.NoError(t, ic.AfterCompletion(httptest.NewRecorder(), r, &interfaces.Result{Err: errors.New("down")}))
	assert.Contains(t, buf.String(), "Gateway request failed")
	assert.Contains(t, buf.String(), "code=Unknown")
}

func TestErrorHandlers(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	failure := errors.New("hook failed")

	assert.False(t, (&LoggingErrorHandler{Log: log}).Handle(interfaces.ErrorSourcePostHandle, failure))
	assert.Contains(t, buf.String(), "source=post-handle")
	assert.Contains(t, buf.String(), "hook failed")

	buf.Reset()
	assert.True(t, (&SuppressingErrorHandler{Log: log}).Handle(interfaces.ErrorSourcePreHandle, failure))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "source=pre-handle")
}

func TestErrorHandlers_NilLogger(t *testing.T) {
	failure := errors.New("hook failed")

	assert.NotPanics(t, func() {
		assert.False(t, (&LoggingErrorHandler{}).Handle(interfaces.ErrorSourceAfterCompletion, failure))
	})
	assert.NotPanics(t, func() {
		assert.True(t, (&SuppressingErrorHandler{}).Handle(interfaces.ErrorSourcePostHandle, failure))
	})
}
