package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ruteri/rest2grpc/interfaces"
	"github.com/ruteri/rest2grpc/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrInterceptorPanic wraps the value recovered from a panicking hook.
var ErrInterceptorPanic = errors.New("interceptor panicked")

func (g *Gateway) newHandler(route *interfaces.RouteInfo, target interfaces.Target) interfaces.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		info := *route
		info.Start = time.Now()
		r = r.WithContext(interfaces.WithRouteInfo(r.Context(), &info))

		for _, ic := range g.interceptors {
			proceed, err := preHandle(ic, w, r)
			if err != nil {
				if !g.errorHandler.Handle(interfaces.ErrorSourcePreHandle, err) {
					return err
				}
				continue
			}
			if !proceed {
				g.log.Debug("Ignoring request", "method", r.Method, "path", r.URL.Path, "selector", info.Selector)
				return nil
			}
		}

		res := g.invoke(r, target, info.RPCMethod)

		err := g.runPhase(interfaces.ErrorSourcePostHandle, func(ic interfaces.Interceptor) error {
			return ic.PostHandle(w, r, res)
		})
		if err != nil {
			return err
		}

		g.writeResult(w, r, res)

		return g.runPhase(interfaces.ErrorSourceAfterCompletion, func(ic interfaces.Interceptor) error {
			return ic.AfterCompletion(w, r, res)
		})
	}
}

// runPhase calls hook for every interceptor in order. A failure that the
// error handler suppresses moves on to the next interceptor.
func (g *Gateway) runPhase(source interfaces.ErrorSource, hook func(interfaces.Interceptor) error) error {
	for _, ic := range g.interceptors {
		if err := callHook(func() error { return hook(ic) }); err != nil {
			if !g.errorHandler.Handle(source, err) {
				return err
			}
		}
	}
	return nil
}

func preHandle(ic interfaces.Interceptor, w http.ResponseWriter, r *http.Request) (proceed bool, err error) {
	err = callHook(func() error {
		var hookErr error
		proceed, hookErr = ic.PreHandle(w, r)
		return hookErr
	})
	return proceed, err
}

func callHook(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInterceptorPanic, rec)
		}
	}()
	return fn()
}

func (g *Gateway) invoke(r *http.Request, target interfaces.Target, method string) *interfaces.Result {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, g.maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &interfaces.Result{Err: status.Errorf(codes.InvalidArgument, "request body exceeds %d bytes", maxErr.Limit)}
		}
		return &interfaces.Result{Err: status.Errorf(codes.InvalidArgument, "reading request body: %v", err)}
	}

	payload, err := target.Invoke(r.Context(), method, body)
	if err != nil {
		g.log.Debug("RPC failed", "method", method, "err", err)
		return &interfaces.Result{Err: err}
	}
	return &interfaces.Result{Payload: payload}
}

func (g *Gateway) writeResult(w http.ResponseWriter, r *http.Request, res *interfaces.Result) {
	body := res.Payload
	if res.Err != nil {
		body = rpc.StatusPayload(res.Err)
	}

	code := res.Status
	if code == 0 {
		code = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		g.log.Debug("Failed to write response", "path", r.URL.Path, "err", err)
	}
}
