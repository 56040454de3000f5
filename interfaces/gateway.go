package interfaces

import (
	"context"
	"net/http"
	"time"
)

// Payload is an opaque JSON document. The gateway passes request bodies and RPC
// replies through as Payload without interpreting their shape.
type Payload []byte

// Result is the outcome of one RPC invocation as seen by interceptors and the
// response writer. Err holds the RPC error when the call failed; Payload is
// empty in that case.
type Result struct {
	Payload Payload
	Err     error

	// Status overrides the HTTP status code used when the result is written.
	// Zero means 200. Post-handle interceptors may set it.
	Status int
}

// Target is a live handle bound to one remote address, able to invoke the
// methods of one resolved service.
type Target interface {
	// Invoke performs one unary call of the named method with req as its
	// JSON-encoded request message and returns the JSON-encoded reply.
	Invoke(ctx context.Context, method string, req Payload) (Payload, error)

	// Close releases the underlying connection.
	Close() error
}

// ErrorSource identifies the interceptor phase that produced a failure.
type ErrorSource int

const (
	ErrorSourcePreHandle ErrorSource = iota
	ErrorSourcePostHandle
	ErrorSourceAfterCompletion
)

func (s ErrorSource) String() string {
	switch s {
	case ErrorSourcePreHandle:
		return "pre-handle"
	case ErrorSourcePostHandle:
		return "post-handle"
	case ErrorSourceAfterCompletion:
		return "after-completion"
	default:
		return "unknown"
	}
}

// ErrorHandler decides what happens when an interceptor hook fails.
// Returning true suppresses the error and the pipeline continues; returning
// false propagates it to the HTTP server.
type ErrorHandler interface {
	Handle(source ErrorSource, err error) bool
}

// ErrorHandlerFunc adapts a function to the ErrorHandler interface.
type ErrorHandlerFunc func(source ErrorSource, err error) bool

func (f ErrorHandlerFunc) Handle(source ErrorSource, err error) bool {
	return f(source, err)
}

// Interceptor wraps every gateway request.
type Interceptor interface {
	// PreHandle runs before the RPC call. Returning false stops the request:
	// no RPC is made, nothing is written and no other hook runs. Whatever the
	// interceptor wrote to w itself is the response.
	PreHandle(w http.ResponseWriter, r *http.Request) (bool, error)

	// PostHandle runs after the RPC call and before the response is written.
	PostHandle(w http.ResponseWriter, r *http.Request, res *Result) error

	// AfterCompletion runs after the response has been written.
	AfterCompletion(w http.ResponseWriter, r *http.Request, res *Result) error
}

// NoopInterceptor implements every hook as a no-op. Embed it to implement
// only the hooks you need.
type NoopInterceptor struct{}

func (NoopInterceptor) PreHandle(http.ResponseWriter, *http.Request) (bool, error) {
	return true, nil
}

func (NoopInterceptor) PostHandle(http.ResponseWriter, *http.Request, *Result) error {
	return nil
}

func (NoopInterceptor) AfterCompletion(http.ResponseWriter, *http.Request, *Result) error {
	return nil
}

// HandlerFunc is a gateway route handler. A returned error is the HTTP
// server's responsibility.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Registrar registers route handlers with an HTTP router. Paths use the
// positional ":name" parameter syntax.
type Registrar interface {
	Handle(method, path string, h HandlerFunc) error
}

// HTTPFrontend is the HTTP server the gateway serves its routes on.
type HTTPFrontend interface {
	Registrar

	// Start begins accepting connections on listenAddr in the background.
	Start(listenAddr string) error

	// Shutdown stops accepting connections and drains in-flight requests.
	Shutdown(ctx context.Context) error
}

type pathParamsKey struct{}

// WithPathParams stores route parameters in ctx.
func WithPathParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, pathParamsKey{}, params)
}

// PathParams returns the route parameters matched for r, or nil.
func PathParams(r *http.Request) map[string]string {
	params, _ := r.Context().Value(pathParamsKey{}).(map[string]string)
	return params
}

// RouteInfo describes the gateway route serving a request.
type RouteInfo struct {
	// Selector is the rule selector, e.g. "example.v1.Example.SayHello".
	Selector string
	// RPCMethod is the method name parsed from the selector.
	RPCMethod string
	// Method and Path are the HTTP method and the registered path template.
	Method string
	Path   string
	// Start is when the gateway began handling the request.
	Start time.Time
}

type routeInfoKey struct{}

// WithRouteInfo stores info in ctx.
func WithRouteInfo(ctx context.Context, info *RouteInfo) context.Context {
	return context.WithValue(ctx, routeInfoKey{}, info)
}

// RouteInfoFrom returns the route info attached to r by the gateway, or nil.
func RouteInfoFrom(r *http.Request) *RouteInfo {
	info, _ := r.Context().Value(routeInfoKey{}).(*RouteInfo)
	return info
}
