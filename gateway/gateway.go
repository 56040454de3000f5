package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ruteri/rest2grpc/common"
	"github.com/ruteri/rest2grpc/config"
	"github.com/ruteri/rest2grpc/interfaces"
	"github.com/ruteri/rest2grpc/routing"
	"go.uber.org/atomic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

var (
	// ErrMissingSelector is returned for a rule without a selector.
	ErrMissingSelector = errors.New("the selector for the rule is mandatory")

	// ErrDuplicateSelector is returned when a selector has already been registered.
	ErrDuplicateSelector = errors.New("selector already registered")

	// ErrAlreadyStarted is returned when the gateway is modified after Start.
	ErrAlreadyStarted = errors.New("gateway already started")

	// ErrInvalidPath is returned for a route path that does not start with "/".
	ErrInvalidPath = errors.New("route path must start with /")

	// ErrRouteConflict is returned when a method and path are already served by another rule.
	ErrRouteConflict = errors.New("route already registered")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("gateway closed")
)

// Resolver creates the target serving a (namespace, service) pair.
type Resolver interface {
	Resolve(namespace, class, address string, creds credentials.TransportCredentials, opts ...grpc.DialOption) (interfaces.Target, error)
}

// Gateway maps HTTP routes onto gRPC targets.
type Gateway struct {
	resolver Resolver
	frontend interfaces.HTTPFrontend

	log            *slog.Logger
	errorHandler   interfaces.ErrorHandler
	creds          credentials.TransportCredentials
	dialOpts       []grpc.DialOption
	normalizePaths bool
	maxBodySize    int64

	// Written during registration only; read-only once started.
	targets      map[string]interfaces.Target
	routes       map[string]string // "METHOD /path" -> selector
	interceptors []interfaces.Interceptor

	started atomic.Bool
	closed  atomic.Bool
}

// New creates a gateway resolving targets with resolver and serving routes on frontend.
func New(resolver Resolver, frontend interfaces.HTTPFrontend, opts ...Option) *Gateway {
	g := &Gateway{
		resolver:       resolver,
		frontend:       frontend,
		targets:        make(map[string]interfaces.Target),
		routes:         make(map[string]string),
		normalizePaths: true,
		maxBodySize:    DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.log == nil {
		g.log = common.DiscardLogger()
	}
	if g.errorHandler == nil {
		g.errorHandler = &LoggingErrorHandler{Log: g.log}
	}
	return g
}

// AddInterceptor appends an interceptor. Interceptors run in the order they were added.
func (g *Gateway) AddInterceptor(i interfaces.Interceptor) error {
	if g.started.Load() {
		return ErrAlreadyStarted
	}
	g.interceptors = append(g.interceptors, i)
	return nil
}

// RegisterFile loads the rule file at configFile and registers its rules
// against the backend at address.
func (g *Gateway) RegisterFile(configFile, address string) error {
	rules, err := config.LoadFile(configFile)
	if err != nil {
		return err
	}
	return g.Register(rules, address)
}

// Register resolves one target per rule and registers its routes. It stops
// at the first failing rule; rules before it stay registered. A rule is
// recorded only once all of its routes are accepted; its routes are checked
// against earlier rules before any of them reaches the frontend. Path
// templates of registered rules are rewritten in place when path
// normalization is enabled.
func (g *Gateway) Register(rules []interfaces.Rule, address string) error {
	if g.started.Load() {
		return ErrAlreadyStarted
	}

	for i := range rules {
		if err := g.registerRule(&rules[i], address); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) registerRule(rule *interfaces.Rule, address string) error {
	if rule.Selector == "" {
		return ErrMissingSelector
	}
	if _, ok := g.targets[rule.Selector]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSelector, rule.Selector)
	}

	sel, err := routing.ParseSelector(rule.Selector)
	if err != nil {
		return err
	}

	routes, err := g.planRoutes(rule)
	if err != nil {
		return err
	}

	target, err := g.resolver.Resolve(sel.Namespace, sel.Class, address, g.creds, g.dialOpts...)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", rule.Selector, err)
	}

	for _, route := range routes {
		g.log.Info("Registering route", "method", route.Method, "path", route.Path, "selector", rule.Selector)
		h := g.newHandler(&interfaces.RouteInfo{
			Selector:  rule.Selector,
			RPCMethod: sel.Method,
			Method:    route.Method,
			Path:      route.Path,
		}, target)
		if err := g.frontend.Handle(route.Method, route.Path, h); err != nil {
			if cErr := target.Close(); cErr != nil {
				g.log.Warn("Failed to close target", "selector", rule.Selector, "err", cErr)
			}
			return fmt.Errorf("registering %s %s for %s: %w", route.Method, route.Path, rule.Selector, err)
		}
	}

	g.targets[rule.Selector] = target
	for _, route := range routes {
		g.routes[route.Method+" "+route.Path] = rule.Selector
		if g.normalizePaths {
			rule.SetPath(route.Method, route.Path)
		}
	}
	return nil
}

// planRoutes returns the routes of rule as they will be registered and
// checks them against the routes of previously registered rules.
func (g *Gateway) planRoutes(rule *interfaces.Rule) ([]interfaces.Route, error) {
	routes := rule.Routes()
	for i, route := range routes {
		path := route.Path
		if g.normalizePaths {
			path = routing.NormalizePath(route.Path)
			if path != route.Path {
				g.log.Info("Rewriting path parameters", "from", route.Path, "to", path)
			}
		}
		if !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("%w: %s %q for %s", ErrInvalidPath, route.Method, path, rule.Selector)
		}
		if owner, ok := g.routes[route.Method+" "+path]; ok {
			return nil, fmt.Errorf("%w: %s %s for %s, owned by %s", ErrRouteConflict, route.Method, path, rule.Selector, owner)
		}
		routes[i].Path = path
	}
	return routes, nil
}

// Selectors returns the registered selectors, sorted.
func (g *Gateway) Selectors() []string {
	selectors := make([]string, 0, len(g.targets))
	for selector := range g.targets {
		selectors = append(selectors, selector)
	}
	sort.Strings(selectors)
	return selectors
}

// Start begins serving on listenAddr.
func (g *Gateway) Start(listenAddr string) error {
	if g.closed.Load() {
		return ErrClosed
	}
	if !g.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := g.frontend.Start(listenAddr); err != nil {
		g.started.Store(false)
		return err
	}
	g.log.Warn("Gateway is listening", "listenAddress", listenAddr, "routes", len(g.routes), "selectors", len(g.targets))
	return nil
}

// Close stops the HTTP server, draining in-flight requests, and closes all
// targets. Calling Close more than once is a no-op.
func (g *Gateway) Close(ctx context.Context) error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if g.started.Load() {
		g.log.Warn("Close operation initiated")
		if err := g.frontend.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	for selector, target := range g.targets {
		if err := target.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing target %s: %w", selector, err))
		}
	}

	if g.started.Load() {
		g.log.Warn("Close operation finished")
	}
	return errors.Join(errs...)
}
