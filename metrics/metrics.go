// Package metrics exposes Prometheus metrics for the gateway.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruteri/rest2grpc/interfaces"
	"google.golang.org/grpc/status"
)

// Metrics holds the gateway collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	hookFailures *prometheus.CounterVec
}

// New creates the gateway collectors under namespace, together with the Go
// runtime and process collectors.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Gateway requests that reached the RPC stage, by selector and gRPC status code.",
		}, []string{"selector", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request start to completion of the response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"selector"}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interceptor_failures_total",
			Help:      "Interceptor hook failures by phase and decision.",
		}, []string{"source", "decision"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.hookFailures,
	)
	return m
}

// Registry returns the registry served by the metrics server.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Interceptor returns an interceptor recording request counts and latency.
func (m *Metrics) Interceptor() interfaces.Interceptor {
	return &interceptor{m: m}
}

type interceptor struct {
	interfaces.NoopInterceptor
	m *Metrics
}

func (i *interceptor) AfterCompletion(_ http.ResponseWriter, r *http.Request, res *interfaces.Result) error {
	selector := ""
	var elapsed time.Duration
	if info := interfaces.RouteInfoFrom(r); info != nil {
		selector = info.Selector
		elapsed = time.Since(info.Start)
	}

	i.m.requests.WithLabelValues(selector, r.Method, status.Code(res.Err).String()).Inc()
	i.m.duration.WithLabelValues(selector).Observe(elapsed.Seconds())
	return nil
}

// ErrorHandler counts hook failures and delegates the decision to next.
func (m *Metrics) ErrorHandler(next interfaces.ErrorHandler) interfaces.ErrorHandler {
	return interfaces.ErrorHandlerFunc(func(source interfaces.ErrorSource, err error) bool {
		suppress := next.Handle(source, err)
		decision := "propagated"
		if suppress {
			decision = "suppressed"
		}
		m.hookFailures.WithLabelValues(source.String(), decision).Inc()
		return suppress
	})
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// NewServer creates a metrics server for m listening on addr.
func NewServer(m *Metrics, addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *MetricsServer) Handler() http.Handler {
	return s.srv.Handler
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
