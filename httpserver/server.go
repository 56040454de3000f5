package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ruteri/rest2grpc/interfaces"
	"github.com/ruteri/rest2grpc/metrics"
	"go.uber.org/atomic"
)

// ErrRouteRejected is returned when the router refuses a route, e.g. because
// it conflicts with an existing one.
var ErrRouteRejected = errors.New("route rejected")

// ErrAlreadyRunning is returned by Start when the server is already serving.
var ErrAlreadyRunning = errors.New("server already running")

type HTTPServerConfig struct {
	MetricsAddr string
	EnablePprof bool
	Log         *slog.Logger

	// Metrics served on MetricsAddr. Required when MetricsAddr is set.
	Metrics *metrics.Metrics

	DrainDuration            time.Duration
	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
}

type Server struct {
	cfg     *HTTPServerConfig
	isReady atomic.Bool
	running atomic.Bool
	log     *slog.Logger

	srv        *http.Server
	listener   net.Listener
	metricsSrv *metrics.MetricsServer
	engine     *gin.Engine
}

func New(cfg *HTTPServerConfig) (srv *Server, err error) {
	if cfg.MetricsAddr != "" && cfg.Metrics == nil {
		return nil, errors.New("metrics address configured without metrics")
	}

	srv = &Server{
		cfg: cfg,
		log: cfg.Log,
	}
	srv.isReady.Store(true)

	if cfg.MetricsAddr != "" {
		srv.metricsSrv = metrics.NewServer(cfg.Metrics, cfg.MetricsAddr)
	}

	gin.SetMode(gin.ReleaseMode)
	srv.engine = gin.New()
	srv.engine.Use(gin.CustomRecoveryWithWriter(io.Discard, srv.recoverGateway))

	srv.srv = &http.Server{
		Handler:      srv.getRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

func (srv *Server) getRouter() http.Handler {
	mux := chi.NewRouter()
	mux.Use(srv.httpLogger)

	// Health and diagnostic endpoints
	mux.Get("/livez", srv.handleLivenessCheck)
	mux.Get("/readyz", srv.handleReadinessCheck)
	mux.Get("/drain", srv.handleDrain)
	mux.Get("/undrain", srv.handleUndrain)

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}

	// Everything else is a gateway route
	mux.Mount("/", srv.engine)
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

// Handler returns the root HTTP handler.
func (srv *Server) Handler() http.Handler {
	return srv.srv.Handler
}

// Handle registers a gateway route. path uses the ":name" parameter syntax;
// matched parameters are available through interfaces.PathParams. Paths not
// starting with "/" and the operational endpoints are rejected. When h
// returns an error and nothing has been written yet, the client receives a
// 500 with a JSON error body.
func (srv *Server) Handle(method, path string, h interfaces.HandlerFunc) (err error) {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %s %q: path must start with /", ErrRouteRejected, method, path)
	}
	if srv.isReserved(path) {
		return fmt.Errorf("%w: %s %s: path is served by the operational router", ErrRouteRejected, method, path)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s %s: %v", ErrRouteRejected, method, path, rec)
		}
	}()

	srv.engine.Handle(method, path, func(c *gin.Context) {
		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}
		r := c.Request.WithContext(interfaces.WithPathParams(c.Request.Context(), params))

		if err := h(c.Writer, r); err != nil {
			_ = c.Error(err)
			srv.log.Error("Gateway request failed", "method", method, "path", path, "err", err)
			if !c.Writer.Written() {
				writeJSONError(c, http.StatusInternalServerError)
			}
		}
	})
	return nil
}

// isReserved reports whether path is shadowed by an operational endpoint.
func (srv *Server) isReserved(path string) bool {
	switch path {
	case "/livez", "/readyz", "/drain", "/undrain":
		return true
	}
	return srv.cfg.EnablePprof && (path == "/debug" || strings.HasPrefix(path, "/debug/"))
}

func (srv *Server) recoverGateway(c *gin.Context, rec any) {
	srv.log.Error("Gateway handler panicked", "path", c.Request.URL.Path, "err", rec)
	if !c.Writer.Written() {
		writeJSONError(c, http.StatusInternalServerError)
	}
	c.Abort()
}

func writeJSONError(c *gin.Context, code int) {
	c.JSON(code, gin.H{
		"error":  http.StatusText(code),
		"status": code,
	})
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !srv.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !srv.isReady.Swap(false) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already draining"}`))
		return
	}

	srv.log.Info("Server marked as not ready")

	// Load balancers need DrainDuration to notice; don't hold the request that long.
	go func() {
		time.Sleep(srv.cfg.DrainDuration)
		srv.log.Info("Drain period completed")
	}()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"draining"}`))
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if srv.isReady.Swap(true) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already ready"}`))
		return
	}

	srv.log.Info("Server marked as ready")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Start binds listenAddr and serves in the background. Bind errors are
// returned synchronously.
func (srv *Server) Start(listenAddr string) error {
	if !srv.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		srv.running.Store(false)
		return fmt.Errorf("listening on %s: %w", listenAddr, err)
	}
	srv.listener = lis
	srv.srv.Addr = lis.Addr().String()

	srv.RunInBackground()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (srv *Server) Addr() net.Addr {
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

func (srv *Server) RunInBackground() {
	// metrics
	if srv.metricsSrv != nil {
		go func() {
			srv.log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			err := srv.metricsSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.log.Error("HTTP server failed", "err", err)
			}
		}()
	}

	// api
	go func() {
		srv.log.Info("Starting HTTP server", "listenAddress", srv.srv.Addr)
		if err := srv.srv.Serve(srv.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("HTTP server failed", "err", err)
		}
	}()
}

// Shutdown stops accepting connections and waits for in-flight requests.
// Without a deadline on ctx, GracefulShutdownDuration bounds the wait.
func (srv *Server) Shutdown(ctx context.Context) error {
	if !srv.running.Load() {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok && srv.cfg.GracefulShutdownDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, srv.cfg.GracefulShutdownDuration)
		defer cancel()
	}

	// api
	err := srv.srv.Shutdown(ctx)
	if err != nil {
		srv.log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.log.Info("HTTP server gracefully stopped")
	}

	// metrics
	if srv.metricsSrv != nil {
		if mErr := srv.metricsSrv.Shutdown(ctx); mErr != nil {
			srv.log.Error("Graceful metrics server shutdown failed", "err", mErr)
			err = errors.Join(err, mErr)
		} else {
			srv.log.Info("Metrics server gracefully stopped")
		}
	}
	return err
}
