// Package casserver implements the DVS HTTP CAS server (§4.11): the
// companion of pkg/storage/httpcas, serving HEAD/GET/PUT/DELETE on
// /objects/{algo}/{hex} plus /health, /status, and /metrics.
//
// Grounded on dvs-server/src/api.rs for the wire protocol and on the
// teacher's pkg/httpd bootstrap idiom (functional options, graceful
// shutdown on SIGINT/SIGTERM) for the server lifecycle, simplified to a
// single plain-HTTP listener since this spec does not require the
// teacher's TLS/unix-socket matrix.
package casserver

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/storage"
	"github.com/dvs-io/dvs/pkg/tracing"
)

// Version is the server's reported build version, overridable at link
// time the way the teacher stamps cmd/datamon's version.go.
var Version = "dev"

// Server serves the HTTP CAS protocol over store.
type Server struct {
	config Config
	store  storage.Store
	auth   *authorizer
	logger *zap.Logger
	events *eventHub
	tracer opentracing.Tracer

	httpServer *http.Server

	startedAt    time.Time
	requestCount int64
}

// Option configures a Server beyond its required Config and Store.
type Option func(*Server)

// WithLogger overrides the zap logger; defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTracer overrides the opentracing tracer used for per-request spans
// and store-call spans; defaults to opentracing.NoopTracer{}.
func WithTracer(t opentracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// New builds a Server bound to cfg and store, ready for Serve.
func New(cfg Config, store storage.Store, opts ...Option) *Server {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		config: cfg,
		store:  store,
		auth:   newAuthorizer(cfg.Auth.Keys),
		logger: zap.NewNop(),
		events: newEventHub(),
		tracer: opentracing.NoopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = storage.Instrument(s.tracer, s.store)
	return s
}

func (s *Server) mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/objects/", s.withAccessLog(s.withCORS(s.objectsHandler)))
	mux.HandleFunc("/health", s.withAccessLog(s.healthHandler))
	mux.HandleFunc("/status", s.withAccessLog(s.statusHandler))
	mux.HandleFunc("/events", s.eventsHandler)
	mux.Handle("/metrics", s.withAccessLog(metricsHandler()))
	return tracing.Middleware(s.tracer, mux)
}

// Handler returns the Server's http.Handler directly, for embedding in a
// caller-managed http.Server or httptest.Server without going through
// Serve's signal-driven lifecycle.
func (s *Server) Handler() http.Handler {
	return s.mux()
}

// Serve binds the configured host:port and blocks until ctx is canceled
// or a SIGINT/SIGTERM arrives, then drains in-flight requests within
// ShutdownTimeout before returning.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux(),
	}
	s.startedAt = time.Now()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", zap.String("addr", addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", s.config.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) withAccessLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		atomic.AddInt64(&s.requestCount, 1)
		requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.corsAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "HEAD, GET, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (s *Server) corsAllowed(origin string) bool {
	if len(s.config.CORSOrigins) == 0 {
		return true
	}
	for _, allowed := range s.config.CORSOrigins {
		if allowed == origin || allowed == "*" {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	once   sync.Once
}

func (r *statusRecorder) WriteHeader(status int) {
	r.once.Do(func() { r.status = status })
	r.ResponseWriter.WriteHeader(status)
}
