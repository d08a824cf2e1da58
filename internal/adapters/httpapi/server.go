package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transitops/shuttleplan-go/internal/application/common"
	"github.com/transitops/shuttleplan-go/internal/infrastructure/config"
)

// Server wraps the HTTP server and its listener.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	logger     common.PipelineLogger
}

// Options configure optional server features.
type Options struct {
	// Registry, when set, is exposed as a Prometheus scrape endpoint.
	Registry *prometheus.Registry

	// MetricsPath is the scrape endpoint path (default: /metrics).
	MetricsPath string

	// Logger is attached to every request context so pipeline logs
	// flow per request. Nil means no logging.
	Logger common.PipelineLogger
}

// New creates the API server (does not start it).
func New(cfg config.ServerConfig, handler *Handler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = common.LoggerFromContext(context.Background())
	}

	mux := setupRoutes(handler, opts)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		addr:       cfg.Address(),
		logger:     logger,
	}
}

// Start begins serving and returns the bound address (useful for :0).
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Log("ERROR", "API server stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *Handler, opts Options) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/routes/plan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandlePlanRoutes(w, r)
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleHealthCheck(w, r)
	})

	if opts.Registry != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}

// loggingMiddleware attaches the pipeline logger to the request context and
// logs one line per completed request.
func loggingMiddleware(logger common.PipelineLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		ctx := common.WithLogger(r.Context(), logger)

		next.ServeHTTP(lrw, r.WithContext(ctx))

		logger.Log("INFO", "HTTP request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   lrw.statusCode,
			"duration": time.Since(start).String(),
		})
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
