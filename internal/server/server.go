// ABOUTME: HTTP server wiring for curation-gateway using chi
// ABOUTME: Mounts the curation and chat API, CORS, and request logging middleware

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/daxcurate/curation-gateway/internal/config"
	"github.com/daxcurate/curation-gateway/internal/gateway"
	"github.com/daxcurate/curation-gateway/internal/store"
)

// Server owns the HTTP surface of the curation gateway.
type Server struct {
	cfg        *config.Config
	examples   *store.FileStore
	catalog    *store.Catalog
	audit      *store.AuditStore // nil when auditing is disabled
	router     *gateway.Router
	logger     *slog.Logger
	httpServer *http.Server
}

// New wires a Server from configuration. The audit store is optional.
func New(cfg *config.Config, examples *store.FileStore, catalog *store.Catalog, audit *store.AuditStore, router *gateway.Router, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		examples: examples,
		catalog:  catalog,
		audit:    audit,
		router:   router,
		logger:   logger.With("component", "server"),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// routes builds the chi router with middleware and all API endpoints.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/examples/{modelType}", s.handleGetExamples)
		r.Delete("/examples/{modelType}", s.handleResetExamples)
		r.Post("/examples/add", s.handleAddExample)
		r.Post("/examples/update-correction", s.handleUpdateCorrection)
		r.Get("/backups/{modelType}", s.handleListBackups)
		r.Get("/audit", s.handleListAudit)
		r.Post("/chat", s.handleChat)
	})

	return r
}

// requestLogger tags every request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration", time.Since(start),
		)
	})
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails. Shutdown is graceful with a bounded drain period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
