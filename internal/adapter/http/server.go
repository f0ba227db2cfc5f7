package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the query API alongside health, readiness and metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server for the given router.
func NewServer(addr string, router http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// NewRouter wires the API routes. Readiness is reported by ready, and CORS
// admits the given origins ("*" admits any).
func NewRouter(h *Handler, ready sharedobs.ReadinessChecker, allowedOrigins []string, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	// Queries are held back until startup ingestion completes.
	r.Group(func(r chi.Router) {
		r.Use(requireReady(ready))

		r.Get("/", h.Status)

		r.Route("/sightings", func(r chi.Router) {
			r.Get("/", h.ListSightings)
			r.Get("/map", h.MapSummary)
			r.Get("/timeline/{location}", h.Timeline)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/by-region", h.RegionalRollup)
			r.Get("/by-species", h.SpeciesBreakdown)
			r.Get("/seasonal", h.Seasonal)
		})

		r.Post("/report", h.Report)

		r.Route("/meta", func(r chi.Router) {
			r.Get("/cities", h.Cities)
			r.Get("/species", h.Species)
		})
	})

	return r
}

// requireReady answers 503 until the checker reports ready.
func requireReady(checker sharedobs.ReadinessChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := checker.CheckReadiness(r.Context()); err != nil {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "service is starting", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request at the end of the request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
