package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Config holds the parameters NewServer needs, decoupled from the service's
// own configuration struct.
type Config struct {
	CORSAllowedOrigins []string
	MetricsPath        string
}

// Server holds the HTTP server dependencies and exposes an APIRouter that
// callers mount domain routes onto after the pipeline stages passed to
// NewServer have been applied.
type Server struct {
	Router    *chi.Mux
	APIRouter chi.Router
	Logger    *slog.Logger
	DB        *pgxpool.Pool
	Redis     *redis.Client
	startedAt time.Time
}

// NewServer creates an HTTP server with global middleware, health/metrics
// endpoints, and an /api/v1 router with pipelineStages applied in order
// (the caller chooses the stages — see internal/pipeline).
func NewServer(cfg Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry, pipelineStages ...func(http.Handler) http.Handler) *Server {
	s := &Server{
		Router:    chi.NewRouter(),
		Logger:    logger,
		DB:        db,
		Redis:     rdb,
		startedAt: time.Now(),
	}

	s.Router.Use(RequestID)
	s.Router.Use(RequestLogger(logger))
	s.Router.Use(Metrics)
	s.Router.Use(chimiddleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Get("/readyz", s.handleReadyz)

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	s.Router.Handle(metricsPath, promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	s.Router.Route("/api/v1", func(r chi.Router) {
		for _, stage := range pipelineStages {
			r.Use(stage)
		}
		s.APIRouter = r
	})

	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	type checkResult struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	var checks []checkResult
	allOK := true

	if err := s.DB.Ping(ctx); err != nil {
		s.Logger.Error("readiness check: database ping failed", "error", err)
		checks = append(checks, checkResult{Name: "database", Status: "fail", Error: err.Error()})
		allOK = false
	} else {
		checks = append(checks, checkResult{Name: "database", Status: "ok"})
	}

	if err := s.Redis.Ping(ctx).Err(); err != nil {
		s.Logger.Error("readiness check: redis ping failed", "error", err)
		checks = append(checks, checkResult{Name: "redis", Status: "fail", Error: err.Error()})
		allOK = false
	} else {
		checks = append(checks, checkResult{Name: "redis", Status: "ok"})
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !allOK {
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	Respond(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}
