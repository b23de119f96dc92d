package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/cyber-assessment/internal/assessment"
	"github.com/terra-clan/cyber-assessment/internal/config"
	"github.com/terra-clan/cyber-assessment/internal/delivery"
	"github.com/terra-clan/cyber-assessment/internal/health"
	"github.com/terra-clan/cyber-assessment/internal/questions"
)

// Server represents the HTTP API server
type Server struct {
	config    config.ServerConfig
	router    *chi.Mux
	bank      *questions.Bank
	sessions  *assessment.Manager
	deliverer delivery.Deliverer
	health    *health.Registry
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	bank *questions.Bank,
	sessions *assessment.Manager,
	deliverer delivery.Deliverer,
	registry *health.Registry,
) *Server {
	if registry == nil {
		registry = health.NewRegistry()
	}

	s := &Server{
		config:    cfg,
		bank:      bank,
		sessions:  sessions,
		deliverer: deliverer,
		health:    registry,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		// Any method is routed here so that the handler answers 405 itself
		r.HandleFunc("/send-assessment", s.handleSendAssessment)

		r.Get("/questions", s.handleListQuestions)
		r.Get("/score/stream", s.handleScoreStream)

		if s.sessions != nil {
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", s.handleStartSession)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSession)
					r.Put("/respondent", s.handleSetRespondent)
					r.Put("/answers/{questionId}", s.handleSelectAnswer)
					r.Post("/next", s.handleNext)
					r.Post("/back", s.handleBack)
				})
			})
		}
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog and attaches a
// request-scoped logger to the context
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := slog.Default().With("request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(ContextWithLogger(r.Context(), logger))

		defer func() {
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
