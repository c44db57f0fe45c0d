package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"course_service/internal/server/middleware"
	"course_service/pkg/logger"
)

type RouterConfig struct {
	Progress     ProgressAPI
	Quiz         QuizAPI
	Roster       RosterAPI
	Cache        Cache
	ReportTTL    time.Duration
	MaxBodyBytes int64
	Logger       *logger.Logger
}

// NewRouter assembles the full HTTP surface.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger))
	if cfg.MaxBodyBytes > 0 {
		r.Use(func(next http.Handler) http.Handler {
			return http.MaxBytesHandler(next, cfg.MaxBodyBytes)
		})
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	progressHandler := NewProgressHandler(cfg.Progress, cfg.Roster)
	quizHandler := NewQuizHandler(cfg.Quiz, cfg.Roster)
	instructorHandler := NewInstructorHandler(cfg.Roster, cfg.Cache, cfg.ReportTTL)

	r.Route("/api", func(r chi.Router) {
		r.Route("/progress", progressHandler.RegisterRoutes)
		r.Route("/quiz", quizHandler.RegisterRoutes)
		r.Route("/instructor", instructorHandler.RegisterRoutes)
	})

	return r
}
