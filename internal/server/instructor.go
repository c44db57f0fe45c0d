package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"course_service/internal/domain"
	"course_service/internal/service"
)

type RosterAPI interface {
	IngestCSV(ctx context.Context, r io.Reader) (*service.RosterSummary, error)
	EnsureEnrolled(ctx context.Context, email string) error
	RequireInstructor(ctx context.Context, email string) error
	ListStudents(ctx context.Context) ([]*domain.Student, error)
	ProgressReport(ctx context.Context) ([]service.ProgressReportRow, error)
	AssignmentReport(ctx context.Context) ([]service.AssignmentReportRow, error)
}

// Cache holds rendered report bodies keyed by report name.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
}

const (
	progressReportKey   = "reports:progress"
	assignmentReportKey = "reports:assignments"
)

type InstructorHandler struct {
	roster    RosterAPI
	cache     Cache
	reportTTL time.Duration
}

func NewInstructorHandler(roster RosterAPI, cache Cache, reportTTL time.Duration) *InstructorHandler {
	return &InstructorHandler{roster: roster, cache: cache, reportTTL: reportTTL}
}

func (h *InstructorHandler) RegisterRoutes(r chi.Router) {
	r.Post("/roster/upload", h.UploadRoster)
	r.Get("/students", h.ListStudents)
	r.Get("/reports/progress", h.ProgressReport)
	r.Get("/reports/assignments", h.AssignmentReport)
}

// requireInstructor reads the caller identity from the form or query
// and checks the roster role. Returns false after writing the error.
func (h *InstructorHandler) requireInstructor(w http.ResponseWriter, r *http.Request, email string) bool {
	if email == "" {
		writeErrorJSON(w, http.StatusBadRequest, "instructor_email is required")
		return false
	}
	if err := h.roster.RequireInstructor(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return false
	}
	return true
}

func (h *InstructorHandler) UploadRoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "expected multipart form with roster file")
		return
	}
	if !h.requireInstructor(w, r, r.FormValue("instructor_email")) {
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "roster file is required")
		return
	}
	defer file.Close()

	summary, err := h.roster.IngestCSV(r.Context(), file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Roster changes make every cached report stale.
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), progressReportKey, assignmentReportKey)
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *InstructorHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	if !h.requireInstructor(w, r, r.URL.Query().Get("instructor_email")) {
		return
	}
	students, err := h.roster.ListStudents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

func (h *InstructorHandler) ProgressReport(w http.ResponseWriter, r *http.Request) {
	serveCachedReport(h, w, r, progressReportKey, func(ctx context.Context) (interface{}, error) {
		rows, err := h.roster.ProgressReport(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"students": rows}, nil
	})
}

func (h *InstructorHandler) AssignmentReport(w http.ResponseWriter, r *http.Request) {
	serveCachedReport(h, w, r, assignmentReportKey, func(ctx context.Context) (interface{}, error) {
		rows, err := h.roster.AssignmentReport(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"students": rows}, nil
	})
}

// serveCachedReport funnels both reports through the redis cache: the
// roster-wide aggregation is too heavy to run on every dashboard poll.
func serveCachedReport(h *InstructorHandler, w http.ResponseWriter, r *http.Request, key string, build func(ctx context.Context) (interface{}, error)) {
	if !h.requireInstructor(w, r, r.URL.Query().Get("instructor_email")) {
		return
	}

	if h.cache != nil {
		if data, ok := h.cache.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
			return
		}
	}

	report, err := build(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize report")
		return
	}

	if h.cache != nil {
		h.cache.Set(r.Context(), key, data, h.reportTTL)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
