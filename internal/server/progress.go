package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"course_service/internal/domain"
	"course_service/internal/service"
)

// ProgressAPI is the slice of the progress service the handlers use.
type ProgressAPI interface {
	RecordPageView(ctx context.Context, email string, view *domain.PageView) error
	RecordBotInteraction(ctx context.Context, interaction *domain.BotInteraction) error
	GetViewedPages(ctx context.Context, email string) ([]string, error)
	GetAssignments(ctx context.Context, email string) ([]*domain.AssignmentWithStatus, error)
	GetStudentProgress(ctx context.Context, email string) (*domain.Progress, error)
	SubmitAssignment(ctx context.Context, email string, assignmentID int64, status domain.SubmissionStatus, payload map[string]interface{}) (*service.SubmitOutcome, error)
	ProcessNext(ctx context.Context) *domain.GradingResult
	QueueDepth() int
	SyncProgress(ctx context.Context, email string, local []service.LocalPageView) (*service.SyncResult, error)
}

// Enrollment gates student-facing endpoints on roster membership.
type Enrollment interface {
	EnsureEnrolled(ctx context.Context, email string) error
}

type ProgressHandler struct {
	progress ProgressAPI
	roster   Enrollment
}

func NewProgressHandler(progress ProgressAPI, roster Enrollment) *ProgressHandler {
	return &ProgressHandler{progress: progress, roster: roster}
}

func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Post("/page-view", h.RecordPageView)
	r.Post("/bot-interaction", h.RecordBotInteraction)
	r.Post("/assignment/submit", h.SubmitAssignment)
	r.Post("/assignment/process-next", h.ProcessNext)
	r.Post("/sync", h.SyncProgress)
	r.Get("/{email}", h.GetProgress)
	r.Get("/{email}/viewed-pages", h.GetViewedPages)
	r.Get("/{email}/assignments", h.GetAssignments)
}

type pageViewRequest struct {
	Email     string `json:"email"`
	PagePath  string `json:"page_path"`
	PageTitle string `json:"page_title"`
	TimeSpent int    `json:"time_spent"`
}

func (h *ProgressHandler) RecordPageView(w http.ResponseWriter, r *http.Request) {
	var req pageViewRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	err := h.progress.RecordPageView(r.Context(), req.Email, &domain.PageView{
		PagePath:         req.PagePath,
		PageTitle:        req.PageTitle,
		TimeSpentSeconds: req.TimeSpent,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type botInteractionRequest struct {
	Email    string  `json:"email"`
	Question string  `json:"question"`
	Response string  `json:"response"`
	Language string  `json:"language"`
	Topic    *string `json:"topic"`
}

func (h *ProgressHandler) RecordBotInteraction(w http.ResponseWriter, r *http.Request) {
	var req botInteractionRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Language == "" {
		req.Language = "ja"
	}
	err := h.progress.RecordBotInteraction(r.Context(), &domain.BotInteraction{
		StudentEmail: req.Email,
		Question:     req.Question,
		Response:     req.Response,
		Language:     req.Language,
		Topic:        req.Topic,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	email, err := parsePathParam(r, "email")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}
	progress, err := h.progress.GetStudentProgress(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) GetViewedPages(w http.ResponseWriter, r *http.Request) {
	email, err := parsePathParam(r, "email")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}
	pages, err := h.progress.GetViewedPages(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"email": email, "viewed_pages": pages})
}

func (h *ProgressHandler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	email, err := parsePathParam(r, "email")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}
	assignments, err := h.progress.GetAssignments(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"email": email, "assignments": assignments})
}

type submitAssignmentRequest struct {
	Email        string                 `json:"email"`
	AssignmentID int64                  `json:"assignment_id"`
	Status       string                 `json:"status"`
	Submission   map[string]interface{} `json:"submission"`
}

func (h *ProgressHandler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	var req submitAssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	status := domain.StatusSubmitted
	if req.Status != "" {
		status = domain.SubmissionStatus(req.Status)
	}
	outcome, err := h.progress.SubmitAssignment(r.Context(), req.Email, req.AssignmentID, status, req.Submission)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// ProcessNext lets operators nudge the queue when load has dropped but
// no new submission has arrived to trigger a drain.
func (h *ProgressHandler) ProcessNext(w http.ResponseWriter, r *http.Request) {
	result := h.progress.ProcessNext(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"processed": result != nil,
		"result":    result,
		"depth":     h.progress.QueueDepth(),
	})
}

type syncRequest struct {
	Email       string                  `json:"email"`
	ViewedPages []service.LocalPageView `json:"viewed_pages"`
}

func (h *ProgressHandler) SyncProgress(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	result, err := h.progress.SyncProgress(r.Context(), req.Email, req.ViewedPages)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
