package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"course_service/internal/domain"
	"course_service/internal/service"
)

type QuizAPI interface {
	GenerateQuiz(ctx context.Context, params service.GenerateQuizParams) (*service.GeneratedQuiz, error)
	GetQuiz(ctx context.Context, id int64) (*domain.Quiz, error)
	SubmitQuiz(ctx context.Context, email string, quizID int64, answers map[int]string, timeTaken int) (*service.QuizResult, error)
	History(ctx context.Context, email string) ([]*domain.QuizAttemptRecord, error)
	Topics() map[int]service.WeekTopic
}

type QuizHandler struct {
	quiz   QuizAPI
	roster Enrollment
}

func NewQuizHandler(quiz QuizAPI, roster Enrollment) *QuizHandler {
	return &QuizHandler{quiz: quiz, roster: roster}
}

func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.Post("/generate", h.GenerateQuiz)
	r.Post("/submit", h.SubmitQuiz)
	r.Get("/topics", h.GetTopics)
	r.Get("/history/{email}", h.GetHistory)
	r.Get("/{quiz_id}", h.GetQuiz)
}

type generateQuizRequest struct {
	Email        string `json:"email"`
	WeekNumber   *int   `json:"week_number"`
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

func (h *QuizHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateQuizRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	quiz, err := h.quiz.GenerateQuiz(r.Context(), service.GenerateQuizParams{
		Email:        req.Email,
		WeekNumber:   req.WeekNumber,
		Topic:        req.Topic,
		NumQuestions: req.NumQuestions,
		Difficulty:   domain.Difficulty(req.Difficulty),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

type submitQuizRequest struct {
	Email     string            `json:"email"`
	QuizID    int64             `json:"quiz_id"`
	Answers   map[string]string `json:"answers"`
	TimeTaken int               `json:"time_taken"`
}

func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitQuizRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	// JSON object keys are strings; answers arrive keyed by question
	// index.
	answers := make(map[int]string, len(req.Answers))
	for k, v := range req.Answers {
		idx, err := strconv.Atoi(k)
		if err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "answer keys must be question indexes")
			return
		}
		answers[idx] = v
	}

	result, err := h.quiz.SubmitQuiz(r.Context(), req.Email, req.QuizID, answers, req.TimeTaken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := parsePathInt(r, "quiz_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	quiz, err := h.quiz.GetQuiz(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quiz_id":     quiz.ID,
		"topic":       quiz.Topic,
		"week_number": quiz.WeekNumber,
		"difficulty":  quiz.Difficulty,
		"questions":   quiz.Questions,
		"created_at":  quiz.CreatedAt,
	})
}

func (h *QuizHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	email, err := parsePathParam(r, "email")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.roster.EnsureEnrolled(r.Context(), email); err != nil {
		writeServiceError(w, err)
		return
	}
	history, err := h.quiz.History(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"email": email, "history": history})
}

func (h *QuizHandler) GetTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"topics": h.quiz.Topics()})
}
