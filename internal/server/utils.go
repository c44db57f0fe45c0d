package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"course_service/internal/service"
)

func mapErr(err error) int {
	switch {
	case errors.Is(err, service.ErrNotEnrolled),
		errors.Is(err, service.ErrInstructorRequired):
		return http.StatusForbidden
	case errors.Is(err, service.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrRosterColumns):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	w.Write(resp)
}

func writeServiceError(w http.ResponseWriter, err error) {
	statusCode := mapErr(err)
	if statusCode == http.StatusInternalServerError {
		writeErrorJSON(w, statusCode, http.StatusText(statusCode))
		return
	}
	writeErrorJSON(w, statusCode, err.Error())
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parsePathParam(r *http.Request, key string) (string, error) {
	val := chi.URLParam(r, key)
	if val == "" {
		return "", fmt.Errorf("missing path param: %s", key)
	}
	return val, nil
}

func parsePathInt(r *http.Request, key string) (int64, error) {
	raw, err := parsePathParam(r, key)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return id, nil
}
