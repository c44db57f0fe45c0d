package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"course_service/internal/domain"
)

// SubmissionStore persists raw submission payloads to disk, one file
// per submission, namespaced by student.
type SubmissionStore struct {
	baseDir string

	now func() time.Time
}

func NewSubmissionStore(baseDir string) (*SubmissionStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create submissions dir: %w", err)
	}
	return &SubmissionStore{baseDir: baseDir, now: time.Now}, nil
}

// Save serializes the payload and writes it under the student's
// directory, returning the path of the new file. Files are created
// exclusively, so prior submissions are never overwritten: when the
// second-granularity timestamp in the filename collides, the name gets
// a numeric suffix instead.
func (s *SubmissionStore) Save(email string, assignmentID int64, payload map[string]interface{}) (string, error) {
	data, err := marshalSubmission(payload)
	if err != nil {
		return "", fmt.Errorf("serialize submission: %w", err)
	}

	dir := filepath.Join(s.baseDir, strings.ReplaceAll(email, "@", "_at_"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create student dir: %w", err)
	}

	ts := s.now().UTC().Format("20060102T150405Z")
	base := fmt.Sprintf("assignment-%d-%s", assignmentID, ts)
	path := filepath.Join(dir, base+".json")
	for n := 2; ; n++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			path = filepath.Join(dir, fmt.Sprintf("%s-%d.json", base, n))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create submission file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write submission: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write submission: %w", err)
		}
		return path, nil
	}
}

func marshalSubmission(payload map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewSubmission builds the queue item for a payload that has already
// been persisted at path.
func NewSubmission(email string, assignmentID int64, payload map[string]interface{}, path string) *domain.Submission {
	return &domain.Submission{
		Email:          email,
		AssignmentID:   assignmentID,
		Payload:        payload,
		SubmissionPath: path,
		QueuedAt:       time.Now().UTC(),
	}
}
