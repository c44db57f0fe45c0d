package domain

import (
	"time"
)

type Assignment struct {
	ID          int64      `json:"id"`
	WeekNumber  int        `json:"week_number"`
	Title       string     `json:"title"`
	TitleJA     string     `json:"title_ja"`
	Description string     `json:"description"`
	MaxScore    int        `json:"max_score"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

// AssignmentSubmission is one row per (student, assignment) pair. Score,
// feedback and graded_at are only ever set together by the grading path.
type AssignmentSubmission struct {
	ID             int64            `json:"id"`
	StudentEmail   string           `json:"student_email"`
	AssignmentID   int64            `json:"assignment_id"`
	Status         SubmissionStatus `json:"status"`
	Score          *int             `json:"score"`
	Feedback       *string          `json:"feedback"`
	SubmittedAt    *time.Time       `json:"submitted_at"`
	GradedAt       *time.Time       `json:"graded_at"`
	SubmissionPath *string          `json:"submission_path"`
}

type SubmissionStatus string

const (
	StatusNotStarted SubmissionStatus = "not_started"
	StatusSubmitted  SubmissionStatus = "submitted"
	StatusCompleted  SubmissionStatus = "completed"
)

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusSubmitted, StatusCompleted:
		return true
	default:
		return false
	}
}

func ToSubmissionStatus(status string) SubmissionStatus {
	switch status {
	case "submitted":
		return StatusSubmitted
	case "completed":
		return StatusCompleted
	default:
		return StatusNotStarted
	}
}

// AssignmentWithStatus is an assignment joined with one student's
// submission state, for listings.
type AssignmentWithStatus struct {
	Assignment
	SubmissionStatus SubmissionStatus `json:"submission_status"`
	Score            *int             `json:"score"`
	Feedback         *string          `json:"feedback"`
	SubmittedAt      *time.Time       `json:"submitted_at"`
}
