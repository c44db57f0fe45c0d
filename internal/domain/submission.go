package domain

import (
	"time"
)

// Submission is one grading work item. It is created when a student
// submits a payload, owned by the grading queue until dequeued, and
// never mutated after creation.
type Submission struct {
	Email          string
	AssignmentID   int64
	Payload        map[string]interface{}
	SubmissionPath string
	QueuedAt       time.Time
}

// GradingResult is produced by grading exactly one Submission.
type GradingResult struct {
	Email          string    `json:"email"`
	AssignmentID   int64     `json:"assignment_id"`
	Score          int       `json:"score"`
	Feedback       string    `json:"feedback"`
	GradedAt       time.Time `json:"graded_at"`
	SubmissionPath string    `json:"submission_path"`
}
