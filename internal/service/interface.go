package service

import (
	"context"

	"course_service/internal/domain"
	"course_service/internal/grading"
)

// TextGenerator is the opaque LLM used for quiz generation.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// EventProducer publishes course events to the message bus.
type EventProducer interface {
	Send(ctx context.Context, topic string, message interface{}) error
}

// GradingQueue decouples the submit path from the grading trigger so a
// background-worker redesign would not change the submit contract.
type GradingQueue interface {
	Enqueue(item *domain.Submission) grading.EnqueueResult
	DrainOne() *domain.GradingResult
	Depth() int
}

// SubmissionSaver persists one raw submission payload and returns its
// stable location.
type SubmissionSaver interface {
	Save(email string, assignmentID int64, payload map[string]interface{}) (string, error)
}

type StudentRepository interface {
	GetOrCreate(ctx context.Context, email, name string) (*domain.Student, error)
	GetByEmail(ctx context.Context, email string) (*domain.Student, error)
	Create(ctx context.Context, student *domain.Student) error
	UpdateRoster(ctx context.Context, student *domain.Student) error
	List(ctx context.Context) ([]*domain.Student, error)
}

type ProgressRepository interface {
	RecordPageView(ctx context.Context, email, pagePath, pageTitle string, timeSpent int) error
	ViewedPages(ctx context.Context, email string) ([]string, error)
	RecordBotInteraction(ctx context.Context, interaction *domain.BotInteraction) error
	CountBotInteractions(ctx context.Context, email string) (int, error)
	CountRequiredContent(ctx context.Context) (int, error)
	CountViewedPages(ctx context.Context, email string) (int, error)
	ViewedWeeks(ctx context.Context, email string) ([]int, error)
	WeeklyProgress(ctx context.Context, email string) ([]domain.WeeklyProgress, error)
}

type AssignmentRepository interface {
	CountAssignments(ctx context.Context) (int, error)
	CountCompleted(ctx context.Context, email string) (int, error)
	ListWithStatus(ctx context.Context, email string) ([]*domain.AssignmentWithStatus, error)
	UpsertSubmission(ctx context.Context, email string, assignmentID int64, status domain.SubmissionStatus) error
	SetSubmissionPath(ctx context.Context, email string, assignmentID int64, path string) error
	ApplyGrade(ctx context.Context, result *domain.GradingResult) error
	GetSubmission(ctx context.Context, email string, assignmentID int64) (*domain.AssignmentSubmission, error)
}

type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	GetQuiz(ctx context.Context, id int64) (*domain.Quiz, error)
	CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error
	AttemptStats(ctx context.Context, email string) (avg float64, count int, err error)
	Stats(ctx context.Context, email string) (*domain.QuizStats, error)
	History(ctx context.Context, email string) ([]*domain.QuizAttemptRecord, error)
}

// ProgressReporter is the slice of the progress service the instructor
// reports need.
type ProgressReporter interface {
	GetStudentProgress(ctx context.Context, email string) (*domain.Progress, error)
	GetAssignments(ctx context.Context, email string) ([]*domain.AssignmentWithStatus, error)
}
