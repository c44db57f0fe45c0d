package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"course_service/internal/domain"
	"course_service/internal/grading"
	"course_service/internal/repository"
	"course_service/pkg/logger"
)

// ProgressService tracks what a student has done in the course and owns
// the assignment submission flow, including the bridge from grading
// results back into persistent rows.
type ProgressService struct {
	students     StudentRepository
	progress     ProgressRepository
	assignments  AssignmentRepository
	quizzes      QuizRepository
	store        SubmissionSaver
	queue        GradingQueue
	producer     EventProducer
	gradingTopic string
	log          *logger.Logger
}

func NewProgressService(
	students StudentRepository,
	progress ProgressRepository,
	assignments AssignmentRepository,
	quizzes QuizRepository,
	store SubmissionSaver,
	queue GradingQueue,
	producer EventProducer,
	gradingTopic string,
	log *logger.Logger,
) *ProgressService {
	return &ProgressService{
		students:     students,
		progress:     progress,
		assignments:  assignments,
		quizzes:      quizzes,
		store:        store,
		queue:        queue,
		producer:     producer,
		gradingTopic: gradingTopic,
		log:          log,
	}
}

func (s *ProgressService) RecordPageView(ctx context.Context, email string, view *domain.PageView) error {
	if _, err := s.students.GetOrCreate(ctx, email, ""); err != nil {
		return fmt.Errorf("ensure student: %w", err)
	}
	return s.progress.RecordPageView(ctx, email, view.PagePath, view.PageTitle, view.TimeSpentSeconds)
}

func (s *ProgressService) RecordBotInteraction(ctx context.Context, interaction *domain.BotInteraction) error {
	if _, err := s.students.GetOrCreate(ctx, interaction.StudentEmail, ""); err != nil {
		return fmt.Errorf("ensure student: %w", err)
	}
	return s.progress.RecordBotInteraction(ctx, interaction)
}

func (s *ProgressService) GetViewedPages(ctx context.Context, email string) ([]string, error) {
	return s.progress.ViewedPages(ctx, email)
}

func (s *ProgressService) GetAssignments(ctx context.Context, email string) ([]*domain.AssignmentWithStatus, error) {
	return s.assignments.ListWithStatus(ctx, email)
}

// GetStudentProgress assembles the full per-student report: content
// coverage, bot usage, assignment completion, quiz stats and the
// week-by-week breakdown.
func (s *ProgressService) GetStudentProgress(ctx context.Context, email string) (*domain.Progress, error) {
	required, err := s.progress.CountRequiredContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("count required content: %w", err)
	}
	viewed, err := s.progress.CountViewedPages(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("count viewed pages: %w", err)
	}
	interactions, err := s.progress.CountBotInteractions(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("count bot interactions: %w", err)
	}
	totalAssignments, err := s.assignments.CountAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	completed, err := s.assignments.CountCompleted(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("count completed assignments: %w", err)
	}
	quizStats, err := s.quizzes.Stats(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("quiz stats: %w", err)
	}
	weekly, err := s.progress.WeeklyProgress(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("weekly progress: %w", err)
	}

	return &domain.Progress{
		Email: email,
		Content: domain.ContentProgress{
			Viewed:     viewed,
			Total:      required,
			Percentage: percent(viewed, required),
		},
		BotInteractions: domain.InteractionStats{
			Count: interactions,
		},
		Assignments: domain.AssignmentStats{
			Completed:  completed,
			Total:      totalAssignments,
			Percentage: percent(completed, totalAssignments),
		},
		Quizzes:        *quizStats,
		WeeklyProgress: weekly,
	}, nil
}

// SubmitOutcome is what a client gets back from a submission: the
// acknowledged status plus, when a payload was attached, the grading
// queue outcome.
type SubmitOutcome struct {
	AssignmentID int64                   `json:"assignment_id"`
	Status       domain.SubmissionStatus `json:"status"`
	Grading      *grading.EnqueueResult  `json:"grading,omitempty"`
}

// SubmitAssignment persists the raw payload, marks the submission row,
// and hands the payload to the grading queue. A storage failure aborts
// the whole operation before anything is enqueued or recorded.
func (s *ProgressService) SubmitAssignment(ctx context.Context, email string, assignmentID int64, status domain.SubmissionStatus, payload map[string]interface{}) (*SubmitOutcome, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if _, err := s.students.GetOrCreate(ctx, email, ""); err != nil {
		return nil, fmt.Errorf("ensure student: %w", err)
	}

	var path string
	if payload != nil {
		var err error
		path, err = s.store.Save(email, assignmentID, payload)
		if err != nil {
			return nil, fmt.Errorf("persist submission: %w", err)
		}
	}

	if err := s.assignments.UpsertSubmission(ctx, email, assignmentID, status); err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}
	if path != "" {
		if err := s.assignments.SetSubmissionPath(ctx, email, assignmentID, path); err != nil {
			return nil, fmt.Errorf("record submission path: %w", err)
		}
	}

	outcome := &SubmitOutcome{AssignmentID: assignmentID, Status: status}
	if payload != nil {
		result := s.queue.Enqueue(grading.NewSubmission(email, assignmentID, payload, path))
		outcome.Grading = &result
		if result.Result != nil {
			s.applyGrade(ctx, result.Result)
		}
	}
	return outcome, nil
}

// ProcessNext drains at most one queued submission, persisting its
// grade. Returns nil when nothing was processed.
func (s *ProgressService) ProcessNext(ctx context.Context) *domain.GradingResult {
	result := s.queue.DrainOne()
	if result == nil {
		return nil
	}
	s.applyGrade(ctx, result)
	return result
}

func (s *ProgressService) QueueDepth() int {
	return s.queue.Depth()
}

// applyGrade writes a grading result through to the submission row and
// publishes the grading event. A persistence failure loses the grade;
// the row stays "submitted" and a resubmission recomputes it, so we
// log and move on instead of retrying.
func (s *ProgressService) applyGrade(ctx context.Context, result *domain.GradingResult) {
	if err := s.assignments.ApplyGrade(ctx, result); err != nil {
		s.log.Error("grade lost: failed to persist grading result",
			zap.String("student_email", result.Email),
			zap.Int64("assignment_id", result.AssignmentID),
			zap.Error(err))
		return
	}
	if s.producer == nil {
		return
	}
	if err := s.producer.Send(ctx, s.gradingTopic, result); err != nil {
		s.log.Warn("failed to publish grading event",
			zap.String("student_email", result.Email),
			zap.Int64("assignment_id", result.AssignmentID),
			zap.Error(err))
	}
}

// LocalPageView is a page view recorded offline by the course material
// site and replayed on reconnect.
type LocalPageView struct {
	Path             string `json:"path"`
	Title            string `json:"title"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

type SyncResult struct {
	ViewedPages []string  `json:"viewed_pages"`
	SyncedAt    time.Time `json:"synced_at"`
}

// SyncProgress replays locally buffered page views and returns the
// server-side view of what the student has covered.
func (s *ProgressService) SyncProgress(ctx context.Context, email string, local []LocalPageView) (*SyncResult, error) {
	if _, err := s.students.GetOrCreate(ctx, email, ""); err != nil {
		return nil, fmt.Errorf("ensure student: %w", err)
	}
	for _, v := range local {
		if v.Path == "" {
			continue
		}
		if err := s.progress.RecordPageView(ctx, email, v.Path, v.Title, v.TimeSpentSeconds); err != nil {
			return nil, fmt.Errorf("replay page view %q: %w", v.Path, err)
		}
	}
	viewed, err := s.progress.ViewedPages(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list viewed pages: %w", err)
	}
	return &SyncResult{ViewedPages: viewed, SyncedAt: time.Now().UTC()}, nil
}

// GetSubmission returns the stored submission row, mapping the
// repository's not-found to a service-level miss (nil, nil).
func (s *ProgressService) GetSubmission(ctx context.Context, email string, assignmentID int64) (*domain.AssignmentSubmission, error) {
	sub, err := s.assignments.GetSubmission(ctx, email, assignmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}
