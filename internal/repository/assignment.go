package repository

import (
	"context"
	"database/sql"
	"errors"

	"course_service/internal/domain"
)

type AssignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) CountAssignments(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments`).Scan(&count)
	return count, err
}

func (r *AssignmentRepository) CountCompleted(ctx context.Context, email string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignment_submissions WHERE student_email = $1 AND status = 'completed'`,
		email,
	).Scan(&count)
	return count, err
}

// ListWithStatus returns every assignment joined with the student's
// submission state, defaulting to not_started when there is no row.
func (r *AssignmentRepository) ListWithStatus(ctx context.Context, email string) ([]*domain.AssignmentWithStatus, error) {
	query := `
		SELECT a.id, a.week_number, a.title, COALESCE(a.title_ja, ''), COALESCE(a.description, ''),
		       a.max_score, a.due_date, a.created_at,
		       COALESCE(s.status, 'not_started'), s.score, s.feedback, s.submitted_at
		FROM assignments a
		LEFT JOIN assignment_submissions s ON a.id = s.assignment_id AND s.student_email = $1
		ORDER BY a.week_number
	`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.AssignmentWithStatus
	for rows.Next() {
		var a domain.AssignmentWithStatus
		var status string
		if err := rows.Scan(
			&a.ID,
			&a.WeekNumber,
			&a.Title,
			&a.TitleJA,
			&a.Description,
			&a.MaxScore,
			&a.DueDate,
			&a.CreatedAt,
			&status,
			&a.Score,
			&a.Feedback,
			&a.SubmittedAt,
		); err != nil {
			return nil, err
		}
		a.SubmissionStatus = domain.ToSubmissionStatus(status)
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

// UpsertSubmission creates or refreshes the (student, assignment) row
// with the given status, stamping submitted_at.
func (r *AssignmentRepository) UpsertSubmission(ctx context.Context, email string, assignmentID int64, status domain.SubmissionStatus) error {
	query := `
		INSERT INTO assignment_submissions (student_email, assignment_id, status, submitted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (student_email, assignment_id) DO UPDATE SET
			status = EXCLUDED.status,
			submitted_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, email, assignmentID, status)
	return err
}

func (r *AssignmentRepository) SetSubmissionPath(ctx context.Context, email string, assignmentID int64, path string) error {
	query := `
		UPDATE assignment_submissions
		SET submission_path = $1
		WHERE student_email = $2 AND assignment_id = $3
	`
	_, err := r.db.ExecContext(ctx, query, path, email, assignmentID)
	return err
}

// ApplyGrade marks the row completed and sets score, feedback and
// graded_at in one statement; the stored submission path wins over the
// result's copy. Reapplying the same result leaves the row unchanged.
func (r *AssignmentRepository) ApplyGrade(ctx context.Context, result *domain.GradingResult) error {
	query := `
		UPDATE assignment_submissions
		SET status = 'completed',
		    score = $1,
		    feedback = $2,
		    graded_at = $3,
		    submission_path = COALESCE(submission_path, $4)
		WHERE student_email = $5 AND assignment_id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		result.Score,
		result.Feedback,
		result.GradedAt,
		result.SubmissionPath,
		result.Email,
		result.AssignmentID,
	)
	return err
}

func (r *AssignmentRepository) GetSubmission(ctx context.Context, email string, assignmentID int64) (*domain.AssignmentSubmission, error) {
	query := `
		SELECT id, student_email, assignment_id, status, score, feedback,
		       submitted_at, graded_at, submission_path
		FROM assignment_submissions
		WHERE student_email = $1 AND assignment_id = $2
	`
	var s domain.AssignmentSubmission
	var status string
	err := r.db.QueryRowContext(ctx, query, email, assignmentID).Scan(
		&s.ID,
		&s.StudentEmail,
		&s.AssignmentID,
		&status,
		&s.Score,
		&s.Feedback,
		&s.SubmittedAt,
		&s.GradedAt,
		&s.SubmissionPath,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Status = domain.ToSubmissionStatus(status)
	return &s, nil
}
