package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"course_service/internal/domain"
)

type QuizRepository struct {
	db *sql.DB
}

func NewQuizRepository(db *sql.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	query := `
		INSERT INTO quizzes (student_email, week_number, topic, questions_json, difficulty)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		quiz.StudentEmail,
		quiz.WeekNumber,
		quiz.Topic,
		questions,
		quiz.Difficulty,
	).Scan(&quiz.ID, &quiz.CreatedAt)
}

func (r *QuizRepository) GetQuiz(ctx context.Context, id int64) (*domain.Quiz, error) {
	query := `
		SELECT id, student_email, week_number, topic, questions_json, difficulty, created_at
		FROM quizzes
		WHERE id = $1
	`
	var q domain.Quiz
	var questions []byte
	var difficulty string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&q.ID,
		&q.StudentEmail,
		&q.WeekNumber,
		&q.Topic,
		&questions,
		&difficulty,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	q.Difficulty = domain.Difficulty(difficulty)
	return &q, nil
}

func (r *QuizRepository) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	query := `
		INSERT INTO quiz_attempts (student_email, quiz_id, answers_json, score, max_score, percentage, time_taken_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, completed_at
	`
	return r.db.QueryRowContext(ctx, query,
		attempt.StudentEmail,
		attempt.QuizID,
		answers,
		attempt.Score,
		attempt.MaxScore,
		attempt.Percentage,
		attempt.TimeTakenSeconds,
	).Scan(&attempt.ID, &attempt.CompletedAt)
}

// AttemptStats returns the student's average attempt percentage and
// the number of attempts, for difficulty adjustment.
func (r *QuizRepository) AttemptStats(ctx context.Context, email string) (avg float64, count int, err error) {
	query := `
		SELECT COALESCE(AVG(percentage), 0), COUNT(*)
		FROM quiz_attempts
		WHERE student_email = $1
	`
	err = r.db.QueryRowContext(ctx, query, email).Scan(&avg, &count)
	return avg, count, err
}

// Stats aggregates the quiz figures used in the progress report:
// distinct quizzes attempted, attempts passed (>= 70%) and the average
// attempt percentage.
func (r *QuizRepository) Stats(ctx context.Context, email string) (*domain.QuizStats, error) {
	query := `
		SELECT COUNT(DISTINCT quiz_id),
		       COUNT(*) FILTER (WHERE percentage >= 70),
		       COALESCE(AVG(percentage), 0)
		FROM quiz_attempts
		WHERE student_email = $1
	`
	var stats domain.QuizStats
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&stats.Attempted,
		&stats.Passed,
		&stats.AverageScore,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *QuizRepository) History(ctx context.Context, email string) ([]*domain.QuizAttemptRecord, error) {
	query := `
		SELECT qa.id, qa.student_email, qa.quiz_id, qa.answers_json, qa.score, qa.max_score,
		       qa.percentage, qa.time_taken_seconds, qa.completed_at,
		       q.topic, q.week_number, q.difficulty
		FROM quiz_attempts qa
		JOIN quizzes q ON qa.quiz_id = q.id
		WHERE qa.student_email = $1
		ORDER BY qa.completed_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var history []*domain.QuizAttemptRecord
	for rows.Next() {
		var rec domain.QuizAttemptRecord
		var answers []byte
		var difficulty string
		if err := rows.Scan(
			&rec.ID,
			&rec.StudentEmail,
			&rec.QuizID,
			&answers,
			&rec.Score,
			&rec.MaxScore,
			&rec.Percentage,
			&rec.TimeTakenSeconds,
			&rec.CompletedAt,
			&rec.Topic,
			&rec.WeekNumber,
			&difficulty,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &rec.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		rec.Difficulty = domain.Difficulty(difficulty)
		history = append(history, &rec)
	}
	return history, rows.Err()
}
