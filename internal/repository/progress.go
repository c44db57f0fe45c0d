package repository

import (
	"context"
	"database/sql"

	"course_service/internal/domain"
)

type ProgressRepository struct {
	db *sql.DB
}

func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// RecordPageView upserts one (student, page) row, bumping the view
// count and accumulating time spent on repeat views.
func (r *ProgressRepository) RecordPageView(ctx context.Context, email, pagePath, pageTitle string, timeSpent int) error {
	query := `
		INSERT INTO page_views (student_email, page_path, page_title, time_spent_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_email, page_path) DO UPDATE SET
			view_count = page_views.view_count + 1,
			last_viewed = NOW(),
			time_spent_seconds = page_views.time_spent_seconds + EXCLUDED.time_spent_seconds
	`
	_, err := r.db.ExecContext(ctx, query, email, pagePath, pageTitle, timeSpent)
	return err
}

func (r *ProgressRepository) ViewedPages(ctx context.Context, email string) ([]string, error) {
	query := `SELECT page_path FROM page_views WHERE student_email = $1`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var pages []string
	for rows.Next() {
		var page string
		if err := rows.Scan(&page); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func (r *ProgressRepository) RecordBotInteraction(ctx context.Context, interaction *domain.BotInteraction) error {
	query := `
		INSERT INTO bot_interactions (student_email, question, response, language, topic)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		interaction.StudentEmail,
		interaction.Question,
		interaction.Response,
		interaction.Language,
		interaction.Topic,
	).Scan(&interaction.ID)
}

func (r *ProgressRepository) CountBotInteractions(ctx context.Context, email string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bot_interactions WHERE student_email = $1`, email,
	).Scan(&count)
	return count, err
}

func (r *ProgressRepository) CountRequiredContent(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM course_content WHERE is_required`,
	).Scan(&count)
	return count, err
}

func (r *ProgressRepository) CountViewedPages(ctx context.Context, email string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT page_path) FROM page_views WHERE student_email = $1`, email,
	).Scan(&count)
	return count, err
}

// ViewedWeeks lists the distinct week numbers the student has opened
// content for, for adaptive quiz topic selection.
func (r *ProgressRepository) ViewedWeeks(ctx context.Context, email string) ([]int, error) {
	query := `
		SELECT DISTINCT cc.week_number
		FROM page_views pv
		JOIN course_content cc ON pv.page_path = cc.page_path
		WHERE pv.student_email = $1 AND cc.week_number > 0
		ORDER BY cc.week_number
	`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var weeks []int
	for rows.Next() {
		var week int
		if err := rows.Scan(&week); err != nil {
			return nil, err
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

// WeeklyProgress breaks required-content coverage down by week and
// attaches the student's assignment status and score for that week.
func (r *ProgressRepository) WeeklyProgress(ctx context.Context, email string) ([]domain.WeeklyProgress, error) {
	query := `
		SELECT cc.week_number,
		       COUNT(DISTINCT pv.page_path) AS viewed,
		       (SELECT COUNT(*) FROM course_content WHERE week_number = cc.week_number AND is_required) AS total,
		       COALESCE((
		            SELECT s.status FROM assignments a
		            LEFT JOIN assignment_submissions s
		                ON s.assignment_id = a.id AND s.student_email = $1
		            WHERE a.week_number = cc.week_number
		            ORDER BY a.id LIMIT 1
		       ), 'not_started') AS assignment_status,
		       (
		            SELECT s.score FROM assignments a
		            LEFT JOIN assignment_submissions s
		                ON s.assignment_id = a.id AND s.student_email = $1
		            WHERE a.week_number = cc.week_number
		            ORDER BY a.id LIMIT 1
		       ) AS assignment_score
		FROM course_content cc
		LEFT JOIN page_views pv ON cc.page_path = pv.page_path AND pv.student_email = $1
		WHERE cc.is_required
		GROUP BY cc.week_number
		ORDER BY cc.week_number
	`
	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var weekly []domain.WeeklyProgress
	for rows.Next() {
		var w domain.WeeklyProgress
		var status string
		if err := rows.Scan(&w.WeekNumber, &w.Viewed, &w.Total, &status, &w.AssignmentScore); err != nil {
			return nil, err
		}
		w.AssignmentStatus = domain.ToSubmissionStatus(status)
		weekly = append(weekly, w)
	}
	return weekly, rows.Err()
}
