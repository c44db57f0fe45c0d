package repository

import (
	"context"
	"database/sql"
	"errors"

	"course_service/internal/domain"
)

type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, email, COALESCE(name, ''), COALESCE(student_number, ''), COALESCE(user_id, ''), role, created_at, last_active`

// GetOrCreate returns the student for email, inserting a fresh record
// when none exists and touching last_active when one does.
func (r *StudentRepository) GetOrCreate(ctx context.Context, email, name string) (*domain.Student, error) {
	query := `
		INSERT INTO students (email, name)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (email) DO UPDATE SET last_active = NOW()
		RETURNING ` + studentColumns

	var s domain.Student
	err := r.db.QueryRowContext(ctx, query, email, name).Scan(
		&s.ID,
		&s.Email,
		&s.Name,
		&s.StudentNumber,
		&s.UserID,
		&s.Role,
		&s.CreatedAt,
		&s.LastActive,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`

	var s domain.Student
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&s.ID,
		&s.Email,
		&s.Name,
		&s.StudentNumber,
		&s.UserID,
		&s.Role,
		&s.CreatedAt,
		&s.LastActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) Create(ctx context.Context, s *domain.Student) error {
	query := `
		INSERT INTO students (email, name, student_number, user_id, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		s.Email,
		s.Name,
		s.StudentNumber,
		s.UserID,
		s.Role,
	).Scan(&s.ID)
}

// UpdateRoster refreshes the roster-owned fields of an existing student
// and touches last_active.
func (r *StudentRepository) UpdateRoster(ctx context.Context, s *domain.Student) error {
	query := `
		UPDATE students
		SET name = $1, student_number = $2, user_id = $3, role = $4, last_active = NOW()
		WHERE email = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		s.Name,
		s.StudentNumber,
		s.UserID,
		s.Role,
		s.Email,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StudentRepository) List(ctx context.Context) ([]*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY role DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var students []*domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(
			&s.ID,
			&s.Email,
			&s.Name,
			&s.StudentNumber,
			&s.UserID,
			&s.Role,
			&s.CreatedAt,
			&s.LastActive,
		); err != nil {
			return nil, err
		}
		students = append(students, &s)
	}
	return students, rows.Err()
}
