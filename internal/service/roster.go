package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"course_service/internal/domain"
	"course_service/internal/repository"
)

// RosterService imports the enrollment roster and produces the
// instructor-facing reports derived from it.
type RosterService struct {
	students    StudentRepository
	reports     ProgressReporter
	emailDomain string
}

func NewRosterService(students StudentRepository, reports ProgressReporter, emailDomain string) *RosterService {
	return &RosterService{
		students:    students,
		reports:     reports,
		emailDomain: emailDomain,
	}
}

type RosterSummary struct {
	Ingested int `json:"ingested"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
}

// IngestCSV imports a roster export. Columns are matched by name,
// case-insensitively: a role/type column and a user id column are
// required, name and student number are optional. The campus email is
// derived as <user_id>@<domain>.
func (s *RosterService) IngestCSV(ctx context.Context, r io.Reader) (*RosterSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}

	roleCol := findColumn(header, "role", "type")
	nameCol := findColumn(header, "name")
	numberCol := findColumnAll(header, "student", "number")
	userCol := findColumn(header, "user", "id")
	if roleCol < 0 || userCol < 0 {
		return nil, ErrRosterColumns
	}

	summary := &RosterSummary{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row: %w", err)
		}

		userID := strings.TrimSpace(field(row, userCol))
		if userID == "" {
			continue
		}
		student := &domain.Student{
			Email:         userID + "@" + s.emailDomain,
			UserID:        userID,
			Name:          strings.TrimSpace(field(row, nameCol)),
			StudentNumber: strings.TrimSpace(field(row, numberCol)),
			Role:          domain.NormalizeRole(field(row, roleCol)),
		}
		summary.Ingested++

		_, err = s.students.GetByEmail(ctx, student.Email)
		switch {
		case err == nil:
			if err := s.students.UpdateRoster(ctx, student); err != nil {
				return nil, fmt.Errorf("update student %s: %w", student.Email, err)
			}
			summary.Updated++
		case errors.Is(err, repository.ErrNotFound):
			if err := s.students.Create(ctx, student); err != nil {
				return nil, fmt.Errorf("create student %s: %w", student.Email, err)
			}
			summary.Created++
		default:
			return nil, fmt.Errorf("look up student %s: %w", student.Email, err)
		}
	}
	return summary, nil
}

// findColumn returns the index of the first header cell containing any
// of the given substrings, or -1.
func findColumn(header []string, substrings ...string) int {
	for i, h := range header {
		lower := strings.ToLower(h)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				return i
			}
		}
	}
	return -1
}

// findColumnAll requires every substring to appear in the cell.
func findColumnAll(header []string, substrings ...string) int {
	for i, h := range header {
		lower := strings.ToLower(h)
		matched := true
		for _, sub := range substrings {
			if !strings.Contains(lower, sub) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// EnsureEnrolled verifies the student exists on the roster. Identifiers
// without an "@" are anonymous session ids and bypass the check.
func (s *RosterService) EnsureEnrolled(ctx context.Context, email string) error {
	if !strings.Contains(email, "@") {
		return nil
	}
	_, err := s.students.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotEnrolled
	}
	return err
}

// RequireInstructor gates instructor endpoints on the roster role.
func (s *RosterService) RequireInstructor(ctx context.Context, email string) error {
	student, err := s.students.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInstructorRequired
	}
	if err != nil {
		return err
	}
	if student.Role != domain.RoleInstructor {
		return ErrInstructorRequired
	}
	return nil
}

func (s *RosterService) ListStudents(ctx context.Context) ([]*domain.Student, error) {
	return s.students.List(ctx)
}

// ProgressReportRow is one student's line in the class-wide report.
type ProgressReportRow struct {
	Email             string             `json:"email"`
	Name              string             `json:"name"`
	StudentNumber     string             `json:"student_number"`
	Role              domain.StudentRole `json:"role"`
	ContentPercent    float64            `json:"content_pct"`
	AssignmentPercent float64            `json:"assignments_pct"`
	QuizzesAverage    float64            `json:"quizzes_avg"`
	QuizzesPassed     int                `json:"quizzes_passed"`
	QuizzesAttempted  int                `json:"quizzes_attempted"`
}

// ProgressReport walks the roster and summarizes every student's
// standing for the instructor dashboard.
func (s *RosterService) ProgressReport(ctx context.Context) ([]ProgressReportRow, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	rows := make([]ProgressReportRow, 0, len(students))
	for _, st := range students {
		p, err := s.reports.GetStudentProgress(ctx, st.Email)
		if err != nil {
			return nil, fmt.Errorf("progress for %s: %w", st.Email, err)
		}
		rows = append(rows, ProgressReportRow{
			Email:             st.Email,
			Name:              st.Name,
			StudentNumber:     st.StudentNumber,
			Role:              st.Role,
			ContentPercent:    p.Content.Percentage,
			AssignmentPercent: p.Assignments.Percentage,
			QuizzesAverage:    p.Quizzes.AverageScore,
			QuizzesPassed:     p.Quizzes.Passed,
			QuizzesAttempted:  p.Quizzes.Attempted,
		})
	}
	return rows, nil
}

// AssignmentReportRow lists one student's assignments with statuses.
type AssignmentReportRow struct {
	Email       string                         `json:"email"`
	Assignments []*domain.AssignmentWithStatus `json:"assignments"`
}

func (s *RosterService) AssignmentReport(ctx context.Context) ([]AssignmentReportRow, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	rows := make([]AssignmentReportRow, 0, len(students))
	for _, st := range students {
		assignments, err := s.reports.GetAssignments(ctx, st.Email)
		if err != nil {
			return nil, fmt.Errorf("assignments for %s: %w", st.Email, err)
		}
		rows = append(rows, AssignmentReportRow{Email: st.Email, Assignments: assignments})
	}
	return rows, nil
}
