package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course_service/internal/domain"
)

type stubReporter struct {
	progress    map[string]*domain.Progress
	assignments map[string][]*domain.AssignmentWithStatus
}

func (s *stubReporter) GetStudentProgress(_ context.Context, email string) (*domain.Progress, error) {
	if p, ok := s.progress[email]; ok {
		return p, nil
	}
	return &domain.Progress{Email: email}, nil
}

func (s *stubReporter) GetAssignments(_ context.Context, email string) ([]*domain.AssignmentWithStatus, error) {
	return s.assignments[email], nil
}

const rosterCSV = `Role,Name,Student Number,User ID
Enrolled Student,Yamada Taro,20231234,taro
Representative,Suzuki Hanako,20231235,hanako
Instructor,Prof. Tanaka,,tanaka
Participant, Sato Jiro ,20231236,jiro
Enrolled Student,No User,20231237,
`

func TestIngestCSVCreatesAndClassifiesStudents(t *testing.T) {
	students := newFakeStudents()
	svc := NewRosterService(students, &stubReporter{}, "kwansei.ac.jp")

	summary, err := svc.IngestCSV(context.Background(), strings.NewReader(rosterCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Ingested, "row without a user id is skipped")
	assert.Equal(t, 4, summary.Created)
	assert.Equal(t, 0, summary.Updated)

	taro, err := students.GetByEmail(context.Background(), "taro@kwansei.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, taro.Role)
	assert.Equal(t, "Yamada Taro", taro.Name)
	assert.Equal(t, "20231234", taro.StudentNumber)
	assert.Equal(t, "taro", taro.UserID)

	// Representatives count as instructors.
	hanako, err := students.GetByEmail(context.Background(), "hanako@kwansei.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, hanako.Role)

	tanaka, err := students.GetByEmail(context.Background(), "tanaka@kwansei.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, tanaka.Role)

	jiro, err := students.GetByEmail(context.Background(), "jiro@kwansei.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, "Sato Jiro", jiro.Name, "names are trimmed")
}

func TestIngestCSVUpdatesExistingStudents(t *testing.T) {
	students := newFakeStudents()
	students.add(&domain.Student{Email: "taro@kwansei.ac.jp", Name: "Old Name", Role: domain.RoleStudent})
	svc := NewRosterService(students, &stubReporter{}, "kwansei.ac.jp")

	summary, err := svc.IngestCSV(context.Background(), strings.NewReader(
		"Role,Name,Student Number,User ID\nInstructor,New Name,20230001,taro\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Ingested)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	taro, err := students.GetByEmail(context.Background(), "taro@kwansei.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, "New Name", taro.Name)
	assert.Equal(t, domain.RoleInstructor, taro.Role)
}

func TestIngestCSVRequiresRoleAndUserColumns(t *testing.T) {
	svc := NewRosterService(newFakeStudents(), &stubReporter{}, "kwansei.ac.jp")

	_, err := svc.IngestCSV(context.Background(), strings.NewReader("Name,Student Number\nTaro,20231234\n"))
	assert.ErrorIs(t, err, ErrRosterColumns)
}

func TestIngestCSVMatchesColumnsCaseInsensitively(t *testing.T) {
	students := newFakeStudents()
	svc := NewRosterService(students, &stubReporter{}, "example.edu")

	summary, err := svc.IngestCSV(context.Background(), strings.NewReader(
		"TYPE,NAME,user_id\nenrolled student,Alice,alice\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	_, err = students.GetByEmail(context.Background(), "alice@example.edu")
	assert.NoError(t, err)
}

func TestEnsureEnrolled(t *testing.T) {
	students := newFakeStudents()
	students.add(&domain.Student{Email: "taro@kwansei.ac.jp", Role: domain.RoleStudent})
	svc := NewRosterService(students, &stubReporter{}, "kwansei.ac.jp")

	assert.NoError(t, svc.EnsureEnrolled(context.Background(), "taro@kwansei.ac.jp"))
	assert.ErrorIs(t, svc.EnsureEnrolled(context.Background(), "ghost@kwansei.ac.jp"), ErrNotEnrolled)

	// Anonymous session ids carry no "@" and bypass the roster check.
	assert.NoError(t, svc.EnsureEnrolled(context.Background(), "session-1234"))
}

func TestRequireInstructor(t *testing.T) {
	students := newFakeStudents()
	students.add(&domain.Student{Email: "prof@kwansei.ac.jp", Role: domain.RoleInstructor})
	students.add(&domain.Student{Email: "taro@kwansei.ac.jp", Role: domain.RoleStudent})
	svc := NewRosterService(students, &stubReporter{}, "kwansei.ac.jp")

	assert.NoError(t, svc.RequireInstructor(context.Background(), "prof@kwansei.ac.jp"))
	assert.ErrorIs(t, svc.RequireInstructor(context.Background(), "taro@kwansei.ac.jp"), ErrInstructorRequired)
	assert.ErrorIs(t, svc.RequireInstructor(context.Background(), "ghost@kwansei.ac.jp"), ErrInstructorRequired)
}

func TestProgressReportSummarizesRoster(t *testing.T) {
	students := newFakeStudents()
	students.add(&domain.Student{Email: "taro@kwansei.ac.jp", Name: "Yamada Taro", StudentNumber: "20231234", Role: domain.RoleStudent})
	reporter := &stubReporter{
		progress: map[string]*domain.Progress{
			"taro@kwansei.ac.jp": {
				Email:       "taro@kwansei.ac.jp",
				Content:     domain.ContentProgress{Viewed: 5, Total: 10, Percentage: 50},
				Assignments: domain.AssignmentStats{Completed: 2, Total: 6, Percentage: 33.3},
				Quizzes:     domain.QuizStats{Attempted: 3, Passed: 2, AverageScore: 76.7},
			},
		},
	}
	svc := NewRosterService(students, reporter, "kwansei.ac.jp")

	rows, err := svc.ProgressReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "taro@kwansei.ac.jp", row.Email)
	assert.Equal(t, "Yamada Taro", row.Name)
	assert.InDelta(t, 50.0, row.ContentPercent, 0.001)
	assert.InDelta(t, 33.3, row.AssignmentPercent, 0.001)
	assert.InDelta(t, 76.7, row.QuizzesAverage, 0.001)
	assert.Equal(t, 2, row.QuizzesPassed)
	assert.Equal(t, 3, row.QuizzesAttempted)
}

func TestAssignmentReportListsPerStudent(t *testing.T) {
	students := newFakeStudents()
	students.add(&domain.Student{Email: "taro@kwansei.ac.jp"})
	reporter := &stubReporter{
		assignments: map[string][]*domain.AssignmentWithStatus{
			"taro@kwansei.ac.jp": {
				{Assignment: domain.Assignment{ID: 1, WeekNumber: 8}, SubmissionStatus: domain.StatusCompleted},
			},
		},
	}
	svc := NewRosterService(students, reporter, "kwansei.ac.jp")

	rows, err := svc.AssignmentReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Assignments, 1)
	assert.Equal(t, domain.StatusCompleted, rows[0].Assignments[0].SubmissionStatus)
}
