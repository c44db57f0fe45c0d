package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"course_service/internal/domain"
	"course_service/internal/repository"
)

type fakeStudents struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Student
	created []string
	updated []string
	ensured []string
	nextID  int64
}

func newFakeStudents() *fakeStudents {
	return &fakeStudents{byEmail: map[string]*domain.Student{}}
}

func (f *fakeStudents) add(student *domain.Student) {
	f.byEmail[student.Email] = student
}

func (f *fakeStudents) GetOrCreate(_ context.Context, email, name string) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, email)
	if s, ok := f.byEmail[email]; ok {
		return s, nil
	}
	f.nextID++
	s := &domain.Student{ID: f.nextID, Email: email, Name: name, Role: domain.RoleStudent}
	f.byEmail[email] = s
	return s, nil
}

func (f *fakeStudents) GetByEmail(_ context.Context, email string) (*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byEmail[email]; ok {
		return s, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStudents) Create(_ context.Context, student *domain.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[student.Email] = student
	f.created = append(f.created, student.Email)
	return nil
}

func (f *fakeStudents) UpdateRoster(_ context.Context, student *domain.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[student.Email]; !ok {
		return repository.ErrNotFound
	}
	f.byEmail[student.Email] = student
	f.updated = append(f.updated, student.Email)
	return nil
}

func (f *fakeStudents) List(_ context.Context) ([]*domain.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Student, 0, len(f.byEmail))
	for _, email := range f.created {
		out = append(out, f.byEmail[email])
	}
	for email, s := range f.byEmail {
		if !contains(f.created, email) {
			out = append(out, s)
		}
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type submissionKey struct {
	email        string
	assignmentID int64
}

type fakeAssignments struct {
	mu          sync.Mutex
	rows        map[submissionKey]*domain.AssignmentSubmission
	total       int
	failApply   error
	applyCalls  int
	upsertCalls int
}

func newFakeAssignments() *fakeAssignments {
	return &fakeAssignments{rows: map[submissionKey]*domain.AssignmentSubmission{}}
}

func (f *fakeAssignments) row(email string, id int64) *domain.AssignmentSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[submissionKey{email, id}]
}

func (f *fakeAssignments) CountAssignments(context.Context) (int, error) { return f.total, nil }

func (f *fakeAssignments) CountCompleted(_ context.Context, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, r := range f.rows {
		if k.email == email && r.Status == domain.StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeAssignments) ListWithStatus(context.Context, string) ([]*domain.AssignmentWithStatus, error) {
	return nil, nil
}

func (f *fakeAssignments) UpsertSubmission(_ context.Context, email string, assignmentID int64, status domain.SubmissionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	key := submissionKey{email, assignmentID}
	if r, ok := f.rows[key]; ok {
		r.Status = status
		return nil
	}
	f.rows[key] = &domain.AssignmentSubmission{
		StudentEmail: email,
		AssignmentID: assignmentID,
		Status:       status,
	}
	return nil
}

func (f *fakeAssignments) SetSubmissionPath(_ context.Context, email string, assignmentID int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[submissionKey{email, assignmentID}]
	if !ok {
		return repository.ErrNotFound
	}
	r.SubmissionPath = &path
	return nil
}

func (f *fakeAssignments) ApplyGrade(_ context.Context, result *domain.GradingResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	if f.failApply != nil {
		return f.failApply
	}
	r, ok := f.rows[submissionKey{result.Email, result.AssignmentID}]
	if !ok {
		return repository.ErrNotFound
	}
	score := result.Score
	feedback := result.Feedback
	gradedAt := result.GradedAt
	r.Status = domain.StatusCompleted
	r.Score = &score
	r.Feedback = &feedback
	r.GradedAt = &gradedAt
	if r.SubmissionPath == nil && result.SubmissionPath != "" {
		path := result.SubmissionPath
		r.SubmissionPath = &path
	}
	return nil
}

func (f *fakeAssignments) GetSubmission(_ context.Context, email string, assignmentID int64) (*domain.AssignmentSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[submissionKey{email, assignmentID}]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

type fakeProgress struct {
	mu            sync.Mutex
	views         map[string][]string
	interactions  []*domain.BotInteraction
	requiredPages int
	viewedWeeks   []int
	weekly        []domain.WeeklyProgress
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{views: map[string][]string{}}
}

func (f *fakeProgress) RecordPageView(_ context.Context, email, pagePath, _ string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.views[email] {
		if p == pagePath {
			return nil
		}
	}
	f.views[email] = append(f.views[email], pagePath)
	return nil
}

func (f *fakeProgress) ViewedPages(_ context.Context, email string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.views[email]...), nil
}

func (f *fakeProgress) RecordBotInteraction(_ context.Context, interaction *domain.BotInteraction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactions = append(f.interactions, interaction)
	return nil
}

func (f *fakeProgress) CountBotInteractions(_ context.Context, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, i := range f.interactions {
		if i.StudentEmail == email {
			n++
		}
	}
	return n, nil
}

func (f *fakeProgress) CountRequiredContent(context.Context) (int, error) {
	return f.requiredPages, nil
}

func (f *fakeProgress) CountViewedPages(_ context.Context, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.views[email]), nil
}

func (f *fakeProgress) ViewedWeeks(context.Context, string) ([]int, error) {
	return f.viewedWeeks, nil
}

func (f *fakeProgress) WeeklyProgress(context.Context, string) ([]domain.WeeklyProgress, error) {
	return f.weekly, nil
}

type fakeQuizzes struct {
	mu       sync.Mutex
	quizzes  map[int64]*domain.Quiz
	attempts []*domain.QuizAttempt
	avgScore float64
	count    int
	stats    domain.QuizStats
	nextID   int64
}

func newFakeQuizzes() *fakeQuizzes {
	return &fakeQuizzes{quizzes: map[int64]*domain.Quiz{}}
}

func (f *fakeQuizzes) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	quiz.ID = f.nextID
	f.quizzes[quiz.ID] = quiz
	return nil
}

func (f *fakeQuizzes) GetQuiz(_ context.Context, id int64) (*domain.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q, ok := f.quizzes[id]; ok {
		return q, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeQuizzes) CreateAttempt(_ context.Context, attempt *domain.QuizAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = int64(len(f.attempts) + 1)
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeQuizzes) AttemptStats(context.Context, string) (float64, int, error) {
	return f.avgScore, f.count, nil
}

func (f *fakeQuizzes) Stats(context.Context, string) (*domain.QuizStats, error) {
	stats := f.stats
	return &stats, nil
}

func (f *fakeQuizzes) History(context.Context, string) ([]*domain.QuizAttemptRecord, error) {
	return nil, nil
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []submissionKey
	err   error
}

func (f *fakeSaver) Save(email string, assignmentID int64, _ map[string]interface{}) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, submissionKey{email, assignmentID})
	return fmt.Sprintf("data/assignment_submissions/%s/assignment-%d.json", email, assignmentID), nil
}

type producedEvent struct {
	topic   string
	message interface{}
}

type fakeProducer struct {
	mu     sync.Mutex
	events []producedEvent
	err    error
}

func (f *fakeProducer) Send(_ context.Context, topic string, message interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, producedEvent{topic: topic, message: message})
	return nil
}

type stubLoad struct{ overloaded bool }

func (s *stubLoad) IsOverloaded() bool { return s.overloaded }

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ float64, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var errBoom = errors.New("boom")
