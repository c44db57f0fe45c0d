package domain

import (
	"time"
)

type PageView struct {
	StudentEmail     string
	PagePath         string
	PageTitle        string
	ViewCount        int
	FirstViewed      time.Time
	LastViewed       time.Time
	TimeSpentSeconds int
}

type BotInteraction struct {
	ID           int64
	StudentEmail string
	Question     string
	Response     string
	Language     string
	Topic        *string
	CreatedAt    time.Time
}

// Progress is the comprehensive per-student report assembled from page
// views, bot interactions, assignments and quiz attempts.
type Progress struct {
	Email           string           `json:"email"`
	Content         ContentProgress  `json:"content"`
	BotInteractions InteractionStats `json:"bot_interactions"`
	Assignments     AssignmentStats  `json:"assignments"`
	Quizzes         QuizStats        `json:"quizzes"`
	WeeklyProgress  []WeeklyProgress `json:"weekly_progress"`
}

type ContentProgress struct {
	Viewed     int     `json:"viewed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type InteractionStats struct {
	Count int `json:"count"`
}

type AssignmentStats struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type QuizStats struct {
	Attempted    int     `json:"attempted"`
	Passed       int     `json:"passed"`
	AverageScore float64 `json:"average_score"`
}

type WeeklyProgress struct {
	WeekNumber       int              `json:"week_number"`
	Viewed           int              `json:"viewed"`
	Total            int              `json:"total"`
	AssignmentStatus SubmissionStatus `json:"assignment_status"`
	AssignmentScore  *int             `json:"assignment_score"`
}
