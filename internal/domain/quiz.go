package domain

import (
	"time"
)

type Quiz struct {
	ID           int64
	StudentEmail string
	WeekNumber   *int
	Topic        string
	Questions    []QuizQuestion
	Difficulty   Difficulty
	CreatedAt    time.Time
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

type QuizQuestion struct {
	Question      string            `json:"question"`
	QuestionJA    string            `json:"question_ja"`
	Options       map[string]string `json:"options"`
	OptionsJA     map[string]string `json:"options_ja"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	ExplanationJA string            `json:"explanation_ja"`
}

type QuizAttempt struct {
	ID               int64
	StudentEmail     string
	QuizID           int64
	Answers          map[int]string
	Score            int
	MaxScore         int
	Percentage       float64
	TimeTakenSeconds int
	CompletedAt      time.Time
}

// QuizAttemptRecord is an attempt joined with its quiz metadata, for
// history listings.
type QuizAttemptRecord struct {
	QuizAttempt
	Topic      string
	WeekNumber *int
	Difficulty Difficulty
}

// AnswerResult reports the outcome for a single question of an attempt.
type AnswerResult struct {
	QuestionIndex int    `json:"question_index"`
	StudentAnswer string `json:"student_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation"`
	ExplanationJA string `json:"explanation_ja"`
}
