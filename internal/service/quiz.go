package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"course_service/internal/domain"
	"course_service/internal/repository"
	"course_service/pkg/logger"
)

// WeekTopic pairs the English and Japanese titles for one week of
// course material.
type WeekTopic struct {
	EN string `json:"en"`
	JA string `json:"ja"`
}

var courseTopics = map[int]WeekTopic{
	1:  {EN: "History of AI - Early developments, Turing Test", JA: "AIの歴史 - 初期の発展、チューリングテスト"},
	2:  {EN: "History of AI - AI winters, Expert systems", JA: "AIの歴史 - AIの冬、エキスパートシステム"},
	3:  {EN: "History of AI - Deep learning revolution", JA: "AIの歴史 - ディープラーニング革命"},
	4:  {EN: "Search algorithms - BFS and DFS", JA: "探索アルゴリズム - 幅優先・深さ優先探索"},
	5:  {EN: "Search algorithms - Best-first, A*", JA: "探索アルゴリズム - 最良優先、A*"},
	6:  {EN: "Game theory - Minimax, Alpha-beta pruning", JA: "ゲーム理論 - ミニマックス、アルファベータ枝刈り"},
	7:  {EN: "Probability and Bayes' theorem", JA: "確率論とベイズの定理"},
	8:  {EN: "Clustering and unsupervised learning", JA: "クラスタリングと教師なし学習"},
	9:  {EN: "Overview of AI and Machine Learning", JA: "AIと機械学習の概要"},
	10: {EN: "Supervised learning basics", JA: "教師あり学習の基礎"},
	11: {EN: "Classification algorithms", JA: "分類アルゴリズム"},
	12: {EN: "Machine learning algorithms", JA: "機械学習アルゴリズム"},
	13: {EN: "Reinforcement learning", JA: "強化学習"},
	14: {EN: "Comprehensive review", JA: "総合復習"},
}

// turingTypo matches the half-garbled katakana the model tends to emit
// for "Turing" when mixing scripts.
var turingTypo = regexp.MustCompile(`タ[Uu][Rr][Ii][Nn][Gg]`)

// QuizService generates adaptive multiple-choice quizzes through an LLM
// and scores submitted attempts.
type QuizService struct {
	quizzes  QuizRepository
	progress ProgressRepository
	llm      TextGenerator
	log      *logger.Logger

	// pickWeek selects one of the viewed weeks; swapped in tests.
	pickWeek func(weeks []int) int
}

func NewQuizService(quizzes QuizRepository, progress ProgressRepository, llm TextGenerator, log *logger.Logger) *QuizService {
	return &QuizService{
		quizzes:  quizzes,
		progress: progress,
		llm:      llm,
		log:      log,
		pickWeek: func(weeks []int) int { return weeks[rand.Intn(len(weeks))] },
	}
}

type GenerateQuizParams struct {
	Email        string
	WeekNumber   *int
	Topic        string
	NumQuestions int
	Difficulty   domain.Difficulty
}

type GeneratedQuiz struct {
	QuizID           int64                 `json:"quiz_id"`
	Topic            string                `json:"topic"`
	WeekNumber       *int                  `json:"week_number"`
	Difficulty       domain.Difficulty     `json:"difficulty"`
	NumQuestions     int                   `json:"num_questions"`
	Questions        []domain.QuizQuestion `json:"questions"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
}

// GenerateQuiz builds a quiz adapted to the student: the topic follows
// what they have actually viewed, and the difficulty shifts with their
// attempt history.
func (s *QuizService) GenerateQuiz(ctx context.Context, params GenerateQuizParams) (*GeneratedQuiz, error) {
	num := params.NumQuestions
	if num <= 0 {
		num = 5
	}
	base := params.Difficulty
	if !base.IsValid() {
		base = domain.DifficultyMedium
	}

	week := params.WeekNumber
	topic := params.Topic
	if topic == "" && week == nil {
		weeks, err := s.viewedWeeks(ctx, params.Email)
		if err != nil {
			return nil, fmt.Errorf("viewed weeks: %w", err)
		}
		chosen := s.pickWeek(weeks)
		week = &chosen
	}
	if topic == "" && week != nil {
		info, ok := courseTopics[*week]
		if !ok {
			info = courseTopics[1]
		}
		topic = info.EN
	}

	difficulty, err := s.adjustDifficulty(ctx, params.Email, base)
	if err != nil {
		return nil, fmt.Errorf("adjust difficulty: %w", err)
	}

	questions := s.generateQuestions(ctx, topic, num, difficulty)

	quiz := &domain.Quiz{
		StudentEmail: params.Email,
		WeekNumber:   week,
		Topic:        topic,
		Questions:    questions,
		Difficulty:   difficulty,
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("store quiz: %w", err)
	}

	return &GeneratedQuiz{
		QuizID:           quiz.ID,
		Topic:            topic,
		WeekNumber:       week,
		Difficulty:       difficulty,
		NumQuestions:     len(questions),
		Questions:        questions,
		TimeLimitMinutes: num * 2,
	}, nil
}

func (s *QuizService) viewedWeeks(ctx context.Context, email string) ([]int, error) {
	weeks, err := s.progress.ViewedWeeks(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		// New students quiz on the opening weeks.
		weeks = []int{1, 2, 3}
	}
	return weeks, nil
}

func (s *QuizService) generateQuestions(ctx context.Context, topic string, num int, difficulty domain.Difficulty) []domain.QuizQuestion {
	response, err := s.llm.Generate(ctx, buildQuizPrompt(topic, num, difficulty), 0.7, 3000)
	if err != nil {
		s.log.Warn("llm generation failed, using fallback questions",
			zap.String("topic", topic), zap.Error(err))
		return sanitizeQuestions(fallbackQuestions(topic, num))
	}

	questions := sanitizeQuestions(parseQuestions(response))
	if len(questions) < num {
		s.log.Warn("llm returned too few questions, using fallback questions",
			zap.String("topic", topic), zap.Int("got", len(questions)), zap.Int("want", num))
		questions = sanitizeQuestions(fallbackQuestions(topic, num))
	}
	return questions[:num]
}

var difficultyGuidance = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "basic understanding, definitions, simple recall",
	domain.DifficultyMedium: "application of concepts, comparisons, analysis",
	domain.DifficultyHard:   "complex problem-solving, synthesis, evaluation",
}

func buildQuizPrompt(topic string, num int, difficulty domain.Difficulty) string {
	guidance, ok := difficultyGuidance[difficulty]
	if !ok {
		guidance = "medium level"
	}
	return fmt.Sprintf(`Generate exactly %d multiple-choice quiz questions about: %s

Difficulty level: %s (%s)

Requirements:
1. Each question must have exactly 4 options (A, B, C, D)
2. Only one option should be correct
3. Questions should test understanding, not just memorization
4. Include a brief explanation for the correct answer

Format your response as a JSON array with this exact structure:
[
  {
    "question": "The question text in English",
    "question_ja": "日本語での質問",
    "options": {
      "A": "First option",
      "B": "Second option",
      "C": "Third option",
      "D": "Fourth option"
    },
    "options_ja": {
      "A": "選択肢A（日本語）",
      "B": "選択肢B（日本語）",
      "C": "選択肢C（日本語）",
      "D": "選択肢D（日本語）"
    },
    "correct_answer": "A",
    "explanation": "Brief explanation why this is correct",
    "explanation_ja": "正解の説明（日本語）"
  }
]

Generate the questions now:`, num, topic, difficulty, guidance)
}

// parseQuestions extracts the first JSON array from a model response,
// tolerating prose before and after it.
func parseQuestions(response string) []domain.QuizQuestion {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end <= start {
		return nil
	}
	var questions []domain.QuizQuestion
	if err := json.Unmarshal([]byte(response[start:end+1]), &questions); err != nil {
		return nil
	}
	return questions
}

func sanitizeQuestions(questions []domain.QuizQuestion) []domain.QuizQuestion {
	for i := range questions {
		q := &questions[i]
		q.Question = fixTypos(q.Question)
		q.QuestionJA = fixTypos(q.QuestionJA)
		q.Explanation = fixTypos(q.Explanation)
		q.ExplanationJA = fixTypos(q.ExplanationJA)
		for k, v := range q.Options {
			q.Options[k] = fixTypos(v)
		}
		for k, v := range q.OptionsJA {
			q.OptionsJA[k] = fixTypos(v)
		}
	}
	return questions
}

func fixTypos(text string) string {
	return turingTypo.ReplaceAllString(text, "チューリング")
}

func fallbackQuestions(topic string, num int) []domain.QuizQuestion {
	questions := make([]domain.QuizQuestion, 0, num)
	for i := 0; i < num; i++ {
		questions = append(questions, domain.QuizQuestion{
			Question:      fmt.Sprintf("What is a key concept in %s?", topic),
			QuestionJA:    fmt.Sprintf("%sの主要な概念は何ですか？", topic),
			Options:       map[string]string{"A": "Option A", "B": "Option B", "C": "Option C", "D": "Option D"},
			OptionsJA:     map[string]string{"A": "選択肢A", "B": "選択肢B", "C": "選択肢C", "D": "選択肢D"},
			CorrectAnswer: "A",
			Explanation:   "This is a fallback question. Please try generating again.",
			ExplanationJA: "これはフォールバック問題です。再度生成してください。",
		})
	}
	return questions
}

// adjustDifficulty overrides the requested level once the student has
// enough history to judge them by: two or more attempts averaging 85+
// earns hard, 70+ medium, below that easy.
func (s *QuizService) adjustDifficulty(ctx context.Context, email string, base domain.Difficulty) (domain.Difficulty, error) {
	avg, count, err := s.quizzes.AttemptStats(ctx, email)
	if err != nil {
		return "", err
	}
	if count < 2 {
		return base, nil
	}
	switch {
	case avg >= 85:
		return domain.DifficultyHard, nil
	case avg >= 70:
		return domain.DifficultyMedium, nil
	default:
		return domain.DifficultyEasy, nil
	}
}

type QuizResult struct {
	AttemptID        int64                 `json:"attempt_id"`
	QuizID           int64                 `json:"quiz_id"`
	Score            int                   `json:"score"`
	MaxScore         int                   `json:"max_score"`
	Percentage       float64               `json:"percentage"`
	Passed           bool                  `json:"passed"`
	Results          []domain.AnswerResult `json:"results"`
	TimeTakenSeconds int                   `json:"time_taken_seconds"`
}

// SubmitQuiz scores an attempt against the stored quiz and records it.
// Answers are matched case-insensitively; a missing answer counts wrong.
func (s *QuizService) SubmitQuiz(ctx context.Context, email string, quizID int64, answers map[int]string, timeTaken int) (*QuizResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}

	correct := 0
	results := make([]domain.AnswerResult, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		answer := answers[i]
		isCorrect := answer != "" && strings.EqualFold(answer, q.CorrectAnswer)
		if isCorrect {
			correct++
		}
		results = append(results, domain.AnswerResult{
			QuestionIndex: i,
			StudentAnswer: answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     isCorrect,
			Explanation:   q.Explanation,
			ExplanationJA: q.ExplanationJA,
		})
	}

	maxScore := len(quiz.Questions)
	var percentage float64
	if maxScore > 0 {
		percentage = float64(correct) / float64(maxScore) * 100
	}

	attempt := &domain.QuizAttempt{
		StudentEmail:     email,
		QuizID:           quizID,
		Answers:          answers,
		Score:            correct,
		MaxScore:         maxScore,
		Percentage:       percentage,
		TimeTakenSeconds: timeTaken,
	}
	if err := s.quizzes.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	return &QuizResult{
		AttemptID:        attempt.ID,
		QuizID:           quizID,
		Score:            correct,
		MaxScore:         maxScore,
		Percentage:       math.Round(percentage*10) / 10,
		Passed:           percentage >= 70,
		Results:          results,
		TimeTakenSeconds: timeTaken,
	}, nil
}

func (s *QuizService) GetQuiz(ctx context.Context, id int64) (*domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuizNotFound
	}
	return quiz, err
}

func (s *QuizService) History(ctx context.Context, email string) ([]*domain.QuizAttemptRecord, error) {
	return s.quizzes.History(ctx, email)
}

// Topics lists the per-week quiz topics.
func (s *QuizService) Topics() map[int]WeekTopic {
	return courseTopics
}
