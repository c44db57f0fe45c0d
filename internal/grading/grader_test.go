package grading

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// payloadOfLength builds a payload whose canonical JSON form is exactly
// n characters: {"answer":"..."} carries 13 characters of framing.
func payloadOfLength(t *testing.T, n int) map[string]interface{} {
	t.Helper()
	const framing = 13
	require.GreaterOrEqual(t, n, framing)
	return map[string]interface{}{"answer": strings.Repeat("a", n-framing)}
}

func TestGradeTextBreakpoints(t *testing.T) {
	g := NewHeuristicGrader()

	tests := []struct {
		length int
		want   int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{499, 59},
		{500, 60},
		{1000, 75},
		{1499, 89},
		{1500, 100},
		{1501, 100},
		{2000, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("length_%d", tt.length), func(t *testing.T) {
			score, feedback := g.GradeText(strings.Repeat("x", tt.length))
			assert.Equal(t, tt.want, score)
			if tt.length <= 0 {
				assert.Equal(t, "No submission content found.", feedback)
			} else {
				assert.Contains(t, feedback, fmt.Sprintf("(%d chars)", tt.length))
			}
		})
	}
}

func TestGradeScoreMonotonicAndBounded(t *testing.T) {
	g := NewHeuristicGrader()

	prev := -1
	for length := 0; length <= 2000; length += 7 {
		score, _ := g.GradeText(strings.Repeat("x", length))
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
		assert.GreaterOrEqual(t, score, prev, "score must not decrease at length %d", length)
		prev = score
	}
}

func TestGradePayloadBreakpoints(t *testing.T) {
	g := NewHeuristicGrader()

	score, _ := g.Grade(payloadOfLength(t, 500))
	assert.Equal(t, 60, score)

	score, _ = g.Grade(payloadOfLength(t, 1500))
	assert.Equal(t, 100, score)

	score, _ = g.Grade(payloadOfLength(t, 2000))
	assert.Equal(t, 100, score)
}

func TestGradeEmptyPayload(t *testing.T) {
	g := NewHeuristicGrader()

	// {} serializes to two characters, which floors to a zero score.
	score, feedback := g.Grade(map[string]interface{}{})
	assert.Equal(t, 0, score)
	assert.Contains(t, feedback, "(2 chars)")
}

func TestGradeCountsRunesNotBytes(t *testing.T) {
	g := NewHeuristicGrader()

	// Three Japanese characters are nine UTF-8 bytes but must count as
	// three characters: {"answer":"日本語"} is 16 characters total.
	_, feedback := g.Grade(map[string]interface{}{"answer": "日本語"})
	assert.Contains(t, feedback, "(16 chars)")
}

func TestGradeIsDeterministic(t *testing.T) {
	g := NewHeuristicGrader()
	payload := map[string]interface{}{"b": "two", "a": "one", "c": 3.0}

	firstScore, firstFeedback := g.Grade(payload)
	for i := 0; i < 5; i++ {
		score, feedback := g.Grade(payload)
		assert.Equal(t, firstScore, score)
		assert.Equal(t, firstFeedback, feedback)
	}
}
