package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScoreResponseStringScore(t *testing.T) {
	result, err := ParseScoreResponse(`{"score": "5", "explanation": "Correct"}`)
	require.NoError(t, err)
	require.Equal(t, 5.0, result.Score)
	require.Equal(t, "Correct", result.Explanation)
}

func TestParseScoreResponseNumericScore(t *testing.T) {
	result, err := ParseScoreResponse(`{"score": 3.5, "explanation": "Partially correct"}`)
	require.NoError(t, err)
	require.Equal(t, 3.5, result.Score)
}

func TestParseScoreResponseMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `grade: excellent`,
		"non numeric score": `{"score": "five", "explanation": "ok"}`,
		"missing score":     `{"explanation": "ok"}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScoreResponse(content)
			require.Error(t, err)
		})
	}
}

func TestBuildGradingPromptIncludesContext(t *testing.T) {
	prompt := buildGradingPrompt(ScoreRequest{
		TestTitle:      "US History",
		QuestionNumber: 2,
		Prompt:         "Who wrote the Declaration of Independence?",
		ExpectedAnswer: "Thomas Jefferson",
		Rubric:         "Full credit for Jefferson.",
		MaxPoints:      5,
		StudentAnswer:  "Jefferson",
	})

	for _, fragment := range []string{
		"Title: US History",
		"QuestionNumber: 2",
		"Thomas Jefferson",
		"Full credit for Jefferson.",
		"=== Maximum Points ===\n5",
		"=== Student Answer ===\nJefferson",
	} {
		require.True(t, strings.Contains(prompt, fragment), "prompt missing %q", fragment)
	}
}

func TestNewOpenAIScorerRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIScorer(OpenAIConfig{})
	require.Error(t, err)
}
