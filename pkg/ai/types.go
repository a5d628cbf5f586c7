package ai

import "context"

// ScoreRequest carries the context needed to grade one student answer
// against one question's rubric.
type ScoreRequest struct {
	TestTitle        string
	TestDescription  string
	TestInstructions string
	QuestionNumber   int
	Prompt           string
	ExpectedAnswer   string
	Rubric           string
	MaxPoints        float64
	StudentAnswer    string
}

// ScoreResult is the structured verdict returned by the scorer.
type ScoreResult struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Scorer evaluates a single short answer and returns a numeric score with
// feedback worded for the student.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (ScoreResult, error)
}
