package dto

import (
	"time"

	"github.com/quizzerhq/quizzer-api/internal/models"
)

// SaveAnswerRequest is the autosave payload for a single question.
type SaveAnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer"`
}

// SubmitRequest carries the final, complete snapshot of the student's
// answers. It supersedes whatever incremental autosaves have stored; an
// empty string means the question was left unanswered.
type SubmitRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

// SubmissionResponse is the student-facing view of a submission.
type SubmissionResponse struct {
	TestID            string             `json:"test_id"`
	AccessCode        string             `json:"access_code"`
	Answers           map[string]string  `json:"answers"`
	SubmittedAt       *time.Time         `json:"submitted_at"`
	GradedAt          *time.Time         `json:"graded_at"`
	Score             *float64           `json:"score"`
	MaxScore          *float64           `json:"max_score"`
	PerQuestionScores map[string]float64 `json:"per_question_scores,omitempty"`
	Feedback          map[string]string  `json:"feedback,omitempty"`
}

// NewSubmissionResponse maps a submission model onto its API representation.
func NewSubmissionResponse(s models.Submission) SubmissionResponse {
	return SubmissionResponse{
		TestID:            s.TestID,
		AccessCode:        s.AccessCode,
		Answers:           s.AnswerMap(),
		SubmittedAt:       s.SubmittedAt,
		GradedAt:          s.GradedAt,
		Score:             s.Score,
		MaxScore:          s.MaxScore,
		PerQuestionScores: s.PerQuestionScores.Data(),
		Feedback:          s.Feedback.Data(),
	}
}

// NewSubmissionResponseSlice maps a slice of submissions.
func NewSubmissionResponseSlice(subs []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(subs))
	for _, s := range subs {
		responses = append(responses, NewSubmissionResponse(s))
	}
	return responses
}
