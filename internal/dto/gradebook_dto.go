package dto

import "github.com/quizzerhq/quizzer-api/internal/models"

// TestResponse is the read-only test view served to clients.
type TestResponse struct {
	CourseID      string  `json:"course_id"`
	TestID        string  `json:"test_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Instructions  string  `json:"instructions"`
	Published     bool    `json:"published"`
	Open          bool    `json:"open"`
	QuestionCount int     `json:"question_count"`
	TotalPoints   float64 `json:"total_points"`
}

// QuestionResponse is the read-only question view. The expected answer and
// rubric are omitted from student-facing payloads upstream.
type QuestionResponse struct {
	QuestionID string  `json:"question_id"`
	Number     int     `json:"number"`
	Prompt     string  `json:"prompt"`
	MaxPoints  float64 `json:"max_points"`
}

// NewTestResponse maps a test model onto its API representation.
func NewTestResponse(t models.Test) TestResponse {
	return TestResponse{
		CourseID:      t.CourseID,
		TestID:        t.TestID,
		Title:         t.Title,
		Description:   t.Description,
		Instructions:  t.Instructions,
		Published:     t.Published,
		Open:          t.Open,
		QuestionCount: t.QuestionCount,
		TotalPoints:   t.TotalPoints,
	}
}

// NewQuestionResponseSlice maps questions in their grading (ordinal) order.
func NewQuestionResponseSlice(questions []models.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, QuestionResponse{
			QuestionID: q.QuestionID,
			Number:     q.Number,
			Prompt:     q.Prompt,
			MaxPoints:  q.MaxPoints,
		})
	}
	return responses
}
