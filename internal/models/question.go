package models

import "time"

// Question is a single short-answer question belonging to a test.
// Partitioned by test, addressed by question id. Immutable as far as the
// grading pipeline is concerned.
type Question struct {
	TestID         string    `gorm:"primaryKey;size:64" json:"test_id"`
	QuestionID     string    `gorm:"primaryKey;size:64" json:"question_id"`
	Number         int       `gorm:"not null" json:"number"`
	Prompt         string    `gorm:"type:text;not null" json:"prompt"`
	ExpectedAnswer string    `gorm:"type:text" json:"expected_answer"`
	Rubric         string    `gorm:"type:text" json:"rubric"`
	MaxPoints      float64   `gorm:"not null;default:0" json:"max_points"`
	CreatedAt      time.Time `json:"created_at"`
}
