package models

import "time"

// Test is a short-answer test published by a teacher within a course.
// Partitioned by course, addressed by test id. The grading pipeline treats
// tests as read-only context.
type Test struct {
	CourseID      string    `gorm:"primaryKey;size:64" json:"course_id"`
	TestID        string    `gorm:"primaryKey;size:64" json:"test_id"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	Instructions  string    `gorm:"type:text" json:"instructions"`
	Published     bool      `gorm:"not null;default:false" json:"published"`
	Open          bool      `gorm:"not null;default:false" json:"open"`
	QuestionCount int       `gorm:"not null;default:0" json:"question_count"`
	TotalPoints   float64   `gorm:"not null;default:0" json:"total_points"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AcceptsSubmissions reports whether students may currently work on the test.
func (t Test) AcceptsSubmissions() bool {
	return t.Published && t.Open
}
