package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission records one student's answers to one test, keyed by test id and
// the anonymous access code handed out for the class period. At most one
// submission exists per (test, access code) pair.
//
// Lifecycle: created on the first autosave or on finalization, mutated by
// answer captures while SubmittedAt is null, frozen on submit, written once
// more by the grading pipeline, then terminal.
type Submission struct {
	TestID     string `gorm:"primaryKey;size:64" json:"test_id"`
	AccessCode string `gorm:"primaryKey;size:64" json:"access_code"`

	Answers datatypes.JSONType[map[string]string] `json:"answers"`

	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`

	Score             *float64                               `json:"score"`
	MaxScore          *float64                               `json:"max_score"`
	PerQuestionScores datatypes.JSONType[map[string]float64] `json:"per_question_scores"`
	Feedback          datatypes.JSONType[map[string]string]  `json:"feedback"`

	// Version is the optimistic concurrency token. Every successful write
	// increments it; an update carrying a stale version is rejected.
	Version int `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSubmitted reports whether the answer set has been frozen by the student.
func (s Submission) IsSubmitted() bool {
	return s.SubmittedAt != nil
}

// IsGraded reports whether the grading pipeline has scored the submission.
func (s Submission) IsGraded() bool {
	return s.GradedAt != nil
}

// AnswerMap returns the stored answers, never nil.
func (s Submission) AnswerMap() map[string]string {
	answers := s.Answers.Data()
	if answers == nil {
		answers = map[string]string{}
	}
	return answers
}
