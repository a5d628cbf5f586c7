package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/models"
	"github.com/quizzerhq/quizzer-api/internal/repository"
)

// SeedService populates a sample test for local development, so the full
// answer-capture and grading loop can be exercised without an authoring UI.
type SeedService interface {
	EnsureSampleData(ctx context.Context) error
}

type seedService struct {
	tests     repository.TestRepository
	questions repository.QuestionRepository
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(tests repository.TestRepository, questions repository.QuestionRepository, logger zerolog.Logger) SeedService {
	return &seedService{
		tests:     tests,
		questions: questions,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

// EnsureSampleData creates one published, open test with two questions.
// Running it again is a no-op.
func (s *seedService) EnsureSampleData(ctx context.Context) error {
	const sampleTestID = "sample-us-history"

	_, err := s.tests.GetByTestID(ctx, sampleTestID)
	if err == nil {
		s.logger.Debug().Msg("sample test already present, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	test := models.Test{
		CourseID:      "sample-course",
		TestID:        sampleTestID,
		Title:         "US History: Founding Documents",
		Description:   "Short-answer review of the founding era.",
		Instructions:  "Answer in one or two sentences. Spelling does not count.",
		Published:     true,
		Open:          true,
		QuestionCount: 2,
		TotalPoints:   15,
	}
	if err := s.tests.Create(ctx, &test); err != nil {
		return err
	}

	questions := []models.Question{
		{
			TestID:         sampleTestID,
			QuestionID:     uuid.NewString(),
			Number:         1,
			Prompt:         "Who was the principal author of the Declaration of Independence?",
			ExpectedAnswer: "Thomas Jefferson",
			Rubric:         "Full credit for Jefferson. No partial credit.",
			MaxPoints:      5,
		},
		{
			TestID:         sampleTestID,
			QuestionID:     uuid.NewString(),
			Number:         2,
			Prompt:         "Name one grievance listed against the King and explain it briefly.",
			ExpectedAnswer: "Any grievance from the Declaration with a short explanation.",
			Rubric:         "5 points for a valid grievance, 5 points for the explanation.",
			MaxPoints:      10,
		},
	}
	for i := range questions {
		if err := s.questions.Create(ctx, &questions[i]); err != nil {
			return err
		}
	}

	s.logger.Info().Str("test_id", sampleTestID).Msg("sample test seeded")
	return nil
}
