package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/models"
	"github.com/quizzerhq/quizzer-api/internal/repository"
)

// ErrTestNotFound indicates a submission references a test that no longer exists.
var ErrTestNotFound = errors.New("test not found")

// ErrNoQuestions indicates a test has no questions to grade against.
var ErrNoQuestions = errors.New("test has no questions")

// Gradebook bundles the read-only context the grading pipeline needs for one
// test: the test record and its questions in ordinal order.
type Gradebook struct {
	Test      models.Test       `json:"test"`
	Questions []models.Question `json:"questions"`
}

// GradebookService resolves grading context for a test. Tests and questions
// are immutable while grading runs, so lookups are cached aggressively; a nil
// cache client degrades to plain reads.
type GradebookService interface {
	Lookup(ctx context.Context, testID string) (Gradebook, error)
}

type gradebookService struct {
	tests     repository.TestRepository
	questions repository.QuestionRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewGradebookService builds the gradebook lookup service.
func NewGradebookService(tests repository.TestRepository, questions repository.QuestionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		tests:     tests,
		questions: questions,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "gradebook_service").Logger(),
	}
}

func (s *gradebookService) Lookup(ctx context.Context, testID string) (Gradebook, error) {
	cacheKey := fmt.Sprintf("gradebook:test:%s", testID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var gradebook Gradebook
			if unmarshalErr := json.Unmarshal([]byte(cached), &gradebook); unmarshalErr == nil {
				s.logger.Debug().Str("test_id", testID).Msg("gradebook cache hit")
				return gradebook, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read gradebook cache")
		}
	}

	test, err := s.tests.GetByTestID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Gradebook{}, ErrTestNotFound
		}
		return Gradebook{}, err
	}

	questions, err := s.questions.ListByTest(ctx, testID)
	if err != nil {
		return Gradebook{}, err
	}
	if len(questions) == 0 {
		return Gradebook{}, ErrNoQuestions
	}

	gradebook := Gradebook{Test: test, Questions: questions}

	if s.cache != nil {
		payload, err := json.Marshal(gradebook)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store gradebook cache")
			}
		}
	}

	return gradebook, nil
}
