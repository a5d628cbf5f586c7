package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/dto"
	"github.com/quizzerhq/quizzer-api/internal/models"
	"github.com/quizzerhq/quizzer-api/internal/repository"
)

// ErrSubmissionNotFound indicates no submission exists for the key pair.
var ErrSubmissionNotFound = errors.New("submission not found")

// saveAnswerAttempts bounds the optimistic-concurrency retry loop. Conflicts
// come from the student's own racing autosaves, so contention is short-lived.
const saveAnswerAttempts = 3

// SubmissionService owns the student-facing submission lifecycle: answer
// capture while the test is in progress and the one-time finalization that
// freezes the answer set for grading.
type SubmissionService interface {
	SaveAnswer(ctx context.Context, testID, accessCode, questionID, answer string) error
	Finalize(ctx context.Context, testID, accessCode string, answers map[string]string) (dto.SubmissionResponse, error)
	Results(ctx context.Context, testID, accessCode string) (dto.SubmissionResponse, error)
	ListByTest(ctx context.Context, testID string) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// SaveAnswer merges a single answer into the in-progress answer set, creating
// the submission on first contact. Once the submission is finalized or graded
// the call is a silent no-op: autosaves race with submission by design and
// must not surface as failures.
func (s *submissionService) SaveAnswer(ctx context.Context, testID, accessCode, questionID, answer string) error {
	var lastErr error

	for attempt := 0; attempt < saveAnswerAttempts; attempt++ {
		submission, err := s.submissions.Get(ctx, testID, accessCode)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			created := models.Submission{
				TestID:     testID,
				AccessCode: accessCode,
				Answers:    datatypes.NewJSONType(map[string]string{questionID: answer}),
			}
			if createErr := s.submissions.Create(ctx, &created); createErr != nil {
				// Lost the creation race; reload and merge instead.
				lastErr = createErr
				continue
			}
			return nil
		}

		if submission.IsSubmitted() || submission.IsGraded() {
			return nil
		}

		answers := submission.AnswerMap()
		answers[questionID] = answer
		submission.Answers = datatypes.NewJSONType(answers)

		err = s.submissions.Update(ctx, &submission, submission.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}

	s.logger.Warn().
		Str("test_id", testID).
		Str("question_id", questionID).
		Msg("answer save abandoned after repeated conflicts")

	return lastErr
}

// Finalize replaces the submission's answer map with the client's complete
// snapshot and stamps SubmittedAt, first writer wins. Repeat calls change
// nothing; the frozen answer set and submit time are returned either way.
func (s *submissionService) Finalize(ctx context.Context, testID, accessCode string, answers map[string]string) (dto.SubmissionResponse, error) {
	if answers == nil {
		answers = map[string]string{}
	}

	var lastErr error

	for attempt := 0; attempt < saveAnswerAttempts; attempt++ {
		submission, err := s.submissions.Get(ctx, testID, accessCode)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.SubmissionResponse{}, err
			}

			submittedAt := s.now().UTC()
			created := models.Submission{
				TestID:      testID,
				AccessCode:  accessCode,
				Answers:     datatypes.NewJSONType(answers),
				SubmittedAt: &submittedAt,
			}
			if createErr := s.submissions.Create(ctx, &created); createErr != nil {
				lastErr = createErr
				continue
			}

			s.logger.Info().Str("test_id", testID).Msg("submission finalized")
			return dto.NewSubmissionResponse(created), nil
		}

		if submission.IsSubmitted() {
			return dto.NewSubmissionResponse(submission), nil
		}

		submittedAt := s.now().UTC()
		submission.Answers = datatypes.NewJSONType(answers)
		submission.SubmittedAt = &submittedAt

		err = s.submissions.Update(ctx, &submission, submission.Version)
		if err == nil {
			s.logger.Info().Str("test_id", testID).Msg("submission finalized")
			return dto.NewSubmissionResponse(submission), nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return dto.SubmissionResponse{}, err
		}
		lastErr = err
	}

	return dto.SubmissionResponse{}, lastErr
}

// Results returns the stored submission, including grading output once the
// pipeline has run.
func (s *submissionService) Results(ctx context.Context, testID, accessCode string) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.Get(ctx, testID, accessCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// ListByTest returns every submission for a test, graded detail included,
// most recently submitted first. Serves the teacher review view.
func (s *submissionService) ListByTest(ctx context.Context, testID string) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}
