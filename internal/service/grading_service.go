package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/quizzerhq/quizzer-api/internal/models"
	"github.com/quizzerhq/quizzer-api/internal/repository"
	"github.com/quizzerhq/quizzer-api/pkg/ai"
)

// GradeOutcome classifies what happened to one submission during a batch run.
type GradeOutcome string

const (
	// OutcomeGraded means the submission was scored and persisted.
	OutcomeGraded GradeOutcome = "graded"
	// OutcomeSkipped means the submission was already graded and left untouched.
	OutcomeSkipped GradeOutcome = "skipped"
	// OutcomeFailed means grading was abandoned with nothing written; the
	// submission stays eligible for the next run.
	OutcomeFailed GradeOutcome = "failed"
)

// GradeResult is the per-submission entry of a batch report.
type GradeResult struct {
	TestID     string
	AccessCode string
	Outcome    GradeOutcome
	Score      float64
	Err        error
}

// BatchReport collects the typed result of every submission in one run, so
// failure isolation is visible in the report rather than buried in logs.
type BatchReport struct {
	Results []GradeResult
}

// Count returns how many results carry the given outcome.
func (r BatchReport) Count(outcome GradeOutcome) int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}
	return n
}

// GradingService scores finalized submissions question by question against
// an external scorer and persists the aggregate exactly once.
type GradingService interface {
	GradeSubmission(ctx context.Context, submission models.Submission) (GradeResult, error)
	GradeBatch(ctx context.Context, submissions []models.Submission) BatchReport
}

type gradingService struct {
	submissions repository.SubmissionRepository
	gradebooks  GradebookService
	scorer      ai.Scorer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, gradebooks GradebookService, scorer ai.Scorer, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		gradebooks:  gradebooks,
		scorer:      scorer,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// GradeSubmission grades every question of the submission's test in ordinal
// order. Any per-question failure abandons the whole submission without
// writing a partial result; GradedAt stays null so the next run retries it.
// Already-graded submissions are skipped, never re-scored.
func (s *gradingService) GradeSubmission(ctx context.Context, submission models.Submission) (GradeResult, error) {
	tracer := otel.Tracer("github.com/quizzerhq/quizzer-api/internal/service")
	ctx, span := tracer.Start(ctx, "grading.submission")
	span.SetAttributes(
		attribute.String("grading.test_id", submission.TestID),
		attribute.String("grading.access_code", submission.AccessCode),
	)
	defer span.End()

	result := GradeResult{TestID: submission.TestID, AccessCode: submission.AccessCode}

	if submission.IsGraded() {
		span.SetAttributes(attribute.Bool("grading.skipped", true))
		result.Outcome = OutcomeSkipped
		return result, nil
	}

	gradebook, err := s.gradebooks.Lookup(ctx, submission.TestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gradebook_lookup_failed")
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, err
	}

	answers := submission.AnswerMap()
	var total float64
	perQuestionScores := map[string]float64{}
	perQuestionFeedback := map[string]string{}

	for _, question := range gradebook.Questions {
		score, explanation, err := s.gradeQuestion(ctx, gradebook.Test, question, answers[question.QuestionID])
		if err != nil {
			wrapped := fmt.Errorf("question %s: %w", question.QuestionID, err)
			span.RecordError(wrapped)
			span.SetStatus(codes.Error, "question_grading_failed")
			result.Outcome = OutcomeFailed
			result.Err = wrapped
			return result, wrapped
		}

		total += score
		perQuestionScores[question.QuestionID] = score
		perQuestionFeedback[question.QuestionID] = explanation
	}

	gradedAt := s.now().UTC()
	maxScore := gradebook.Test.TotalPoints
	submission.Score = &total
	submission.MaxScore = &maxScore
	submission.GradedAt = &gradedAt
	submission.PerQuestionScores = datatypes.NewJSONType(perQuestionScores)
	submission.Feedback = datatypes.NewJSONType(perQuestionFeedback)

	if err := s.submissions.Upsert(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_write_failed")
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, err
	}

	span.SetAttributes(attribute.Float64("grading.score", total))
	s.logger.Info().
		Str("test_id", submission.TestID).
		Str("access_code", submission.AccessCode).
		Float64("score", total).
		Float64("max_score", maxScore).
		Msg("submission graded")

	result.Outcome = OutcomeGraded
	result.Score = total
	return result, nil
}

// gradeQuestion runs one answer through the scorer and normalizes the score.
// Scores outside [0, MaxPoints] are clamped rather than trusted; the scorer
// is prompted with the ceiling but gives no hard guarantee.
func (s *gradingService) gradeQuestion(ctx context.Context, test models.Test, question models.Question, answer string) (float64, string, error) {
	verdict, err := s.scorer.Score(ctx, ai.ScoreRequest{
		TestTitle:        test.Title,
		TestDescription:  test.Description,
		TestInstructions: test.Instructions,
		QuestionNumber:   question.Number,
		Prompt:           question.Prompt,
		ExpectedAnswer:   question.ExpectedAnswer,
		Rubric:           question.Rubric,
		MaxPoints:        question.MaxPoints,
		StudentAnswer:    answer,
	})
	if err != nil {
		return 0, "", err
	}

	score := verdict.Score
	if score < 0 || score > question.MaxPoints {
		s.logger.Warn().
			Str("test_id", test.TestID).
			Str("question_id", question.QuestionID).
			Float64("score", score).
			Float64("max_points", question.MaxPoints).
			Msg("scorer returned out-of-range score, clamping")
		if score < 0 {
			score = 0
		} else {
			score = question.MaxPoints
		}
	}

	return score, verdict.Explanation, nil
}

// GradeBatch grades submissions sequentially in the order given. A failure
// in one submission never touches its neighbours; each entry of the report
// stands alone.
func (s *gradingService) GradeBatch(ctx context.Context, submissions []models.Submission) BatchReport {
	report := BatchReport{Results: make([]GradeResult, 0, len(submissions))}

	for _, submission := range submissions {
		result, err := s.GradeSubmission(ctx, submission)
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("test_id", submission.TestID).
				Str("access_code", submission.AccessCode).
				Msg("grading failed, submission left for next run")
		}
		report.Results = append(report.Results, result)
	}

	return report
}
