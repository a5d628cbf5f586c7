package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/dto"
	"github.com/quizzerhq/quizzer-api/internal/repository"
	"github.com/quizzerhq/quizzer-api/internal/service"
	"github.com/quizzerhq/quizzer-api/internal/utils"
)

// retryableSaveMessage is the only failure detail the student surface leaks:
// the client keeps its local state and retries on the next autosave tick.
const retryableSaveMessage = "save failed, will retry"

// SubmissionHandler serves the student-facing submission endpoints. Students
// are anonymous; a test id plus access code addresses their submission.
type SubmissionHandler struct {
	submissions service.SubmissionService
	tests       repository.TestRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(submissions service.SubmissionService, tests repository.TestRepository, validator *validator.Validate, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		tests:       tests,
		validator:   validator,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Put("/:testId/submissions/:accessCode/answers", h.saveAnswer)
	router.Post("/:testId/submissions/:accessCode/submit", h.submit)
	router.Get("/:testId/submissions/:accessCode", h.results)
}

func (h *SubmissionHandler) saveAnswer(c *fiber.Ctx) error {
	testID := c.Params("testId")
	accessCode := c.Params("accessCode")

	var payload dto.SaveAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if ok, err := h.requireOpenTest(c, testID); !ok {
		return err
	}

	if err := h.submissions.SaveAnswer(c.Context(), testID, accessCode, payload.QuestionID, payload.Answer); err != nil {
		h.logger.Warn().Err(err).Str("test_id", testID).Msg("answer save failed")
		return utils.SendError(c, fiber.StatusServiceUnavailable, retryableSaveMessage)
	}

	return utils.SendSuccess(c, "answer saved", nil)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	testID := c.Params("testId")
	accessCode := c.Params("accessCode")

	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if ok, err := h.requireOpenTest(c, testID); !ok {
		return err
	}

	submission, err := h.submissions.Finalize(c.Context(), testID, accessCode, payload.Answers)
	if err != nil {
		h.logger.Warn().Err(err).Str("test_id", testID).Msg("submit failed")
		return utils.SendError(c, fiber.StatusServiceUnavailable, retryableSaveMessage)
	}

	return utils.SendAccepted(c, "submission received", submission)
}

func (h *SubmissionHandler) results(c *fiber.Ctx) error {
	testID := c.Params("testId")
	accessCode := c.Params("accessCode")

	submission, err := h.submissions.Results(c.Context(), testID, accessCode)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		}
		h.logger.Error().Err(err).Str("test_id", testID).Msg("results lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

// requireOpenTest enforces the student-surface policy: answers may only be
// written against a published, open test. ok=false means a response has
// already been sent and the caller should return err as-is.
func (h *SubmissionHandler) requireOpenTest(c *fiber.Ctx, testID string) (bool, error) {
	test, err := h.tests.GetByTestID(c.Context(), testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, utils.SendError(c, fiber.StatusNotFound, "test not found")
		}
		h.logger.Error().Err(err).Str("test_id", testID).Msg("test lookup failed")
		return false, utils.SendError(c, fiber.StatusServiceUnavailable, retryableSaveMessage)
	}

	if !test.AcceptsSubmissions() {
		return false, utils.SendError(c, fiber.StatusForbidden, "test is not open")
	}

	return true, nil
}
