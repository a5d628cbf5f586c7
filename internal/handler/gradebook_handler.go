package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/quizzerhq/quizzer-api/internal/dto"
	"github.com/quizzerhq/quizzer-api/internal/service"
	"github.com/quizzerhq/quizzer-api/internal/utils"
)

// GradebookHandler serves the teacher review surface: a test with its
// questions, and every submission with grading output.
type GradebookHandler struct {
	gradebooks  service.GradebookService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewGradebookHandler builds a gradebook handler instance.
func NewGradebookHandler(gradebooks service.GradebookService, submissions service.SubmissionService, logger zerolog.Logger) *GradebookHandler {
	return &GradebookHandler{
		gradebooks:  gradebooks,
		submissions: submissions,
		logger:      logger.With().Str("component", "gradebook_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradebookHandler) Register(router fiber.Router) {
	router.Get("/:testId", h.show)
	router.Get("/:testId/submissions", h.listSubmissions)
}

func (h *GradebookHandler) show(c *fiber.Ctx) error {
	testID := c.Params("testId")

	gradebook, err := h.gradebooks.Lookup(c.Context(), testID)
	if err != nil {
		return h.handleError(c, err)
	}

	payload := fiber.Map{
		"test":      dto.NewTestResponse(gradebook.Test),
		"questions": dto.NewQuestionResponseSlice(gradebook.Questions),
	}

	return utils.SendSuccess(c, "gradebook retrieved", payload)
}

func (h *GradebookHandler) listSubmissions(c *fiber.Ctx) error {
	testID := c.Params("testId")

	submissions, err := h.submissions.ListByTest(c.Context(), testID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *GradebookHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "test not found")
	case errors.Is(err, service.ErrNoQuestions):
		return utils.SendError(c, fiber.StatusNotFound, "test has no questions")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
