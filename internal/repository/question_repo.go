package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/models"
)

// QuestionRepository defines read operations for questions. Question CRUD is
// owned by the authoring surface; the grading pipeline only ever reads.
type QuestionRepository interface {
	Get(ctx context.Context, testID, questionID string) (models.Question, error)
	ListByTest(ctx context.Context, testID string) ([]models.Question, error)
	Create(ctx context.Context, question *models.Question) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Get(ctx context.Context, testID, questionID string) (models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND question_id = ?", testID, questionID).
		First(&question).Error
	if err != nil {
		return models.Question{}, err
	}

	return question, nil
}

// ListByTest returns the test's questions in ascending ordinal order, which
// fixes the grading order within a submission.
func (r *questionRepository) ListByTest(ctx context.Context, testID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("number ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}
