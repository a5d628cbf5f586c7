package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/models"
)

// TestRepository defines read operations for tests.
type TestRepository interface {
	Get(ctx context.Context, courseID, testID string) (models.Test, error)
	// GetByTestID looks a test up by its row key alone. Submissions only
	// carry the test id, so the grading pipeline resolves tests this way.
	GetByTestID(ctx context.Context, testID string) (models.Test, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Test, error)
	Create(ctx context.Context, test *models.Test) error
}

type testRepository struct {
	db *gorm.DB
}

// NewTestRepository instantiates the repository.
func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Get(ctx context.Context, courseID, testID string) (models.Test, error) {
	var test models.Test
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND test_id = ?", courseID, testID).
		First(&test).Error
	if err != nil {
		return models.Test{}, err
	}

	return test, nil
}

func (r *testRepository) GetByTestID(ctx context.Context, testID string) (models.Test, error) {
	var test models.Test
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		First(&test).Error
	if err != nil {
		return models.Test{}, err
	}

	return test, nil
}

func (r *testRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Test, error) {
	var tests []models.Test
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}

	return tests, nil
}

func (r *testRepository) Create(ctx context.Context, test *models.Test) error {
	return r.db.WithContext(ctx).Create(test).Error
}
