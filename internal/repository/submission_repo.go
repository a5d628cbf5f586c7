package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quizzerhq/quizzer-api/internal/models"
)

// ErrVersionConflict indicates an update carried a stale concurrency token.
// Callers treat it as transient: reload and retry, or leave the record for
// the next grading run.
var ErrVersionConflict = errors.New("submission version conflict")

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	Get(ctx context.Context, testID, accessCode string) (models.Submission, error)
	ListByTest(ctx context.Context, testID string) ([]models.Submission, error)
	ListUngraded(ctx context.Context, since time.Time, limit int) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission, expectedVersion int) error
	Upsert(ctx context.Context, submission *models.Submission) error
	Delete(ctx context.Context, testID, accessCode string) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Get(ctx context.Context, testID, accessCode string) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND access_code = ?", testID, accessCode).
		First(&submission).Error
	if err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByTest(ctx context.Context, testID string) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("submitted_at DESC, created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

// ListUngraded returns submissions finalized at or after the cutoff that the
// grading pipeline has not yet scored, oldest first, capped at limit.
func (r *submissionRepository) ListUngraded(ctx context.Context, since time.Time, limit int) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.WithContext(ctx).
		Where("submitted_at IS NOT NULL").
		Where("submitted_at >= ?", since).
		Where("graded_at IS NULL").
		Order("submitted_at ASC").
		Limit(limit).
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// Update persists the submission only when the stored version still matches
// expectedVersion, then bumps the token. A mismatch means another writer got
// there first and surfaces as ErrVersionConflict.
func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission, expectedVersion int) error {
	submission.Version = expectedVersion + 1

	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("test_id = ? AND access_code = ?", submission.TestID, submission.AccessCode).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("created_at").
		Updates(submission)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	return nil
}

// Upsert inserts or replaces the submission regardless of the stored version.
// The grading pipeline uses it as the durability point for graded results; a
// submission always exists by that stage.
func (r *submissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	submission.Version++

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "test_id"}, {Name: "access_code"}},
			UpdateAll: true,
		}).
		Create(submission).Error
}

func (r *submissionRepository) Delete(ctx context.Context, testID, accessCode string) error {
	return r.db.WithContext(ctx).
		Where("test_id = ? AND access_code = ?", testID, accessCode).
		Delete(&models.Submission{}).Error
}
