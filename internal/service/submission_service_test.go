package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/models"
	"github.com/quizzerhq/quizzer-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type submissionKey struct {
	testID     string
	accessCode string
}

// fakeSubmissionRepo is an in-memory SubmissionRepository with the same
// optimistic concurrency behaviour as the real one.
type fakeSubmissionRepo struct {
	records       map[submissionKey]models.Submission
	conflictsLeft int
	updateCalls   int
	upsertCalls   int
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{records: map[submissionKey]models.Submission{}}
}

func (f *fakeSubmissionRepo) Get(ctx context.Context, testID, accessCode string) (models.Submission, error) {
	record, ok := f.records[submissionKey{testID, accessCode}]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeSubmissionRepo) ListByTest(ctx context.Context, testID string) ([]models.Submission, error) {
	var out []models.Submission
	for key, record := range f.records {
		if key.testID == testID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListUngraded(ctx context.Context, since time.Time, limit int) ([]models.Submission, error) {
	return nil, nil
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	key := submissionKey{submission.TestID, submission.AccessCode}
	if _, exists := f.records[key]; exists {
		return errors.New("duplicate key")
	}
	f.records[key] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission, expectedVersion int) error {
	f.updateCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return repository.ErrVersionConflict
	}

	key := submissionKey{submission.TestID, submission.AccessCode}
	stored, ok := f.records[key]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	submission.Version = expectedVersion + 1
	f.records[key] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Upsert(ctx context.Context, submission *models.Submission) error {
	f.upsertCalls++
	submission.Version++
	f.records[submissionKey{submission.TestID, submission.AccessCode}] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Delete(ctx context.Context, testID, accessCode string) error {
	delete(f.records, submissionKey{testID, accessCode})
	return nil
}

func TestSaveAnswerCreatesSubmissionOnFirstContact(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewSubmissionService(repo, testLogger())

	err := svc.SaveAnswer(context.Background(), "test-1", "code-1", "q1", "Jefferson")
	require.NoError(t, err)

	stored := repo.records[submissionKey{"test-1", "code-1"}]
	require.Equal(t, map[string]string{"q1": "Jefferson"}, stored.AnswerMap())
	require.Nil(t, stored.SubmittedAt)
}

func TestSaveAnswerMergesSingleKey(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewSubmissionService(repo, testLogger())
	ctx := context.Background()

	require.NoError(t, svc.SaveAnswer(ctx, "test-1", "code-1", "q1", "draft"))
	require.NoError(t, svc.SaveAnswer(ctx, "test-1", "code-1", "q2", "Adams"))
	require.NoError(t, svc.SaveAnswer(ctx, "test-1", "code-1", "q1", "Jefferson"))

	stored := repo.records[submissionKey{"test-1", "code-1"}]
	require.Equal(t, map[string]string{"q1": "Jefferson", "q2": "Adams"}, stored.AnswerMap())
}

func TestSaveAnswerIsNoOpAfterFinalize(t *testing.T) {
	repo := newFakeSubmissionRepo()
	submittedAt := time.Now().UTC().Add(-time.Minute)
	repo.records[submissionKey{"test-1", "code-1"}] = models.Submission{
		TestID:      "test-1",
		AccessCode:  "code-1",
		Answers:     datatypes.NewJSONType(map[string]string{"q1": "final"}),
		SubmittedAt: &submittedAt,
	}
	svc := NewSubmissionService(repo, testLogger())

	err := svc.SaveAnswer(context.Background(), "test-1", "code-1", "q1", "late edit")
	require.NoError(t, err, "autosave racing a submit must not surface an error")

	stored := repo.records[submissionKey{"test-1", "code-1"}]
	require.Equal(t, map[string]string{"q1": "final"}, stored.AnswerMap())
	require.Equal(t, submittedAt, *stored.SubmittedAt)
	require.Equal(t, 0, repo.updateCalls)
}

func TestSaveAnswerRetriesVersionConflict(t *testing.T) {
	repo := newFakeSubmissionRepo()
	repo.records[submissionKey{"test-1", "code-1"}] = models.Submission{TestID: "test-1", AccessCode: "code-1"}
	repo.conflictsLeft = 2
	svc := NewSubmissionService(repo, testLogger())

	err := svc.SaveAnswer(context.Background(), "test-1", "code-1", "q1", "Jefferson")
	require.NoError(t, err)
	require.Equal(t, 3, repo.updateCalls)

	stored := repo.records[submissionKey{"test-1", "code-1"}]
	require.Equal(t, "Jefferson", stored.AnswerMap()["q1"])
}

func TestSaveAnswerGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := newFakeSubmissionRepo()
	repo.records[submissionKey{"test-1", "code-1"}] = models.Submission{TestID: "test-1", AccessCode: "code-1"}
	repo.conflictsLeft = 10
	svc := NewSubmissionService(repo, testLogger())

	err := svc.SaveAnswer(context.Background(), "test-1", "code-1", "q1", "Jefferson")
	require.ErrorIs(t, err, repository.ErrVersionConflict)
}

func TestFinalizeSetsSubmittedAtOnce(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewSubmissionService(repo, testLogger()).(*submissionService)

	firstSubmit := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return firstSubmit }

	first, err := svc.Finalize(context.Background(), "test-1", "code-1", map[string]string{"q1": "Jefferson", "q2": ""})
	require.NoError(t, err)
	require.NotNil(t, first.SubmittedAt)
	require.Equal(t, firstSubmit, *first.SubmittedAt)

	// Second call with a different snapshot must change nothing.
	svc.now = func() time.Time { return firstSubmit.Add(time.Hour) }
	second, err := svc.Finalize(context.Background(), "test-1", "code-1", map[string]string{"q1": "Adams"})
	require.NoError(t, err)
	require.Equal(t, firstSubmit, *second.SubmittedAt)
	require.Equal(t, map[string]string{"q1": "Jefferson", "q2": ""}, second.Answers)
}

func TestFinalizeReplacesAutosavedAnswers(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewSubmissionService(repo, testLogger())
	ctx := context.Background()

	require.NoError(t, svc.SaveAnswer(ctx, "test-1", "code-1", "q1", "draft"))
	require.NoError(t, svc.SaveAnswer(ctx, "test-1", "code-1", "q3", "stray"))

	result, err := svc.Finalize(ctx, "test-1", "code-1", map[string]string{"q1": "Jefferson", "q2": ""})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"q1": "Jefferson", "q2": ""}, result.Answers,
		"final snapshot supersedes incremental autosaves")
}

func TestResultsNotFound(t *testing.T) {
	repo := newFakeSubmissionRepo()
	svc := NewSubmissionService(repo, testLogger())

	_, err := svc.Results(context.Background(), "test-1", "missing")
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
