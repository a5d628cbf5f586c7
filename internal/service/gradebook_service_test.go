package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quizzerhq/quizzer-api/internal/models"
)

type fakeTestRepo struct {
	tests map[string]models.Test
	reads int
}

func (f *fakeTestRepo) Get(ctx context.Context, courseID, testID string) (models.Test, error) {
	return f.GetByTestID(ctx, testID)
}

func (f *fakeTestRepo) GetByTestID(ctx context.Context, testID string) (models.Test, error) {
	f.reads++
	test, ok := f.tests[testID]
	if !ok {
		return models.Test{}, gorm.ErrRecordNotFound
	}
	return test, nil
}

func (f *fakeTestRepo) ListByCourse(ctx context.Context, courseID string) ([]models.Test, error) {
	return nil, nil
}

func (f *fakeTestRepo) Create(ctx context.Context, test *models.Test) error {
	f.tests[test.TestID] = *test
	return nil
}

type fakeQuestionRepo struct {
	questions map[string][]models.Question
}

func (f *fakeQuestionRepo) Get(ctx context.Context, testID, questionID string) (models.Question, error) {
	for _, q := range f.questions[testID] {
		if q.QuestionID == questionID {
			return q, nil
		}
	}
	return models.Question{}, gorm.ErrRecordNotFound
}

func (f *fakeQuestionRepo) ListByTest(ctx context.Context, testID string) ([]models.Question, error) {
	return f.questions[testID], nil
}

func (f *fakeQuestionRepo) Create(ctx context.Context, question *models.Question) error {
	f.questions[question.TestID] = append(f.questions[question.TestID], *question)
	return nil
}

func TestGradebookServiceCachesLookups(t *testing.T) {
	server := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})

	tests := &fakeTestRepo{tests: map[string]models.Test{
		"test-1": {CourseID: "c", TestID: "test-1", Title: "US History", TotalPoints: 15},
	}}
	questions := &fakeQuestionRepo{questions: map[string][]models.Question{
		"test-1": {{TestID: "test-1", QuestionID: "q1", Number: 1, Prompt: "Who?", MaxPoints: 5}},
	}}

	svc := NewGradebookService(tests, questions, cache, time.Minute, testLogger())

	first, err := svc.Lookup(context.Background(), "test-1")
	require.NoError(t, err)
	require.Equal(t, "US History", first.Test.Title)
	require.Len(t, first.Questions, 1)
	require.Equal(t, 1, tests.reads)

	second, err := svc.Lookup(context.Background(), "test-1")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, tests.reads, "second lookup must come from cache")
}

func TestGradebookServiceWithoutCache(t *testing.T) {
	tests := &fakeTestRepo{tests: map[string]models.Test{
		"test-1": {TestID: "test-1", Title: "US History"},
	}}
	questions := &fakeQuestionRepo{questions: map[string][]models.Question{
		"test-1": {{TestID: "test-1", QuestionID: "q1", Number: 1}},
	}}

	svc := NewGradebookService(tests, questions, nil, time.Minute, testLogger())

	_, err := svc.Lookup(context.Background(), "test-1")
	require.NoError(t, err)

	_, err = svc.Lookup(context.Background(), "test-1")
	require.NoError(t, err)
	require.Equal(t, 2, tests.reads)
}

func TestGradebookServiceMissingTest(t *testing.T) {
	svc := NewGradebookService(&fakeTestRepo{tests: map[string]models.Test{}}, &fakeQuestionRepo{}, nil, time.Minute, testLogger())

	_, err := svc.Lookup(context.Background(), "gone")
	require.ErrorIs(t, err, ErrTestNotFound)
}

func TestGradebookServiceEmptyTest(t *testing.T) {
	tests := &fakeTestRepo{tests: map[string]models.Test{"test-1": {TestID: "test-1"}}}
	svc := NewGradebookService(tests, &fakeQuestionRepo{questions: map[string][]models.Question{}}, nil, time.Minute, testLogger())

	_, err := svc.Lookup(context.Background(), "test-1")
	require.ErrorIs(t, err, ErrNoQuestions)
}
