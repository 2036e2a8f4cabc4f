package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lumina-school/lumina-api/internal/models"
)

func newLeaderboardFixture(t *testing.T) (LeaderboardService, *fakeResultRepo, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exams := newFakeExamRepo(models.Exam{ID: 10, SchoolID: 1, SubjectID: 5, IsCBT: true})
	results := newFakeResultRepo()
	service := NewLeaderboardService(results, exams, client, time.Minute, testLogger())

	return service, results, server
}

func seedResult(t *testing.T, results *fakeResultRepo, studentID uint, marks float64) {
	t.Helper()
	err := results.UpsertAndRerank(context.Background(), &models.Result{
		SchoolID:      1,
		ExamID:        10,
		StudentID:     studentID,
		SubjectID:     5,
		MarksObtained: marks,
		TotalMarks:    100,
		Percentage:    marks,
		Grade:         "B",
		IsPublished:   true,
	}, rankByMarks)
	require.NoError(t, err)
}

func TestLeaderboardGetBuildsAndCaches(t *testing.T) {
	service, results, server := newLeaderboardFixture(t)
	seedResult(t, results, 100, 80)
	seedResult(t, results, 101, 90)

	board, err := service.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, uint(10), board.ExamID)
	require.Len(t, board.Entries, 2)
	require.True(t, server.Exists("leaderboard:school:1:exam:10"))
}

func TestLeaderboardGetServesCachedCopy(t *testing.T) {
	service, results, _ := newLeaderboardFixture(t)
	seedResult(t, results, 100, 80)

	first, err := service.Get(context.Background(), 1, 10)
	require.NoError(t, err)

	// A write that skips invalidation must not surface until the TTL lapses.
	seedResult(t, results, 101, 90)
	second, err := service.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, len(first.Entries), len(second.Entries))
}

func TestLeaderboardInvalidateDropsCache(t *testing.T) {
	service, results, server := newLeaderboardFixture(t)
	seedResult(t, results, 100, 80)

	_, err := service.Get(context.Background(), 1, 10)
	require.NoError(t, err)

	seedResult(t, results, 101, 90)
	service.Invalidate(context.Background(), 1, 10)
	require.False(t, server.Exists("leaderboard:school:1:exam:10"))

	board, err := service.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
}

func TestLeaderboardHidesUnpublishedResults(t *testing.T) {
	service, results, _ := newLeaderboardFixture(t)
	seedResult(t, results, 100, 80)

	// Finalized but not yet released by an admin.
	err := results.UpsertAndRerank(context.Background(), &models.Result{
		SchoolID:      1,
		ExamID:        10,
		StudentID:     101,
		SubjectID:     5,
		MarksObtained: 90,
		TotalMarks:    100,
		Percentage:    90,
		Grade:         "A",
	}, rankByMarks)
	require.NoError(t, err)

	board, err := service.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	require.Equal(t, uint(100), board.Entries[0].StudentID)
}

func TestLeaderboardWorksWithoutCache(t *testing.T) {
	exams := newFakeExamRepo(models.Exam{ID: 10, SchoolID: 1, SubjectID: 5, IsCBT: true})
	results := newFakeResultRepo()
	service := NewLeaderboardService(results, exams, nil, 0, testLogger())
	seedResult(t, results, 100, 80)

	board, err := service.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)

	service.Invalidate(context.Background(), 1, 10)
}

func TestLeaderboardUnknownExam(t *testing.T) {
	service, _, _ := newLeaderboardFixture(t)

	_, err := service.Get(context.Background(), 1, 99)
	require.ErrorIs(t, err, ErrExamNotFound)
}
