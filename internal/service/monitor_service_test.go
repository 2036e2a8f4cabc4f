package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumina-school/lumina-api/internal/models"
)

func TestMonitorSnapshotClassifiesSessions(t *testing.T) {
	f := newSessionFixture(t, choiceQuestion(1, 10, 5, "b"))

	live, err := f.service.StartExam(context.Background(), 1, 10, 100)
	require.NoError(t, err)

	done, err := f.service.StartExam(context.Background(), 1, 10, 101)
	require.NoError(t, err)
	_, err = f.service.FinalizeExam(context.Background(), 1, done.SessionID, 101)
	require.NoError(t, err)

	monitor := NewMonitorService(f.attempts, f.exams, testLogger())
	monitor.(*monitorService).now = func() time.Time { return *f.clock }

	f.advance(10 * time.Minute)
	snapshot, err := monitor.Snapshot(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Equal(t, 1, snapshot.InProgress)
	require.Equal(t, 1, snapshot.Submitted)
	require.Zero(t, snapshot.Expired)
	require.Len(t, snapshot.Sessions, 2)

	for _, session := range snapshot.Sessions {
		if session.SessionID == live.SessionID {
			require.Equal(t, 20*60, session.TimeRemainingSeconds)
		}
	}
}

func TestMonitorSnapshotReportsOverdueWithoutMutating(t *testing.T) {
	f := newSessionFixture(t, choiceQuestion(1, 10, 5, "b"))

	started, err := f.service.StartExam(context.Background(), 1, 10, 100)
	require.NoError(t, err)

	monitor := NewMonitorService(f.attempts, f.exams, testLogger())
	monitor.(*monitorService).now = func() time.Time { return *f.clock }

	f.advance(31 * time.Minute)
	snapshot, err := monitor.Snapshot(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, snapshot.Expired)
	require.Equal(t, string(models.AttemptTimeExpired), snapshot.Sessions[0].Status)

	// The stored attempt stays untouched until the student's session reaches it.
	stored, err := f.attempts.GetBySessionID(context.Background(), 1, started.SessionID)
	require.NoError(t, err)
	require.Equal(t, models.AttemptStarted, stored.Status)
}

func TestMonitorSnapshotUnknownExam(t *testing.T) {
	f := newSessionFixture(t)
	monitor := NewMonitorService(f.attempts, f.exams, testLogger())

	_, err := monitor.Snapshot(context.Background(), 1, 99)
	require.ErrorIs(t, err, ErrExamNotFound)
}
