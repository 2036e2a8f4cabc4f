package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAttemptStatusTransitions(t *testing.T) {
	cases := []struct {
		from    AttemptStatus
		to      AttemptStatus
		allowed bool
	}{
		{AttemptStarted, AttemptInProgress, true},
		{AttemptStarted, AttemptSubmitted, true},
		{AttemptStarted, AttemptTimeExpired, true},
		{AttemptInProgress, AttemptSubmitted, true},
		{AttemptInProgress, AttemptTimeExpired, true},
		{AttemptInProgress, AttemptStarted, false},
		{AttemptSubmitted, AttemptInProgress, false},
		{AttemptSubmitted, AttemptTimeExpired, false},
		{AttemptTimeExpired, AttemptSubmitted, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionStampsEndTimeAndClearsActive(t *testing.T) {
	active := true
	now := time.Now()
	attempt := ExamAttempt{Status: AttemptInProgress, Active: &active, StartTime: now.Add(-10 * time.Minute)}

	require.NoError(t, attempt.Transition(AttemptSubmitted, now))
	require.Equal(t, AttemptSubmitted, attempt.Status)
	require.Nil(t, attempt.Active)
	require.NotNil(t, attempt.EndTime)
	require.Equal(t, now, *attempt.EndTime)

	err := attempt.Transition(AttemptTimeExpired, now)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestRemainingNeverNegative(t *testing.T) {
	exam := Exam{DurationMinutes: 30}
	start := time.Now()
	attempt := ExamAttempt{Status: AttemptInProgress, StartTime: start}

	require.Equal(t, 30*time.Minute, attempt.Remaining(exam, start))
	require.Equal(t, 15*time.Minute, attempt.Remaining(exam, start.Add(15*time.Minute)))
	require.Equal(t, time.Duration(0), attempt.Remaining(exam, start.Add(30*time.Minute)))
	require.Equal(t, time.Duration(0), attempt.Remaining(exam, start.Add(2*time.Hour)))
}

func TestIsExpiredOnlyWhileActive(t *testing.T) {
	exam := Exam{DurationMinutes: 20}
	start := time.Now()
	late := start.Add(25 * time.Minute)

	attempt := ExamAttempt{Status: AttemptInProgress, StartTime: start}
	require.True(t, attempt.IsExpired(exam, late))
	require.False(t, attempt.IsExpired(exam, start.Add(5*time.Minute)))

	attempt.Status = AttemptSubmitted
	require.False(t, attempt.IsExpired(exam, late))
}
