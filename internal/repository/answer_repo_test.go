package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/lumina-school/lumina-api/internal/models"
)

func TestAnswerUpsertOverwritesPriorGrading(t *testing.T) {
	db := setupTestDB(t, &models.Answer{}, &models.Question{})
	repo := NewAnswerRepository(db)

	first := &models.Answer{
		SchoolID:      1,
		AttemptID:     5,
		QuestionID:    7,
		StudentAnswer: datatypes.JSON(`{"selected":"a"}`),
		IsCorrect:     true,
		MarksObtained: 5,
	}
	require.NoError(t, repo.Upsert(context.Background(), first))

	// Changing the answer replaces the grading; marks never accumulate.
	second := &models.Answer{
		SchoolID:         1,
		AttemptID:        5,
		QuestionID:       7,
		StudentAnswer:    datatypes.JSON(`{"selected":"b"}`),
		TimeTakenSeconds: 30,
		IsCorrect:        false,
		MarksObtained:    0,
	}
	require.NoError(t, repo.Upsert(context.Background(), second))

	stored, err := repo.GetByAttemptAndQuestion(context.Background(), 5, 7)
	require.NoError(t, err)
	require.False(t, stored.IsCorrect)
	require.Zero(t, stored.MarksObtained)
	require.Equal(t, 30, stored.TimeTakenSeconds)
	require.JSONEq(t, `{"selected":"b"}`, string(stored.StudentAnswer))

	var count int64
	require.NoError(t, db.Model(&models.Answer{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestAnswerUpsertKeepsQuestionsApart(t *testing.T) {
	db := setupTestDB(t, &models.Answer{}, &models.Question{})
	repo := NewAnswerRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.Answer{
		SchoolID: 1, AttemptID: 5, QuestionID: 7, MarksObtained: 5, IsCorrect: true,
	}))
	require.NoError(t, repo.Upsert(context.Background(), &models.Answer{
		SchoolID: 1, AttemptID: 5, QuestionID: 8, MarksObtained: 0,
	}))

	answers, err := repo.ListByAttempt(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, answers, 2)
}

func TestUpdateGrading(t *testing.T) {
	db := setupTestDB(t, &models.Answer{}, &models.Question{})
	repo := NewAnswerRepository(db)

	answer := &models.Answer{SchoolID: 1, AttemptID: 3, QuestionID: 4, NeedsReview: true}
	require.NoError(t, repo.Upsert(context.Background(), answer))

	answer.IsCorrect = true
	answer.MarksObtained = 8
	answer.NeedsReview = false
	require.NoError(t, repo.UpdateGrading(context.Background(), answer))

	stored, err := repo.GetByAttemptAndQuestion(context.Background(), 3, 4)
	require.NoError(t, err)
	require.True(t, stored.IsCorrect)
	require.Equal(t, 8.0, stored.MarksObtained)
	require.False(t, stored.NeedsReview)
}
