package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumina-school/lumina-api/internal/models"
)

// AnswerRepository defines data operations for submitted answers.
type AnswerRepository interface {
	// Upsert writes the answer for (attempt, question), overwriting any prior
	// submission and its grading. Last write wins until the attempt finalizes.
	Upsert(ctx context.Context, answer *models.Answer) error
	GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (models.Answer, error)
	ListByAttempt(ctx context.Context, attemptID uint) ([]models.Answer, error)
	UpdateGrading(ctx context.Context, answer *models.Answer) error
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Upsert(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"student_answer", "time_taken_seconds", "is_correct", "marks_obtained", "needs_review", "updated_at",
			}),
		}).
		Create(answer).Error
}

func (r *answerRepository) GetByAttemptAndQuestion(ctx context.Context, attemptID, questionID uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *answerRepository) ListByAttempt(ctx context.Context, attemptID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

func (r *answerRepository) UpdateGrading(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Model(answer).
		Updates(map[string]interface{}{
			"is_correct":     answer.IsCorrect,
			"marks_obtained": answer.MarksObtained,
			"needs_review":   answer.NeedsReview,
		}).Error
}
