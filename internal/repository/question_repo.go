package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/models"
)

// QuestionRepository defines data operations for questions and the question bank.
type QuestionRepository interface {
	ListByExam(ctx context.Context, schoolID, examID uint) ([]models.Question, error)
	ListBank(ctx context.Context, schoolID uint) ([]models.Question, error)
	GetByID(ctx context.Context, schoolID, id uint) (models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, schoolID, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) baseQuery(ctx context.Context, schoolID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Question{}).Where("school_id = ?", schoolID)
}

func (r *questionRepository) ListByExam(ctx context.Context, schoolID, examID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.baseQuery(ctx, schoolID).
		Where("exam_id = ?", examID).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) ListBank(ctx context.Context, schoolID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.baseQuery(ctx, schoolID).
		Where("exam_id IS NULL").
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) GetByID(ctx context.Context, schoolID, id uint) (models.Question, error) {
	var question models.Question
	if err := r.baseQuery(ctx, schoolID).First(&question, "id = ?", id).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

func (r *questionRepository) Delete(ctx context.Context, schoolID, id uint) error {
	return r.db.WithContext(ctx).
		Where("school_id = ? AND id = ?", schoolID, id).
		Delete(&models.Question{}).Error
}
