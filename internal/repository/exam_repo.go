package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/models"
)

// ExamFilter narrows exam listings.
type ExamFilter struct {
	SubjectID *uint
	ClassID   *uint
	TermID    *uint
	CBTOnly   bool
}

// ExamRepository defines data operations for exams.
type ExamRepository interface {
	List(ctx context.Context, schoolID uint, filter ExamFilter) ([]models.Exam, error)
	GetByID(ctx context.Context, schoolID, id uint) (models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	HasAttempts(ctx context.Context, schoolID, examID uint) (bool, error)
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) baseQuery(ctx context.Context, schoolID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Exam{}).Where("school_id = ?", schoolID)
}

func (r *examRepository) List(ctx context.Context, schoolID uint, filter ExamFilter) ([]models.Exam, error) {
	query := r.baseQuery(ctx, schoolID)

	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.TermID != nil {
		query = query.Where("term_id = ?", *filter.TermID)
	}
	if filter.CBTOnly {
		query = query.Where("is_cbt = ?", true)
	}

	var exams []models.Exam
	if err := query.Order("starts_at DESC").Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) GetByID(ctx context.Context, schoolID, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.baseQuery(ctx, schoolID).First(&exam, "id = ?", id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) HasAttempts(ctx context.Context, schoolID, examID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ExamAttempt{}).
		Where("school_id = ? AND exam_id = ?", schoolID, examID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
