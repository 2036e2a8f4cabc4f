package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/models"
)

// EnrollmentRepository answers enrollment questions for the exam engine. It is
// the narrow contract onto the wider enrollment registry.
type EnrollmentRepository interface {
	IsEnrolled(ctx context.Context, schoolID, studentID uint, exam models.Exam) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) IsEnrolled(ctx context.Context, schoolID, studentID uint, exam models.Exam) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Where("class_id = ? AND subject_id = ? AND term_id = ? AND year = ?",
			exam.ClassID, exam.SubjectID, exam.TermID, exam.Year).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}
