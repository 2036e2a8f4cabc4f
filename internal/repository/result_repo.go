package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumina-school/lumina-api/internal/models"
)

// RankFunc recomputes cohort positions from the full current result set,
// returning result ID -> position. It runs inside the upsert transaction so
// racing finalizes serialize on the row writes instead of patching stale ranks.
type RankFunc func(results []models.Result) map[uint]int

// ResultRepository defines data operations for published results.
type ResultRepository interface {
	// UpsertAndRerank writes the result and recomputes every position for the
	// exam cohort in one transaction.
	UpsertAndRerank(ctx context.Context, result *models.Result, rank RankFunc) error
	ListByExam(ctx context.Context, schoolID, examID uint) ([]models.Result, error)
	// ListPublishedByExam returns only the rows released to students.
	ListPublishedByExam(ctx context.Context, schoolID, examID uint) ([]models.Result, error)
	GetByExamAndStudent(ctx context.Context, schoolID, examID, studentID uint) (models.Result, error)
	SetPublished(ctx context.Context, schoolID, examID uint, published bool) error
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository instantiates the repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) UpsertAndRerank(ctx context.Context, result *models.Result, rank RankFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "school_id"}, {Name: "exam_id"}, {Name: "student_id"}, {Name: "subject_id"},
				},
				DoUpdates: clause.AssignmentColumns([]string{
					"marks_obtained", "total_marks", "percentage", "grade", "remarks", "is_published", "updated_at",
				}),
			}).
			Create(result).Error; err != nil {
			return err
		}

		var cohort []models.Result
		if err := tx.
			Clauses(cohortLocking(tx.Dialector.Name())...).
			Where("school_id = ? AND exam_id = ?", result.SchoolID, result.ExamID).
			Order("marks_obtained DESC, id ASC").
			Find(&cohort).Error; err != nil {
			return err
		}

		for id, position := range rank(cohort) {
			if err := tx.Model(&models.Result{}).
				Where("id = ?", id).
				Update("position", position).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// cohortLocking returns the row locks for the cohort read inside the rerank
// transaction. Postgres takes FOR UPDATE so two concurrent finalizes cannot
// each rank a cohort missing the other's row; sqlite has no FOR UPDATE clause
// and already serializes writers.
func cohortLocking(dialect string) []clause.Expression {
	if dialect == "postgres" {
		return []clause.Expression{clause.Locking{Strength: "UPDATE"}}
	}
	return nil
}

func (r *resultRepository) ListByExam(ctx context.Context, schoolID, examID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("school_id = ? AND exam_id = ?", schoolID, examID).
		Order("position ASC, marks_obtained DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *resultRepository) ListPublishedByExam(ctx context.Context, schoolID, examID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("school_id = ? AND exam_id = ? AND is_published = ?", schoolID, examID, true).
		Order("position ASC, marks_obtained DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *resultRepository) GetByExamAndStudent(ctx context.Context, schoolID, examID, studentID uint) (models.Result, error) {
	var result models.Result
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND exam_id = ? AND student_id = ?", schoolID, examID, studentID).
		First(&result).Error; err != nil {
		return models.Result{}, err
	}

	return result, nil
}

func (r *resultRepository) SetPublished(ctx context.Context, schoolID, examID uint, published bool) error {
	return r.db.WithContext(ctx).Model(&models.Result{}).
		Where("school_id = ? AND exam_id = ?", schoolID, examID).
		Update("is_published", published).Error
}
