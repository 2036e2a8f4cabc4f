package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lumina-school/lumina-api/internal/models"
)

// AttemptRepository defines data operations for exam attempts.
type AttemptRepository interface {
	// CreateIfAbsent inserts the attempt unless a live one already exists for
	// the same (school, exam, student). It reports whether the insert landed
	// and always returns the surviving row, so concurrent duplicate starts
	// collapse onto a single attempt without a query-then-insert race.
	CreateIfAbsent(ctx context.Context, attempt *models.ExamAttempt) (models.ExamAttempt, bool, error)
	GetBySessionID(ctx context.Context, schoolID uint, sessionID string) (models.ExamAttempt, error)
	GetActive(ctx context.Context, schoolID, examID, studentID uint) (models.ExamAttempt, error)
	Update(ctx context.Context, attempt *models.ExamAttempt) error
	ListByExam(ctx context.Context, schoolID, examID uint) ([]models.ExamAttempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) baseQuery(ctx context.Context, schoolID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ExamAttempt{}).Where("school_id = ?", schoolID)
}

func (r *attemptRepository) CreateIfAbsent(ctx context.Context, attempt *models.ExamAttempt) (models.ExamAttempt, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(attempt)
	if result.Error != nil {
		return models.ExamAttempt{}, false, result.Error
	}

	if result.RowsAffected > 0 {
		return *attempt, true, nil
	}

	// Lost the race (or a resume): hand back the live attempt that won.
	existing, err := r.GetActive(ctx, attempt.SchoolID, attempt.ExamID, attempt.StudentID)
	if err != nil {
		return models.ExamAttempt{}, false, err
	}

	return existing, false, nil
}

func (r *attemptRepository) GetBySessionID(ctx context.Context, schoolID uint, sessionID string) (models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := r.baseQuery(ctx, schoolID).
		Where("session_id = ?", sessionID).
		First(&attempt).Error; err != nil {
		return models.ExamAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) GetActive(ctx context.Context, schoolID, examID, studentID uint) (models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	if err := r.baseQuery(ctx, schoolID).
		Where("exam_id = ? AND student_id = ? AND active = ?", examID, studentID, true).
		First(&attempt).Error; err != nil {
		return models.ExamAttempt{}, err
	}

	return attempt, nil
}

func (r *attemptRepository) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	// Save skips nil pointer fields, so a cleared Active marker must be
	// written explicitly when the attempt reaches a terminal state.
	return r.db.WithContext(ctx).Model(attempt).
		Select("status", "active", "end_time", "score", "is_graded", "updated_at").
		Updates(map[string]interface{}{
			"status":    attempt.Status,
			"active":    attempt.Active,
			"end_time":  attempt.EndTime,
			"score":     attempt.Score,
			"is_graded": attempt.IsGraded,
		}).Error
}

func (r *attemptRepository) ListByExam(ctx context.Context, schoolID, examID uint) ([]models.ExamAttempt, error) {
	var attempts []models.ExamAttempt
	if err := r.baseQuery(ctx, schoolID).
		Where("exam_id = ?", examID).
		Order("start_time ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}
