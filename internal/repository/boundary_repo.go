package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/models"
)

// BoundaryRepository loads grade-boundary tables.
type BoundaryRepository interface {
	ListSet(ctx context.Context, schoolID uint, setName string) ([]models.GradeBoundary, error)
	ReplaceSet(ctx context.Context, schoolID uint, setName string, rows []models.GradeBoundary) error
}

type boundaryRepository struct {
	db *gorm.DB
}

// NewBoundaryRepository instantiates the repository.
func NewBoundaryRepository(db *gorm.DB) BoundaryRepository {
	return &boundaryRepository{db: db}
}

func (r *boundaryRepository) ListSet(ctx context.Context, schoolID uint, setName string) ([]models.GradeBoundary, error) {
	var rows []models.GradeBoundary
	if err := r.db.WithContext(ctx).
		Where("school_id = ? AND set_name = ?", schoolID, setName).
		Order("min_percent ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *boundaryRepository) ReplaceSet(ctx context.Context, schoolID uint, setName string, rows []models.GradeBoundary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("school_id = ? AND set_name = ?", schoolID, setName).
			Delete(&models.GradeBoundary{}).Error; err != nil {
			return err
		}

		for i := range rows {
			rows[i].ID = 0
			rows[i].SchoolID = schoolID
			rows[i].SetName = setName
		}

		return tx.Create(&rows).Error
	})
}
