package grading

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lumina-school/lumina-api/internal/models"
)

// ErrConfiguration signals a malformed grade-boundary table. The engine never
// guesses a grade from a broken table.
var ErrConfiguration = errors.New("grade boundary configuration error")

// BoundaryTable is a validated, ordered letter-grade table covering [0,100].
type BoundaryTable struct {
	rows []models.GradeBoundary
}

// NewBoundaryTable validates raw boundary rows: non-empty, each row well formed,
// and together tiling [0,100] with no gaps or overlaps. Rows may arrive in any
// order; the table keeps them sorted ascending by MinPercent.
func NewBoundaryTable(rows []models.GradeBoundary) (BoundaryTable, error) {
	if len(rows) == 0 {
		return BoundaryTable{}, fmt.Errorf("%w: empty boundary table", ErrConfiguration)
	}

	sorted := make([]models.GradeBoundary, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPercent < sorted[j].MinPercent })

	for _, row := range sorted {
		if row.Label == "" {
			return BoundaryTable{}, fmt.Errorf("%w: boundary without label", ErrConfiguration)
		}
		if row.MinPercent >= row.MaxPercent {
			return BoundaryTable{}, fmt.Errorf("%w: boundary %q has min %.2f >= max %.2f",
				ErrConfiguration, row.Label, row.MinPercent, row.MaxPercent)
		}
	}

	if sorted[0].MinPercent != 0 {
		return BoundaryTable{}, fmt.Errorf("%w: table starts at %.2f, not 0", ErrConfiguration, sorted[0].MinPercent)
	}
	if sorted[len(sorted)-1].MaxPercent != 100 {
		return BoundaryTable{}, fmt.Errorf("%w: table ends at %.2f, not 100", ErrConfiguration, sorted[len(sorted)-1].MaxPercent)
	}
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		if next.MinPercent != prev.MaxPercent {
			return BoundaryTable{}, fmt.Errorf("%w: gap or overlap between %q (max %.2f) and %q (min %.2f)",
				ErrConfiguration, prev.Label, prev.MaxPercent, next.Label, next.MinPercent)
		}
	}

	return BoundaryTable{rows: sorted}, nil
}

// GradeFor maps a percentage to the highest boundary whose MinPercent is at or
// below it. Contiguity is guaranteed by construction, so exactly one row wins.
func (t BoundaryTable) GradeFor(percentage float64) (models.GradeBoundary, error) {
	if percentage < 0 || percentage > 100 {
		return models.GradeBoundary{}, fmt.Errorf("%w: percentage %.2f out of range", ErrConfiguration, percentage)
	}
	for i := len(t.rows) - 1; i >= 0; i-- {
		if t.rows[i].MinPercent <= percentage {
			return t.rows[i], nil
		}
	}
	return models.GradeBoundary{}, fmt.Errorf("%w: no boundary for %.2f", ErrConfiguration, percentage)
}

// Rows exposes the sorted boundary rows.
func (t BoundaryTable) Rows() []models.GradeBoundary {
	return t.rows
}
