package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumina-school/lumina-api/internal/models"
)

func boundaries(rows ...[3]interface{}) []models.GradeBoundary {
	out := make([]models.GradeBoundary, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.GradeBoundary{
			MinPercent: row[0].(float64),
			MaxPercent: row[1].(float64),
			Label:      row[2].(string),
		})
	}
	return out
}

func defaultTable(t *testing.T) BoundaryTable {
	t.Helper()
	table, err := NewBoundaryTable(boundaries(
		[3]interface{}{80.0, 100.0, "A"},
		[3]interface{}{65.0, 80.0, "B"},
		[3]interface{}{50.0, 65.0, "C"},
		[3]interface{}{35.0, 50.0, "D"},
		[3]interface{}{0.0, 35.0, "E"},
	))
	require.NoError(t, err)
	return table
}

func TestBoundaryTableGradeFor(t *testing.T) {
	table := defaultTable(t)

	cases := []struct {
		percentage float64
		label      string
	}{
		{0, "E"},
		{34.99, "E"},
		{35, "D"},
		{50, "C"},
		{64.99, "C"},
		{79.99, "B"},
		{80, "A"},
		{100, "A"},
	}

	for _, tc := range cases {
		row, err := table.GradeFor(tc.percentage)
		require.NoError(t, err)
		require.Equal(t, tc.label, row.Label, "percentage %.2f", tc.percentage)
	}
}

func TestBoundaryTableRejectsGaps(t *testing.T) {
	_, err := NewBoundaryTable(boundaries(
		[3]interface{}{80.0, 100.0, "A"},
		[3]interface{}{0.0, 70.0, "F"},
	))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestBoundaryTableRejectsOverlaps(t *testing.T) {
	_, err := NewBoundaryTable(boundaries(
		[3]interface{}{60.0, 100.0, "A"},
		[3]interface{}{0.0, 70.0, "F"},
	))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestBoundaryTableRejectsPartialCoverage(t *testing.T) {
	_, err := NewBoundaryTable(boundaries(
		[3]interface{}{50.0, 100.0, "P"},
	))
	require.ErrorIs(t, err, ErrConfiguration, "table must start at 0")

	_, err = NewBoundaryTable(boundaries(
		[3]interface{}{0.0, 90.0, "P"},
	))
	require.ErrorIs(t, err, ErrConfiguration, "table must end at 100")
}

func TestBoundaryTableRejectsEmptyAndInverted(t *testing.T) {
	_, err := NewBoundaryTable(nil)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewBoundaryTable(boundaries(
		[3]interface{}{100.0, 0.0, "X"},
	))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestGradeForOutOfRange(t *testing.T) {
	table := defaultTable(t)

	_, err := table.GradeFor(-1)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = table.GradeFor(100.01)
	require.ErrorIs(t, err, ErrConfiguration)
}
