package dto

import (
	"time"

	"github.com/lumina-school/lumina-api/internal/models"
)

// LeaderboardEntry is one ranked row of an exam cohort.
type LeaderboardEntry struct {
	Position      int     `json:"position"`
	StudentID     uint    `json:"student_id"`
	StudentName   string  `json:"student_name,omitempty"`
	MarksObtained float64 `json:"marks_obtained"`
	TotalMarks    float64 `json:"total_marks"`
	Percentage    float64 `json:"percentage"`
	Grade         string  `json:"grade"`
}

// LeaderboardResponse is the cached ranked view of one exam.
type LeaderboardResponse struct {
	ExamID      uint               `json:"exam_id"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// ResultResponse exposes a single published result.
type ResultResponse struct {
	ID            uint      `json:"id"`
	ExamID        uint      `json:"exam_id"`
	StudentID     uint      `json:"student_id"`
	SubjectID     uint      `json:"subject_id"`
	MarksObtained float64   `json:"marks_obtained"`
	TotalMarks    float64   `json:"total_marks"`
	Percentage    float64   `json:"percentage"`
	Grade         string    `json:"grade"`
	Position      int       `json:"position"`
	Remarks       string    `json:"remarks,omitempty"`
	IsPublished   bool      `json:"is_published"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// EssayReviewRequest is the manual override for an essay answer.
type EssayReviewRequest struct {
	Marks   float64 `json:"marks" validate:"gte=0"`
	Remarks string  `json:"remarks" validate:"max=500"`
}

// NewResultResponse converts a Result model into a DTO.
func NewResultResponse(model models.Result) ResultResponse {
	return ResultResponse{
		ID:            model.ID,
		ExamID:        model.ExamID,
		StudentID:     model.StudentID,
		SubjectID:     model.SubjectID,
		MarksObtained: model.MarksObtained,
		TotalMarks:    model.TotalMarks,
		Percentage:    model.Percentage,
		Grade:         model.Grade,
		Position:      model.Position,
		Remarks:       model.Remarks,
		IsPublished:   model.IsPublished,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewLeaderboardEntries converts ranked results into leaderboard rows.
func NewLeaderboardEntries(results []models.Result) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(results))
	for _, result := range results {
		entry := LeaderboardEntry{
			Position:      result.Position,
			StudentID:     result.StudentID,
			MarksObtained: result.MarksObtained,
			TotalMarks:    result.TotalMarks,
			Percentage:    result.Percentage,
			Grade:         result.Grade,
		}
		if result.Student.ID != 0 {
			entry.StudentName = result.Student.Name
		}
		entries = append(entries, entry)
	}
	return entries
}
