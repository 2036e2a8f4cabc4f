package dto

import (
	"time"

	"github.com/lumina-school/lumina-api/internal/models"
)

// ExamCreateRequest is the admin payload for scheduling an exam.
type ExamCreateRequest struct {
	SubjectID       uint      `json:"subject_id" validate:"required,gt=0"`
	ClassID         uint      `json:"class_id" validate:"required,gt=0"`
	TermID          uint      `json:"term_id" validate:"required,gt=0"`
	Year            int       `json:"year" validate:"required,gte=2000"`
	Title           string    `json:"title" validate:"required,min=3"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	TotalMarks      float64   `json:"total_marks" validate:"required,gt=0"`
	PassingMarks    float64   `json:"passing_marks" validate:"gte=0,lte=100"`
	IsCBT           bool      `json:"is_cbt"`
	StartsAt        time.Time `json:"starts_at" validate:"required"`
	EndsAt          time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	QuestionCount   int       `json:"question_count" validate:"gte=0"`
	BoundarySet     string    `json:"boundary_set"`
}

// ExamUpdateRequest carries exam edits. Structural fields are rejected by the
// service once attempts exist; title and description stay editable.
type ExamUpdateRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=3"`
	Description     *string    `json:"description"`
	DurationMinutes *int       `json:"duration_minutes" validate:"omitempty,gt=0"`
	TotalMarks      *float64   `json:"total_marks" validate:"omitempty,gt=0"`
	PassingMarks    *float64   `json:"passing_marks" validate:"omitempty,gte=0,lte=100"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	QuestionCount   *int       `json:"question_count" validate:"omitempty,gte=0"`
	BoundarySet     *string    `json:"boundary_set"`
}

// ExamResponse is returned to API clients when viewing exams.
type ExamResponse struct {
	ID              uint      `json:"id"`
	SubjectID       uint      `json:"subject_id"`
	ClassID         uint      `json:"class_id"`
	TermID          uint      `json:"term_id"`
	Year            int       `json:"year"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalMarks      float64   `json:"total_marks"`
	PassingMarks    float64   `json:"passing_marks"`
	IsCBT           bool      `json:"is_cbt"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	QuestionCount   int       `json:"question_count"`
	BoundarySet     string    `json:"boundary_set"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BoundaryRowRequest is one row of a replacement grade-boundary table.
type BoundaryRowRequest struct {
	MinPercent float64 `json:"min_percent" validate:"gte=0,lte=100"`
	MaxPercent float64 `json:"max_percent" validate:"gte=0,lte=100"`
	Label      string  `json:"label" validate:"required,max=8"`
	Remarks    string  `json:"remarks" validate:"max=255"`
}

// BoundarySetRequest replaces a whole boundary set for the school.
type BoundarySetRequest struct {
	Rows []BoundaryRowRequest `json:"rows" validate:"required,min=1,dive"`
}

// NewExamResponse converts an Exam model into a DTO.
func NewExamResponse(model models.Exam) ExamResponse {
	return ExamResponse{
		ID:              model.ID,
		SubjectID:       model.SubjectID,
		ClassID:         model.ClassID,
		TermID:          model.TermID,
		Year:            model.Year,
		Title:           model.Title,
		Description:     model.Description,
		DurationMinutes: model.DurationMinutes,
		TotalMarks:      model.TotalMarks,
		PassingMarks:    model.PassingMarks,
		IsCBT:           model.IsCBT,
		StartsAt:        model.StartsAt,
		EndsAt:          model.EndsAt,
		QuestionCount:   model.QuestionCount,
		BoundarySet:     model.BoundarySet,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewExamResponseSlice converts exam models into DTOs.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	out := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		out = append(out, NewExamResponse(exam))
	}
	return out
}
