package models

import "time"

// Result is the published outcome of a finalized attempt, one row per
// (school, exam, student, subject). Only the aggregation step writes it.
type Result struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SchoolID      uint      `gorm:"not null;uniqueIndex:idx_result_scope" json:"school_id"`
	ExamID        uint      `gorm:"not null;uniqueIndex:idx_result_scope" json:"exam_id"`
	StudentID     uint      `gorm:"not null;uniqueIndex:idx_result_scope" json:"student_id"`
	SubjectID     uint      `gorm:"not null;uniqueIndex:idx_result_scope" json:"subject_id"`
	MarksObtained float64   `gorm:"not null" json:"marks_obtained"`
	TotalMarks    float64   `gorm:"not null" json:"total_marks"`
	Percentage    float64   `gorm:"not null" json:"percentage"`
	Grade         string    `gorm:"size:8;not null" json:"grade"`
	Position      int       `gorm:"not null;default:0" json:"position"`
	Remarks       string    `gorm:"size:255" json:"remarks"`
	IsPublished   bool      `gorm:"not null;default:false" json:"is_published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Student       Student   `json:"student,omitempty"`
}
