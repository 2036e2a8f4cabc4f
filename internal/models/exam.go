package models

import "time"

// Exam defines a scheduled assessment for one subject/class/term cohort.
type Exam struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	SchoolID        uint       `gorm:"not null;index" json:"school_id"`
	SubjectID       uint       `gorm:"not null;index" json:"subject_id"`
	ClassID         uint       `gorm:"not null;index" json:"class_id"`
	TermID          uint       `gorm:"not null" json:"term_id"`
	Year            int        `gorm:"not null" json:"year"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	DurationMinutes int        `gorm:"not null" json:"duration_minutes"`
	TotalMarks      float64    `gorm:"not null" json:"total_marks"`
	PassingMarks    float64    `gorm:"not null" json:"passing_marks"`
	IsCBT           bool       `gorm:"not null;default:false" json:"is_cbt"`
	StartsAt        time.Time  `gorm:"not null" json:"starts_at"`
	EndsAt          time.Time  `gorm:"not null" json:"ends_at"`
	QuestionCount   int        `gorm:"not null;default:0" json:"question_count"`
	BoundarySet     string     `gorm:"size:64;not null;default:default" json:"boundary_set"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Questions       []Question `json:"questions,omitempty"`
}

// Duration returns the exam length as a time.Duration.
func (e Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// IsOpenAt reports whether students may start the exam at the given instant.
func (e Exam) IsOpenAt(reference time.Time) bool {
	return !reference.Before(e.StartsAt) && !reference.After(e.EndsAt)
}
