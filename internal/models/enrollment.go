package models

import "time"

// Enrollment records that a student takes a subject within a class, term, and
// academic year. The exam engine only reads it to check eligibility.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SchoolID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_scope" json:"school_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_scope" json:"student_id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_scope" json:"class_id"`
	SubjectID uint      `gorm:"not null;uniqueIndex:idx_enrollment_scope" json:"subject_id"`
	TermID    uint      `gorm:"not null;uniqueIndex:idx_enrollment_scope" json:"term_id"`
	Year      int       `gorm:"not null;uniqueIndex:idx_enrollment_scope" json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Student Student `json:"student,omitempty"`
}
