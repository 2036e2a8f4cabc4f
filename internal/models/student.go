package models

import "time"

// Student represents a learner registered with a school.
type Student struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SchoolID        uint      `gorm:"not null;index" json:"school_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Email           string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	AdmissionNumber string    `gorm:"size:64;index" json:"admission_number"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
