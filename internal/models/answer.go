package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ErrIllegalTransition is returned when an attempt state edge is not allowed.
var ErrIllegalTransition = errors.New("illegal attempt state transition")

// Answer stores one student's response to one question within an attempt.
// It is upsertable until the attempt finalizes, then frozen.
type Answer struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SchoolID         uint           `gorm:"not null;index" json:"school_id"`
	AttemptID        uint           `gorm:"not null;uniqueIndex:idx_answer_attempt_question" json:"attempt_id"`
	QuestionID       uint           `gorm:"not null;uniqueIndex:idx_answer_attempt_question" json:"question_id"`
	StudentAnswer    datatypes.JSON `json:"student_answer"`
	TimeTakenSeconds int            `gorm:"not null;default:0" json:"time_taken_seconds"`
	IsCorrect        bool           `gorm:"not null;default:false" json:"is_correct"`
	MarksObtained    float64        `gorm:"not null;default:0" json:"marks_obtained"`
	NeedsReview      bool           `gorm:"not null;default:false" json:"needs_review"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Question         Question       `json:"question,omitempty"`
}
