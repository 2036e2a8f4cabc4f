package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
	QuestionFillBlank      QuestionType = "fill_blank"
	QuestionMatching       QuestionType = "matching"
	QuestionOrdering       QuestionType = "ordering"
	QuestionNumerical      QuestionType = "numerical"
)

// AllQuestionTypes lists every supported type, in a stable order.
var AllQuestionTypes = []QuestionType{
	QuestionSingleChoice,
	QuestionMultipleChoice,
	QuestionTrueFalse,
	QuestionShortAnswer,
	QuestionEssay,
	QuestionFillBlank,
	QuestionMatching,
	QuestionOrdering,
	QuestionNumerical,
}

// Valid reports whether the type is one of the supported formats.
func (t QuestionType) Valid() bool {
	for _, known := range AllQuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// AutoGradable reports whether the engine can grade this type without a human.
func (t QuestionType) AutoGradable() bool {
	return t != QuestionEssay
}

// Question belongs to an exam, or to the reusable bank when ExamID is nil.
type Question struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SchoolID         uint           `gorm:"not null;index" json:"school_id"`
	ExamID           *uint          `gorm:"index" json:"exam_id"`
	Type             QuestionType   `gorm:"size:32;not null" json:"type"`
	Text             string         `gorm:"type:text;not null" json:"text"`
	Options          datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer    datatypes.JSON `json:"correct_answer,omitempty"`
	Explanation      string         `gorm:"type:text" json:"explanation,omitempty"`
	Marks            float64        `gorm:"not null" json:"marks"`
	TimeLimitSeconds int            `gorm:"not null;default:0" json:"time_limit_seconds"`
	Difficulty       string         `gorm:"size:16" json:"difficulty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
