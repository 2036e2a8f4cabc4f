package dto

import (
	"encoding/json"
	"time"

	"github.com/lumina-school/lumina-api/internal/models"
)

// QuestionCreateRequest is the admin payload for adding a question.
type QuestionCreateRequest struct {
	ExamID           *uint           `json:"exam_id"`
	Type             string          `json:"type" validate:"required"`
	Text             string          `json:"text" validate:"required,min=3"`
	Options          json.RawMessage `json:"options"`
	CorrectAnswer    json.RawMessage `json:"correct_answer"`
	Explanation      string          `json:"explanation"`
	Marks            float64         `json:"marks" validate:"required,gt=0"`
	TimeLimitSeconds int             `json:"time_limit_seconds" validate:"gte=0"`
	Difficulty       string          `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// QuestionUpdateRequest carries partial question edits.
type QuestionUpdateRequest struct {
	Text             *string         `json:"text" validate:"omitempty,min=3"`
	Options          json.RawMessage `json:"options"`
	CorrectAnswer    json.RawMessage `json:"correct_answer"`
	Explanation      *string         `json:"explanation"`
	Marks            *float64        `json:"marks" validate:"omitempty,gt=0"`
	TimeLimitSeconds *int            `json:"time_limit_seconds" validate:"omitempty,gte=0"`
	Difficulty       *string         `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// QuestionResponse is the full admin view, answer key included.
type QuestionResponse struct {
	ID               uint            `json:"id"`
	ExamID           *uint           `json:"exam_id"`
	Type             string          `json:"type"`
	Text             string          `json:"text"`
	Options          json.RawMessage `json:"options,omitempty"`
	CorrectAnswer    json.RawMessage `json:"correct_answer,omitempty"`
	Explanation      string          `json:"explanation,omitempty"`
	Marks            float64         `json:"marks"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	Difficulty       string          `json:"difficulty,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// QuestionPublic is the student-facing projection served during an exam. It
// never carries the answer key or explanation; those surface only through the
// revision report after finalization.
type QuestionPublic struct {
	ID               uint            `json:"id"`
	Type             string          `json:"type"`
	Text             string          `json:"text"`
	Options          json.RawMessage `json:"options,omitempty"`
	Marks            float64         `json:"marks"`
	TimeLimitSeconds int             `json:"time_limit_seconds,omitempty"`
}

// NewQuestionResponse converts a Question model into the admin DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:               model.ID,
		ExamID:           model.ExamID,
		Type:             string(model.Type),
		Text:             model.Text,
		Options:          json.RawMessage(model.Options),
		CorrectAnswer:    json.RawMessage(model.CorrectAnswer),
		Explanation:      model.Explanation,
		Marks:            model.Marks,
		TimeLimitSeconds: model.TimeLimitSeconds,
		Difficulty:       model.Difficulty,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewQuestionPublic converts a Question model into the student projection.
func NewQuestionPublic(model models.Question) QuestionPublic {
	return QuestionPublic{
		ID:               model.ID,
		Type:             string(model.Type),
		Text:             model.Text,
		Options:          json.RawMessage(model.Options),
		Marks:            model.Marks,
		TimeLimitSeconds: model.TimeLimitSeconds,
	}
}

// NewQuestionPublicSlice converts question models into student projections.
func NewQuestionPublicSlice(questions []models.Question) []QuestionPublic {
	out := make([]QuestionPublic, 0, len(questions))
	for _, question := range questions {
		out = append(out, NewQuestionPublic(question))
	}
	return out
}
