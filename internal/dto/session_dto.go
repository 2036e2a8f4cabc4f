package dto

import (
	"encoding/json"
	"time"
)

// StartExamResponse is returned when a student begins (or resumes) an attempt.
type StartExamResponse struct {
	SessionID            string           `json:"session_id"`
	Status               string           `json:"status"`
	TimeRemainingSeconds int              `json:"time_remaining_seconds"`
	Questions            []QuestionPublic `json:"questions"`
	Resumed              bool             `json:"resumed"`
}

// SubmitAnswerRequest carries one answer during a live attempt. TimeTaken is
// advisory bookkeeping; the server clock alone decides expiry.
type SubmitAnswerRequest struct {
	QuestionID       uint            `json:"question_id" validate:"required,gt=0"`
	Answer           json.RawMessage `json:"answer" validate:"required"`
	TimeTakenSeconds int             `json:"time_taken_seconds" validate:"gte=0"`
}

// SubmitAnswerResponse reports the grading of a single answer.
type SubmitAnswerResponse struct {
	QuestionID           uint    `json:"question_id"`
	IsCorrect            bool    `json:"is_correct"`
	MarksObtained        float64 `json:"marks_obtained"`
	NeedsReview          bool    `json:"needs_review,omitempty"`
	TimeRemainingSeconds int     `json:"time_remaining_seconds"`
}

// SessionStatusResponse describes the attempt's current state.
type SessionStatusResponse struct {
	SessionID            string     `json:"session_id"`
	Status               string     `json:"status"`
	TimeRemainingSeconds int        `json:"time_remaining_seconds"`
	IsGraded             bool       `json:"is_graded"`
	StartTime            time.Time  `json:"start_time"`
	EndTime              *time.Time `json:"end_time,omitempty"`
}

// FinalizeSummary aggregates the graded attempt.
type FinalizeSummary struct {
	TotalQuestions int     `json:"total_questions"`
	Correct        int     `json:"correct"`
	ObtainedMarks  float64 `json:"obtained_marks"`
	TotalMarks     float64 `json:"total_marks"`
	Percentage     float64 `json:"percentage"`
	Grade          string  `json:"grade"`
	Remarks        string  `json:"remarks,omitempty"`
	Passing        bool    `json:"passing"`
	Position       int     `json:"position"`
	PendingReview  int     `json:"pending_review,omitempty"`
}

// QuestionResult is the per-question line of a finalized attempt.
type QuestionResult struct {
	QuestionID    uint    `json:"question_id"`
	Type          string  `json:"type"`
	IsCorrect     bool    `json:"is_correct"`
	MarksObtained float64 `json:"marks_obtained"`
	Marks         float64 `json:"marks"`
	NeedsReview   bool    `json:"needs_review,omitempty"`
}

// FinalizeResponse is returned once by FinalizeExam.
type FinalizeResponse struct {
	Summary     FinalizeSummary  `json:"summary"`
	PerQuestion []QuestionResult `json:"per_question_results"`
}
