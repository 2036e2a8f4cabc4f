package dto

import "encoding/json"

// RevisionQuestion pairs the student's answer with the key and explanation.
// Only available once the attempt is graded.
type RevisionQuestion struct {
	QuestionID    uint            `json:"question_id"`
	Type          string          `json:"type"`
	Text          string          `json:"text"`
	StudentAnswer json.RawMessage `json:"student_answer,omitempty"`
	CorrectAnswer json.RawMessage `json:"correct_answer,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
	IsCorrect     bool            `json:"is_correct"`
	MarksObtained float64         `json:"marks_obtained"`
	Marks         float64         `json:"marks"`
	TimeTaken     int             `json:"time_taken_seconds"`
	NeedsReview   bool            `json:"needs_review,omitempty"`
}

// TypeAccuracy summarizes performance for one question type.
type TypeAccuracy struct {
	Type      string  `json:"type"`
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
	WeakPoint bool    `json:"weak_point"`
}

// RevisionReport is the full post-exam feedback document.
type RevisionReport struct {
	SessionID       string             `json:"session_id"`
	Questions       []RevisionQuestion `json:"questions"`
	TypeBreakdown   []TypeAccuracy     `json:"type_breakdown"`
	Recommendations []string           `json:"recommendations"`
}
