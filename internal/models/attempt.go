package models

import "time"

// AttemptStatus is the closed set of exam attempt states.
type AttemptStatus string

const (
	AttemptStarted     AttemptStatus = "started"
	AttemptInProgress  AttemptStatus = "in_progress"
	AttemptSubmitted   AttemptStatus = "submitted"
	AttemptTimeExpired AttemptStatus = "time_expired"
)

// IsActive reports whether the attempt may still accept answers.
func (s AttemptStatus) IsActive() bool {
	return s == AttemptStarted || s == AttemptInProgress
}

// IsFinal reports whether the state is terminal.
func (s AttemptStatus) IsFinal() bool {
	return s == AttemptSubmitted || s == AttemptTimeExpired
}

// CanTransitionTo encodes the legal state machine edges.
func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	switch s {
	case AttemptStarted:
		return next == AttemptInProgress || next == AttemptSubmitted || next == AttemptTimeExpired
	case AttemptInProgress:
		return next == AttemptSubmitted || next == AttemptTimeExpired
	default:
		return false
	}
}

// ExamAttempt is one student's run through an exam. Attempts are never deleted;
// finished ones stay behind as the audit trail.
type ExamAttempt struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	SchoolID  uint          `gorm:"not null;uniqueIndex:idx_attempt_active" json:"school_id"`
	ExamID    uint          `gorm:"not null;uniqueIndex:idx_attempt_active" json:"exam_id"`
	StudentID uint          `gorm:"not null;uniqueIndex:idx_attempt_active" json:"student_id"`
	SessionID string        `gorm:"size:64;uniqueIndex;not null" json:"session_id"`
	Status    AttemptStatus `gorm:"size:16;not null" json:"status"`
	// Active is true while the attempt is in flight and NULL once finalized.
	// NULLs never collide, so the composite unique index above admits at most
	// one live attempt per (school, exam, student) while keeping history.
	Active    *bool      `gorm:"uniqueIndex:idx_attempt_active" json:"-"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Score     float64    `gorm:"not null;default:0" json:"score"`
	IsGraded  bool       `gorm:"not null;default:false" json:"is_graded"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Exam      Exam       `json:"exam,omitempty"`
	Student   Student    `json:"student,omitempty"`
}

// Remaining returns how much exam time is left at the given instant. The result
// never goes negative; once the deadline passes it stays at zero.
func (a ExamAttempt) Remaining(exam Exam, reference time.Time) time.Duration {
	deadline := a.StartTime.Add(exam.Duration())
	if !reference.Before(deadline) {
		return 0
	}
	return deadline.Sub(reference)
}

// IsExpired reports whether the attempt has outlived its duration while still
// counted as active. The server clock is authoritative; whatever remaining time
// the client believes it has is irrelevant.
func (a ExamAttempt) IsExpired(exam Exam, reference time.Time) bool {
	return a.Status.IsActive() && a.Remaining(exam, reference) == 0
}

// Transition moves the attempt to the next state, stamping EndTime and clearing
// the active marker on terminal states. Illegal edges return ErrIllegalTransition.
func (a *ExamAttempt) Transition(next AttemptStatus, reference time.Time) error {
	if !a.Status.CanTransitionTo(next) {
		return ErrIllegalTransition
	}
	a.Status = next
	if next.IsFinal() {
		end := reference
		a.EndTime = &end
		a.Active = nil
	}
	return nil
}
