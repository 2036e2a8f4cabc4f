// Package events publishes engine lifecycle events for external collaborators
// (notification delivery, report-card rendering) over NATS. The engine never
// waits on consumers; a lost event is logged and the request proceeds.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubjectResultFinalized carries one finalized exam result.
const SubjectResultFinalized = "lumina.results.finalized"

// ResultFinalized is the payload emitted after a successful finalize.
type ResultFinalized struct {
	SchoolID      uint      `json:"school_id"`
	ExamID        uint      `json:"exam_id"`
	StudentID     uint      `json:"student_id"`
	SessionID     string    `json:"session_id"`
	MarksObtained float64   `json:"marks_obtained"`
	TotalMarks    float64   `json:"total_marks"`
	Percentage    float64   `json:"percentage"`
	Grade         string    `json:"grade"`
	Passing       bool      `json:"passing"`
	FinalizedAt   time.Time `json:"finalized_at"`
}

// Publisher emits engine events.
type Publisher interface {
	ResultFinalized(ctx context.Context, event ResultFinalized) error
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSPublisher wraps a NATS connection as an event publisher.
func NewNATSPublisher(conn *nats.Conn, logger zerolog.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) ResultFinalized(ctx context.Context, event ResultFinalized) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(SubjectResultFinalized, payload); err != nil {
		p.logger.Warn().Err(err).
			Uint("exam_id", event.ExamID).
			Uint("student_id", event.StudentID).
			Msg("failed to publish result event")
		return err
	}

	return nil
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event. Used when the
// deployment runs without a broker.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) ResultFinalized(context.Context, ResultFinalized) error {
	return nil
}
