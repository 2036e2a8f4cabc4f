package dto

import "time"

// MonitorSession is one live attempt as seen by an invigilator.
type MonitorSession struct {
	SessionID            string `json:"session_id"`
	StudentID            uint   `json:"student_id"`
	Status               string `json:"status"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
}

// MonitorSnapshot is a periodic view of one exam's sessions, streamed over the
// invigilator websocket.
type MonitorSnapshot struct {
	ExamID     uint             `json:"exam_id"`
	TakenAt    time.Time        `json:"taken_at"`
	InProgress int              `json:"in_progress"`
	Submitted  int              `json:"submitted"`
	Expired    int              `json:"expired"`
	Sessions   []MonitorSession `json:"sessions"`
}
