package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/models"
	"github.com/lumina-school/lumina-api/internal/repository"
)

// MonitorService builds read-only snapshots of an exam's live sessions for
// invigilators. It never mutates attempts; an attempt that ran out of time is
// reported as expired here but transitions only when the student's session
// touches it.
type MonitorService interface {
	Snapshot(ctx context.Context, schoolID, examID uint) (dto.MonitorSnapshot, error)
}

type monitorService struct {
	attempts repository.AttemptRepository
	exams    repository.ExamRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewMonitorService constructs the invigilator monitor service.
func NewMonitorService(attempts repository.AttemptRepository, exams repository.ExamRepository, logger zerolog.Logger) MonitorService {
	return &monitorService{
		attempts: attempts,
		exams:    exams,
		logger:   logger.With().Str("component", "monitor_service").Logger(),
		now:      time.Now,
	}
}

func (s *monitorService) Snapshot(ctx context.Context, schoolID, examID uint) (dto.MonitorSnapshot, error) {
	exam, err := s.exams.GetByID(ctx, schoolID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MonitorSnapshot{}, ErrExamNotFound
		}
		return dto.MonitorSnapshot{}, err
	}

	attempts, err := s.attempts.ListByExam(ctx, schoolID, examID)
	if err != nil {
		return dto.MonitorSnapshot{}, err
	}

	reference := s.now()
	snapshot := dto.MonitorSnapshot{
		ExamID:   examID,
		TakenAt:  reference.UTC(),
		Sessions: make([]dto.MonitorSession, 0, len(attempts)),
	}

	for _, attempt := range attempts {
		session := dto.MonitorSession{
			SessionID: attempt.SessionID,
			StudentID: attempt.StudentID,
			Status:    string(attempt.Status),
		}

		switch {
		case attempt.Status == models.AttemptSubmitted:
			snapshot.Submitted++
		case attempt.Status == models.AttemptTimeExpired || attempt.IsExpired(exam, reference):
			snapshot.Expired++
			session.Status = string(models.AttemptTimeExpired)
		default:
			snapshot.InProgress++
			session.TimeRemainingSeconds = int(attempt.Remaining(exam, reference).Seconds())
		}

		snapshot.Sessions = append(snapshot.Sessions, session)
	}

	return snapshot, nil
}
