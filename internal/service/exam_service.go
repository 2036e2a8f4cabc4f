package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/grading"
	"github.com/lumina-school/lumina-api/internal/models"
	"github.com/lumina-school/lumina-api/internal/repository"
)

// ExamService manages exam scheduling and grade-boundary sets.
type ExamService interface {
	List(ctx context.Context, schoolID uint, filter repository.ExamFilter) ([]dto.ExamResponse, error)
	GetByID(ctx context.Context, schoolID, id uint) (dto.ExamResponse, error)
	Create(ctx context.Context, schoolID uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Update(ctx context.Context, schoolID, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error)
	ReplaceBoundarySet(ctx context.Context, schoolID uint, setName string, payload dto.BoundarySetRequest) error
	SetPublished(ctx context.Context, schoolID, examID uint, published bool) error
}

type examService struct {
	exams      repository.ExamRepository
	results    repository.ResultRepository
	boundaries repository.BoundaryRepository
	validator  StructValidator
	logger     zerolog.Logger
	now        func() time.Time
}

// NewExamService constructs the exam service.
func NewExamService(exams repository.ExamRepository, results repository.ResultRepository, boundaries repository.BoundaryRepository, validate StructValidator, logger zerolog.Logger) ExamService {
	return &examService{
		exams:      exams,
		results:    results,
		boundaries: boundaries,
		validator:  validate,
		logger:     logger.With().Str("component", "exam_service").Logger(),
		now:        time.Now,
	}
}

func (s *examService) List(ctx context.Context, schoolID uint, filter repository.ExamFilter) ([]dto.ExamResponse, error) {
	exams, err := s.exams.List(ctx, schoolID, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewExamResponseSlice(exams), nil
}

func (s *examService) GetByID(ctx context.Context, schoolID, id uint) (dto.ExamResponse, error) {
	exam, err := s.load(ctx, schoolID, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(exam), nil
}

func (s *examService) Create(ctx context.Context, schoolID uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	boundarySet := payload.BoundarySet
	if boundarySet == "" {
		boundarySet = models.DefaultBoundarySet
	}

	exam := models.Exam{
		SchoolID:        schoolID,
		SubjectID:       payload.SubjectID,
		ClassID:         payload.ClassID,
		TermID:          payload.TermID,
		Year:            payload.Year,
		Title:           payload.Title,
		Description:     payload.Description,
		DurationMinutes: payload.DurationMinutes,
		TotalMarks:      payload.TotalMarks,
		PassingMarks:    payload.PassingMarks,
		IsCBT:           payload.IsCBT,
		StartsAt:        payload.StartsAt,
		EndsAt:          payload.EndsAt,
		QuestionCount:   payload.QuestionCount,
		BoundarySet:     boundarySet,
	}
	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	s.logger.Info().
		Uint("exam_id", exam.ID).
		Uint("school_id", schoolID).
		Msg("exam created")

	return dto.NewExamResponse(exam), nil
}

func (s *examService) Update(ctx context.Context, schoolID, id uint, payload dto.ExamUpdateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.load(ctx, schoolID, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	// Timing, marks and question-count changes would alter sessions already
	// in flight, so they are refused once anyone has started the exam.
	if structuralChange(payload) {
		locked, err := s.exams.HasAttempts(ctx, schoolID, id)
		if err != nil {
			return dto.ExamResponse{}, err
		}
		if locked {
			return dto.ExamResponse{}, ErrExamLocked
		}
	}

	if payload.Title != nil {
		exam.Title = *payload.Title
	}
	if payload.Description != nil {
		exam.Description = *payload.Description
	}
	if payload.DurationMinutes != nil {
		exam.DurationMinutes = *payload.DurationMinutes
	}
	if payload.TotalMarks != nil {
		exam.TotalMarks = *payload.TotalMarks
	}
	if payload.PassingMarks != nil {
		exam.PassingMarks = *payload.PassingMarks
	}
	if payload.StartsAt != nil {
		exam.StartsAt = *payload.StartsAt
	}
	if payload.EndsAt != nil {
		exam.EndsAt = *payload.EndsAt
	}
	if payload.QuestionCount != nil {
		exam.QuestionCount = *payload.QuestionCount
	}
	if payload.BoundarySet != nil {
		exam.BoundarySet = *payload.BoundarySet
	}
	if !exam.EndsAt.After(exam.StartsAt) {
		return dto.ExamResponse{}, errors.New("ends_at must be after starts_at")
	}

	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam), nil
}

// ReplaceBoundarySet swaps a school's boundary table after validating the
// replacement tiles 0..100 with no gaps or overlaps. A broken table would
// otherwise surface as a grading failure at finalize time.
func (s *examService) ReplaceBoundarySet(ctx context.Context, schoolID uint, setName string, payload dto.BoundarySetRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	rows := make([]models.GradeBoundary, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		rows = append(rows, models.GradeBoundary{
			MinPercent: row.MinPercent,
			MaxPercent: row.MaxPercent,
			Label:      row.Label,
			Remarks:    row.Remarks,
		})
	}
	if _, err := grading.NewBoundaryTable(rows); err != nil {
		return err
	}

	if err := s.boundaries.ReplaceSet(ctx, schoolID, setName, rows); err != nil {
		return err
	}

	s.logger.Info().
		Uint("school_id", schoolID).
		Str("set_name", setName).
		Int("rows", len(rows)).
		Msg("boundary set replaced")

	return nil
}

func (s *examService) SetPublished(ctx context.Context, schoolID, examID uint, published bool) error {
	if _, err := s.load(ctx, schoolID, examID); err != nil {
		return err
	}
	return s.results.SetPublished(ctx, schoolID, examID, published)
}

func (s *examService) load(ctx context.Context, schoolID, id uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}
	return exam, nil
}

func structuralChange(payload dto.ExamUpdateRequest) bool {
	return payload.DurationMinutes != nil ||
		payload.TotalMarks != nil ||
		payload.StartsAt != nil ||
		payload.EndsAt != nil ||
		payload.QuestionCount != nil ||
		payload.BoundarySet != nil
}
