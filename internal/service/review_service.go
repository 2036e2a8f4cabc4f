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

// ErrAnswerNotFound indicates no answer exists for the (attempt, question) pair.
var ErrAnswerNotFound = errors.New("answer not found")

// ErrNotReviewable indicates the answer is not awaiting manual review.
var ErrNotReviewable = errors.New("answer is not flagged for review")

// ErrMarksExceedQuestion indicates an override above the question's marks.
var ErrMarksExceedQuestion = errors.New("marks exceed the question maximum")

// ReviewService applies manual marks to essay answers after grading. An
// override on a finalized attempt re-runs aggregation and re-ranks the cohort.
type ReviewService interface {
	ReviewEssay(ctx context.Context, schoolID uint, sessionID string, questionID uint, payload dto.EssayReviewRequest) (dto.QuestionResult, error)
}

type reviewService struct {
	attempts    repository.AttemptRepository
	exams       repository.ExamRepository
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	results     repository.ResultRepository
	boundaries  repository.BoundaryRepository
	leaderboard LeaderboardInvalidator
	validator   StructValidator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReviewService constructs the essay review service.
func NewReviewService(
	attempts repository.AttemptRepository,
	exams repository.ExamRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	results repository.ResultRepository,
	boundaries repository.BoundaryRepository,
	leaderboard LeaderboardInvalidator,
	validate StructValidator,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		attempts:    attempts,
		exams:       exams,
		questions:   questions,
		answers:     answers,
		results:     results,
		boundaries:  boundaries,
		leaderboard: leaderboard,
		validator:   validate,
		logger:      logger.With().Str("component", "review_service").Logger(),
		now:         time.Now,
	}
}

func (s *reviewService) ReviewEssay(ctx context.Context, schoolID uint, sessionID string, questionID uint, payload dto.EssayReviewRequest) (dto.QuestionResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResult{}, err
	}

	attempt, err := s.attempts.GetBySessionID(ctx, schoolID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResult{}, ErrAttemptNotFound
		}
		return dto.QuestionResult{}, err
	}

	question, err := s.questions.GetByID(ctx, schoolID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResult{}, ErrInvalidQuestionForExam
		}
		return dto.QuestionResult{}, err
	}
	if payload.Marks > question.Marks {
		return dto.QuestionResult{}, ErrMarksExceedQuestion
	}

	answer, err := s.answers.GetByAttemptAndQuestion(ctx, attempt.ID, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionResult{}, ErrAnswerNotFound
		}
		return dto.QuestionResult{}, err
	}
	if !answer.NeedsReview {
		return dto.QuestionResult{}, ErrNotReviewable
	}

	answer.MarksObtained = payload.Marks
	answer.IsCorrect = payload.Marks == question.Marks
	answer.NeedsReview = false
	if err := s.answers.UpdateGrading(ctx, &answer); err != nil {
		return dto.QuestionResult{}, err
	}

	if attempt.IsGraded {
		if err := s.reaggregate(ctx, attempt, payload.Remarks); err != nil {
			return dto.QuestionResult{}, err
		}
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Uint("question_id", questionID).
		Float64("marks", payload.Marks).
		Msg("essay reviewed")

	return dto.QuestionResult{
		QuestionID:    questionID,
		Type:          string(question.Type),
		IsCorrect:     answer.IsCorrect,
		MarksObtained: answer.MarksObtained,
		Marks:         question.Marks,
	}, nil
}

// reaggregate recomputes the attempt score and cohort ranking after a manual
// override lands on an already finalized attempt.
func (s *reviewService) reaggregate(ctx context.Context, attempt models.ExamAttempt, remarks string) error {
	answers, err := s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return err
	}

	var obtained float64
	for _, answer := range answers {
		obtained += answer.MarksObtained
	}

	attempt.Score = obtained
	if err := s.attempts.Update(ctx, &attempt); err != nil {
		return err
	}

	result, err := s.results.GetByExamAndStudent(ctx, attempt.SchoolID, attempt.ExamID, attempt.StudentID)
	if err != nil {
		return err
	}

	exam, err := s.exams.GetByID(ctx, attempt.SchoolID, attempt.ExamID)
	if err != nil {
		return err
	}

	table, err := loadBoundaryTable(ctx, s.boundaries, attempt.SchoolID, exam.BoundarySet)
	if err != nil {
		return err
	}

	result.MarksObtained = obtained
	result.Percentage = grading.Percentage(obtained, result.TotalMarks)
	boundary, err := table.GradeFor(result.Percentage)
	if err != nil {
		return err
	}
	result.Grade = boundary.Label
	if remarks != "" {
		result.Remarks = remarks
	}
	if err := s.results.UpsertAndRerank(ctx, &result, rankByMarks); err != nil {
		return err
	}

	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx, attempt.SchoolID, attempt.ExamID)
	}
	return nil
}
