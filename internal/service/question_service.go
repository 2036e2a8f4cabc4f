package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/grading"
	"github.com/lumina-school/lumina-api/internal/models"
	"github.com/lumina-school/lumina-api/internal/repository"
)

// ErrQuestionNotFound indicates the question does not exist in this school.
var ErrQuestionNotFound = errors.New("question not found")

// ErrInvalidQuestionType indicates an unsupported question type string.
var ErrInvalidQuestionType = errors.New("invalid question type")

// ErrExamLocked indicates a structural change was attempted on an exam that
// already has attempts.
var ErrExamLocked = errors.New("exam already has attempts")

// QuestionService manages exam questions and the reusable bank.
type QuestionService interface {
	Create(ctx context.Context, schoolID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error)
	Update(ctx context.Context, schoolID, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error)
	Delete(ctx context.Context, schoolID, id uint) error
	GetByID(ctx context.Context, schoolID, id uint) (dto.QuestionResponse, error)
	ListByExam(ctx context.Context, schoolID, examID uint) ([]dto.QuestionResponse, error)
	ListBank(ctx context.Context, schoolID uint) ([]dto.QuestionResponse, error)
}

type questionService struct {
	questions repository.QuestionRepository
	exams     repository.ExamRepository
	validator StructValidator
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuestionService constructs the question service.
func NewQuestionService(questions repository.QuestionRepository, exams repository.ExamRepository, validate StructValidator, logger zerolog.Logger) QuestionService {
	return &questionService{
		questions: questions,
		exams:     exams,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "question_service").Logger(),
		now:       time.Now,
	}
}

func (s *questionService) Create(ctx context.Context, schoolID uint, payload dto.QuestionCreateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	qType := models.QuestionType(payload.Type)
	if !qType.Valid() {
		return dto.QuestionResponse{}, ErrInvalidQuestionType
	}
	if err := grading.ValidateAnswerKey(qType, payload.CorrectAnswer); err != nil {
		return dto.QuestionResponse{}, err
	}

	if payload.ExamID != nil {
		if err := s.ensureExamEditable(ctx, schoolID, *payload.ExamID); err != nil {
			return dto.QuestionResponse{}, err
		}
	}

	question := models.Question{
		SchoolID:         schoolID,
		ExamID:           payload.ExamID,
		Type:             qType,
		Text:             s.sanitizer.Sanitize(payload.Text),
		Options:          s.sanitizeJSON(payload.Options),
		CorrectAnswer:    []byte(payload.CorrectAnswer),
		Explanation:      s.sanitizer.Sanitize(payload.Explanation),
		Marks:            payload.Marks,
		TimeLimitSeconds: payload.TimeLimitSeconds,
		Difficulty:       payload.Difficulty,
	}
	if err := s.questions.Create(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Update(ctx context.Context, schoolID, id uint, payload dto.QuestionUpdateRequest) (dto.QuestionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuestionResponse{}, err
	}

	question, err := s.load(ctx, schoolID, id)
	if err != nil {
		return dto.QuestionResponse{}, err
	}

	if question.ExamID != nil {
		if err := s.ensureExamEditable(ctx, schoolID, *question.ExamID); err != nil {
			return dto.QuestionResponse{}, err
		}
	}

	if payload.Text != nil {
		question.Text = s.sanitizer.Sanitize(*payload.Text)
	}
	if payload.Options != nil {
		question.Options = s.sanitizeJSON(payload.Options)
	}
	if payload.CorrectAnswer != nil {
		if err := grading.ValidateAnswerKey(question.Type, payload.CorrectAnswer); err != nil {
			return dto.QuestionResponse{}, err
		}
		question.CorrectAnswer = []byte(payload.CorrectAnswer)
	}
	if payload.Explanation != nil {
		question.Explanation = s.sanitizer.Sanitize(*payload.Explanation)
	}
	if payload.Marks != nil {
		question.Marks = *payload.Marks
	}
	if payload.TimeLimitSeconds != nil {
		question.TimeLimitSeconds = *payload.TimeLimitSeconds
	}
	if payload.Difficulty != nil {
		question.Difficulty = *payload.Difficulty
	}

	if err := s.questions.Update(ctx, &question); err != nil {
		return dto.QuestionResponse{}, err
	}

	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) Delete(ctx context.Context, schoolID, id uint) error {
	question, err := s.load(ctx, schoolID, id)
	if err != nil {
		return err
	}

	if question.ExamID != nil {
		if err := s.ensureExamEditable(ctx, schoolID, *question.ExamID); err != nil {
			return err
		}
	}

	return s.questions.Delete(ctx, schoolID, id)
}

func (s *questionService) GetByID(ctx context.Context, schoolID, id uint) (dto.QuestionResponse, error) {
	question, err := s.load(ctx, schoolID, id)
	if err != nil {
		return dto.QuestionResponse{}, err
	}
	return dto.NewQuestionResponse(question), nil
}

func (s *questionService) ListByExam(ctx context.Context, schoolID, examID uint) ([]dto.QuestionResponse, error) {
	questions, err := s.questions.ListByExam(ctx, schoolID, examID)
	if err != nil {
		return nil, err
	}
	return newQuestionResponses(questions), nil
}

func (s *questionService) ListBank(ctx context.Context, schoolID uint) ([]dto.QuestionResponse, error) {
	questions, err := s.questions.ListBank(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	return newQuestionResponses(questions), nil
}

func (s *questionService) load(ctx context.Context, schoolID, id uint) (models.Question, error) {
	question, err := s.questions.GetByID(ctx, schoolID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Question{}, ErrQuestionNotFound
		}
		return models.Question{}, err
	}
	return question, nil
}

// sanitizeJSON runs every string value in a JSON document through the UGC
// policy, so option labels rendered to students get the same treatment as the
// question text. Answer keys stay raw; they are compared, never rendered.
func (s *questionService) sanitizeJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return []byte(raw)
	}

	// A plain Marshal would escape the markup the policy allows.
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s.sanitizeValue(doc)); err != nil {
		return []byte(raw)
	}
	return bytes.TrimSpace(buf.Bytes())
}

func (s *questionService) sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return s.sanitizer.Sanitize(v)
	case map[string]interface{}:
		for key, item := range v {
			v[key] = s.sanitizeValue(item)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = s.sanitizeValue(item)
		}
		return v
	default:
		return v
	}
}

// ensureExamEditable blocks question edits once any student has started the
// exam; the served question set must stay stable under live attempts.
func (s *questionService) ensureExamEditable(ctx context.Context, schoolID, examID uint) error {
	if _, err := s.exams.GetByID(ctx, schoolID, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamNotFound
		}
		return err
	}

	locked, err := s.exams.HasAttempts(ctx, schoolID, examID)
	if err != nil {
		return err
	}
	if locked {
		return ErrExamLocked
	}
	return nil
}

func newQuestionResponses(questions []models.Question) []dto.QuestionResponse {
	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		out = append(out, dto.NewQuestionResponse(question))
	}
	return out
}
