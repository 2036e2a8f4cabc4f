package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/dto"
	"github.com/lumina-school/lumina-api/internal/events"
	"github.com/lumina-school/lumina-api/internal/grading"
	"github.com/lumina-school/lumina-api/internal/models"
	"github.com/lumina-school/lumina-api/internal/repository"
)

// ErrExamNotFound indicates the exam does not exist in this school.
var ErrExamNotFound = errors.New("exam not found")

// ErrExamNotCBT indicates the exam is not delivered as computer-based testing.
var ErrExamNotCBT = errors.New("exam is not CBT-enabled")

// ErrExamNotActive indicates the exam is outside its scheduled window.
var ErrExamNotActive = errors.New("exam is not currently active")

// ErrNotEnrolled indicates the student has no enrollment covering the exam.
var ErrNotEnrolled = errors.New("student is not enrolled for this exam")

// ErrAttemptNotFound indicates no attempt matches the session token.
var ErrAttemptNotFound = errors.New("attempt not found")

// ErrTimeExpired indicates the attempt outlived its duration. It wins over
// every other validation once detected.
var ErrTimeExpired = errors.New("attempt time has expired")

// ErrInvalidQuestionForExam indicates the question is not part of the attempt's exam.
var ErrInvalidQuestionForExam = errors.New("question does not belong to this exam")

// ErrAlreadyFinalized indicates the attempt already reached a terminal state.
var ErrAlreadyFinalized = errors.New("attempt already finalized")

// ErrNotGraded indicates revision feedback was requested before grading.
var ErrNotGraded = errors.New("attempt is not graded yet")

// LeaderboardInvalidator drops the cached leaderboard for an exam after its
// result set changes.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context, schoolID, examID uint)
}

// ExamSessionService drives the CBT attempt lifecycle from start to revision.
type ExamSessionService interface {
	StartExam(ctx context.Context, schoolID, examID, studentID uint) (dto.StartExamResponse, error)
	GetSessionStatus(ctx context.Context, schoolID uint, sessionID string, studentID uint) (dto.SessionStatusResponse, error)
	SubmitAnswer(ctx context.Context, schoolID uint, sessionID string, studentID uint, payload dto.SubmitAnswerRequest) (dto.SubmitAnswerResponse, error)
	FinalizeExam(ctx context.Context, schoolID uint, sessionID string, studentID uint) (dto.FinalizeResponse, error)
	GetRevisionReport(ctx context.Context, schoolID uint, sessionID string, studentID uint) (dto.RevisionReport, error)
}

// weakAreaThreshold is the per-type accuracy below which the revision report
// flags a weak area, in percent.
const weakAreaThreshold = 70.0

type examSessionService struct {
	attempts    repository.AttemptRepository
	exams       repository.ExamRepository
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	results     repository.ResultRepository
	enrollments repository.EnrollmentRepository
	boundaries  repository.BoundaryRepository
	publisher   events.Publisher
	leaderboard LeaderboardInvalidator
	validator   StructValidator
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// StructValidator is the slice of go-playground/validator the services use.
type StructValidator interface {
	Struct(s interface{}) error
}

// ExamSessionDeps groups the session service dependencies.
type ExamSessionDeps struct {
	Attempts    repository.AttemptRepository
	Exams       repository.ExamRepository
	Questions   repository.QuestionRepository
	Answers     repository.AnswerRepository
	Results     repository.ResultRepository
	Enrollments repository.EnrollmentRepository
	Boundaries  repository.BoundaryRepository
	Publisher   events.Publisher
	Leaderboard LeaderboardInvalidator
	Validator   StructValidator
}

// NewExamSessionService constructs the session engine.
func NewExamSessionService(deps ExamSessionDeps, logger zerolog.Logger) ExamSessionService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}

	return &examSessionService{
		attempts:    deps.Attempts,
		exams:       deps.Exams,
		questions:   deps.Questions,
		answers:     deps.Answers,
		results:     deps.Results,
		enrollments: deps.Enrollments,
		boundaries:  deps.Boundaries,
		publisher:   publisher,
		leaderboard: deps.Leaderboard,
		validator:   deps.Validator,
		logger:      logger.With().Str("component", "exam_session_service").Logger(),
		tracer:      otel.Tracer("github.com/lumina-school/lumina-api/internal/service"),
		now:         time.Now,
	}
}

func (s *examSessionService) StartExam(ctx context.Context, schoolID, examID, studentID uint) (dto.StartExamResponse, error) {
	exam, err := s.loadExam(ctx, schoolID, examID)
	if err != nil {
		return dto.StartExamResponse{}, err
	}

	now := s.now()
	if !exam.IsCBT {
		return dto.StartExamResponse{}, ErrExamNotCBT
	}
	if !exam.IsOpenAt(now) {
		return dto.StartExamResponse{}, ErrExamNotActive
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, schoolID, studentID, exam)
	if err != nil {
		return dto.StartExamResponse{}, err
	}
	if !enrolled {
		return dto.StartExamResponse{}, ErrNotEnrolled
	}

	active := true
	candidate := &models.ExamAttempt{
		SchoolID:  schoolID,
		ExamID:    examID,
		StudentID: studentID,
		SessionID: uuid.NewString(),
		Status:    models.AttemptStarted,
		Active:    &active,
		StartTime: now,
	}

	attempt, created, err := s.attempts.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return dto.StartExamResponse{}, err
	}

	// A resumed attempt may already be past its deadline; expire it on touch.
	if attempt.IsExpired(exam, now) {
		if err := s.expire(ctx, &attempt); err != nil {
			return dto.StartExamResponse{}, err
		}
		return dto.StartExamResponse{}, ErrTimeExpired
	}

	questions, err := s.questionSet(ctx, exam, attempt.SessionID)
	if err != nil {
		return dto.StartExamResponse{}, err
	}

	if created {
		s.logger.Info().
			Uint("exam_id", examID).
			Uint("student_id", studentID).
			Str("session_id", attempt.SessionID).
			Msg("attempt started")
	}

	return dto.StartExamResponse{
		SessionID:            attempt.SessionID,
		Status:               string(attempt.Status),
		TimeRemainingSeconds: int(attempt.Remaining(exam, now).Seconds()),
		Questions:            dto.NewQuestionPublicSlice(questions),
		Resumed:              !created,
	}, nil
}

func (s *examSessionService) GetSessionStatus(ctx context.Context, schoolID uint, sessionID string, studentID uint) (dto.SessionStatusResponse, error) {
	attempt, exam, err := s.loadSession(ctx, schoolID, sessionID, studentID)
	if err != nil {
		return dto.SessionStatusResponse{}, err
	}

	now := s.now()
	if attempt.IsExpired(exam, now) {
		if err := s.expire(ctx, &attempt); err != nil {
			return dto.SessionStatusResponse{}, err
		}
	}

	return dto.SessionStatusResponse{
		SessionID:            attempt.SessionID,
		Status:               string(attempt.Status),
		TimeRemainingSeconds: int(attempt.Remaining(exam, now).Seconds()),
		IsGraded:             attempt.IsGraded,
		StartTime:            attempt.StartTime,
		EndTime:              attempt.EndTime,
	}, nil
}

func (s *examSessionService) SubmitAnswer(ctx context.Context, schoolID uint, sessionID string, studentID uint, payload dto.SubmitAnswerRequest) (dto.SubmitAnswerResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	attempt, exam, err := s.loadSession(ctx, schoolID, sessionID, studentID)
	if err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	if err := s.ensureLive(ctx, &attempt, exam); err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	question, err := s.attemptQuestion(ctx, exam, attempt.SessionID, payload.QuestionID)
	if err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	outcome, err := grading.Grade(question, json.RawMessage(payload.Answer))
	if err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	answer := &models.Answer{
		SchoolID:         schoolID,
		AttemptID:        attempt.ID,
		QuestionID:       question.ID,
		StudentAnswer:    []byte(payload.Answer),
		TimeTakenSeconds: payload.TimeTakenSeconds,
		IsCorrect:        outcome.IsCorrect,
		MarksObtained:    outcome.MarksObtained,
		NeedsReview:      outcome.NeedsReview,
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	if attempt.Status == models.AttemptStarted {
		now := s.now()
		if err := attempt.Transition(models.AttemptInProgress, now); err == nil {
			if err := s.attempts.Update(ctx, &attempt); err != nil {
				return dto.SubmitAnswerResponse{}, err
			}
		}
	}

	return dto.SubmitAnswerResponse{
		QuestionID:           question.ID,
		IsCorrect:            outcome.IsCorrect,
		MarksObtained:        outcome.MarksObtained,
		NeedsReview:          outcome.NeedsReview,
		TimeRemainingSeconds: int(attempt.Remaining(exam, s.now()).Seconds()),
	}, nil
}

func (s *examSessionService) FinalizeExam(ctx context.Context, schoolID uint, sessionID string, studentID uint) (dto.FinalizeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "exam_session.finalize", trace.WithAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int64("student_id", int64(studentID)),
	))
	defer span.End()

	attempt, exam, err := s.loadSession(ctx, schoolID, sessionID, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_lookup_failed")
		return dto.FinalizeResponse{}, err
	}

	if err := s.ensureLive(ctx, &attempt, exam); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attempt_not_live")
		return dto.FinalizeResponse{}, err
	}

	served, err := s.questionSet(ctx, exam, attempt.SessionID)
	if err != nil {
		return dto.FinalizeResponse{}, err
	}

	answers, err := s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return dto.FinalizeResponse{}, err
	}

	var obtained, total float64
	var correct, pendingReview int
	answered := make(map[uint]models.Answer, len(answers))
	for _, answer := range answers {
		answered[answer.QuestionID] = answer
		obtained += answer.MarksObtained
		if answer.IsCorrect {
			correct++
		}
		if answer.NeedsReview {
			pendingReview++
		}
	}
	// The live sum over the served question set is the percentage base; the
	// exam's stored total is only metadata and can go stale.
	for _, question := range served {
		total += question.Marks
	}

	percentage := grading.Percentage(obtained, total)

	table, err := s.boundaryTable(ctx, schoolID, exam.BoundarySet)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "boundary_configuration")
		return dto.FinalizeResponse{}, err
	}
	boundary, err := table.GradeFor(percentage)
	if err != nil {
		return dto.FinalizeResponse{}, err
	}

	passing := percentage >= exam.PassingMarks

	now := s.now()
	attempt.Score = obtained
	attempt.IsGraded = true
	if err := attempt.Transition(models.AttemptSubmitted, now); err != nil {
		return dto.FinalizeResponse{}, ErrAlreadyFinalized
	}
	if err := s.attempts.Update(ctx, &attempt); err != nil {
		return dto.FinalizeResponse{}, err
	}

	result := &models.Result{
		SchoolID:      schoolID,
		ExamID:        exam.ID,
		StudentID:     studentID,
		SubjectID:     exam.SubjectID,
		MarksObtained: obtained,
		TotalMarks:    total,
		Percentage:    percentage,
		Grade:         boundary.Label,
		Remarks:       boundary.Remarks,
	}
	if err := s.results.UpsertAndRerank(ctx, result, rankByMarks); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result_upsert_failed")
		return dto.FinalizeResponse{}, err
	}

	stored, err := s.results.GetByExamAndStudent(ctx, schoolID, exam.ID, studentID)
	if err != nil {
		return dto.FinalizeResponse{}, err
	}

	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx, schoolID, exam.ID)
	}
	if err := s.publisher.ResultFinalized(ctx, events.ResultFinalized{
		SchoolID:      schoolID,
		ExamID:        exam.ID,
		StudentID:     studentID,
		SessionID:     attempt.SessionID,
		MarksObtained: obtained,
		TotalMarks:    total,
		Percentage:    percentage,
		Grade:         boundary.Label,
		Passing:       passing,
		FinalizedAt:   now,
	}); err != nil {
		s.logger.Warn().Err(err).Str("session_id", attempt.SessionID).Msg("result event not delivered")
	}

	span.SetAttributes(
		attribute.Float64("finalize.percentage", percentage),
		attribute.String("finalize.grade", boundary.Label),
		attribute.Bool("finalize.passing", passing),
	)

	perQuestion := make([]dto.QuestionResult, 0, len(served))
	for _, question := range served {
		line := dto.QuestionResult{
			QuestionID: question.ID,
			Type:       string(question.Type),
			Marks:      question.Marks,
		}
		if answer, ok := answered[question.ID]; ok {
			line.IsCorrect = answer.IsCorrect
			line.MarksObtained = answer.MarksObtained
			line.NeedsReview = answer.NeedsReview
		}
		perQuestion = append(perQuestion, line)
	}

	return dto.FinalizeResponse{
		Summary: dto.FinalizeSummary{
			TotalQuestions: len(served),
			Correct:        correct,
			ObtainedMarks:  obtained,
			TotalMarks:     total,
			Percentage:     percentage,
			Grade:          boundary.Label,
			Remarks:        boundary.Remarks,
			Passing:        passing,
			Position:       stored.Position,
			PendingReview:  pendingReview,
		},
		PerQuestion: perQuestion,
	}, nil
}

func (s *examSessionService) GetRevisionReport(ctx context.Context, schoolID uint, sessionID string, studentID uint) (dto.RevisionReport, error) {
	attempt, _, err := s.loadSession(ctx, schoolID, sessionID, studentID)
	if err != nil {
		return dto.RevisionReport{}, err
	}
	if !attempt.IsGraded {
		return dto.RevisionReport{}, ErrNotGraded
	}

	answers, err := s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return dto.RevisionReport{}, err
	}

	type typeTally struct {
		total   int
		correct int
	}

	questions := make([]dto.RevisionQuestion, 0, len(answers))
	tallies := map[string]*typeTally{}
	for _, answer := range answers {
		qType := string(answer.Question.Type)
		questions = append(questions, dto.RevisionQuestion{
			QuestionID:    answer.QuestionID,
			Type:          qType,
			Text:          answer.Question.Text,
			StudentAnswer: json.RawMessage(answer.StudentAnswer),
			CorrectAnswer: json.RawMessage(answer.Question.CorrectAnswer),
			Explanation:   answer.Question.Explanation,
			IsCorrect:     answer.IsCorrect,
			MarksObtained: answer.MarksObtained,
			Marks:         answer.Question.Marks,
			TimeTaken:     answer.TimeTakenSeconds,
			NeedsReview:   answer.NeedsReview,
		})

		tally := tallies[qType]
		if tally == nil {
			tally = &typeTally{}
			tallies[qType] = tally
		}
		tally.total++
		if answer.IsCorrect {
			tally.correct++
		}
	}

	types := make([]string, 0, len(tallies))
	for qType := range tallies {
		types = append(types, qType)
	}
	sort.Strings(types)

	breakdown := make([]dto.TypeAccuracy, 0, len(types))
	recommendations := make([]string, 0)
	for _, qType := range types {
		tally := tallies[qType]
		accuracy := grading.RoundPercent(float64(tally.correct) / float64(tally.total) * 100)
		weak := accuracy < weakAreaThreshold
		breakdown = append(breakdown, dto.TypeAccuracy{
			Type:      qType,
			Total:     tally.total,
			Correct:   tally.correct,
			Accuracy:  accuracy,
			WeakPoint: weak,
		})
		if weak {
			recommendations = append(recommendations,
				fmt.Sprintf("Accuracy on %s questions was %.0f%%. Revisit this topic and practice more %s questions.", qType, accuracy, qType))
		}
	}

	return dto.RevisionReport{
		SessionID:       attempt.SessionID,
		Questions:       questions,
		TypeBreakdown:   breakdown,
		Recommendations: recommendations,
	}, nil
}

// loadSession resolves a session token to an attempt owned by the student and
// the exam it belongs to.
func (s *examSessionService) loadSession(ctx context.Context, schoolID uint, sessionID string, studentID uint) (models.ExamAttempt, models.Exam, error) {
	attempt, err := s.attempts.GetBySessionID(ctx, schoolID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ExamAttempt{}, models.Exam{}, ErrAttemptNotFound
		}
		return models.ExamAttempt{}, models.Exam{}, err
	}
	if attempt.StudentID != studentID {
		// Another student's token is indistinguishable from a missing one.
		return models.ExamAttempt{}, models.Exam{}, ErrAttemptNotFound
	}

	exam, err := s.loadExam(ctx, schoolID, attempt.ExamID)
	if err != nil {
		return models.ExamAttempt{}, models.Exam{}, err
	}

	return attempt, exam, nil
}

func (s *examSessionService) loadExam(ctx context.Context, schoolID, examID uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, schoolID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}
	return exam, nil
}

// ensureLive rejects finalized attempts and lazily expires overdue ones. The
// expiry check runs server-side before every mutation; client timers are
// advisory only.
func (s *examSessionService) ensureLive(ctx context.Context, attempt *models.ExamAttempt, exam models.Exam) error {
	if attempt.Status.IsFinal() {
		if attempt.Status == models.AttemptTimeExpired {
			return ErrTimeExpired
		}
		return ErrAlreadyFinalized
	}
	if attempt.IsExpired(exam, s.now()) {
		if err := s.expire(ctx, attempt); err != nil {
			return err
		}
		return ErrTimeExpired
	}
	return nil
}

func (s *examSessionService) expire(ctx context.Context, attempt *models.ExamAttempt) error {
	if err := attempt.Transition(models.AttemptTimeExpired, s.now()); err != nil {
		return err
	}
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return err
	}
	s.logger.Info().Str("session_id", attempt.SessionID).Msg("attempt expired")
	return nil
}

// questionSet returns the questions served to one attempt: the whole exam set,
// or a random subset seeded by the session token so a resumed attempt always
// sees the same selection.
func (s *examSessionService) questionSet(ctx context.Context, exam models.Exam, sessionID string) ([]models.Question, error) {
	questions, err := s.questions.ListByExam(ctx, exam.SchoolID, exam.ID)
	if err != nil {
		return nil, err
	}

	if exam.QuestionCount <= 0 || exam.QuestionCount >= len(questions) {
		return questions, nil
	}

	hash := fnv.New64a()
	_, _ = hash.Write([]byte(sessionID))
	rng := rand.New(rand.NewSource(int64(hash.Sum64())))

	selected := make([]models.Question, 0, exam.QuestionCount)
	for _, index := range rng.Perm(len(questions))[:exam.QuestionCount] {
		selected = append(selected, questions[index])
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].ID < selected[j].ID })

	return selected, nil
}

// attemptQuestion verifies the question is part of the set served to this attempt.
func (s *examSessionService) attemptQuestion(ctx context.Context, exam models.Exam, sessionID string, questionID uint) (models.Question, error) {
	served, err := s.questionSet(ctx, exam, sessionID)
	if err != nil {
		return models.Question{}, err
	}
	for _, question := range served {
		if question.ID == questionID {
			return question, nil
		}
	}
	return models.Question{}, ErrInvalidQuestionForExam
}

func (s *examSessionService) boundaryTable(ctx context.Context, schoolID uint, setName string) (grading.BoundaryTable, error) {
	return loadBoundaryTable(ctx, s.boundaries, schoolID, setName)
}

// loadBoundaryTable resolves a boundary set name into a validated table,
// falling back to the school default when the exam names no set. Finalize and
// essay review both grade through this so an override can never land on a
// different table than the original pass.
func loadBoundaryTable(ctx context.Context, boundaries repository.BoundaryRepository, schoolID uint, setName string) (grading.BoundaryTable, error) {
	if setName == "" {
		setName = models.DefaultBoundarySet
	}
	rows, err := boundaries.ListSet(ctx, schoolID, setName)
	if err != nil {
		return grading.BoundaryTable{}, err
	}
	return grading.NewBoundaryTable(rows)
}

// rankByMarks is the cohort ranking pass shared by finalize and essay review.
func rankByMarks(results []models.Result) map[uint]int {
	scores := make([]grading.RankedScore, 0, len(results))
	for _, result := range results {
		scores = append(scores, grading.RankedScore{ID: result.ID, Score: result.MarksObtained})
	}

	positions := make(map[uint]int, len(scores))
	for _, entry := range grading.Rank(scores) {
		positions[entry.ID] = entry.Position
	}
	return positions
}
