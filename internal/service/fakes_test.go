package service

import (
	"context"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumina-school/lumina-api/internal/events"
	"github.com/lumina-school/lumina-api/internal/models"
	"github.com/lumina-school/lumina-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func testValidator() StructValidator {
	return validator.New()
}

func boolPtr(v bool) *bool { return &v }

type fakeExamRepo struct {
	exams       map[uint]models.Exam
	hasAttempts bool
}

func newFakeExamRepo(exams ...models.Exam) *fakeExamRepo {
	repo := &fakeExamRepo{exams: map[uint]models.Exam{}}
	for _, exam := range exams {
		repo.exams[exam.ID] = exam
	}
	return repo
}

func (r *fakeExamRepo) List(_ context.Context, schoolID uint, _ repository.ExamFilter) ([]models.Exam, error) {
	var out []models.Exam
	for _, exam := range r.exams {
		if exam.SchoolID == schoolID {
			out = append(out, exam)
		}
	}
	return out, nil
}

func (r *fakeExamRepo) GetByID(_ context.Context, schoolID, id uint) (models.Exam, error) {
	exam, ok := r.exams[id]
	if !ok || exam.SchoolID != schoolID {
		return models.Exam{}, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (r *fakeExamRepo) Create(_ context.Context, exam *models.Exam) error {
	exam.ID = uint(len(r.exams) + 1)
	r.exams[exam.ID] = *exam
	return nil
}

func (r *fakeExamRepo) Update(_ context.Context, exam *models.Exam) error {
	r.exams[exam.ID] = *exam
	return nil
}

func (r *fakeExamRepo) HasAttempts(context.Context, uint, uint) (bool, error) {
	return r.hasAttempts, nil
}

type fakeQuestionRepo struct {
	questions []models.Question
	nextID    uint
}

func newFakeQuestionRepo(questions ...models.Question) *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: questions, nextID: 1000}
}

func (r *fakeQuestionRepo) ListByExam(_ context.Context, schoolID, examID uint) ([]models.Question, error) {
	var out []models.Question
	for _, question := range r.questions {
		if question.SchoolID == schoolID && question.ExamID != nil && *question.ExamID == examID {
			out = append(out, question)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) ListBank(_ context.Context, schoolID uint) ([]models.Question, error) {
	var out []models.Question
	for _, question := range r.questions {
		if question.SchoolID == schoolID && question.ExamID == nil {
			out = append(out, question)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) GetByID(_ context.Context, schoolID, id uint) (models.Question, error) {
	for _, question := range r.questions {
		if question.ID == id && question.SchoolID == schoolID {
			return question, nil
		}
	}
	return models.Question{}, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) Create(_ context.Context, question *models.Question) error {
	r.nextID++
	question.ID = r.nextID
	r.questions = append(r.questions, *question)
	return nil
}

func (r *fakeQuestionRepo) Update(_ context.Context, question *models.Question) error {
	for i := range r.questions {
		if r.questions[i].ID == question.ID {
			r.questions[i] = *question
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) Delete(_ context.Context, schoolID, id uint) error {
	for i := range r.questions {
		if r.questions[i].ID == id && r.questions[i].SchoolID == schoolID {
			r.questions = append(r.questions[:i], r.questions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []models.ExamAttempt
	nextID   uint
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{}
}

func (r *fakeAttemptRepo) CreateIfAbsent(_ context.Context, attempt *models.ExamAttempt) (models.ExamAttempt, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.attempts {
		if existing.SchoolID == attempt.SchoolID &&
			existing.ExamID == attempt.ExamID &&
			existing.StudentID == attempt.StudentID &&
			existing.Active != nil && *existing.Active {
			return existing, false, nil
		}
	}
	r.nextID++
	attempt.ID = r.nextID
	r.attempts = append(r.attempts, *attempt)
	return *attempt, true, nil
}

func (r *fakeAttemptRepo) GetBySessionID(_ context.Context, schoolID uint, sessionID string) (models.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, attempt := range r.attempts {
		if attempt.SchoolID == schoolID && attempt.SessionID == sessionID {
			return attempt, nil
		}
	}
	return models.ExamAttempt{}, gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) GetActive(_ context.Context, schoolID, examID, studentID uint) (models.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, attempt := range r.attempts {
		if attempt.SchoolID == schoolID && attempt.ExamID == examID &&
			attempt.StudentID == studentID && attempt.Active != nil && *attempt.Active {
			return attempt, nil
		}
	}
	return models.ExamAttempt{}, gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) Update(_ context.Context, attempt *models.ExamAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.attempts {
		if r.attempts[i].ID == attempt.ID {
			r.attempts[i] = *attempt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) ListByExam(_ context.Context, schoolID, examID uint) ([]models.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ExamAttempt
	for _, attempt := range r.attempts {
		if attempt.SchoolID == schoolID && attempt.ExamID == examID {
			out = append(out, attempt)
		}
	}
	return out, nil
}

type answerKey struct {
	attemptID  uint
	questionID uint
}

type fakeAnswerRepo struct {
	answers   map[answerKey]models.Answer
	questions *fakeQuestionRepo
	nextID    uint
}

func newFakeAnswerRepo(questions *fakeQuestionRepo) *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: map[answerKey]models.Answer{}, questions: questions}
}

func (r *fakeAnswerRepo) Upsert(_ context.Context, answer *models.Answer) error {
	key := answerKey{attemptID: answer.AttemptID, questionID: answer.QuestionID}
	if existing, ok := r.answers[key]; ok {
		answer.ID = existing.ID
	} else {
		r.nextID++
		answer.ID = r.nextID
	}
	r.answers[key] = *answer
	return nil
}

func (r *fakeAnswerRepo) GetByAttemptAndQuestion(_ context.Context, attemptID, questionID uint) (models.Answer, error) {
	answer, ok := r.answers[answerKey{attemptID: attemptID, questionID: questionID}]
	if !ok {
		return models.Answer{}, gorm.ErrRecordNotFound
	}
	return answer, nil
}

func (r *fakeAnswerRepo) ListByAttempt(_ context.Context, attemptID uint) ([]models.Answer, error) {
	var out []models.Answer
	for key, answer := range r.answers {
		if key.attemptID != attemptID {
			continue
		}
		if r.questions != nil {
			for _, question := range r.questions.questions {
				if question.ID == answer.QuestionID {
					answer.Question = question
					break
				}
			}
		}
		out = append(out, answer)
	}
	return out, nil
}

func (r *fakeAnswerRepo) UpdateGrading(_ context.Context, answer *models.Answer) error {
	for key, existing := range r.answers {
		if existing.ID == answer.ID {
			existing.IsCorrect = answer.IsCorrect
			existing.MarksObtained = answer.MarksObtained
			existing.NeedsReview = answer.NeedsReview
			r.answers[key] = existing
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeResultRepo struct {
	results map[uint]models.Result
	nextID  uint
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: map[uint]models.Result{}}
}

func (r *fakeResultRepo) UpsertAndRerank(_ context.Context, result *models.Result, rank repository.RankFunc) error {
	for id, existing := range r.results {
		if existing.SchoolID == result.SchoolID && existing.ExamID == result.ExamID &&
			existing.StudentID == result.StudentID && existing.SubjectID == result.SubjectID {
			result.ID = id
		}
	}
	if result.ID == 0 {
		r.nextID++
		result.ID = r.nextID
	}
	r.results[result.ID] = *result

	var cohort []models.Result
	for _, existing := range r.results {
		if existing.SchoolID == result.SchoolID && existing.ExamID == result.ExamID {
			cohort = append(cohort, existing)
		}
	}
	for id, position := range rank(cohort) {
		entry := r.results[id]
		entry.Position = position
		r.results[id] = entry
	}
	return nil
}

func (r *fakeResultRepo) ListByExam(_ context.Context, schoolID, examID uint) ([]models.Result, error) {
	var out []models.Result
	for _, result := range r.results {
		if result.SchoolID == schoolID && result.ExamID == examID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) ListPublishedByExam(_ context.Context, schoolID, examID uint) ([]models.Result, error) {
	var out []models.Result
	for _, result := range r.results {
		if result.SchoolID == schoolID && result.ExamID == examID && result.IsPublished {
			out = append(out, result)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) GetByExamAndStudent(_ context.Context, schoolID, examID, studentID uint) (models.Result, error) {
	for _, result := range r.results {
		if result.SchoolID == schoolID && result.ExamID == examID && result.StudentID == studentID {
			return result, nil
		}
	}
	return models.Result{}, gorm.ErrRecordNotFound
}

func (r *fakeResultRepo) SetPublished(_ context.Context, schoolID, examID uint, published bool) error {
	for id, result := range r.results {
		if result.SchoolID == schoolID && result.ExamID == examID {
			result.IsPublished = published
			r.results[id] = result
		}
	}
	return nil
}

type fakeEnrollmentRepo struct {
	enrolled map[uint]bool
}

func newFakeEnrollmentRepo(studentIDs ...uint) *fakeEnrollmentRepo {
	repo := &fakeEnrollmentRepo{enrolled: map[uint]bool{}}
	for _, id := range studentIDs {
		repo.enrolled[id] = true
	}
	return repo
}

func (r *fakeEnrollmentRepo) IsEnrolled(_ context.Context, _, studentID uint, _ models.Exam) (bool, error) {
	return r.enrolled[studentID], nil
}

func (r *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	r.enrolled[enrollment.StudentID] = true
	return nil
}

type fakeBoundaryRepo struct {
	sets map[string][]models.GradeBoundary
}

func newFakeBoundaryRepo() *fakeBoundaryRepo {
	return &fakeBoundaryRepo{sets: map[string][]models.GradeBoundary{
		models.DefaultBoundarySet: {
			{MinPercent: 0, MaxPercent: 40, Label: "F", Remarks: "Fail"},
			{MinPercent: 40, MaxPercent: 55, Label: "C", Remarks: "Credit"},
			{MinPercent: 55, MaxPercent: 70, Label: "B", Remarks: "Good"},
			{MinPercent: 70, MaxPercent: 100, Label: "A", Remarks: "Excellent"},
		},
	}}
}

func (r *fakeBoundaryRepo) ListSet(_ context.Context, _ uint, setName string) ([]models.GradeBoundary, error) {
	return r.sets[setName], nil
}

func (r *fakeBoundaryRepo) ReplaceSet(_ context.Context, _ uint, setName string, rows []models.GradeBoundary) error {
	r.sets[setName] = rows
	return nil
}

type capturingPublisher struct {
	events []events.ResultFinalized
}

func (p *capturingPublisher) ResultFinalized(_ context.Context, event events.ResultFinalized) error {
	p.events = append(p.events, event)
	return nil
}

type capturingInvalidator struct {
	calls int
}

func (i *capturingInvalidator) Invalidate(context.Context, uint, uint) {
	i.calls++
}
