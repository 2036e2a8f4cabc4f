// Package grading implements the pure scoring rules of the CBT engine: per-type
// answer grading, grade-boundary evaluation, percentage rounding, and cohort
// ranking. It performs no I/O; persistence and transport live elsewhere.
package grading

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/lumina-school/lumina-api/internal/models"
)

// ErrUnknownQuestionType is returned when a question carries an unsupported type.
var ErrUnknownQuestionType = errors.New("unknown question type")

// defaultNumericTolerance is applied when a numerical answer key omits one.
const defaultNumericTolerance = 1e-9

// Outcome is the grading verdict for a single answer.
type Outcome struct {
	IsCorrect     bool
	MarksObtained float64
	// NeedsReview marks answers the engine cannot grade (essays). Marks stay
	// at zero until a human override lands.
	NeedsReview bool
}

// Grade scores a submitted answer payload against the question's answer key.
// Scoring is all-or-nothing: full marks when fully correct, zero otherwise.
func Grade(question models.Question, payload json.RawMessage) (Outcome, error) {
	if !question.Type.Valid() {
		return Outcome{}, ErrUnknownQuestionType
	}

	if question.Type == models.QuestionEssay {
		return Outcome{NeedsReview: true}, nil
	}

	correct, err := matches(question, payload)
	if err != nil {
		// A payload the codec cannot read is a wrong answer, not a server fault.
		return Outcome{}, nil
	}

	if !correct {
		return Outcome{}, nil
	}

	return Outcome{IsCorrect: true, MarksObtained: question.Marks}, nil
}

func matches(question models.Question, payload json.RawMessage) (bool, error) {
	switch question.Type {
	case models.QuestionSingleChoice:
		return matchSingleChoice(question.CorrectAnswer, payload)
	case models.QuestionTrueFalse:
		return matchTrueFalse(question.CorrectAnswer, payload)
	case models.QuestionMultipleChoice:
		return matchMultipleChoice(question.CorrectAnswer, payload)
	case models.QuestionShortAnswer, models.QuestionFillBlank:
		return matchText(question.CorrectAnswer, payload)
	case models.QuestionNumerical:
		return matchNumerical(question.CorrectAnswer, payload)
	case models.QuestionMatching:
		return matchPairs(question.CorrectAnswer, payload)
	case models.QuestionOrdering:
		return matchOrdering(question.CorrectAnswer, payload)
	default:
		return false, ErrUnknownQuestionType
	}
}

func matchSingleChoice(key, payload []byte) (bool, error) {
	var answerKey struct {
		Option string `json:"option"`
	}
	if err := json.Unmarshal(key, &answerKey); err != nil {
		return false, err
	}

	var submitted struct {
		Selected string `json:"selected"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return false, err
	}

	return normalizeToken(submitted.Selected) != "" &&
		normalizeToken(submitted.Selected) == normalizeToken(answerKey.Option), nil
}

func matchTrueFalse(key, payload []byte) (bool, error) {
	var answerKey struct {
		Value bool `json:"value"`
	}
	if err := json.Unmarshal(key, &answerKey); err != nil {
		return false, err
	}

	var submitted struct {
		Value *bool `json:"value"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return false, err
	}
	if submitted.Value == nil {
		return false, nil
	}

	return *submitted.Value == answerKey.Value, nil
}

func matchMultipleChoice(key, payload []byte) (bool, error) {
	var answerKey struct {
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(key, &answerKey); err != nil {
		return false, err
	}

	var submitted struct {
		Selected []string `json:"selected"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return false, err
	}

	// Set equality; no partial credit for a subset.
	want := normalizeSet(answerKey.Options)
	got := normalizeSet(submitted.Selected)
	if len(want) == 0 || len(want) != len(got) {
		return false, nil
	}
	for i := range want {
		if want[i] != got[i] {
			return false, nil
		}
	}
	return true, nil
}

func matchText(key, payload []byte) (bool, error) {
	var answerKey struct {
		Accepted []string `json:"accepted"`
	}
	if err := json.Unmarshal(key, &answerKey); err != nil {
		return false, err
	}

	var submitted struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return false, err
	}

	got := normalizeText(submitted.Text)
	if got == "" {
		return false, nil
	}
	for _, accepted := range answerKey.Accepted {
		if got == normalizeText(accepted) {
			return true, nil
		}
	}
	return false, nil
}

func matchNumerical(key, payload []byte) (bool, error) {
	var answerKey struct {
		Value     float64  `json:"value"`
		Tolerance *float64 `json:"tolerance"`
	}
	if err := json.Unmarshal(key, &answerKey); err != nil {
		return false, err
	}

	var submitted struct {
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return false, err
	}
	if submitted.Value == nil {
		return false, nil
	}

	tolerance := defaultNumericTolerance
	if answerKey.Tolerance != nil && *answerKey.Tolerance > 0 {
		tolerance = *answerKey.Tolerance
	}

	return math.Abs(*submitted.Value-answerKey.Value) <= tolerance, nil
}

func matchPairs(key, payload []byte) (bool, error) {
	var answerKey struct {
		Pairs map[string]string `json:"pairs"`
	}
	if err := json.Unmarshal(key, &answerKey); err != nil {
		return false, err
	}

	var submitted struct {
		Pairs map[string]string `json:"pairs"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return false, err
	}

	// Every pair must match; one miss forfeits the question.
	if len(answerKey.Pairs) == 0 || len(submitted.Pairs) != len(answerKey.Pairs) {
		return false, nil
	}
	for left, right := range answerKey.Pairs {
		if normalizeToken(submitted.Pairs[left]) != normalizeToken(right) {
			return false, nil
		}
	}
	return true, nil
}

func matchOrdering(key, payload []byte) (bool, error) {
	var answerKey struct {
		Order []string `json:"order"`
	}
	if err := json.Unmarshal(key, &answerKey); err != nil {
		return false, err
	}

	var submitted struct {
		Order []string `json:"order"`
	}
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return false, err
	}

	if len(answerKey.Order) == 0 || len(submitted.Order) != len(answerKey.Order) {
		return false, nil
	}
	for i, item := range answerKey.Order {
		if normalizeToken(submitted.Order[i]) != normalizeToken(item) {
			return false, nil
		}
	}
	return true, nil
}

// RoundPercent rounds to two decimal places, half away from zero.
func RoundPercent(value float64) float64 {
	return math.Round(value*100) / 100
}

// Percentage converts obtained/total marks to a rounded percentage. A zero
// total yields zero rather than dividing by it.
func Percentage(obtained, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return RoundPercent(obtained / total * 100)
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

func normalizeSet(values []string) []string {
	seen := map[string]struct{}{}
	for _, value := range values {
		token := normalizeToken(value)
		if token == "" {
			continue
		}
		seen[token] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for token := range seen {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}
