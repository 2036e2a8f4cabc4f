package grading

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lumina-school/lumina-api/internal/models"
)

// ErrAnswerKeyShape is returned when a correct-answer document does not match
// the schema for its question type.
var ErrAnswerKeyShape = fmt.Errorf("answer key shape does not match question type")

var answerKeySchemas = map[models.QuestionType]*jsonschema.Schema{
	models.QuestionSingleChoice: mustCompile("single_choice", `{
		"type": "object",
		"required": ["option"],
		"properties": {"option": {"type": "string", "minLength": 1}},
		"additionalProperties": false
	}`),
	models.QuestionTrueFalse: mustCompile("true_false", `{
		"type": "object",
		"required": ["value"],
		"properties": {"value": {"type": "boolean"}},
		"additionalProperties": false
	}`),
	models.QuestionMultipleChoice: mustCompile("multiple_choice", `{
		"type": "object",
		"required": ["options"],
		"properties": {
			"options": {"type": "array", "minItems": 1, "uniqueItems": true, "items": {"type": "string", "minLength": 1}}
		},
		"additionalProperties": false
	}`),
	models.QuestionShortAnswer: mustCompile("short_answer", `{
		"type": "object",
		"required": ["accepted"],
		"properties": {
			"accepted": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
		},
		"additionalProperties": false
	}`),
	models.QuestionFillBlank: mustCompile("fill_blank", `{
		"type": "object",
		"required": ["accepted"],
		"properties": {
			"accepted": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
		},
		"additionalProperties": false
	}`),
	models.QuestionNumerical: mustCompile("numerical", `{
		"type": "object",
		"required": ["value"],
		"properties": {
			"value": {"type": "number"},
			"tolerance": {"type": "number", "minimum": 0}
		},
		"additionalProperties": false
	}`),
	models.QuestionMatching: mustCompile("matching", `{
		"type": "object",
		"required": ["pairs"],
		"properties": {
			"pairs": {"type": "object", "minProperties": 1, "additionalProperties": {"type": "string", "minLength": 1}}
		},
		"additionalProperties": false
	}`),
	models.QuestionOrdering: mustCompile("ordering", `{
		"type": "object",
		"required": ["order"],
		"properties": {
			"order": {"type": "array", "minItems": 2, "uniqueItems": true, "items": {"type": "string", "minLength": 1}}
		},
		"additionalProperties": false
	}`),
	models.QuestionEssay: mustCompile("essay", `{
		"type": "object",
		"properties": {"guidance": {"type": "string"}},
		"additionalProperties": false
	}`),
}

func mustCompile(name, schema string) *jsonschema.Schema {
	return jsonschema.MustCompileString("lumina://answer-key/"+name+".json", schema)
}

// ValidateAnswerKey checks that a correct-answer document has the shape the
// question type requires. Essays accept an empty document.
func ValidateAnswerKey(questionType models.QuestionType, answerKey []byte) error {
	schema, ok := answerKeySchemas[questionType]
	if !ok {
		return ErrUnknownQuestionType
	}

	if len(answerKey) == 0 {
		if questionType == models.QuestionEssay {
			return nil
		}
		return fmt.Errorf("%w: %s requires an answer key", ErrAnswerKeyShape, questionType)
	}

	var doc interface{}
	if err := json.Unmarshal(answerKey, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrAnswerKeyShape, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrAnswerKeyShape, err)
	}
	return nil
}
