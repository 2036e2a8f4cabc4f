package grading

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumina-school/lumina-api/internal/models"
)

func TestValidateAnswerKeyAcceptsMatchingShapes(t *testing.T) {
	cases := map[models.QuestionType]string{
		models.QuestionSingleChoice:   `{"option":"a"}`,
		models.QuestionTrueFalse:      `{"value":false}`,
		models.QuestionMultipleChoice: `{"options":["a","c"]}`,
		models.QuestionShortAnswer:    `{"accepted":["mitosis"]}`,
		models.QuestionFillBlank:      `{"accepted":["42"]}`,
		models.QuestionNumerical:      `{"value":9.81,"tolerance":0.05}`,
		models.QuestionMatching:       `{"pairs":{"h2o":"water"}}`,
		models.QuestionOrdering:       `{"order":["first","second"]}`,
		models.QuestionEssay:          `{"guidance":"argue both sides"}`,
	}

	for qType, key := range cases {
		require.NoError(t, ValidateAnswerKey(qType, []byte(key)), "type %s", qType)
	}
}

func TestValidateAnswerKeyRejectsMismatchedShapes(t *testing.T) {
	cases := map[models.QuestionType]string{
		models.QuestionSingleChoice:   `{"options":["a"]}`,
		models.QuestionTrueFalse:      `{"value":"yes"}`,
		models.QuestionMultipleChoice: `{"options":[]}`,
		models.QuestionShortAnswer:    `{"accepted":"mitosis"}`,
		models.QuestionNumerical:      `{"value":"nine"}`,
		models.QuestionMatching:       `{"pairs":{}}`,
		models.QuestionOrdering:       `{"order":["only-one"]}`,
	}

	for qType, key := range cases {
		err := ValidateAnswerKey(qType, []byte(key))
		require.ErrorIs(t, err, ErrAnswerKeyShape, "type %s", qType)
	}
}

func TestValidateAnswerKeyEmptyDocuments(t *testing.T) {
	require.NoError(t, ValidateAnswerKey(models.QuestionEssay, nil))
	require.ErrorIs(t, ValidateAnswerKey(models.QuestionSingleChoice, nil), ErrAnswerKeyShape)
	require.ErrorIs(t, ValidateAnswerKey(models.QuestionSingleChoice, []byte(`{"option":`)), ErrAnswerKeyShape)
}

func TestValidateAnswerKeyUnknownType(t *testing.T) {
	require.ErrorIs(t, ValidateAnswerKey(models.QuestionType("puzzle"), []byte(`{}`)), ErrUnknownQuestionType)
}
