package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

func TestTranslateErrorsFlattensNestedDraftErrors(t *testing.T) {
	draft := model.ExamDraft{
		Title:           "Biology Midterm",
		DurationMinutes: 60,
		Questions: []model.QuestionDraft{
			{Type: model.QuestionKindMultipleChoice, Text: "Pick one", Options: []string{"A"}},
			{Type: model.QuestionKindLongAnswer, Text: "Explain"},
		},
	}

	fields := TranslateErrors(draft.Validate())

	assert.Contains(t, fields, "questions.0.options")
	assert.Contains(t, fields, "questions.0.correct_option")
	assert.Contains(t, fields, "questions.1.marks")
}

func TestTranslateErrorsFallsBackToDetail(t *testing.T) {
	fields := TranslateErrors(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"detail": "unexpected EOF"}, fields)
}
