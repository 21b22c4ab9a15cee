package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

func TestProgress(t *testing.T) {
	questions := testDefinition(60).Questions

	cases := []struct {
		name    string
		answers model.AnswerMap
		want    int
	}{
		{"nil map", nil, 0},
		{"seeded empty", model.AnswerMap{mcq1: model.OptionAnswer{}, mcq2: model.OptionAnswer{}, essay: model.TextAnswer{}}, 0},
		{"one of three", model.AnswerMap{mcq1: model.Selected(0)}, 33},
		{"two of three", model.AnswerMap{mcq1: model.Selected(0), mcq2: model.Selected(1)}, 67},
		{"whitespace text is unanswered", model.AnswerMap{essay: model.TextAnswer{Text: " \n\t "}}, 0},
		{"all answered", model.AnswerMap{mcq1: model.Selected(0), mcq2: model.Selected(3), essay: model.TextAnswer{Text: "Chlorophyll."}}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Progress(questions, tc.answers))
		})
	}
}

func TestProgressWithoutQuestions(t *testing.T) {
	assert.Zero(t, Progress(nil, model.AnswerMap{}))
}
