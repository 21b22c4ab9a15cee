package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	QuestionKindLongAnswer     QuestionKind = "LONG_ANSWER"
)

// Question is one of *MultipleChoice or *LongAnswer.
type Question interface {
	QuestionID() uuid.UUID
	Kind() QuestionKind
	isQuestion()
}

// MultipleChoice is a question answered by picking one option.
type MultipleChoice struct {
	ID      uuid.UUID
	Text    string
	Options []string
}

// LongAnswer is a free-text question graded manually.
type LongAnswer struct {
	ID    uuid.UUID
	Text  string
	Marks int
}

func (q *MultipleChoice) QuestionID() uuid.UUID { return q.ID }
func (q *MultipleChoice) Kind() QuestionKind    { return QuestionKindMultipleChoice }
func (*MultipleChoice) isQuestion()             {}

func (q *LongAnswer) QuestionID() uuid.UUID { return q.ID }
func (q *LongAnswer) Kind() QuestionKind    { return QuestionKindLongAnswer }
func (*LongAnswer) isQuestion()             {}

// questionJSON is the tagged wire form shared by both variants.
type questionJSON struct {
	ID      uuid.UUID    `json:"id"`
	Type    QuestionKind `json:"type"`
	Text    string       `json:"text"`
	Options []string     `json:"options,omitempty"`
	Marks   int          `json:"marks,omitempty"`
}

// Questions is an ordered question list with a tagged JSON encoding.
type Questions []Question

func (qs Questions) MarshalJSON() ([]byte, error) {
	out := make([]questionJSON, 0, len(qs))
	for _, q := range qs {
		switch q := q.(type) {
		case *MultipleChoice:
			out = append(out, questionJSON{ID: q.ID, Type: QuestionKindMultipleChoice, Text: q.Text, Options: q.Options})
		case *LongAnswer:
			out = append(out, questionJSON{ID: q.ID, Type: QuestionKindLongAnswer, Text: q.Text, Marks: q.Marks})
		default:
			return nil, fmt.Errorf("marshal question: unknown variant %T", q)
		}
	}
	return json.Marshal(out)
}

func (qs *Questions) UnmarshalJSON(data []byte) error {
	var raw []questionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	list := make(Questions, 0, len(raw))
	for _, r := range raw {
		switch r.Type {
		case QuestionKindMultipleChoice:
			list = append(list, &MultipleChoice{ID: r.ID, Text: r.Text, Options: r.Options})
		case QuestionKindLongAnswer:
			list = append(list, &LongAnswer{ID: r.ID, Text: r.Text, Marks: r.Marks})
		default:
			return fmt.Errorf("unmarshal question %s: unknown type %q", r.ID, r.Type)
		}
	}
	*qs = list
	return nil
}

// Find returns the question with the given id.
func (qs Questions) Find(id uuid.UUID) (Question, bool) {
	for _, q := range qs {
		if q.QuestionID() == id {
			return q, true
		}
	}
	return nil, false
}

// Counts returns the number of multiple-choice and long-answer questions.
func (qs Questions) Counts() (multipleChoice, longAnswer int) {
	for _, q := range qs {
		switch q.(type) {
		case *MultipleChoice:
			multipleChoice++
		case *LongAnswer:
			longAnswer++
		}
	}
	return multipleChoice, longAnswer
}

// ExamQuestion is a stored question row as the exam author sees it,
// including the correct option.
type ExamQuestion struct {
	ID            uuid.UUID    `json:"id"`
	ExamID        uuid.UUID    `json:"exam_id"`
	Kind          QuestionKind `json:"type"`
	Text          string       `json:"text"`
	Options       []string     `json:"options,omitempty"`
	CorrectOption *int         `json:"correct_option,omitempty"`
	Marks         int          `json:"marks"`
	OrderNum      int          `json:"order_num"`
}

// ForStudent strips the correct option and converts the row to its variant.
func (q ExamQuestion) ForStudent() Question {
	switch q.Kind {
	case QuestionKindMultipleChoice:
		return &MultipleChoice{ID: q.ID, Text: q.Text, Options: q.Options}
	default:
		return &LongAnswer{ID: q.ID, Text: q.Text, Marks: q.Marks}
	}
}
