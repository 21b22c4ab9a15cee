package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Answer is one of OptionAnswer or TextAnswer.
type Answer interface {
	isAnswer()
}

// OptionAnswer is the selected option of a multiple-choice question.
// A nil Index means nothing is selected.
type OptionAnswer struct {
	Index *int
}

// TextAnswer is the response to a long-answer question.
type TextAnswer struct {
	Text string
}

func (OptionAnswer) isAnswer() {}
func (TextAnswer) isAnswer()   {}

// Selected returns an OptionAnswer for index i.
func Selected(i int) OptionAnswer {
	return OptionAnswer{Index: &i}
}

// IsAnswered reports whether a counts toward progress: an option is set,
// or the text is non-empty after trimming whitespace.
func IsAnswered(a Answer) bool {
	switch a := a.(type) {
	case OptionAnswer:
		return a.Index != nil
	case TextAnswer:
		return strings.TrimSpace(a.Text) != ""
	default:
		return false
	}
}

// EmptyAnswerFor returns the unanswered value matching q's variant.
func EmptyAnswerFor(q Question) Answer {
	switch q.(type) {
	case *MultipleChoice:
		return OptionAnswer{}
	case *LongAnswer:
		return TextAnswer{}
	default:
		panic(fmt.Sprintf("empty answer: unknown question variant %T", q))
	}
}

// AnswerMap holds one answer per question id.
type AnswerMap map[uuid.UUID]Answer

// Clone returns a deep copy.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for id, a := range m {
		switch a := a.(type) {
		case OptionAnswer:
			if a.Index != nil {
				out[id] = Selected(*a.Index)
			} else {
				out[id] = OptionAnswer{}
			}
		default:
			out[id] = a
		}
	}
	return out
}

type answerJSON struct {
	Type   QuestionKind `json:"type"`
	Option *int         `json:"option"`
	Text   *string      `json:"text,omitempty"`
}

func (m AnswerMap) MarshalJSON() ([]byte, error) {
	out := make(map[uuid.UUID]answerJSON, len(m))
	for id, a := range m {
		switch a := a.(type) {
		case OptionAnswer:
			out[id] = answerJSON{Type: QuestionKindMultipleChoice, Option: a.Index}
		case TextAnswer:
			text := a.Text
			out[id] = answerJSON{Type: QuestionKindLongAnswer, Text: &text}
		default:
			return nil, fmt.Errorf("marshal answer %s: unknown variant %T", id, a)
		}
	}
	return json.Marshal(out)
}

func (m *AnswerMap) UnmarshalJSON(data []byte) error {
	var raw map[uuid.UUID]answerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(AnswerMap, len(raw))
	for id, r := range raw {
		switch r.Type {
		case QuestionKindMultipleChoice:
			out[id] = OptionAnswer{Index: r.Option}
		case QuestionKindLongAnswer:
			var text string
			if r.Text != nil {
				text = *r.Text
			}
			out[id] = TextAnswer{Text: text}
		default:
			return fmt.Errorf("unmarshal answer %s: unknown type %q", id, r.Type)
		}
	}
	*m = out
	return nil
}
