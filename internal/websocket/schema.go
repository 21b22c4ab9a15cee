package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/teachexamhub/examhub-backend/internal/response"
	"github.com/tidwall/gjson"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart   Action = "start"
	ActionAnswer  Action = "answer"
	ActionClear   Action = "clear"
	ActionSubmit  Action = "submit"
	ActionCancel  Action = "cancel"
	ActionConfirm Action = "confirm"
	ActionState   Action = "state"
	ActionPing    Action = "ping"
)

var (
	ErrMalformed     = errors.New("message is not valid JSON")
	ErrMissingAction = errors.New("action is required")
	ErrMissingQID    = errors.New("q_id is required")
	ErrInvalidQID    = errors.New("q_id must be a UUID")
	ErrAnswerValue   = errors.New("answer needs exactly one of option or text")
)

// PeekAction reads the action of a raw client message without decoding the rest.
func PeekAction(raw []byte) (Action, error) {
	if !gjson.ValidBytes(raw) {
		return "", ErrMalformed
	}
	action := gjson.GetBytes(raw, "action")
	if action.Type != gjson.String || action.Str == "" {
		return "", ErrMissingAction
	}
	return Action(action.Str), nil
}

// StartRequest carries the student details entered on the intro screen.
type StartRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
}

// DecodeStart parses a start action.
func DecodeStart(raw []byte) (StartRequest, error) {
	var req StartRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, ErrMalformed
	}
	return req, nil
}

// AnswerRequest sets the answer of one question. Exactly one of Option
// and Text is non-nil.
type AnswerRequest struct {
	QuestionID uuid.UUID
	Option     *int
	Text       *string
}

// DecodeAnswer parses an answer action: {"q_id": ..., "option": 2} for a
// multiple-choice question or {"q_id": ..., "text": "..."} for a long answer.
func DecodeAnswer(raw []byte) (AnswerRequest, error) {
	var req AnswerRequest
	qid, err := decodeQID(raw)
	if err != nil {
		return req, err
	}
	req.QuestionID = qid

	option := gjson.GetBytes(raw, "option")
	text := gjson.GetBytes(raw, "text")
	switch {
	case option.Exists() && text.Exists():
		return req, ErrAnswerValue
	case option.Exists():
		if option.Type != gjson.Number || option.Num != float64(int(option.Num)) {
			return req, fmt.Errorf("%w: option must be an integer", ErrAnswerValue)
		}
		idx := int(option.Int())
		req.Option = &idx
	case text.Exists():
		if text.Type != gjson.String {
			return req, fmt.Errorf("%w: text must be a string", ErrAnswerValue)
		}
		s := text.Str
		req.Text = &s
	default:
		return req, ErrAnswerValue
	}
	return req, nil
}

// DecodeClear parses a clear action and returns its question id.
func DecodeClear(raw []byte) (uuid.UUID, error) {
	return decodeQID(raw)
}

func decodeQID(raw []byte) (uuid.UUID, error) {
	qid := gjson.GetBytes(raw, "q_id")
	if !qid.Exists() || qid.String() == "" {
		return uuid.Nil, ErrMissingQID
	}
	id, err := uuid.Parse(qid.String())
	if err != nil {
		return uuid.Nil, ErrInvalidQID
	}
	return id, nil
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventExam             Event = "exam"
	EventState            Event = "state"
	EventTick             Event = "tick"
	EventWarning          Event = "warning"
	EventFinalCountdown   Event = "final_countdown"
	EventForcedSubmit     Event = "forced_submit"
	EventValidationError  Event = "validation_error"
	EventSubmitting       Event = "submitting"
	EventSubmitted        Event = "submitted"
	EventSubmissionFailed Event = "submission_failed"
	EventError            Event = "error"
	EventPong             Event = "pong"
)

// Message is a server event with an optional payload.
type Message struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// TickData is the payload of a tick event.
type TickData struct {
	RemainingSeconds int `json:"remaining_seconds"`
	Progress         int `json:"progress"`
}

// ErrorResponse reports a failed action or a failed submission.
type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   response.ErrCode  `json:"code"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Data   interface{}       `json:"data,omitempty"`
}
