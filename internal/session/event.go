package session

import (
	"github.com/google/uuid"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

// Phase is the stage of a session.
type Phase string

const (
	PhaseIntro            Phase = "INTRO"
	PhaseInProgress       Phase = "IN_PROGRESS"
	PhaseConfirmingSubmit Phase = "CONFIRMING_SUBMIT"
	PhaseSubmitted        Phase = "SUBMITTED"
)

// EventKind identifies a notification emitted by a session.
type EventKind string

const (
	EventTick             EventKind = "tick"
	EventPhaseChanged     EventKind = "phase_changed"
	EventAnswerChanged    EventKind = "answer_changed"
	EventTimeWarning      EventKind = "warning"
	EventFinalCountdown   EventKind = "final_countdown"
	EventForcedSubmit     EventKind = "forced_submit"
	EventValidationFailed EventKind = "validation_failed"
	EventSubmitting       EventKind = "submitting"
	EventSubmitted        EventKind = "submitted"
	EventSubmissionFailed EventKind = "submission_failed"
)

// Snapshot is a deep copy of the session state at one instant.
type Snapshot struct {
	SessionID        uuid.UUID         `json:"session_id"`
	ExamID           uuid.UUID         `json:"exam_id"`
	Phase            Phase             `json:"phase"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Answers          model.AnswerMap   `json:"answers"`
	Student          model.StudentInfo `json:"student"`
	Progress         int               `json:"progress"`
	Submitting       bool              `json:"submitting"`
	Forced           bool              `json:"forced"`
	LastError        string            `json:"last_error,omitempty"`
}

// Event is delivered to observers in the order transitions happen.
// Err is set for EventValidationFailed and EventSubmissionFailed.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Err      error
}

// Observer receives session events. OnEvent runs while the session is
// locked and must not call back into the session.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
