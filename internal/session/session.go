// Package session implements one student's timed attempt at an exam.
//
// A Session moves through Intro, InProgress, ConfirmingSubmit and
// Submitted. All operations, timer callbacks and submission completions
// are serialized on the session's mutex, and observers are notified in
// transition order while it is held.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teachexamhub/examhub-backend/internal/clock"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

// Submitter hands a captured submission to persistence.
type Submitter interface {
	Submit(ctx context.Context, sub model.Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub model.Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, sub model.Submission) error { return f(ctx, sub) }

const (
	DefaultWarningSeconds        = 300
	DefaultFinalCountdownSeconds = 10
	defaultSubmitTimeout         = 15 * time.Second
)

// Option configures a Session.
type Option func(*Session)

// WithID sets the session identifier instead of a random one.
func WithID(id uuid.UUID) Option {
	return func(s *Session) { s.id = id }
}

// WithClock sets the clock driving the countdown.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithSubmitter sets where finished attempts are delivered.
func WithSubmitter(sub Submitter) Option {
	return func(s *Session) { s.submitter = sub }
}

// WithObserver adds an observer. Observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// WithRunner replaces how the asynchronous submission is launched.
// The default starts a goroutine.
func WithRunner(run func(func())) Option {
	return func(s *Session) { s.run = run }
}

// WithThresholds sets the remaining-seconds marks for the one-time time
// warning and final countdown notifications.
func WithThresholds(warning, finalCountdown int) Option {
	return func(s *Session) {
		s.warningAt = warning
		s.finalAt = finalCountdown
	}
}

// WithSubmitTimeout bounds each delivery attempt.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Session) { s.submitTimeout = d }
}

// Session is a single student's attempt. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id            uuid.UUID
	def           *model.ExamDefinition
	clock         clock.Clock
	submitter     Submitter
	observers     []Observer
	run           func(func())
	warningAt     int
	finalAt       int
	submitTimeout time.Duration

	phase      Phase
	remaining  int
	answers    model.AnswerMap
	student    model.StudentInfo
	startedAt  time.Time
	forced     bool
	submitting bool
	lastErr    error
	submission *model.Submission
	attempt    uint64
	settled    chan struct{}
	closed     bool

	warned        bool
	finalNotified bool

	timer    clock.Timer
	timerGen uint64
	nextTick time.Time
}

// New returns a session in the Intro phase for def.
func New(def *model.ExamDefinition, opts ...Option) (*Session, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	if def.DurationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidDefinition)
	}

	s := &Session{
		id:            uuid.New(),
		def:           def,
		clock:         clock.New(),
		submitter:     SubmitterFunc(func(context.Context, model.Submission) error { return nil }),
		run:           func(f func()) { go f() },
		warningAt:     DefaultWarningSeconds,
		finalAt:       DefaultFinalCountdownSeconds,
		submitTimeout: defaultSubmitTimeout,
		phase:         PhaseIntro,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Definition returns the exam being taken.
func (s *Session) Definition() *model.ExamDefinition { return s.def }

// Start validates the student's details and begins the exam.
func (s *Session) Start(info model.StudentInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(PhaseIntro); err != nil {
		return err
	}

	info = model.StudentInfo{
		Name:      strings.TrimSpace(info.Name),
		Email:     strings.TrimSpace(info.Email),
		StudentID: strings.TrimSpace(info.StudentID),
	}
	if err := info.Validate(); err != nil {
		err = fmt.Errorf("%w: %w", ErrValidation, err)
		s.emit(EventValidationFailed, err)
		return err
	}

	s.student = info
	s.remaining = s.def.DurationSeconds
	s.answers = make(model.AnswerMap, len(s.def.Questions))
	for _, q := range s.def.Questions {
		s.answers[q.QuestionID()] = model.EmptyAnswerFor(q)
	}
	s.startedAt = s.clock.Now()
	s.phase = PhaseInProgress
	s.emit(EventPhaseChanged, nil)
	s.startTimer()
	return nil
}

// AnswerOption selects option index for a multiple-choice question.
func (s *Session) AnswerOption(questionID uuid.UUID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.answerable(questionID)
	if err != nil {
		return err
	}
	mc, ok := q.(*model.MultipleChoice)
	if !ok {
		return fmt.Errorf("%w: %s is %s", ErrWrongAnswerType, questionID, q.Kind())
	}
	if index < 0 || index >= len(mc.Options) {
		return fmt.Errorf("%w: %d of %d", ErrOptionOutOfRange, index, len(mc.Options))
	}

	s.answers[questionID] = model.Selected(index)
	s.emit(EventAnswerChanged, nil)
	return nil
}

// AnswerText replaces the text of a long-answer question.
func (s *Session) AnswerText(questionID uuid.UUID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.answerable(questionID)
	if err != nil {
		return err
	}
	if _, ok := q.(*model.LongAnswer); !ok {
		return fmt.Errorf("%w: %s is %s", ErrWrongAnswerType, questionID, q.Kind())
	}

	s.answers[questionID] = model.TextAnswer{Text: text}
	s.emit(EventAnswerChanged, nil)
	return nil
}

// ClearAnswer resets a question to its unanswered value.
func (s *Session) ClearAnswer(questionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.answerable(questionID)
	if err != nil {
		return err
	}

	s.answers[questionID] = model.EmptyAnswerFor(q)
	s.emit(EventAnswerChanged, nil)
	return nil
}

// RequestSubmit pauses the exam and asks the student to confirm.
func (s *Session) RequestSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(PhaseInProgress); err != nil {
		return err
	}

	s.stopTimer()
	s.lastErr = nil
	s.phase = PhaseConfirmingSubmit
	s.emit(EventPhaseChanged, nil)
	return nil
}

// Cancel returns from the confirmation step to the exam. The countdown
// resumes from the remaining seconds.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.require(PhaseConfirmingSubmit); err != nil {
		return err
	}
	if s.forced {
		return ErrForcedSubmission
	}

	s.lastErr = nil
	s.phase = PhaseInProgress
	s.emit(EventPhaseChanged, nil)
	s.startTimer()
	return nil
}

// Confirm submits the exam. After a failed submission it retries.
func (s *Session) Confirm() error {
	s.mu.Lock()
	if err := s.require(PhaseConfirmingSubmit); err != nil {
		s.mu.Unlock()
		return err
	}
	submit := s.enterSubmitted()
	s.mu.Unlock()

	submit()
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Submission returns the most recently captured submission, if any.
func (s *Session) Submission() (model.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submission == nil {
		return model.Submission{}, false
	}
	sub := *s.submission
	sub.Answers = sub.Answers.Clone()
	return sub, true
}

// Close stops the timer. Every later operation returns ErrClosed and no
// further events are delivered. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.stopTimer()
	s.closed = true
	return nil
}

// require checks the session is open and in phase. Caller must hold s.mu.
func (s *Session) require(phase Phase) error {
	if s.closed {
		return ErrClosed
	}
	if s.phase != phase {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, s.phase)
	}
	return nil
}

// answerable resolves a question that may be answered now. Caller must hold s.mu.
func (s *Session) answerable(questionID uuid.UUID) (model.Question, error) {
	if err := s.require(PhaseInProgress); err != nil {
		return nil, err
	}
	q, ok := s.def.Questions.Find(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	return q, nil
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:        s.id,
		ExamID:           s.def.ID,
		Phase:            s.phase,
		RemainingSeconds: s.remaining,
		Answers:          s.answers.Clone(),
		Student:          s.student,
		Progress:         Progress(s.def.Questions, s.answers),
		Submitting:       s.submitting,
		Forced:           s.forced,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// emit notifies observers. Caller must hold s.mu.
func (s *Session) emit(kind EventKind, err error) {
	if s.closed || len(s.observers) == 0 {
		return
	}
	ev := Event{Kind: kind, Snapshot: s.snapshot(), Err: err}
	for _, o := range s.observers {
		o.OnEvent(ev)
	}
}
