package session

import (
	"context"
	"fmt"
	"time"

	"github.com/teachexamhub/examhub-backend/internal/model"
)

// enterSubmitted captures the submission and returns the function that
// launches the side effect. The caller runs it after releasing s.mu.
func (s *Session) enterSubmitted() func() {
	s.stopTimer()

	captured := s.capture(s.clock.Now())
	s.submission = &captured
	s.phase = PhaseSubmitted
	s.submitting = true
	s.lastErr = nil
	s.attempt++
	attempt := s.attempt
	s.settled = make(chan struct{})

	s.emit(EventPhaseChanged, nil)
	s.emit(EventSubmitting, nil)

	submitter, timeout, run := s.submitter, s.submitTimeout, s.run
	sub := captured
	sub.Answers = captured.Answers.Clone()
	return func() {
		run(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			s.settle(attempt, submitter.Submit(ctx, sub))
		})
	}
}

func (s *Session) settle(attempt uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.attempt || s.phase != PhaseSubmitted {
		return
	}
	s.submitting = false
	close(s.settled)
	s.settled = nil

	if err == nil {
		s.emit(EventSubmitted, nil)
		return
	}

	s.lastErr = fmt.Errorf("submit exam: %w", err)
	s.phase = PhaseConfirmingSubmit
	s.emit(EventPhaseChanged, nil)
	s.emit(EventSubmissionFailed, s.lastErr)
}

// Settled returns a channel closed once the in-flight submission has
// succeeded or failed. It keeps working after Close, which silences events
// but does not abandon a delivery already under way. With nothing in flight
// the channel is already closed.
func (s *Session) Settled() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settled == nil {
		return closedChan
	}
	return s.settled
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// capture builds the immutable submission record. Caller must hold s.mu.
func (s *Session) capture(at time.Time) model.Submission {
	return model.Submission{
		ID:                   s.id,
		ExamID:               s.def.ID,
		Student:              s.student,
		Answers:              s.answers.Clone(),
		StartedAt:            s.startedAt,
		SubmittedAt:          at,
		Forced:               s.forced,
		Progress:             Progress(s.def.Questions, s.answers),
		DurationTakenSeconds: s.def.DurationSeconds - s.remaining,
	}
}
