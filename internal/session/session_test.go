package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachexamhub/examhub-backend/internal/clock"
	"github.com/teachexamhub/examhub-backend/internal/model"
)

var (
	examID = uuid.MustParse("6f1c2a34-0a7e-4c55-9a55-2d7f3b0c1e01")
	mcq1   = uuid.MustParse("0b6b3f1e-1111-4c55-9a55-2d7f3b0c1e01")
	mcq2   = uuid.MustParse("0b6b3f1e-2222-4c55-9a55-2d7f3b0c1e01")
	essay  = uuid.MustParse("0b6b3f1e-3333-4c55-9a55-2d7f3b0c1e01")

	epoch   = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	student = model.StudentInfo{Name: "Ada Lovelace", Email: "ada@school.edu", StudentID: "S-42"}
)

func testDefinition(durationSeconds int) *model.ExamDefinition {
	return &model.ExamDefinition{
		ID:              examID,
		Title:           "Biology Midterm",
		Institute:       "Springfield High",
		TeacherName:     "Ms. Frizzle",
		DurationSeconds: durationSeconds,
		Questions: model.Questions{
			&model.MultipleChoice{ID: mcq1, Text: "Powerhouse of the cell?", Options: []string{"Nucleus", "Mitochondria", "Ribosome", "Golgi"}},
			&model.MultipleChoice{ID: mcq2, Text: "DNA stands for?", Options: []string{"A", "B", "C", "D"}},
			&model.LongAnswer{ID: essay, Text: "Explain photosynthesis.", Marks: 5},
		},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Phase
	for _, e := range r.events {
		if e.Kind == EventPhaseChanged {
			out = append(out, e.Snapshot.Phase)
		}
	}
	return out
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []model.Submission
	fail  []error
}

func (f *fakeSubmitter) Submit(_ context.Context, sub model.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub)
	if len(f.fail) > 0 {
		err := f.fail[0]
		f.fail = f.fail[1:]
		return err
	}
	return nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	s   *Session
	clk *clock.Fake
	rec *recorder
	sub *fakeSubmitter
}

func newHarness(t *testing.T, durationSeconds int, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clk: clock.NewFake(epoch),
		rec: &recorder{},
		sub: &fakeSubmitter{},
	}
	base := []Option{
		WithClock(h.clk),
		WithObserver(h.rec),
		WithSubmitter(h.sub),
		WithRunner(func(f func()) { f() }),
	}
	s, err := New(testDefinition(durationSeconds), append(base, opts...)...)
	require.NoError(t, err)
	h.s = s
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.s.Start(student))
}

func TestNewRejectsInvalidDefinition(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = New(testDefinition(0))
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestStartRequiresNameAndEmail(t *testing.T) {
	cases := []struct {
		name string
		info model.StudentInfo
	}{
		{"missing name", model.StudentInfo{Email: "ada@school.edu"}},
		{"blank name", model.StudentInfo{Name: "   ", Email: "ada@school.edu"}},
		{"missing email", model.StudentInfo{Name: "Ada"}},
		{"malformed email", model.StudentInfo{Name: "Ada", Email: "not-an-email"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, 60)

			err := h.s.Start(tc.info)

			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, PhaseIntro, h.s.Snapshot().Phase)
			assert.Equal(t, 1, h.rec.count(EventValidationFailed))
			assert.Zero(t, h.clk.Pending(), "no timer may run before the exam starts")
		})
	}
}

func TestStartSeedsAnswersAndTimer(t *testing.T) {
	h := newHarness(t, 60)

	require.NoError(t, h.s.Start(model.StudentInfo{Name: " Ada ", Email: "ada@school.edu"}))

	snap := h.s.Snapshot()
	assert.Equal(t, PhaseInProgress, snap.Phase)
	assert.Equal(t, 60, snap.RemainingSeconds)
	assert.Equal(t, "Ada", snap.Student.Name)
	require.Len(t, snap.Answers, 3)
	assert.Equal(t, model.OptionAnswer{}, snap.Answers[mcq1])
	assert.Equal(t, model.OptionAnswer{}, snap.Answers[mcq2])
	assert.Equal(t, model.TextAnswer{}, snap.Answers[essay])
	assert.Zero(t, snap.Progress)
	assert.Equal(t, 1, h.clk.Pending())

	err := h.s.Start(student)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTimerTicksOncePerSecond(t *testing.T) {
	h := newHarness(t, 60)
	h.start(t)

	h.clk.Advance(time.Second)
	assert.Equal(t, 59, h.s.Snapshot().RemainingSeconds)

	h.clk.Advance(500 * time.Millisecond)
	assert.Equal(t, 59, h.s.Snapshot().RemainingSeconds)

	h.clk.Advance(500 * time.Millisecond)
	assert.Equal(t, 58, h.s.Snapshot().RemainingSeconds)

	h.clk.Advance(8 * time.Second)
	assert.Equal(t, 50, h.s.Snapshot().RemainingSeconds)
	assert.Equal(t, 10, h.rec.count(EventTick))
}

func TestWarningAndFinalCountdownFireOnce(t *testing.T) {
	h := newHarness(t, 310)
	h.start(t)

	h.clk.Advance(10 * time.Second)
	assert.Equal(t, 300, h.s.Snapshot().RemainingSeconds)
	assert.Zero(t, h.rec.count(EventTimeWarning))

	h.clk.Advance(time.Second)
	assert.Equal(t, 299, h.s.Snapshot().RemainingSeconds)
	assert.Equal(t, 1, h.rec.count(EventTimeWarning))

	require.NoError(t, h.s.RequestSubmit())
	require.NoError(t, h.s.Cancel())
	assert.Equal(t, 299, h.s.Snapshot().RemainingSeconds)

	h.clk.Advance(289 * time.Second)
	assert.Equal(t, 10, h.s.Snapshot().RemainingSeconds)
	assert.Zero(t, h.rec.count(EventFinalCountdown))

	h.clk.Advance(10 * time.Second)

	assert.Equal(t, PhaseSubmitted, h.s.Snapshot().Phase)
	assert.Equal(t, 1, h.rec.count(EventTimeWarning))
	assert.Equal(t, 1, h.rec.count(EventFinalCountdown))
	warning, _ := h.rec.last(EventTimeWarning)
	assert.Equal(t, 299, warning.Snapshot.RemainingSeconds)
	final, _ := h.rec.last(EventFinalCountdown)
	assert.Equal(t, 9, final.Snapshot.RemainingSeconds)
}

func TestWarningWhenDurationEqualsThreshold(t *testing.T) {
	h := newHarness(t, DefaultWarningSeconds)
	h.start(t)

	h.clk.Advance(time.Second)
	assert.Equal(t, 1, h.rec.count(EventTimeWarning))
	warning, ok := h.rec.last(EventTimeWarning)
	require.True(t, ok)
	assert.Equal(t, DefaultWarningSeconds-1, warning.Snapshot.RemainingSeconds)

	h.clk.Advance(time.Minute)
	assert.Equal(t, 1, h.rec.count(EventTimeWarning))
}

func TestFinalCountdownWhenDurationEqualsThreshold(t *testing.T) {
	h := newHarness(t, DefaultFinalCountdownSeconds)
	h.start(t)

	h.clk.Advance(time.Second)
	assert.Equal(t, 1, h.rec.count(EventFinalCountdown))
	assert.Zero(t, h.rec.count(EventTimeWarning))
	final, ok := h.rec.last(EventFinalCountdown)
	require.True(t, ok)
	assert.Equal(t, DefaultFinalCountdownSeconds-1, final.Snapshot.RemainingSeconds)

	h.clk.Advance(time.Duration(DefaultFinalCountdownSeconds-1) * time.Second)
	assert.Equal(t, PhaseSubmitted, h.s.Snapshot().Phase)
	assert.Equal(t, 1, h.rec.count(EventFinalCountdown))
}

func TestCustomThresholds(t *testing.T) {
	h := newHarness(t, 30, WithThresholds(20, 5))
	h.start(t)

	h.clk.Advance(10 * time.Second)
	assert.Zero(t, h.rec.count(EventTimeWarning))

	h.clk.Advance(time.Second)
	assert.Equal(t, 1, h.rec.count(EventTimeWarning))
	assert.Zero(t, h.rec.count(EventFinalCountdown))

	h.clk.Advance(15 * time.Second)
	assert.Equal(t, 1, h.rec.count(EventFinalCountdown))
	final, _ := h.rec.last(EventFinalCountdown)
	assert.Equal(t, 4, final.Snapshot.RemainingSeconds)
}

func TestForcedSubmitWhenTimeRunsOut(t *testing.T) {
	h := newHarness(t, 10)
	h.start(t)

	h.clk.Advance(10 * time.Second)

	snap := h.s.Snapshot()
	assert.Equal(t, PhaseSubmitted, snap.Phase)
	assert.Zero(t, snap.RemainingSeconds)
	assert.True(t, snap.Forced)
	assert.False(t, snap.Submitting)
	assert.Equal(t, 10, h.rec.count(EventTick))
	assert.Equal(t, 1, h.rec.count(EventForcedSubmit))
	assert.Equal(t, 1, h.rec.count(EventSubmitted))
	assert.Equal(t, []Phase{PhaseInProgress, PhaseSubmitted}, h.rec.phases())
	assert.NotContains(t, h.rec.phases(), PhaseConfirmingSubmit)

	require.Equal(t, 1, h.sub.count())
	sub := h.sub.calls[0]
	assert.True(t, sub.Forced)
	assert.Equal(t, 10, sub.DurationTakenSeconds)
	assert.Equal(t, epoch.Add(10*time.Second), sub.SubmittedAt)

	h.clk.Advance(time.Minute)
	assert.Equal(t, 10, h.rec.count(EventTick))
	assert.Equal(t, 1, h.sub.count())
	assert.Zero(t, h.clk.Pending())
}

func TestManualSubmitWithCancelScenario(t *testing.T) {
	h := newHarness(t, 60)
	h.start(t)

	require.NoError(t, h.s.AnswerOption(mcq1, 1))
	require.NoError(t, h.s.AnswerOption(mcq2, 3))
	assert.Equal(t, 67, h.s.Snapshot().Progress)

	require.NoError(t, h.s.RequestSubmit())
	assert.Equal(t, PhaseConfirmingSubmit, h.s.Snapshot().Phase)

	h.clk.Advance(5 * time.Second)
	assert.Equal(t, 60, h.s.Snapshot().RemainingSeconds, "no ticks while confirming")

	require.NoError(t, h.s.Cancel())
	snap := h.s.Snapshot()
	assert.Equal(t, PhaseInProgress, snap.Phase)
	assert.Equal(t, model.Selected(1), snap.Answers[mcq1])
	assert.Equal(t, model.Selected(3), snap.Answers[mcq2])

	h.clk.Advance(2 * time.Second)
	assert.Equal(t, 58, h.s.Snapshot().RemainingSeconds)

	require.NoError(t, h.s.RequestSubmit())
	require.NoError(t, h.s.Confirm())

	assert.Equal(t, PhaseSubmitted, h.s.Snapshot().Phase)
	assert.Equal(t, 1, h.rec.count(EventSubmitted))
	require.Equal(t, 1, h.sub.count())

	sub := h.sub.calls[0]
	assert.Equal(t, examID, sub.ExamID)
	assert.Equal(t, h.s.ID(), sub.ID)
	assert.Equal(t, student, sub.Student)
	assert.False(t, sub.Forced)
	assert.Equal(t, 67, sub.Progress)
	assert.Equal(t, 2, sub.DurationTakenSeconds)
	assert.Equal(t, model.Selected(1), sub.Answers[mcq1])
	assert.Equal(t, model.Selected(3), sub.Answers[mcq2])
	assert.Equal(t, model.TextAnswer{Text: ""}, sub.Answers[essay])

	assert.ErrorIs(t, h.s.Confirm(), ErrInvalidTransition)
	assert.ErrorIs(t, h.s.AnswerOption(mcq1, 0), ErrInvalidTransition)

	h.clk.Advance(time.Minute)
	assert.Equal(t, 1, h.sub.count())
}

func TestNoTickOutsideInProgress(t *testing.T) {
	h := newHarness(t, 120)
	h.start(t)

	h.clk.Advance(3 * time.Second)
	require.NoError(t, h.s.RequestSubmit())
	h.clk.Advance(10 * time.Second)
	require.NoError(t, h.s.Cancel())
	h.clk.Advance(2 * time.Second)
	require.NoError(t, h.s.RequestSubmit())
	require.NoError(t, h.s.Confirm())
	h.clk.Advance(time.Minute)

	assert.Equal(t, 5, h.rec.count(EventTick))
	for _, e := range h.rec.events {
		if e.Kind == EventTick {
			assert.Equal(t, PhaseInProgress, e.Snapshot.Phase)
		}
	}
	assert.Zero(t, h.clk.Pending())
}

func TestRemainingNeverIncreasesWhileInProgress(t *testing.T) {
	h := newHarness(t, 20)
	h.start(t)

	prev := h.s.Snapshot().RemainingSeconds
	for i := 0; i < 25; i++ {
		h.clk.Advance(time.Second)
		snap := h.s.Snapshot()
		if snap.Phase != PhaseInProgress {
			break
		}
		assert.Equal(t, prev-1, snap.RemainingSeconds)
		prev = snap.RemainingSeconds
	}
	assert.Equal(t, PhaseSubmitted, h.s.Snapshot().Phase)
}

func TestCloseTearsDownTimer(t *testing.T) {
	h := newHarness(t, 60)
	h.start(t)
	h.clk.Advance(time.Second)

	require.NoError(t, h.s.Close())
	ticks := h.rec.count(EventTick)

	h.clk.Advance(5 * time.Minute)
	assert.Equal(t, ticks, h.rec.count(EventTick))
	assert.Equal(t, 59, h.s.Snapshot().RemainingSeconds)
	assert.Zero(t, h.clk.Pending())
	assert.Zero(t, h.sub.count())

	assert.ErrorIs(t, h.s.Start(student), ErrClosed)
	assert.ErrorIs(t, h.s.AnswerOption(mcq1, 0), ErrClosed)
	assert.ErrorIs(t, h.s.AnswerText(essay, "x"), ErrClosed)
	assert.ErrorIs(t, h.s.ClearAnswer(mcq1), ErrClosed)
	assert.ErrorIs(t, h.s.RequestSubmit(), ErrClosed)
	assert.ErrorIs(t, h.s.Cancel(), ErrClosed)
	assert.ErrorIs(t, h.s.Confirm(), ErrClosed)
	assert.NoError(t, h.s.Close())
}

func TestStaleTickIsIgnored(t *testing.T) {
	h := newHarness(t, 60)
	h.start(t)

	h.s.mu.Lock()
	gen := h.s.timerGen
	h.s.mu.Unlock()

	require.NoError(t, h.s.RequestSubmit())
	h.s.tick(gen)

	assert.Equal(t, 60, h.s.Snapshot().RemainingSeconds)
	assert.Zero(t, h.rec.count(EventTick))
}

func TestAnswerErrors(t *testing.T) {
	h := newHarness(t, 60)

	assert.ErrorIs(t, h.s.AnswerOption(mcq1, 0), ErrInvalidTransition)

	h.start(t)
	assert.ErrorIs(t, h.s.AnswerOption(uuid.New(), 0), ErrUnknownQuestion)
	assert.ErrorIs(t, h.s.AnswerOption(essay, 0), ErrWrongAnswerType)
	assert.ErrorIs(t, h.s.AnswerText(mcq1, "B"), ErrWrongAnswerType)
	assert.ErrorIs(t, h.s.AnswerOption(mcq1, 4), ErrOptionOutOfRange)
	assert.ErrorIs(t, h.s.AnswerOption(mcq1, -1), ErrOptionOutOfRange)
	assert.ErrorIs(t, h.s.ClearAnswer(uuid.New()), ErrUnknownQuestion)

	assert.Zero(t, h.rec.count(EventAnswerChanged))
}

func TestLastWriteWinsAndClear(t *testing.T) {
	h := newHarness(t, 60)
	h.start(t)

	require.NoError(t, h.s.AnswerOption(mcq1, 0))
	require.NoError(t, h.s.AnswerOption(mcq1, 2))
	assert.Equal(t, model.Selected(2), h.s.Snapshot().Answers[mcq1])

	before := h.s.Snapshot().Progress
	require.NoError(t, h.s.AnswerText(essay, "Light becomes sugar."))
	assert.Greater(t, h.s.Snapshot().Progress, before)
	require.NoError(t, h.s.AnswerText(essay, ""))
	assert.Equal(t, before, h.s.Snapshot().Progress)

	require.NoError(t, h.s.ClearAnswer(mcq1))
	assert.Equal(t, model.OptionAnswer{}, h.s.Snapshot().Answers[mcq1])
	assert.Len(t, h.s.Snapshot().Answers, 3)
	assert.Equal(t, 5, h.rec.count(EventAnswerChanged))
}

func TestSubmissionFailureReturnsToConfirm(t *testing.T) {
	h := newHarness(t, 60)
	h.sub.fail = []error{errors.New("redis unavailable")}
	h.start(t)
	require.NoError(t, h.s.AnswerOption(mcq1, 1))

	require.NoError(t, h.s.RequestSubmit())
	require.NoError(t, h.s.Confirm())

	snap := h.s.Snapshot()
	assert.Equal(t, PhaseConfirmingSubmit, snap.Phase)
	assert.False(t, snap.Submitting)
	assert.Contains(t, snap.LastError, "redis unavailable")
	assert.Zero(t, h.rec.count(EventSubmitted))
	failed, ok := h.rec.last(EventSubmissionFailed)
	require.True(t, ok)
	assert.Error(t, failed.Err)

	require.NoError(t, h.s.Cancel())
	assert.Empty(t, h.s.Snapshot().LastError)
	assert.Equal(t, model.Selected(1), h.s.Snapshot().Answers[mcq1])

	require.NoError(t, h.s.RequestSubmit())
	require.NoError(t, h.s.Confirm())
	assert.Equal(t, PhaseSubmitted, h.s.Snapshot().Phase)
	assert.Equal(t, 2, h.sub.count())
	assert.Equal(t, 1, h.rec.count(EventSubmitted))
}

func TestForcedSubmissionFailureCanOnlyRetry(t *testing.T) {
	h := newHarness(t, 3)
	h.sub.fail = []error{errors.New("timeout")}
	h.start(t)

	h.clk.Advance(3 * time.Second)

	snap := h.s.Snapshot()
	assert.Equal(t, PhaseConfirmingSubmit, snap.Phase)
	assert.Zero(t, snap.RemainingSeconds)
	assert.True(t, snap.Forced)
	assert.ErrorIs(t, h.s.Cancel(), ErrForcedSubmission)

	h.clk.Advance(time.Minute)
	assert.Equal(t, 3, h.rec.count(EventTick))
	assert.Zero(t, h.clk.Pending())

	require.NoError(t, h.s.Confirm())
	assert.Equal(t, PhaseSubmitted, h.s.Snapshot().Phase)
	require.Equal(t, 2, h.sub.count())
	assert.True(t, h.sub.calls[1].Forced)
}

func TestSubmittingUntilSettled(t *testing.T) {
	var pending func()
	h := newHarness(t, 60, WithRunner(func(f func()) { pending = f }))
	h.start(t)

	require.NoError(t, h.s.RequestSubmit())
	require.NoError(t, h.s.Confirm())

	snap := h.s.Snapshot()
	assert.Equal(t, PhaseSubmitted, snap.Phase)
	assert.True(t, snap.Submitting)
	assert.Equal(t, 1, h.rec.count(EventSubmitting))
	require.NotNil(t, pending)

	pending()

	assert.False(t, h.s.Snapshot().Submitting)
	assert.Equal(t, 1, h.rec.count(EventSubmitted))
	_, ok := h.s.Submission()
	assert.True(t, ok)
}

func TestSettledSurvivesClose(t *testing.T) {
	var pending func()
	h := newHarness(t, 60, WithRunner(func(f func()) { pending = f }))

	select {
	case <-h.s.Settled():
	default:
		t.Fatal("nothing in flight, Settled should be closed")
	}

	h.start(t)
	require.NoError(t, h.s.RequestSubmit())
	require.NoError(t, h.s.Confirm())
	settled := h.s.Settled()
	require.NoError(t, h.s.Close())

	select {
	case <-settled:
		t.Fatal("settled before the submitter returned")
	default:
	}

	pending()

	<-settled
	snap := h.s.Snapshot()
	assert.Equal(t, PhaseSubmitted, snap.Phase)
	assert.False(t, snap.Submitting)
	assert.Zero(t, h.rec.count(EventSubmitted))
	assert.Equal(t, 1, h.sub.count())
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t, 60)
	h.start(t)
	require.NoError(t, h.s.AnswerOption(mcq1, 1))

	snap := h.s.Snapshot()
	snap.Answers[mcq1] = model.Selected(3)
	delete(snap.Answers, mcq2)

	again := h.s.Snapshot()
	assert.Equal(t, model.Selected(1), again.Answers[mcq1])
	assert.Len(t, again.Answers, 3)
}

func TestAsyncSubmissionWithDefaultRunner(t *testing.T) {
	done := make(chan struct{})
	def := testDefinition(60)
	s, err := New(def,
		WithClock(clock.NewFake(epoch)),
		WithSubmitter(SubmitterFunc(func(context.Context, model.Submission) error { return nil })),
		WithObserver(ObserverFunc(func(e Event) {
			if e.Kind == EventSubmitted {
				close(done)
			}
		})),
	)
	require.NoError(t, err)
	require.NoError(t, s.Start(student))
	require.NoError(t, s.RequestSubmit())
	require.NoError(t, s.Confirm())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not settle")
	}
	assert.False(t, s.Snapshot().Submitting)
}
