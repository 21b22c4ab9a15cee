package worker

import (
	"context"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/rs/zerolog"
)

const sweepTimeout = 30 * time.Second

// ExamCloser closes published exams whose closing time has passed.
type ExamCloser interface {
	CloseExpired(ctx context.Context) (int, error)
}

// ExamSweeper periodically closes expired exams.
type ExamSweeper struct {
	closer   ExamCloser
	interval uint64
	log      zerolog.Logger
}

// NewExamSweeper creates a sweeper running every intervalMinutes (at least one).
func NewExamSweeper(closer ExamCloser, intervalMinutes int, log zerolog.Logger) *ExamSweeper {
	if intervalMinutes < 1 {
		intervalMinutes = 1
	}
	return &ExamSweeper{
		closer:   closer,
		interval: uint64(intervalMinutes),
		log:      log.With().Str("component", "exam_sweeper").Logger(),
	}
}

// Start schedules the sweep and blocks until ctx is cancelled.
func (s *ExamSweeper) Start(ctx context.Context) {
	scheduler := gocron.NewScheduler()
	if err := scheduler.Every(s.interval).Minutes().Do(s.Sweep); err != nil {
		s.log.Error().Err(err).Msg("Failed to schedule exam sweep")
		return
	}

	s.log.Info().Uint64("interval_minutes", s.interval).Msg("ExamSweeper started")
	stopped := scheduler.Start()

	<-ctx.Done()
	stopped <- true
	scheduler.Clear()
	s.log.Info().Msg("ExamSweeper stopped")
}

// Sweep runs one pass.
func (s *ExamSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	closed, err := s.closer.CloseExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Exam sweep failed")
		return
	}
	if closed > 0 {
		s.log.Info().Int("closed", closed).Msg("Closed expired exams")
	}
}
