package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingCloser struct {
	calls  int
	closed int
	err    error
}

func (c *countingCloser) CloseExpired(ctx context.Context) (int, error) {
	c.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep without deadline")
	}
	return c.closed, c.err
}

func TestSweepClosesExpiredExams(t *testing.T) {
	closer := &countingCloser{closed: 3}
	NewExamSweeper(closer, 5, zerolog.Nop()).Sweep()
	assert.Equal(t, 1, closer.calls)
}

func TestSweepSurvivesErrors(t *testing.T) {
	closer := &countingCloser{err: errors.New("db down")}
	sweeper := NewExamSweeper(closer, 0, zerolog.Nop())

	sweeper.Sweep()
	sweeper.Sweep()

	assert.Equal(t, 2, closer.calls)
	assert.Equal(t, uint64(1), sweeper.interval)
}
