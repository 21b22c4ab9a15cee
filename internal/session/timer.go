package session

import "time"

// startTimer begins one-second ticking from now. Caller must hold s.mu.
func (s *Session) startTimer() {
	s.nextTick = s.clock.Now()
	s.scheduleTick()
}

// scheduleTick arms the next tick against a fixed cadence so callback
// latency does not accumulate. Caller must hold s.mu.
func (s *Session) scheduleTick() {
	s.timerGen++
	gen := s.timerGen
	s.nextTick = s.nextTick.Add(time.Second)

	d := s.nextTick.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	s.timer = s.clock.AfterFunc(d, func() { s.tick(gen) })
}

// stopTimer cancels the pending tick. Bumping the generation turns a
// callback that already started into a no-op. Caller must hold s.mu.
func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.timerGen || s.phase != PhaseInProgress {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	// Thresholds are matched against the value before this tick, so a
	// duration equal to a threshold still notifies on its first tick.
	prev := s.remaining
	s.remaining--
	s.emit(EventTick, nil)

	if prev == s.warningAt && !s.warned {
		s.warned = true
		s.emit(EventTimeWarning, nil)
	}
	if prev == s.finalAt && !s.finalNotified {
		s.finalNotified = true
		s.emit(EventFinalCountdown, nil)
	}

	if s.remaining > 0 {
		s.scheduleTick()
		s.mu.Unlock()
		return
	}

	s.forced = true
	s.emit(EventForcedSubmit, nil)
	submit := s.enterSubmitted()
	s.mu.Unlock()

	submit()
}
