package servo

import (
	"time"

	"codeberg.org/mutker/servoctl/internal/loop"
)

// SweepInterval is the period between sweep ticks
const SweepInterval = 1000 * time.Millisecond

// sweepState is the owned handle of the single active sweep
type sweepState struct {
	rng  Range
	task *loop.Task
}

// Sweep oscillates between the servo's configured bounds until stopped
func (s *Servo) Sweep() error {
	return s.SweepRange(s.rng)
}

// SweepRange oscillates between r.Min and r.Max until stopped. A sweep
// already running is replaced.
func (s *Servo) SweepRange(r Range) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.history.Last(); !ok || last.Degrees != r.Min {
		if err := s.moveLocked(r.Min, false); err != nil {
			return err
		}
	}

	s.stopSweepLocked()

	st := &sweepState{rng: r}
	st.task = s.loop.Every(SweepInterval, func() { s.sweepTick(st) })
	s.sweep = st
	s.moving = true

	s.logger.Debug().
		Float64("min", r.Min).
		Float64("max", r.Max).
		Msg("Sweep started")

	return nil
}

func (s *Servo) sweepTick(st *sweepState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweep != st {
		return
	}

	var err error
	if last, ok := s.history.Last(); ok && last.Degrees == st.rng.Min {
		s.emit(Event{Type: EventMove, Degrees: st.rng.Min})
		err = s.moveLocked(st.rng.Max, false)
	} else {
		err = s.moveLocked(st.rng.Min, false)
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("Sweep tick failed")
	}
}

// stopSweepLocked must be called with s.mu held
func (s *Servo) stopSweepLocked() {
	if s.sweep == nil {
		return
	}
	s.sweep.task.Stop()
	s.sweep = nil
	s.logger.Debug().Msg("Sweep stopped")
}
