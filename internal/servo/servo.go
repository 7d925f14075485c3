// Package servo implements the motion control of rotary servos: range
// enforcement, movement history, sweeping and group fan-out.
package servo

import (
	"sync"
	"time"

	"codeberg.org/mutker/servoctl/internal/board"
	"codeberg.org/mutker/servoctl/internal/errors"
	"codeberg.org/mutker/servoctl/internal/logger"
	"codeberg.org/mutker/servoctl/internal/loop"
)

const (
	// NotifyDelay is how long after a notified move the move event fires
	NotifyDelay = 1000 * time.Millisecond

	// continuousStop is the neutral pulse of a continuous rotation servo
	continuousStop = 90.0
)

// Deps are the collaborators a servo is built on
type Deps struct {
	Board    board.Board
	Loop     *loop.Loop
	Registry *Registry
	Logger   logger.Logger
}

// Servo owns the state of one physical servo
type Servo struct {
	id                 string
	pin                int
	degraded           bool
	typ                Type
	rng                Range
	cancelNotifyOnStop bool

	board  board.Board
	loop   *loop.Loop
	logger logger.Logger

	mu      sync.RWMutex
	history *History
	moving  bool
	sweep   *sweepState
	pending map[*loop.Task]struct{}

	lmu       sync.RWMutex
	listeners []Listener
}

var _ Actuator = (*Servo)(nil)

// New builds a servo, registers it and runs its start-up move.
//
// A pin without pulse-width support is reported through an error event and
// a warning; the servo is still returned and stays usable, with hardware
// write failures on that pin ignored.
func New(deps Deps, opts Options, setters ...Option) (*Servo, error) {
	errFactory := errors.New()

	if deps.Board == nil || deps.Loop == nil || deps.Registry == nil {
		return nil, errFactory.New(ErrInvalidDeps)
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	id := opts.ID
	if id == "" {
		id = deps.Board.GenerateID()
	}

	s := &Servo{
		id:                 id,
		pin:                opts.Pin,
		typ:                opts.Type,
		rng:                *opts.Range,
		cancelNotifyOnStop: opts.CancelNotifyOnStop,
		board:              deps.Board,
		loop:               deps.Loop,
		logger:             deps.Logger.With("actuator", id),
		history:            NewHistory(opts.HistoryLimit),
		pending:            make(map[*loop.Task]struct{}),
	}
	for _, set := range setters {
		set(s)
	}

	if err := deps.Registry.Register(s); err != nil {
		return nil, err
	}

	s.setupPin()

	s.logger.Info().
		Int("pin", s.pin).
		Str("type", string(s.typ)).
		Float64("min", s.rng.Min).
		Float64("max", s.rng.Max).
		Msg("Servo initialized")

	var err error
	switch {
	case opts.Center:
		err = s.Center()
	case opts.StartAt == StartMin:
		err = s.Min()
	case opts.StartAt == StartMax:
		err = s.Max()
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Start-up move failed")
	}

	return s, nil
}

func (s *Servo) setupPin() {
	errFactory := errors.New()

	capable := s.board.IsPWMCapable(s.pin)
	if !capable {
		s.degraded = true
		err := errFactory.WithData(ErrPinNotPWM, s.pin)
		s.logger.Warn().Int("pin", s.pin).Msg("Pin does not support pulse-width output")
		s.emit(Event{Type: EventError, Err: err})
	}

	if err := s.board.PinMode(s.pin, board.ModeServo); err != nil {
		if !capable {
			s.logger.Debug().Err(err).Msg("Pin mode rejected")
			return
		}
		wrapped := errFactory.Wrap(ErrPinMode, err)
		s.logger.ErrorWithCode(wrapped).Int("pin", s.pin).Msg("Failed to set servo pin mode")
		s.emit(Event{Type: EventError, Err: wrapped})
	}
}

// Move drives the servo to degrees, clamped to its range. Moving to the
// current position does nothing. With notify set, a move event carrying the
// clamped degrees fires NotifyDelay later.
func (s *Servo) Move(degrees float64, notify bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(degrees, notify)
}

func (s *Servo) moveLocked(degrees float64, notify bool) error {
	target := s.rng.Clamp(degrees)

	if last, ok := s.history.Last(); ok && last.Degrees == target {
		return nil
	}

	if err := s.board.ServoWrite(s.pin, target); err != nil {
		if !s.degraded {
			wrapped := errors.New().Wrap(ErrWriteFailed, err)
			s.logger.ErrorWithCode(wrapped).Float64("degrees", target).Msg("Servo write failed")
			s.emit(Event{Type: EventError, Degrees: target, Err: wrapped})
			return wrapped
		}
		// reported once at construction
		s.logger.Debug().Err(err).Float64("degrees", target).Msg("Ignoring write to pin without pulse-width output")
	}

	s.moving = true
	entry := Entry{Timestamp: s.loop.Now(), Degrees: target}
	s.history.Append(entry)
	s.emit(Event{Type: EventPosition, Degrees: target, Timestamp: entry.Timestamp})

	if notify {
		s.scheduleNotify(target)
	}

	s.logger.Debug().
		Float64("requested", degrees).
		Float64("degrees", target).
		Bool("notify", notify).
		Msg("Servo moved")

	return nil
}

// scheduleNotify must be called with s.mu held
func (s *Servo) scheduleNotify(degrees float64) {
	var task *loop.Task
	task = s.loop.AfterFunc(NotifyDelay, func() {
		s.mu.Lock()
		delete(s.pending, task)
		s.mu.Unlock()

		s.deliver(Event{
			Type:       EventMove,
			ActuatorID: s.id,
			Degrees:    degrees,
			Timestamp:  s.loop.Now(),
		})
	})
	s.pending[task] = struct{}{}
}

// Min moves to the lower bound and notifies
func (s *Servo) Min() error {
	return s.Move(s.rng.Min, true)
}

// Max moves to the upper bound and notifies
func (s *Servo) Max() error {
	return s.Move(s.rng.Max, true)
}

// Center moves to Min + Max/2. Only the upper bound is halved; this is the
// long-standing behaviour and callers depend on it.
func (s *Servo) Center() error {
	return s.Move(s.rng.Min+s.rng.Max/2, false)
}

// Stop halts the servo. A continuous servo is driven to its neutral pulse;
// a standard servo cancels its sweep.
func (s *Servo) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.typ == Continuous {
		err = s.moveLocked(continuousStop, false)
	} else {
		s.stopSweepLocked()
	}

	if s.cancelNotifyOnStop {
		for task := range s.pending {
			task.Stop()
			delete(s.pending, task)
		}
	}

	s.moving = false
	s.logger.Debug().Msg("Servo stopped")

	return err
}

func (s *Servo) ID() string {
	return s.id
}

func (s *Servo) Pin() int {
	return s.pin
}

func (s *Servo) Type() Type {
	return s.typ
}

func (s *Servo) Range() Range {
	return s.rng
}

// Last returns the most recent position, if the servo ever moved
func (s *Servo) Last() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Last()
}

// History returns the recorded positions in chronological order
func (s *Servo) History() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Entries()
}

func (s *Servo) IsMoving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moving
}

func (s *Servo) IsSweeping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sweep != nil
}
