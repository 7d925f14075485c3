package servo

import (
	"codeberg.org/mutker/servoctl/internal/errors"
)

// Type selects how stop and center are interpreted
type Type string

const (
	Standard   Type = "standard"
	Continuous Type = "continuous"
)

// StartAt names the position a servo moves to when constructed
type StartAt string

const (
	StartNone StartAt = ""
	StartMin  StartAt = "min"
	StartMax  StartAt = "max"
)

// Options configures a servo at construction time
type Options struct {
	// Pin must support pulse-width output
	Pin int
	// Type defaults to Standard
	Type Type
	// ID is generated by the board when empty
	ID string
	// Range defaults to [0, 180]
	Range *Range
	// StartAt moves to min or max right after construction unless Center is set
	StartAt StartAt
	// Center moves to the center right after construction
	Center bool
	// HistoryLimit bounds the movement history; 0 keeps everything
	HistoryLimit int
	// CancelNotifyOnStop makes Stop drop pending move notifications
	CancelNotifyOnStop bool
}

// Option customises a servo beyond its Options
type Option func(*Servo)

// WithListener subscribes to events before any can be emitted
func WithListener(l Listener) Option {
	return func(s *Servo) {
		s.listeners = append(s.listeners, l)
	}
}

func (o *Options) normalize() error {
	errFactory := errors.New()

	if o.Pin < 0 {
		return errFactory.WithData(ErrInvalidPin, o.Pin)
	}

	switch o.Type {
	case "":
		o.Type = Standard
	case Standard, Continuous:
	default:
		return errFactory.WithData(ErrInvalidType, string(o.Type))
	}

	if o.Range == nil {
		r := DefaultRange()
		o.Range = &r
	}
	if err := o.Range.Validate(); err != nil {
		return err
	}

	switch o.StartAt {
	case StartNone, StartMin, StartMax:
	default:
		return errFactory.WithData(ErrInvalidStartAt, string(o.StartAt))
	}

	if o.HistoryLimit < 0 {
		return errFactory.WithData(ErrInvalidHistory, o.HistoryLimit)
	}

	return nil
}
