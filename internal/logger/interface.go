package logger

import "codeberg.org/mutker/servoctl/internal/errors"

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	// With returns a child logger that adds the field to every event.
	With(key, value string) Logger
}
