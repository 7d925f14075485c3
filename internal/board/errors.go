package board

import "codeberg.org/mutker/servoctl/internal/errors"

const (
	ErrUnknownDriver   = errors.ErrorCode("board_unknown_driver")
	ErrOpenFailed      = errors.ErrorCode("board_open_failed")
	ErrCloseFailed     = errors.ErrorCode("board_close_failed")
	ErrClosed          = errors.ErrorCode("board_closed")
	ErrInvalidPin      = errors.ErrorCode("board_invalid_pin")
	ErrUnsupportedMode = errors.ErrorCode("board_unsupported_pin_mode")
	ErrPinNotPWM       = errors.ErrorCode("board_pin_not_pwm")
	ErrInvalidPulse    = errors.ErrorCode("board_invalid_pulse_range")
)
