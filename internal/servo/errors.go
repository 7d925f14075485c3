package servo

import "codeberg.org/mutker/servoctl/internal/errors"

const (
	// Construction Errors
	ErrInvalidDeps    = errors.ErrorCode("servo_invalid_dependencies")
	ErrInvalidPin     = errors.ErrorCode("servo_invalid_pin")
	ErrInvalidRange   = errors.ErrorCode("servo_invalid_range")
	ErrInvalidType    = errors.ErrorCode("servo_invalid_type")
	ErrInvalidStartAt = errors.ErrorCode("servo_invalid_start_at")
	ErrInvalidHistory = errors.ErrorCode("servo_invalid_history_limit")
	ErrDuplicateID    = errors.ErrorCode("servo_duplicate_id")

	// Hardware Errors
	ErrPinNotPWM   = errors.ErrorCode("servo_pin_not_pwm")
	ErrPinMode     = errors.ErrorCode("servo_pin_mode_failed")
	ErrWriteFailed = errors.ErrorCode("servo_write_failed")
)
