package servo

import (
	"codeberg.org/mutker/servoctl/internal/board"
	"codeberg.org/mutker/servoctl/internal/errors"
)

const (
	defaultMinDeg = 0.0
	defaultMaxDeg = 180.0
)

// Range is a closed interval of degrees
type Range struct {
	Min, Max float64
}

// DefaultRange is the full travel of a standard hobby servo
func DefaultRange() Range {
	return Range{Min: defaultMinDeg, Max: defaultMaxDeg}
}

// Validate rejects ranges whose lower bound exceeds the upper bound
func (r Range) Validate() error {
	if r.Min > r.Max {
		return errors.New().WithData(ErrInvalidRange, r)
	}
	return nil
}

// Clamp limits value to [minValue, maxValue]. The caller guarantees
// minValue <= maxValue.
func Clamp(value, minValue, maxValue float64) float64 {
	return board.Constrain(value, minValue, maxValue)
}

// Clamp limits value to the range
func (r Range) Clamp(value float64) float64 {
	return Clamp(value, r.Min, r.Max)
}
