package board

import (
	"codeberg.org/mutker/servoctl/internal/errors"
	"codeberg.org/mutker/servoctl/internal/logger"
	"github.com/google/uuid"
)

const (
	// servo frame is 20ms (50Hz)
	servoFrameUs = 20000
	servoFreqHz  = 50

	defaultMinPulseUs uint32 = 500
	defaultMaxPulseUs uint32 = 2500

	minDegrees = 0.0
	maxDegrees = 180.0
)

// Open mounts the board selected by cfg.Driver
func Open(cfg Config, log logger.Logger) (Board, error) {
	errFactory := errors.New()

	if cfg.MinPulseUs == 0 {
		cfg.MinPulseUs = defaultMinPulseUs
	}
	if cfg.MaxPulseUs == 0 {
		cfg.MaxPulseUs = defaultMaxPulseUs
	}
	if cfg.MinPulseUs >= cfg.MaxPulseUs || cfg.MaxPulseUs > servoFrameUs {
		return nil, errFactory.WithData(ErrInvalidPulse, struct {
			MinUs uint32
			MaxUs uint32
		}{cfg.MinPulseUs, cfg.MaxPulseUs})
	}

	switch cfg.Driver {
	case DriverMock, "":
		log.Info().Msg("Using MOCK board (development mode)")
		return NewMock(cfg.PWMPins...), nil
	case DriverRPIO:
		return NewRPIO(cfg, log)
	default:
		return nil, errFactory.WithData(ErrUnknownDriver, cfg.Driver)
	}
}

// Constrain limits value to the closed interval [minValue, maxValue]
func Constrain(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}

	return value
}

// PulseWidthUs maps an angle onto a pulse width between minUs and maxUs.
// Angles outside 0-180 are pinned to the nearest end.
func PulseWidthUs(degrees float64, minUs, maxUs uint32) uint32 {
	degrees = Constrain(degrees, minDegrees, maxDegrees)
	span := float64(maxUs - minUs)

	return minUs + uint32(degrees/maxDegrees*span+0.5)
}

func generateID() string {
	return uuid.NewString()
}
