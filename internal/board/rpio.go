package board

import (
	"sync"

	"codeberg.org/mutker/servoctl/internal/errors"
	"codeberg.org/mutker/servoctl/internal/logger"
	"github.com/stianeikeland/go-rpio/v4"
)

// Raspberry Pi pins wired to the hardware PWM channels
var rpioPWMPins = []int{12, 13, 18, 19}

// RPIO drives servos through the Raspberry Pi hardware PWM using go-rpio.
type RPIO struct {
	mu      sync.Mutex
	pins    map[int]rpio.Pin
	pwmPins map[int]bool
	minUs   uint32
	maxUs   uint32
	closed  bool
	logger  logger.Logger

	// degraded holds pins asked for servo output without PWM support
	degraded map[int]bool
}

var _ Board = (*RPIO)(nil)

// NewRPIO memory-maps the GPIO registers. Requires /dev/gpiomem or root.
func NewRPIO(cfg Config, log logger.Logger) (*RPIO, error) {
	errFactory := errors.New()

	if err := rpio.Open(); err != nil {
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	pwmPins := cfg.PWMPins
	if len(pwmPins) == 0 {
		pwmPins = rpioPWMPins
	}

	r := &RPIO{
		pins:     make(map[int]rpio.Pin),
		pwmPins:  pinSet(pwmPins),
		degraded: make(map[int]bool),
		minUs:    cfg.MinPulseUs,
		maxUs:    cfg.MaxPulseUs,
		logger:   log.With("component", "board"),
	}

	r.logger.Info().Ints("pwm_pins", pwmPins).Msg("GPIO memory mapped")

	return r, nil
}

func (r *RPIO) PinMode(pin int, mode PinMode) error {
	errFactory := errors.New()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errFactory.New(ErrClosed)
	}
	if pin < 0 {
		return errFactory.WithData(ErrInvalidPin, pin)
	}

	p := rpio.Pin(pin)
	switch mode {
	case ModeInput:
		p.Input()
	case ModeOutput:
		p.Output()
	case ModePWM, ModeServo:
		if !r.pwmPins[pin] {
			r.degraded[pin] = true
			return errFactory.WithData(ErrPinNotPWM, pin)
		}
		p.Mode(rpio.Pwm)
		p.Freq(servoFreqHz * servoFrameUs)
	default:
		return errFactory.WithData(ErrUnsupportedMode, mode.String())
	}
	r.pins[pin] = p

	r.logger.Debug().Int("pin", pin).Str("mode", mode.String()).Msg("Pin mode set")

	return nil
}

func (r *RPIO) ServoWrite(pin int, degrees float64) error {
	errFactory := errors.New()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errFactory.New(ErrClosed)
	}

	if r.degraded[pin] {
		r.logger.Debug().Int("pin", pin).Float64("degrees", degrees).Msg("Dropping write to pin without PWM")
		return nil
	}

	p, ok := r.pins[pin]
	if !ok {
		return errFactory.WithData(ErrInvalidPin, pin)
	}

	width := PulseWidthUs(degrees, r.minUs, r.maxUs)
	p.DutyCycle(width, servoFrameUs)

	r.logger.Debug().
		Int("pin", pin).
		Float64("degrees", degrees).
		Uint32("pulse_us", width).
		Msg("Servo write")

	return nil
}

func (r *RPIO) IsPWMCapable(pin int) bool {
	return r.pwmPins[pin]
}

func (r *RPIO) GenerateID() string {
	return generateID()
}

func (r *RPIO) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	// Drop every pin back to input, the safe state
	for pin, p := range r.pins {
		r.logger.Debug().Int("pin", pin).Msg("Resetting pin to input")
		p.Input()
	}

	if err := rpio.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	return nil
}

func pinSet(pins []int) map[int]bool {
	set := make(map[int]bool, len(pins))
	for _, p := range pins {
		set[p] = true
	}
	return set
}
