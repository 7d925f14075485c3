package board

// Board is the hardware collaborator the actuators drive. Implementations
// own the electrical side; callers only see pins and degrees.
type Board interface {
	// PinMode configures a pin for the given use
	PinMode(pin int, mode PinMode) error

	// ServoWrite drives the pin so an attached servo holds the given angle
	ServoWrite(pin int, degrees float64) error

	// IsPWMCapable reports whether the pin can produce pulse-width output
	IsPWMCapable(pin int) bool

	// GenerateID returns a new unique identifier for an actuator
	GenerateID() string

	// Close releases the hardware
	Close() error
}

// PinMode indicates how a pin is used.
type PinMode int

const (
	ModeInput PinMode = iota
	ModeOutput
	ModePWM
	ModeServo
)

func (m PinMode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeOutput:
		return "output"
	case ModePWM:
		return "pwm"
	case ModeServo:
		return "servo"
	default:
		return "unknown"
	}
}

// Driver names accepted by Open
const (
	DriverRPIO = "rpio"
	DriverMock = "mock"
)

// Config selects and tunes a board driver
type Config struct {
	Driver string
	// PWMPins overrides the driver's set of PWM-capable pins when non-empty
	PWMPins []int
	// MinPulseUs and MaxPulseUs bound the pulse width mapped onto 0-180 degrees
	MinPulseUs uint32
	MaxPulseUs uint32
}
