package board

import (
	"sync"

	"codeberg.org/mutker/servoctl/internal/errors"
)

// defaultMockPWMPins mirrors the Raspberry Pi layout
var defaultMockPWMPins = rpioPWMPins

// Write is one recorded ServoWrite call
type Write struct {
	Pin     int
	Degrees float64
}

// Mock is an in-memory board used for development and tests. It records
// every write and never touches hardware.
type Mock struct {
	mu      sync.Mutex
	pwmPins map[int]bool
	modes   map[int]PinMode
	writes  []Write
	closed  bool
}

var _ Board = (*Mock)(nil)

// NewMock creates a mock board. With no pins given it uses the Raspberry Pi
// PWM pins.
func NewMock(pwmPins ...int) *Mock {
	if len(pwmPins) == 0 {
		pwmPins = defaultMockPWMPins
	}
	return &Mock{
		pwmPins: pinSet(pwmPins),
		modes:   make(map[int]PinMode),
	}
}

func (m *Mock) PinMode(pin int, mode PinMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New().New(ErrClosed)
	}
	if pin < 0 {
		return errors.New().WithData(ErrInvalidPin, pin)
	}
	m.modes[pin] = mode
	return nil
}

func (m *Mock) ServoWrite(pin int, degrees float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.New().New(ErrClosed)
	}
	m.writes = append(m.writes, Write{Pin: pin, Degrees: degrees})
	return nil
}

func (m *Mock) IsPWMCapable(pin int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pwmPins[pin]
}

func (m *Mock) GenerateID() string {
	return generateID()
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Writes returns a copy of every write recorded so far
func (m *Mock) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()

	writes := make([]Write, len(m.writes))
	copy(writes, m.writes)

	return writes
}

// Mode returns the last mode set on pin
func (m *Mock) Mode(pin int) (PinMode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mode, ok := m.modes[pin]
	return mode, ok
}
