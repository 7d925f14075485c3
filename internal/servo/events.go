package servo

import "time"

// EventType names an observable servo event
type EventType string

const (
	// EventError reports a non-fatal hardware or configuration problem
	EventError EventType = "error"
	// EventMove reports a notified move completion or a sweep reaching its lower bound
	EventMove EventType = "move"
	// EventPosition reports every accepted write
	EventPosition EventType = "position"
)

// Event is delivered to listeners on the event loop
type Event struct {
	Type       EventType
	ActuatorID string
	Degrees    float64
	Err        error
	Timestamp  time.Time
}

// Listener receives servo events. Listeners run on the event loop and must
// not block.
type Listener func(Event)

// On subscribes l to every later event
func (s *Servo) On(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

// emit queues ev for delivery on the loop. Safe to call with s.mu held.
func (s *Servo) emit(ev Event) {
	ev.ActuatorID = s.id
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.loop.Now()
	}
	s.loop.Post(func() { s.deliver(ev) })
}

// deliver calls listeners directly; only called on the loop
func (s *Servo) deliver(ev Event) {
	s.lmu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.lmu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}
