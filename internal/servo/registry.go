package servo

import (
	"sync"

	"codeberg.org/mutker/servoctl/internal/errors"
)

// Registry is the append-only list of servos built against it. Servos are
// never removed; readers get snapshots, so registrations never invalidate
// earlier references.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Servo
	servos []*Servo
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*Servo),
	}
}

// Register appends s. Called by New.
func (r *Registry) Register(s *Servo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.id]; ok {
		return errors.New().WithData(ErrDuplicateID, s.id)
	}
	r.byID[s.id] = s
	r.servos = append(r.servos, s)

	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servos)
}

// Get returns the servo registered under id
func (r *Registry) Get(id string) (*Servo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// All returns every servo in registration order
func (r *Registry) All() []*Servo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	servos := make([]*Servo, len(r.servos))
	copy(servos, r.servos)

	return servos
}
