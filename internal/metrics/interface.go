package metrics

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *MoveSnapshot) error
	Close() error
}

// Repository defines the interface for movement data storage
type Repository interface {
	Record(snapshot *MoveSnapshot) error
	Close() error
}

// EventKind is the kind of movement being recorded
type EventKind string

const (
	// KindPosition is an accepted hardware write
	KindPosition EventKind = "position"
	// KindMove is a notified move completion or sweep boundary
	KindMove EventKind = "move"
)

// MoveSnapshot is one recorded movement of one actuator
type MoveSnapshot struct {
	Timestamp  time.Time
	ActuatorID string
	Pin        int
	Kind       EventKind
	Degrees    float64
}
