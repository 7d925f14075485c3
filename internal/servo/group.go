package servo

import "codeberg.org/mutker/servoctl/internal/logger"

// Actuator is the set of operations a Group broadcasts
type Actuator interface {
	Move(degrees float64, notify bool) error
	Min() error
	Max() error
	Center() error
	Stop() error
}

// Group addresses every servo in a registry as one unit. Membership is
// read at call time, so servos registered later are included.
type Group struct {
	registry *Registry
	logger   logger.Logger
}

func NewGroup(registry *Registry, log logger.Logger) *Group {
	if log == nil {
		log = logger.Nop()
	}
	return &Group{
		registry: registry,
		logger:   log.With("component", "group"),
	}
}

// Each calls fn for every member in registration order
func (g *Group) Each(fn func(s *Servo, index int)) *Group {
	for i, s := range g.registry.All() {
		fn(s, i)
	}
	return g
}

// Len returns the current number of members
func (g *Group) Len() int {
	return g.registry.Len()
}

// Get returns the member with the given id
func (g *Group) Get(id string) (*Servo, bool) {
	return g.registry.Get(id)
}

func (g *Group) Move(degrees float64, notify bool) *Group {
	return g.broadcast("move", func(a Actuator) error { return a.Move(degrees, notify) })
}

func (g *Group) Min() *Group {
	return g.broadcast("min", Actuator.Min)
}

func (g *Group) Max() *Group {
	return g.broadcast("max", Actuator.Max)
}

func (g *Group) Center() *Group {
	return g.broadcast("center", Actuator.Center)
}

func (g *Group) Stop() *Group {
	return g.broadcast("stop", Actuator.Stop)
}

// broadcast calls op on every member in order. A failing member is logged
// and the rest still run.
func (g *Group) broadcast(name string, op func(Actuator) error) *Group {
	for _, s := range g.registry.All() {
		if err := op(s); err != nil {
			g.logger.Warn().
				Err(err).
				Str("operation", name).
				Str("actuator", s.ID()).
				Msg("Group operation failed on member")
		}
	}
	return g
}
