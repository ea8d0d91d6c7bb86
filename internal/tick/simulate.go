package tick

import (
	"time"

	"github.com/openmmo/realmd/internal/ai"
	"github.com/openmmo/realmd/internal/world"
)

// SimulateSystem runs entity regen/movement integration followed by
// AI. Both read neighbor positions, so AI runs after the entity store
// has settled for this tick, per spec.md's dt-then-AI ordering.
type SimulateSystem struct {
	state *world.State
	ai    *ai.Engine
}

// NewSimulateSystem builds the simulate phase system.
func NewSimulateSystem(state *world.State, engine *ai.Engine) *SimulateSystem {
	return &SimulateSystem{state: state, ai: engine}
}

func (s *SimulateSystem) Phase() Phase { return PhaseSimulate }

func (s *SimulateSystem) Update(dt time.Duration) {
	seconds := dt.Seconds()
	s.state.Update(seconds)
	s.ai.Update(s.state, seconds)
}
