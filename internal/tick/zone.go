package tick

import (
	"time"

	"github.com/openmmo/realmd/internal/world"
)

// ZoneSystem evaluates zone transitions once simulation for the tick
// has settled, per spec.md §5's "zone transitions are evaluated after
// simulation of the same tick" ordering guarantee.
type ZoneSystem struct {
	state *world.State
}

// NewZoneSystem builds the zone-transition phase system.
func NewZoneSystem(state *world.State) *ZoneSystem {
	return &ZoneSystem{state: state}
}

func (s *ZoneSystem) Phase() Phase { return PhaseZone }

func (s *ZoneSystem) Update(_ time.Duration) {
	s.state.EvaluateZoneTransitions()
}
