package tick

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/openmmo/realmd/internal/world"
)

// jitterHeadroom (K in spec terms) allows a client's catch-up movement
// intent to cover up to this many ticks' worth of distance in one
// pass, tolerating network jitter without allowing a teleport.
const jitterHeadroom = 5

// ticksPerSecond is the fixed simulation rate.
const ticksPerSecond = 20

// MovementSystem drains and applies queued movement intents.
type MovementSystem struct {
	state *world.State
	log   *zap.Logger
}

// NewMovementSystem builds the movement phase system.
func NewMovementSystem(state *world.State, log *zap.Logger) *MovementSystem {
	return &MovementSystem{state: state, log: log}
}

func (s *MovementSystem) Phase() Phase { return PhaseMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	intents := s.state.DrainMovementIntents()
	for _, intent := range intents {
		s.apply(intent)
	}
}

func (s *MovementSystem) apply(intent world.MovementIntent) {
	zoneID, ok := s.state.EnsurePlayerZoneMapping(intent.PlayerID)
	if !ok {
		s.log.Warn("tick: movement intent for unmapped entity discarded", zap.Uint64("entity_id", uint64(intent.PlayerID)))
		return
	}
	zone := s.state.Zone(zoneID)
	if zone == nil {
		return
	}
	e := zone.Store.GetMut(intent.PlayerID)
	if e == nil || e.Position == nil || e.Movement == nil {
		s.log.Warn("tick: movement intent for entity missing position/movement discarded", zap.Uint64("entity_id", uint64(intent.PlayerID)))
		return
	}
	if !e.Alive() {
		s.log.Warn("tick: movement intent for dead entity discarded", zap.Uint64("entity_id", uint64(intent.PlayerID)))
		return
	}

	e.Position.Yaw = intent.Facing

	if intent.Stop {
		e.Movement.VelX, e.Movement.VelY, e.Movement.VelZ = 0, 0, 0
		e.Movement.Moving = false
		return
	}

	speedMod := intent.SpeedModifier
	if speedMod <= 0 {
		speedMod = 1
	}
	maxDelta := e.Movement.MaxSpeed * speedMod * jitterHeadroom / ticksPerSecond

	dx := intent.TargetX - e.Position.X
	dy := intent.TargetY - e.Position.Y
	dz := intent.TargetZ - e.Position.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist < 1e-9 {
		e.Movement.Moving = false
		return
	}

	applied := math.Min(dist, maxDelta)
	dirX, dirY, dirZ := dx/dist, dy/dist, dz/dist

	e.Position.X += dirX * applied
	e.Position.Y += dirY * applied
	e.Position.Z += dirZ * applied

	e.Movement.VelX = dirX * e.Movement.MaxSpeed * speedMod
	e.Movement.VelY = dirY * e.Movement.MaxSpeed * speedMod
	e.Movement.VelZ = dirZ * e.Movement.MaxSpeed * speedMod
	e.Movement.Moving = true
}
