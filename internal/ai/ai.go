// Package ai drives the per-entity AI state machine (idle → chase →
// attack → return-home via leash) from the tick loop, and dispatches
// to an optional per-mob Lua override when one is attached.
package ai

import (
	"math"

	"go.uber.org/zap"

	"github.com/openmmo/realmd/internal/entity"
	"github.com/openmmo/realmd/internal/world"
)

// Engine runs one AI pass per tick over every zone's mob/npc entities.
type Engine struct {
	log    *zap.Logger
	script ScriptRunner
}

// ScriptRunner is satisfied by internal/ai's Lua binding; nil means no
// script support is wired (all entities use the built-in FSM).
type ScriptRunner interface {
	// Decide is called for an entity with a non-empty AIState.ScriptName.
	// It returns the target id the mob should pursue (0 for none) and
	// whether to attack this tick.
	Decide(self *entity.Entity, nearby []*entity.Entity, dt float64) (targetID entity.ID, attack bool, err error)
}

// New builds an AI engine. script may be nil.
func New(log *zap.Logger, script ScriptRunner) *Engine {
	return &Engine{log: log, script: script}
}

// Update runs the AI state machine for every Mob/Npc entity across
// every zone in state. Must be called with state's write lock held —
// it mutates AIState, Movement, and queues combat actions.
//
// Ids are collected first, then each entity is re-looked-up by fresh
// id before mutation, so that iterating one entity's neighbors never
// aliases the mutable reference currently being updated.
func (e *Engine) Update(state *world.State, dt float64) {
	for zoneID, zone := range state.Zones() {
		var mobIDs []entity.ID
		for _, m := range zone.Store.ByKind(entity.KindMob) {
			mobIDs = append(mobIDs, m.ID)
		}
		for _, m := range zone.Store.ByKind(entity.KindNpc) {
			mobIDs = append(mobIDs, m.ID)
		}

		for _, id := range mobIDs {
			m := zone.Store.Get(id)
			if m == nil || m.AI == nil || m.Position == nil {
				continue
			}
			if !m.Alive() {
				continue
			}
			e.updateOne(state, zoneID, m, dt)
		}
	}
}

func (e *Engine) updateOne(state *world.State, zoneID string, m *entity.Entity, dt float64) {
	ai := m.AI
	zone := state.Zone(zoneID)

	if ai.ScriptName != "" && e.script != nil {
		nearby := zone.Store.InRange(m.Position.X, m.Position.Y, m.Position.Z, ai.AggroRange)
		targetID, attack, err := e.script.Decide(m, nearby, dt)
		if err != nil {
			e.log.Warn("ai: script decide failed, falling back to built-in FSM",
				zap.Uint64("entity_id", uint64(m.ID)), zap.Error(err))
		} else {
			e.applyScriptDecision(state, zoneID, m, targetID, attack)
			return
		}
	}

	e.updateBuiltinFSM(state, zoneID, m, dt)
}

func (e *Engine) applyScriptDecision(state *world.State, zoneID string, m *entity.Entity, targetID entity.ID, attack bool) {
	ai := m.AI
	if targetID == 0 {
		ai.HasTarget = false
		ai.Variant = entity.AIIdle
		return
	}
	ai.HasTarget = true
	ai.TargetID = targetID
	ai.Variant = entity.AIChase
	if attack {
		ai.Variant = entity.AIAttack
		state.QueueCombatAction(world.CombatAction{AttackerID: m.ID, TargetID: targetID, Kind: world.CombatAutoAttack})
	}
}

func (e *Engine) updateBuiltinFSM(state *world.State, zoneID string, m *entity.Entity, dt float64) {
	ai := m.AI
	zone := state.Zone(zoneID)

	distHome := distance3(m.Position.X, m.Position.Y, m.Position.Z, ai.HomeX, ai.HomeY, ai.HomeZ)
	if distHome > ai.LeashRange {
		ai.Variant = entity.AIReturnHome
		ai.HasTarget = false
	}

	switch ai.Variant {
	case entity.AIReturnHome:
		moveToward(m, ai.HomeX, ai.HomeY, ai.HomeZ, dt)
		if distHome < 0.5 {
			ai.Variant = entity.AIIdle
			if m.Movement != nil {
				m.Movement.Moving = false
			}
		}
		return

	case entity.AIIdle:
		target := acquireTarget(zone, m, ai.AggroRange)
		if target != 0 {
			ai.TargetID = target
			ai.HasTarget = true
			ai.Variant = entity.AIChase
		}
		return

	case entity.AIChase, entity.AIAttack:
		target := zone.Store.Get(ai.TargetID)
		if target == nil || !target.Alive() || target.Position == nil {
			ai.HasTarget = false
			ai.Variant = entity.AIIdle
			return
		}
		d := distance3(m.Position.X, m.Position.Y, m.Position.Z, target.Position.X, target.Position.Y, target.Position.Z)
		attackRange := 1.5
		if m.Combat != nil && m.Combat.Range > 0 {
			attackRange = m.Combat.Range
		}
		if d <= attackRange {
			ai.Variant = entity.AIAttack
			if m.Movement != nil {
				m.Movement.Moving = false
			}
			state.QueueCombatAction(world.CombatAction{AttackerID: m.ID, TargetID: ai.TargetID, Kind: world.CombatAutoAttack})
			return
		}
		ai.Variant = entity.AIChase
		moveToward(m, target.Position.X, target.Position.Y, target.Position.Z, dt)
	}
}

// acquireTarget scans for the nearest player within aggroRange.
func acquireTarget(zone *world.Zone, m *entity.Entity, aggroRange float64) entity.ID {
	best := entity.ID(0)
	bestDist := math.MaxFloat64
	for _, candidate := range zone.Store.InRange(m.Position.X, m.Position.Y, m.Position.Z, aggroRange) {
		if candidate.Kind != entity.KindPlayer || !candidate.Alive() || candidate.Position == nil {
			continue
		}
		d := distance3(m.Position.X, m.Position.Y, m.Position.Z, candidate.Position.X, candidate.Position.Y, candidate.Position.Z)
		if d < bestDist {
			bestDist = d
			best = candidate.ID
		}
	}
	return best
}

func moveToward(m *entity.Entity, x, y, z float64, dt float64) {
	if m.Movement == nil {
		return
	}
	dx := x - m.Position.X
	dy := y - m.Position.Y
	dz := z - m.Position.Z
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if d < 1e-6 {
		m.Movement.Moving = false
		return
	}
	speed := m.Movement.MaxSpeed
	if speed <= 0 {
		speed = 4
	}
	m.Movement.VelX = dx / d * speed
	m.Movement.VelY = dy / d * speed
	m.Movement.VelZ = dz / d * speed
	m.Movement.Moving = true
}

func distance3(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx, dy, dz := x2-x1, y2-y1, z2-z1
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
