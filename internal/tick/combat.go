package tick

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/openmmo/realmd/internal/entity"
	"github.com/openmmo/realmd/internal/world"
)

// CombatSystem drains and resolves queued combat actions. Grounded on
// the teacher's internal/system/combat.go CombatSystem, which enqueues
// AttackRequests via QueueAttack and drains+resets the slice once per
// tick in Update — the same discipline applied here to
// world.State's combat queue.
type CombatSystem struct {
	state *world.State
	log   *zap.Logger
	now   func() time.Time
}

// NewCombatSystem builds the combat phase system.
func NewCombatSystem(state *world.State, log *zap.Logger) *CombatSystem {
	return &CombatSystem{state: state, log: log, now: time.Now}
}

func (s *CombatSystem) Phase() Phase { return PhaseCombat }

func (s *CombatSystem) Update(dt time.Duration) {
	actions := s.state.DrainCombatActions()
	for _, action := range actions {
		s.resolve(action)
	}
}

func (s *CombatSystem) resolve(action world.CombatAction) {
	if action.AttackerID == action.TargetID {
		s.log.Warn("tick: self-attack rejected", zap.Uint64("entity_id", uint64(action.AttackerID)))
		return
	}

	attackerZone, ok := s.state.EnsurePlayerZoneMapping(action.AttackerID)
	if !ok {
		s.log.Warn("tick: combat action from unmapped attacker discarded", zap.Uint64("attacker_id", uint64(action.AttackerID)))
		return
	}
	zone := s.state.Zone(attackerZone)
	if zone == nil {
		return
	}

	attacker := zone.Store.GetMut(action.AttackerID)
	target := zone.Store.GetMut(action.TargetID)
	if attacker == nil || target == nil {
		s.log.Warn("tick: combat action references cross-zone or missing entity",
			zap.Uint64("attacker_id", uint64(action.AttackerID)), zap.Uint64("target_id", uint64(action.TargetID)))
		return
	}
	if attacker.Combat == nil || target.Combat == nil {
		s.log.Warn("tick: combat action involves entity with no combat component",
			zap.Uint64("attacker_id", uint64(action.AttackerID)), zap.Uint64("target_id", uint64(action.TargetID)))
		return
	}
	if !target.Alive() {
		s.log.Warn("tick: combat action against dead target discarded", zap.Uint64("target_id", uint64(action.TargetID)))
		return
	}

	dist := rangeBetween(attacker, target)
	if dist > attacker.Combat.Range {
		s.log.Warn("tick: combat action out of range discarded",
			zap.Uint64("attacker_id", uint64(action.AttackerID)), zap.Float64("distance", dist), zap.Float64("range", attacker.Combat.Range))
		return
	}

	nowMillis := s.now().UnixMilli()
	if attacker.Combat.AttacksPerSec > 0 {
		cooldownMillis := int64(1000 / attacker.Combat.AttacksPerSec)
		if nowMillis-attacker.Combat.LastAttackAt < cooldownMillis {
			s.log.Warn("tick: attack on cooldown discarded", zap.Uint64("attacker_id", uint64(action.AttackerID)))
			return
		}
	}

	dmg := resolveDamage(attacker.Combat, target.Combat, action.Kind)
	killed := entity.ApplyDamage(target, dmg)
	attacker.Combat.LastAttackAt = nowMillis

	if killed {
		s.log.Info("tick: entity killed in combat", zap.Uint64("attacker_id", uint64(action.AttackerID)), zap.Uint64("target_id", uint64(action.TargetID)))
	}
}

// resolveDamage implements Damage = max(1, A[·2 for ability] −
// min(D·0.5, A·0.75)).
func resolveDamage(attacker, target *entity.Combat, kind world.CombatActionKind) int32 {
	a := attacker.AttackPower
	effective := a
	if kind == world.CombatAbility {
		effective = a * 2
	}
	mitigation := math.Min(target.Defense*0.5, a*0.75)
	dmg := effective - mitigation
	if dmg < 1 {
		dmg = 1
	}
	return int32(dmg)
}

func rangeBetween(a, b *entity.Entity) float64 {
	if a.Position == nil || b.Position == nil {
		return math.MaxFloat64
	}
	dx := a.Position.X - b.Position.X
	dy := a.Position.Y - b.Position.Y
	dz := a.Position.Z - b.Position.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
