// Package entity implements the capability-based entity model: a
// small identity record plus optional component slots, backed by a
// process-global monotonic id allocator.
package entity

import "sync/atomic"

// ID is an opaque identifier, unique within a running process and
// never reused.
type ID uint64

// Kind distinguishes the broad categories of entity the world holds.
type Kind int

const (
	KindPlayer Kind = iota
	KindMob
	KindNpc
	KindWorldObject
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMob:
		return "mob"
	case KindNpc:
		return "npc"
	case KindWorldObject:
		return "world_object"
	default:
		return "unknown"
	}
}

// Position is the entity's pose in world space.
type Position struct {
	X, Y, Z float64
	Yaw     float64
}

// Movement holds intent-driven velocity, not a physical quantity: no
// damping or friction is ever applied to it.
type Movement struct {
	VelX, VelY, VelZ float64
	Speed            float64
	MaxSpeed         float64
	Moving           bool
}

// Health is clamped to [0, Maximum] by every mutator in this package.
type Health struct {
	Current  int32
	Maximum  int32
	RegenPS  float64
	accum    float64 // fractional regen carried between ticks
}

// Combat holds the numbers the tick loop's validators read from when
// resolving an attack.
type Combat struct {
	AttackPower   float64
	Defense       float64
	Range         float64
	AttacksPerSec float64
	LastAttackAt  int64 // unix millis of the entity's last successful attack
}

// AIVariant is the coarse behavior state of a mob's AI.
type AIVariant int

const (
	AIIdle AIVariant = iota
	AIChase
	AIAttack
	AIReturnHome
)

// AIState drives the idle → chase → attack → return-home state machine.
type AIState struct {
	Variant    AIVariant
	AggroRange float64
	LeashRange float64
	HomeX      float64
	HomeY      float64
	HomeZ      float64
	TargetID   ID
	HasTarget  bool
	ScriptName string // optional gopher-lua override, empty uses the built-in FSM
}

// Social is reserved for faction/reputation mechanics; present on any
// entity capable of being attacked or allied with.
type Social struct {
	Faction    string
	Reputation int32
}

// Appearance and network-sync bookkeeping live together since neither
// participates in simulation, only in what gets serialized.
type Appearance struct {
	Model string
}

// Entity is a record with a required identity and optional component
// slots. Invariant: if Movement != nil then Position != nil. The fields
// are exported and this package has no constructor, so the invariant
// is kept by the code that builds entities; nothing here checks it.
type Entity struct {
	ID   ID
	Kind Kind
	Name string

	Position   *Position
	Movement   *Movement
	Health     *Health
	Combat     *Combat
	AI         *AIState
	Social     *Social
	Appearance *Appearance
}

// Alive reports whether the entity can be considered alive. An entity
// with no Health component is always treated as alive.
func (e *Entity) Alive() bool {
	if e.Health == nil {
		return true
	}
	return e.Health.Current > 0
}

var nextID atomic.Uint64

// GenerateID returns a strictly increasing id, starting at 1.
func GenerateID() ID {
	return ID(nextID.Add(1))
}
