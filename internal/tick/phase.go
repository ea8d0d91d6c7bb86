// Package tick drives the fixed-rate authoritative simulation: a
// phase-ordered Runner, one System per phase, and the Loop that ticks
// it at 20 Hz and fans out snapshots.
package tick

import "time"

// Phase is one ordered stage of a tick. Grounded on the teacher's
// internal/core/system.Phase enum, trimmed to the phases SPEC_FULL.md
// names.
type Phase int

const (
	PhaseSimulate Phase = iota // entity store Update(dt): regen, movement integration, AI
	PhaseMovement               // drain + validate + apply movement intents
	PhaseCombat                 // drain + validate + resolve combat actions
	PhaseZone                   // evaluate zone transitions
	PhaseSnapshot               // build and push per-session delta snapshots
)

// System is one phase's unit of work.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
