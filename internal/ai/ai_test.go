package ai

import (
	"testing"

	"go.uber.org/zap"

	"github.com/openmmo/realmd/internal/entity"
	"github.com/openmmo/realmd/internal/world"
)

func newMob(zone *world.Zone, x, y, z float64, script string) *entity.Entity {
	e := &entity.Entity{
		ID:       entity.GenerateID(),
		Kind:     entity.KindMob,
		Name:     "mob",
		Position: &entity.Position{X: x, Y: y, Z: z},
		Movement: &entity.Movement{MaxSpeed: 4},
		Health:   &entity.Health{Current: 20, Maximum: 20},
		Combat:   &entity.Combat{AttackPower: 4, Range: 1.5, AttacksPerSec: 1},
		AI: &entity.AIState{
			Variant:    entity.AIIdle,
			AggroRange: 10,
			LeashRange: 20,
			HomeX:      x,
			HomeY:      y,
			HomeZ:      z,
			ScriptName: script,
		},
	}
	zone.Store.Add(e)
	return e
}

func newPlayer(zone *world.Zone, x, y, z float64) *entity.Entity {
	e := &entity.Entity{
		ID:       entity.GenerateID(),
		Kind:     entity.KindPlayer,
		Name:     "player",
		Position: &entity.Position{X: x, Y: y, Z: z},
		Health:   &entity.Health{Current: 30, Maximum: 30},
	}
	zone.Store.Add(e)
	return e
}

func TestUpdateBuiltinFSM_AcquiresAndChasesNearbyPlayer(t *testing.T) {
	state := world.NewEmptyState()
	state.AddZone(world.NewZone("zone-1", "Test Zone", -100, -100, -100, 100, 100, 100))
	zone := state.Zone("zone-1")

	mob := newMob(zone, 0, 0, 0, "")
	newPlayer(zone, 3, 0, 0)

	engine := New(zap.NewNop(), nil)
	engine.Update(state, 0.05) // idle -> chase: acquires the target this tick
	engine.Update(state, 0.05) // chase: moves toward it the following tick

	if mob.AI.Variant != entity.AIChase {
		t.Fatalf("expected mob to stay in chase, got variant %v", mob.AI.Variant)
	}
	if !mob.Movement.Moving {
		t.Fatal("expected mob to start moving toward its target")
	}
}

func TestUpdateBuiltinFSM_ReturnsHomeBeyondLeash(t *testing.T) {
	state := world.NewEmptyState()
	state.AddZone(world.NewZone("zone-1", "Test Zone", -100, -100, -100, 100, 100, 100))
	zone := state.Zone("zone-1")

	mob := newMob(zone, 0, 0, 0, "")
	mob.AI.HasTarget = true
	mob.AI.Variant = entity.AIChase
	mob.Position.X = 50 // well beyond the 20-unit leash range

	engine := New(zap.NewNop(), nil)
	engine.Update(state, 0.05)

	if mob.AI.Variant != entity.AIReturnHome {
		t.Fatalf("expected return-home, got variant %v", mob.AI.Variant)
	}
}

func TestUpdateScriptDecision_OverridesBuiltinFSMWhenScriptAttached(t *testing.T) {
	state := world.NewEmptyState()
	state.AddZone(world.NewZone("zone-1", "Test Zone", -100, -100, -100, 100, 100, 100))
	zone := state.Zone("zone-1")

	mob := newMob(zone, 0, 0, 0, "ember_hound")
	player := newPlayer(zone, 5, 0, 0)

	runner, err := NewLuaRunner(map[string]string{"ember_hound": defaultEmberHoundScript})
	if err != nil {
		t.Fatalf("NewLuaRunner: %v", err)
	}

	engine := New(zap.NewNop(), runner)
	engine.Update(state, 0.05)

	if mob.AI.Variant != entity.AIAttack {
		t.Fatalf("expected script decision to drive the mob into attack, got %v", mob.AI.Variant)
	}
	if mob.AI.TargetID != player.ID {
		t.Fatalf("expected target %d, got %d", player.ID, mob.AI.TargetID)
	}
}

func TestUpdateScriptDecision_FallsBackToBuiltinFSMOnUnregisteredScript(t *testing.T) {
	state := world.NewEmptyState()
	state.AddZone(world.NewZone("zone-1", "Test Zone", -100, -100, -100, 100, 100, 100))
	zone := state.Zone("zone-1")

	mob := newMob(zone, 0, 0, 0, "missing_script")
	newPlayer(zone, 3, 0, 0)

	runner, err := NewLuaRunner(map[string]string{"ember_hound": defaultEmberHoundScript})
	if err != nil {
		t.Fatalf("NewLuaRunner: %v", err)
	}

	engine := New(zap.NewNop(), runner)
	engine.Update(state, 0.05)

	if mob.AI.Variant != entity.AIChase {
		t.Fatalf("expected fallback to the built-in FSM, got variant %v", mob.AI.Variant)
	}
}

func TestLoadScripts_MissingDirFallsBackToDefaults(t *testing.T) {
	sources, err := LoadScripts("/no/such/directory")
	if err != nil {
		t.Fatalf("LoadScripts: %v", err)
	}
	if _, ok := sources["ember_hound"]; !ok {
		t.Fatal("expected the built-in ember_hound script as a fallback")
	}
}
