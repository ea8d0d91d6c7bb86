// Package worlddata loads the zone/portal/spawn table that seeds
// internal/world.State at startup. Grounded on the teacher's
// internal/config package's BurntSushi/toml usage, applied here to
// spatial content instead of server settings — the same shift the
// teacher itself makes between internal/config (toml, tunables) and
// internal/data (generated Go tables, game content).
package worlddata

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/openmmo/realmd/internal/entity"
	"github.com/openmmo/realmd/internal/world"
)

// ZoneDef is one row of the [[zone]] table.
type ZoneDef struct {
	ID   string  `toml:"id"`
	Name string  `toml:"name"`
	MinX float64 `toml:"min_x"`
	MinY float64 `toml:"min_y"`
	MinZ float64 `toml:"min_z"`
	MaxX float64 `toml:"max_x"`
	MaxY float64 `toml:"max_y"`
	MaxZ float64 `toml:"max_z"`
}

// PortalDef is one row of the [[portal]] table.
type PortalDef struct {
	FromZone  string  `toml:"from_zone"`
	ToZone    string  `toml:"to_zone"`
	Axis      string  `toml:"axis"` // "x", "y", or "z"
	Comp      string  `toml:"comparison"` // "gt" or "lt"
	Threshold float64 `toml:"threshold"`
	IncomingX float64 `toml:"incoming_x"`
	IncomingY float64 `toml:"incoming_y"`
	IncomingZ float64 `toml:"incoming_z"`
}

// SpawnDef is one row of the [[spawn]] table — a mob or npc seeded
// into a zone at load time.
type SpawnDef struct {
	ZoneID        string  `toml:"zone_id"`
	Kind          string  `toml:"kind"` // "mob" or "npc"
	Name          string  `toml:"name"`
	X             float64 `toml:"x"`
	Y             float64 `toml:"y"`
	Z             float64 `toml:"z"`
	LeashRange    float64 `toml:"leash_range"`
	AggroRange    float64 `toml:"aggro_range"`
	Health        int32   `toml:"health"`
	AttackPower   int32   `toml:"attack_power"`
	Defense       int32   `toml:"defense"`
	AttacksPerSec float64 `toml:"attacks_per_sec"`
	ScriptName    string  `toml:"script_name"`
	Template      string  `toml:"template"` // optional NPC/mob archetype name, see Template
}

// Table is the full decoded world content document.
type Table struct {
	Zone   []ZoneDef   `toml:"zone"`
	Portal []PortalDef `toml:"portal"`
	Spawn  []SpawnDef  `toml:"spawn"`
}

// Load decodes a world content TOML file from path.
func Load(path string) (*Table, error) {
	var t Table
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("worlddata: decode %s: %w", path, err)
	}
	return &t, nil
}

// LoadOrDefault loads path if it exists, falling back to the built-in
// two-zone demo world otherwise — so realmd boots with a sane world
// even before an operator supplies their own content file.
func LoadOrDefault(path string) (*Table, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	var t Table
	if _, err := toml.Decode(defaultWorldTOML, &t); err != nil {
		return nil, fmt.Errorf("worlddata: decode built-in default: %w", err)
	}
	return &t, nil
}

// Apply builds a fresh world.State seeded from the table's zones and
// portals, then spawns every row of the spawn table as a mob/npc
// entity in its zone. Spawn rows naming a template have their
// zero-valued fields filled in from templates before spawning.
func Apply(t *Table, templates TemplateTable) *world.State {
	state := world.NewState()

	if len(t.Zone) > 0 {
		state = world.NewEmptyState()
		for _, z := range t.Zone {
			state.AddZone(world.NewZone(z.ID, z.Name, z.MinX, z.MinY, z.MinZ, z.MaxX, z.MaxY, z.MaxZ))
		}
	}

	for _, p := range t.Portal {
		state.AddPortal(toWorldPortal(p))
	}

	for _, s := range t.Spawn {
		spawnEntity(state, templates.resolve(s))
	}

	return state
}

func toWorldPortal(p PortalDef) world.Portal {
	axis := world.AxisX
	switch p.Axis {
	case "y":
		axis = world.AxisY
	case "z":
		axis = world.AxisZ
	}
	comp := world.GreaterThan
	if p.Comp == "lt" {
		comp = world.LessThan
	}
	return world.Portal{
		FromZone:  p.FromZone,
		ToZone:    p.ToZone,
		Axis:      axis,
		Comp:      comp,
		Threshold: p.Threshold,
		IncomingX: p.IncomingX,
		IncomingY: p.IncomingY,
		IncomingZ: p.IncomingZ,
	}
}

func spawnEntity(state *world.State, s SpawnDef) {
	zone := state.Zone(s.ZoneID)
	if zone == nil {
		return
	}
	kind := entity.KindMob
	if s.Kind == "npc" {
		kind = entity.KindNpc
	}
	e := &entity.Entity{
		ID:   entity.GenerateID(),
		Kind: kind,
		Name: s.Name,
		Position: &entity.Position{X: s.X, Y: s.Y, Z: s.Z},
		Movement: &entity.Movement{MaxSpeed: 4},
		Health:   &entity.Health{Current: s.Health, Maximum: s.Health, RegenPS: 1},
		Combat: &entity.Combat{
			AttackPower:   float64(s.AttackPower),
			Defense:       float64(s.Defense),
			Range:         2,
			AttacksPerSec: s.AttacksPerSec,
		},
		AI: &entity.AIState{
			Variant:    entity.AIIdle,
			AggroRange: s.AggroRange,
			LeashRange: s.LeashRange,
			HomeX:      s.X,
			HomeY:      s.Y,
			HomeZ:      s.Z,
			ScriptName: s.ScriptName,
		},
	}
	zone.Store.Add(e)
}

// defaultWorldTOML is the built-in two-zone demo world used when no
// content file is supplied, matching the zones internal/world.NewState
// already wires by hand.
const defaultWorldTOML = `
[[zone]]
id = "zone-1"
name = "Sunfield Reach"
min_x = -200
min_y = -200
min_z = -50
max_x = 95
max_y = 200
max_z = 50

[[zone]]
id = "zone-2"
name = "Ashen Hollow"
min_x = -145
min_y = -200
min_z = -50
max_x = 200
max_y = 200
max_z = 50

[[portal]]
from_zone = "zone-1"
to_zone = "zone-2"
axis = "x"
comparison = "gt"
threshold = 95
incoming_x = -95

[[portal]]
from_zone = "zone-2"
to_zone = "zone-1"
axis = "x"
comparison = "lt"
threshold = -145
incoming_x = 95

[[spawn]]
zone_id = "zone-1"
name = "Ridgeback Wolf"
x = 20
y = 10
z = 0
template = "ridgeback_wolf"

[[spawn]]
zone_id = "zone-2"
name = "Ember Hound"
x = -40
y = 60
z = 0
template = "ember_hound"
`
