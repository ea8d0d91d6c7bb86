package worlddata

import "testing"

func TestLoadOrDefaultFallsBackToBuiltinWorld(t *testing.T) {
	table, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if len(table.Zone) != 2 {
		t.Fatalf("expected 2 zones in the built-in world, got %d", len(table.Zone))
	}
	if len(table.Portal) != 2 {
		t.Fatalf("expected 2 portals in the built-in world, got %d", len(table.Portal))
	}
}

func TestApplyWiresZonesPortalsAndSpawns(t *testing.T) {
	table, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	templates, err := LoadTemplatesOrDefault("")
	if err != nil {
		t.Fatalf("LoadTemplatesOrDefault: %v", err)
	}
	state := Apply(table, templates)

	if state.Zone("zone-1") == nil || state.Zone("zone-2") == nil {
		t.Fatal("expected both built-in zones to be present")
	}

	zone1 := state.Zone("zone-1")
	if len(zone1.Store.All()) == 0 {
		t.Fatal("expected the built-in wolf spawn to populate zone-1")
	}
	wolf := zone1.Store.All()[0]
	if wolf.Health == nil || wolf.Health.Maximum != 40 {
		t.Fatalf("expected the ridgeback_wolf template to supply health 40, got %+v", wolf.Health)
	}
}

func TestApplyResolvesTemplateFieldsOnlyWhenSpawnLeavesThemZero(t *testing.T) {
	table := &Table{
		Zone:  []ZoneDef{{ID: "zone-1", Name: "Test", MinX: -10, MinY: -10, MinZ: -10, MaxX: 10, MaxY: 10, MaxZ: 10}},
		Spawn: []SpawnDef{{ZoneID: "zone-1", Name: "Custom Wolf", Template: "ridgeback_wolf", Health: 999}},
	}
	templates, err := LoadTemplatesOrDefault("")
	if err != nil {
		t.Fatalf("LoadTemplatesOrDefault: %v", err)
	}
	state := Apply(table, templates)

	e := state.Zone("zone-1").Store.All()[0]
	if e.Health.Maximum != 999 {
		t.Fatalf("expected the spawn's explicit health to win over the template, got %d", e.Health.Maximum)
	}
	if e.Combat.AttackPower != 6 {
		t.Fatalf("expected attack_power to fall back to the template's value, got %v", e.Combat.AttackPower)
	}
}

func TestToWorldPortalMapsAxisAndComparison(t *testing.T) {
	p := toWorldPortal(PortalDef{
		FromZone: "a", ToZone: "b",
		Axis: "y", Comp: "lt", Threshold: -10,
	})
	if !p.Triggered(0, -11, 0) {
		t.Fatal("expected portal to trigger when y crosses below threshold")
	}
	if p.Triggered(0, -9, 0) {
		t.Fatal("expected portal not to trigger when y is above threshold")
	}
}
