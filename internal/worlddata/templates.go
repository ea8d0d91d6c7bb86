package worlddata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Template is a reusable NPC/mob archetype: the stats shared by every
// spawn of a given creature, kept out of the spawn table itself so a
// zone's [[spawn]] rows only need a name, position, and the archetype
// to use. YAML rather than TOML here on purpose: the spawn table is
// tabular server content (BurntSushi/toml, matching the teacher's
// config layer), while a template list is closer to the hierarchical,
// human-curated data other examples load with yaml.v3.
type Template struct {
	Name          string  `yaml:"name"`
	Kind          string  `yaml:"kind"`
	LeashRange    float64 `yaml:"leash_range"`
	AggroRange    float64 `yaml:"aggro_range"`
	Health        int32   `yaml:"health"`
	AttackPower   int32   `yaml:"attack_power"`
	Defense       int32   `yaml:"defense"`
	AttacksPerSec float64 `yaml:"attacks_per_sec"`
	ScriptName    string  `yaml:"script_name"`
}

// TemplateTable indexes templates by name for resolve's lookup.
type TemplateTable map[string]Template

// LoadTemplates decodes a YAML list of NPC/mob archetypes from path.
func LoadTemplates(path string) (TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("worlddata: read template file %s: %w", path, err)
	}
	return decodeTemplates(raw)
}

// LoadTemplatesOrDefault loads path if it exists, falling back to the
// built-in demo archetype table otherwise, mirroring LoadOrDefault.
func LoadTemplatesOrDefault(path string) (TemplateTable, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return LoadTemplates(path)
		}
	}
	return decodeTemplates([]byte(defaultTemplatesYAML))
}

func decodeTemplates(raw []byte) (TemplateTable, error) {
	var list []Template
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("worlddata: decode template table: %w", err)
	}
	out := make(TemplateTable, len(list))
	for _, t := range list {
		out[t.Name] = t
	}
	return out, nil
}

// resolve fills any zero-valued field on s from the named template.
// Per-spawn values always win; the template only supplies defaults.
func (templates TemplateTable) resolve(s SpawnDef) SpawnDef {
	if s.Template == "" {
		return s
	}
	tmpl, ok := templates[s.Template]
	if !ok {
		return s
	}
	if s.Kind == "" {
		s.Kind = tmpl.Kind
	}
	if s.LeashRange == 0 {
		s.LeashRange = tmpl.LeashRange
	}
	if s.AggroRange == 0 {
		s.AggroRange = tmpl.AggroRange
	}
	if s.Health == 0 {
		s.Health = tmpl.Health
	}
	if s.AttackPower == 0 {
		s.AttackPower = tmpl.AttackPower
	}
	if s.Defense == 0 {
		s.Defense = tmpl.Defense
	}
	if s.AttacksPerSec == 0 {
		s.AttacksPerSec = tmpl.AttacksPerSec
	}
	if s.ScriptName == "" {
		s.ScriptName = tmpl.ScriptName
	}
	return s
}

const defaultTemplatesYAML = `
- name: ridgeback_wolf
  kind: mob
  leash_range: 30
  aggro_range: 12
  health: 40
  attack_power: 6
  defense: 2
  attacks_per_sec: 1.0
- name: ember_hound
  kind: mob
  leash_range: 35
  aggro_range: 15
  health: 55
  attack_power: 8
  defense: 1
  attacks_per_sec: 1.2
  script_name: ember_hound
`
