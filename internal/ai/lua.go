package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/openmmo/realmd/internal/entity"
)

// LuaRunner loads a directory of per-mob behavior scripts and runs each
// script's top-level chunk as its decide body, called with (self id,
// nearby table, dt) and returning (target id, attack), mirroring the calling
// convention the teacher's scripting layer uses for monster AI (Go
// handles guards directly; Lua handles everything else).
type LuaRunner struct {
	scripts map[string]*lua.FunctionProto
}

// NewLuaRunner compiles the given name→source map once at startup.
func NewLuaRunner(sources map[string]string) (*LuaRunner, error) {
	r := &LuaRunner{scripts: make(map[string]*lua.FunctionProto)}
	for name, src := range sources {
		proto, err := compile(src, name)
		if err != nil {
			return nil, fmt.Errorf("ai: compiling script %q: %w", name, err)
		}
		r.scripts[name] = proto
	}
	return r, nil
}

func compile(src, name string) (*lua.FunctionProto, error) {
	l := lua.NewState()
	defer l.Close()
	chunk, err := l.LoadString(src)
	if err != nil {
		return nil, err
	}
	return chunk.(*lua.LFunction).Proto, nil
}

// Decide runs the named script's chunk with self's id, a table of its
// currently visible neighbors, and dt, returning the chosen target id
// and whether to attack. A global function named decide defined by the
// script is not called.
func (r *LuaRunner) Decide(self *entity.Entity, nearby []*entity.Entity, dt float64) (entity.ID, bool, error) {
	proto, ok := r.scripts[self.AI.ScriptName]
	if !ok {
		return 0, false, fmt.Errorf("ai: no script registered for %q", self.AI.ScriptName)
	}

	l := lua.NewState()
	defer l.Close()

	fn := l.NewFunctionFromProto(proto)
	l.Push(fn)
	l.Push(lua.LNumber(self.ID))
	l.Push(buildNearbyTable(l, nearby))
	l.Push(lua.LNumber(dt))

	if err := l.PCall(3, 2, nil); err != nil {
		return 0, false, fmt.Errorf("ai: script %q errored: %w", self.AI.ScriptName, err)
	}

	attack := lua.LVAsBool(l.Get(-1))
	targetRaw := l.Get(-2)
	l.Pop(2)

	targetID, ok := targetRaw.(lua.LNumber)
	if !ok {
		return 0, attack, nil
	}
	return entity.ID(targetID), attack, nil
}

// LoadScripts reads every *.lua file in dir, keyed by file name with
// the extension stripped — the key a spawn's script_name must match.
// A missing or empty dir falls back to the built-in script set so the
// Lua path is exercised even before an operator supplies their own
// content directory, mirroring internal/worlddata's LoadOrDefault.
func LoadScripts(dir string) (map[string]string, error) {
	if dir == "" {
		return defaultScripts(), nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultScripts(), nil
		}
		return nil, fmt.Errorf("ai: reading script dir %s: %w", dir, err)
	}

	sources := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("ai: reading script %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".lua")
		sources[name] = string(raw)
	}
	if len(sources) == 0 {
		return defaultScripts(), nil
	}
	return sources, nil
}

func defaultScripts() map[string]string {
	return map[string]string{"ember_hound": defaultEmberHoundScript}
}

// defaultEmberHoundScript picks the first visible player as its
// target and always attacks once in range, the simplest decide body
// that still differs observably from the built-in nearest-target FSM.
const defaultEmberHoundScript = `
local self_id, nearby, dt = ...
local target = 0
for _, e in ipairs(nearby) do
  if e.kind == "player" then
    target = e.id
    break
  end
end
if target == 0 then
  return 0, false
end
return target, true
`

func buildNearbyTable(l *lua.LState, nearby []*entity.Entity) *lua.LTable {
	t := l.NewTable()
	for i, e := range nearby {
		row := l.NewTable()
		row.RawSetString("id", lua.LNumber(e.ID))
		row.RawSetString("kind", lua.LString(e.Kind.String()))
		if e.Position != nil {
			row.RawSetString("x", lua.LNumber(e.Position.X))
			row.RawSetString("y", lua.LNumber(e.Position.Y))
			row.RawSetString("z", lua.LNumber(e.Position.Z))
		}
		t.RawSetInt(i+1, row)
	}
	return t
}
