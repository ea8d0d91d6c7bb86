package world

import (
	"strconv"
	"sync"

	"github.com/openmmo/realmd/internal/entity"
)

// MovementIntent is a client-originated request to change an entity's
// velocity/position, queued for the tick loop to validate and apply.
type MovementIntent struct {
	PlayerID      entity.ID
	TargetX       float64
	TargetY       float64
	TargetZ       float64
	SpeedModifier float64
	Stop          bool
	Facing        float64
}

// CombatActionKind distinguishes a plain attack from an ability use.
type CombatActionKind int

const (
	CombatAutoAttack CombatActionKind = iota
	CombatAbility
)

// CombatAction is a queued (attacker, action) pair awaiting resolution
// in the tick loop's combat phase.
type CombatAction struct {
	AttackerID entity.ID
	TargetID   entity.ID
	Kind       CombatActionKind
	AbilityID  *uint32
}

// State is the single authoritative simulation state: a map of zones,
// the player→zone index, and the two FIFO intent/action queues. It is
// exclusively owned by its embedded reader-writer lock; every method
// below assumes the caller already holds the appropriate lock (Lock
// for mutation, RLock for reads) — see internal/tick for the only
// caller that should acquire it directly during a tick, and
// internal/conn for the spawn/despawn edits made from a connection
// task.
type State struct {
	sync.RWMutex

	zones       map[string]*Zone
	playerZone  map[entity.ID]string
	portals     []Portal
	starterZone string

	movementQueue []MovementIntent
	combatQueue   []CombatAction
}

// NewState builds a WorldState with the two default starter zones and
// the default portal table wired between them.
func NewState() *State {
	s := &State{
		zones:      make(map[string]*Zone),
		playerZone: make(map[entity.ID]string),
		portals:    DefaultPortals(),
	}
	s.AddZone(NewZone("zone-1", "Sunfield Reach", -200, -200, -50, 95, 200, 50))
	s.AddZone(NewZone("zone-2", "Ashen Hollow", -145, -200, -50, 200, 200, 50))
	s.starterZone = "zone-1"
	return s
}

// NewEmptyState builds a WorldState with no zones or portals wired,
// for callers (internal/worlddata) that populate both from a loaded
// content table rather than the built-in two-zone demo world.
func NewEmptyState() *State {
	return &State{
		zones:      make(map[string]*Zone),
		playerZone: make(map[entity.ID]string),
	}
}

// AddZone registers a new zone, usable beyond the two starter zones
// via the same constructor. The first zone added to an empty state
// becomes the starter zone fallback used by resolveZoneLabel.
func (s *State) AddZone(z *Zone) {
	s.zones[z.ID] = z
	if s.starterZone == "" {
		s.starterZone = z.ID
	}
}

// AddPortal appends a portal to the transition table, usable by
// internal/worlddata when seeding a state built with NewEmptyState.
func (s *State) AddPortal(p Portal) {
	s.portals = append(s.portals, p)
}

// Zone returns the zone by id, or nil.
func (s *State) Zone(id string) *Zone {
	return s.zones[id]
}

// Zones returns every zone keyed by id. Callers must not mutate the
// returned map.
func (s *State) Zones() map[string]*Zone {
	return s.zones
}

// resolveZoneLabel resolves a zone_label by numeric id or
// case-insensitive name with '_'↔space normalization, falling back to
// the starter zone if unresolved.
func (s *State) resolveZoneLabel(label string) string {
	if _, ok := s.zones[label]; ok {
		return label
	}
	if n, err := strconv.Atoi(label); err == nil {
		candidate := "zone-" + strconv.Itoa(n)
		if _, ok := s.zones[candidate]; ok {
			return candidate
		}
	}
	norm := normalizeZoneLabel(label)
	for id, z := range s.zones {
		if normalizeZoneLabel(z.Name) == norm {
			return id
		}
	}
	return s.starterZone
}

// SpawnPlayerEntity resolves zone_label, allocates an entity id,
// constructs a Player entity with the given pose and health, adds it
// to the zone's active set, and records the player→zone mapping.
func (s *State) SpawnPlayerEntity(name, zoneLabel string, pose entity.Position, health entity.Health) entity.ID {
	zoneID := s.resolveZoneLabel(zoneLabel)
	zone := s.zones[zoneID]

	id := entity.GenerateID()
	poseCopy := pose
	healthCopy := health
	e := &entity.Entity{
		ID:       id,
		Kind:     entity.KindPlayer,
		Name:     name,
		Position: &poseCopy,
		Health:   &healthCopy,
		Movement: &entity.Movement{MaxSpeed: 8, Speed: 8},
	}
	zone.Store.Add(e)
	zone.AddPlayer(id)
	s.playerZone[id] = zoneID
	return id
}

// RemovePlayer drops the entity from its zone, clears the active set,
// and removes the player→zone entry. Idempotent.
func (s *State) RemovePlayer(id entity.ID) {
	zoneID, ok := s.playerZone[id]
	if !ok {
		return
	}
	if zone := s.zones[zoneID]; zone != nil {
		zone.Store.Remove(id)
		zone.RemovePlayer(id)
	}
	delete(s.playerZone, id)
}

// RemovePlayerByName removes every Player-kind entity whose display
// name matches, used to purge stale duplicates on re-login.
func (s *State) RemovePlayerByName(name string) {
	for _, zone := range s.zones {
		for _, e := range zone.Store.ByKind(entity.KindPlayer) {
			if e.Name == name {
				zone.Store.Remove(e.ID)
				zone.RemovePlayer(e.ID)
				delete(s.playerZone, e.ID)
			}
		}
	}
}

// GetPlayerPose is read-only.
func (s *State) GetPlayerPose(id entity.ID) (entity.Position, bool) {
	zoneID, ok := s.playerZone[id]
	if !ok {
		return entity.Position{}, false
	}
	zone := s.zones[zoneID]
	if zone == nil {
		return entity.Position{}, false
	}
	e := zone.Store.Get(id)
	if e == nil || e.Position == nil {
		return entity.Position{}, false
	}
	return *e.Position, true
}

// GetPlayerName is read-only.
func (s *State) GetPlayerName(id entity.ID) (string, bool) {
	zoneID, ok := s.playerZone[id]
	if !ok {
		return "", false
	}
	zone := s.zones[zoneID]
	if zone == nil {
		return "", false
	}
	e := zone.Store.Get(id)
	if e == nil {
		return "", false
	}
	return e.Name, true
}

// PlayerZoneID returns the zone id the player is currently mapped to.
func (s *State) PlayerZoneID(id entity.ID) (string, bool) {
	zoneID, ok := s.playerZone[id]
	return zoneID, ok
}

// QueueMovementIntent pushes into the movement FIFO. Drained exactly
// once per tick.
func (s *State) QueueMovementIntent(intent MovementIntent) {
	s.movementQueue = append(s.movementQueue, intent)
}

// QueueCombatAction pushes into the combat FIFO. Drained exactly once
// per tick.
func (s *State) QueueCombatAction(action CombatAction) {
	s.combatQueue = append(s.combatQueue, action)
}

// DrainMovementIntents returns and clears the movement queue.
func (s *State) DrainMovementIntents() []MovementIntent {
	q := s.movementQueue
	s.movementQueue = nil
	return q
}

// DrainCombatActions returns and clears the combat queue.
func (s *State) DrainCombatActions() []CombatAction {
	q := s.combatQueue
	s.combatQueue = nil
	return q
}

// EnsurePlayerZoneMapping is a lazy repair: if the player→zone entry
// is missing, scan zones for the entity and reinstate it.
func (s *State) EnsurePlayerZoneMapping(id entity.ID) (string, bool) {
	if zoneID, ok := s.playerZone[id]; ok {
		return zoneID, true
	}
	for zoneID, zone := range s.zones {
		if zone.Store.Get(id) != nil {
			s.playerZone[id] = zoneID
			return zoneID, true
		}
	}
	return "", false
}

// EvaluateZoneTransitions is called once per tick, after simulation:
// for each active player in each zone, check every portal rooted at
// that zone and move the player across if triggered.
func (s *State) EvaluateZoneTransitions() {
	type move struct {
		id       entity.ID
		fromZone string
		portal   Portal
	}
	var moves []move

	for zoneID, zone := range s.zones {
		for id := range zone.ActivePlayers {
			e := zone.Store.Get(id)
			if e == nil || e.Position == nil {
				continue
			}
			for _, p := range s.portals {
				if p.FromZone != zoneID {
					continue
				}
				if p.Triggered(e.Position.X, e.Position.Y, e.Position.Z) {
					moves = append(moves, move{id: id, fromZone: zoneID, portal: p})
					break
				}
			}
		}
	}

	for _, m := range moves {
		src := s.zones[m.fromZone]
		dst := s.zones[m.portal.ToZone]
		if src == nil || dst == nil {
			continue
		}
		e := src.Store.Get(m.id)
		if e == nil {
			continue
		}
		src.Store.Remove(m.id)
		src.RemovePlayer(m.id)

		if e.Position != nil {
			e.Position.X = m.portal.IncomingX
			e.Position.Y = m.portal.IncomingY
			e.Position.Z = m.portal.IncomingZ
		}
		dst.Store.Add(e)
		dst.AddPlayer(m.id)
		s.playerZone[m.id] = m.portal.ToZone
	}
}

// Update advances every zone's entity store by dt (health regen,
// movement integration). AI is driven separately by internal/tick.
func (s *State) Update(dt float64) {
	for _, zone := range s.zones {
		zone.Store.Update(dt)
	}
}
