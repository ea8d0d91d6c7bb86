package entity

// Store is a per-zone id-indexed map of entities. It carries no lock
// of its own — callers hold the owning Zone's (ultimately the
// WorldState's) reader-writer lock.
type Store struct {
	entities map[ID]*Entity
}

// NewStore returns an empty entity store.
func NewStore() *Store {
	return &Store{entities: make(map[ID]*Entity)}
}

// Add inserts an entity, replacing any existing entry with the same id.
func (s *Store) Add(e *Entity) {
	s.entities[e.ID] = e
}

// Remove deletes an entity by id. A miss is a no-op.
func (s *Store) Remove(id ID) {
	delete(s.entities, id)
}

// Get returns the entity, or nil if absent.
func (s *Store) Get(id ID) *Entity {
	return s.entities[id]
}

// GetMut is an alias for Get that documents caller intent to mutate;
// Go has no separate mutable-borrow type, so this simply returns the
// same pointer Get would.
func (s *Store) GetMut(id ID) *Entity {
	return s.entities[id]
}

// All returns every entity in the store. The slice is a fresh copy of
// the pointers, safe to range over while the caller mutates entities.
func (s *Store) All() []*Entity {
	out := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	return out
}

// ByKind returns every entity of the given kind.
func (s *Store) ByKind(kind Kind) []*Entity {
	out := make([]*Entity, 0)
	for _, e := range s.entities {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// InRange returns every entity within radius of center (inclusive),
// using squared-distance comparison to avoid a sqrt per candidate.
// Entities with no Position are never in range.
func (s *Store) InRange(centerX, centerY, centerZ, radius float64) []*Entity {
	r2 := radius * radius
	out := make([]*Entity, 0)
	for _, e := range s.entities {
		if e.Position == nil {
			continue
		}
		dx := e.Position.X - centerX
		dy := e.Position.Y - centerY
		dz := e.Position.Z - centerZ
		if dx*dx+dy*dy+dz*dz <= r2 {
			out = append(out, e)
		}
	}
	return out
}

// Update advances every entity in the store by dt: health regenerates
// toward its maximum, and moving entities integrate velocity into
// position. AI is intentionally not updated here — see the tick
// package, which drives AI from a fresh id snapshot to avoid aliasing
// the entity it's currently examining.
func (s *Store) Update(dt float64) {
	for _, e := range s.entities {
		regenHealth(e.Health, dt)
		integrateMovement(e.Position, e.Movement, dt)
	}
}

func regenHealth(h *Health, dt float64) {
	if h == nil || h.RegenPS <= 0 || h.Current >= h.Maximum {
		return
	}
	h.accum += h.RegenPS * dt
	if h.accum < 1 {
		return
	}
	whole := int32(h.accum)
	h.accum -= float64(whole)
	h.Current += whole
	if h.Current > h.Maximum {
		h.Current = h.Maximum
	}
}

func integrateMovement(p *Position, m *Movement, dt float64) {
	if p == nil || m == nil || !m.Moving {
		return
	}
	p.X += m.VelX * dt
	p.Y += m.VelY * dt
	p.Z += m.VelZ * dt
}

// ApplyDamage subtracts dmg from the entity's health, clamping to the
// valid range and reporting whether the hit killed it.
func ApplyDamage(e *Entity, dmg int32) (killed bool) {
	if e.Health == nil {
		return false
	}
	if e.Health.Current <= dmg {
		e.Health.Current = 0
		return true
	}
	e.Health.Current -= dmg
	if e.Health.Current < 0 {
		e.Health.Current = 0
	}
	return false
}
