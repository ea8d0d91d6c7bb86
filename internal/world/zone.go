// Package world implements the spatial containers (Zone) and the
// single reader-writer-lock-guarded authoritative simulation state
// (State) that the tick loop and connection tasks operate on.
package world

import (
	"strings"

	"github.com/openmmo/realmd/internal/entity"
)

// Zone is a bounded spatial region owning an entity store and the set
// of player entity ids currently active inside it.
type Zone struct {
	ID   string
	Name string

	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64

	Store         *entity.Store
	ActivePlayers map[entity.ID]struct{}
}

// NewZone constructs an empty zone with the given axis-aligned bounds.
func NewZone(id, name string, minX, minY, minZ, maxX, maxY, maxZ float64) *Zone {
	return &Zone{
		ID:            id,
		Name:          name,
		MinX:          minX,
		MinY:          minY,
		MinZ:          minZ,
		MaxX:          maxX,
		MaxY:          maxY,
		MaxZ:          maxZ,
		Store:         entity.NewStore(),
		ActivePlayers: make(map[entity.ID]struct{}),
	}
}

// ContainsPosition is a closed AABB test.
func (z *Zone) ContainsPosition(x, y, zCoord float64) bool {
	return x >= z.MinX && x <= z.MaxX &&
		y >= z.MinY && y <= z.MaxY &&
		zCoord >= z.MinZ && zCoord <= z.MaxZ
}

// AddPlayer marks an entity id active in this zone. It does not touch
// the entity store — entity lifetime is independent of activity.
func (z *Zone) AddPlayer(id entity.ID) {
	z.ActivePlayers[id] = struct{}{}
}

// RemovePlayer clears an entity id from the active set.
func (z *Zone) RemovePlayer(id entity.ID) {
	delete(z.ActivePlayers, id)
}

// normalizeZoneLabel lowercases and replaces underscores with spaces
// so "Dark_Forest", "dark forest", and "DARK FOREST" all match.
func normalizeZoneLabel(label string) string {
	return strings.ToLower(strings.ReplaceAll(label, "_", " "))
}
