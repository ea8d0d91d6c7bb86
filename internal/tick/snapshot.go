package tick

import (
	"sync"

	"github.com/openmmo/realmd/internal/entity"
	"github.com/openmmo/realmd/internal/protocol"
	"github.com/openmmo/realmd/internal/session"
	"github.com/openmmo/realmd/internal/world"
)

const (
	positionEpsilon = 0.05
	yawEpsilon      = 0.01
)

type poseBaseline struct {
	x, y, z, yaw float64
}

// SnapshotBuilder builds a per-session delta-suppressed WorldSnapshot.
// Baselines are keyed by (session id, entity id) rather than a
// process-global table, so interest management (different sessions
// seeing different entity sets) cannot desync one session's view from
// another's — see DESIGN.md's delta suppression baseline decision.
type SnapshotBuilder struct {
	mu        sync.Mutex
	baselines map[string]map[entity.ID]poseBaseline
}

// NewSnapshotBuilder returns an empty builder.
func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{baselines: make(map[string]map[entity.ID]poseBaseline)}
}

// Build must be called with the world's read lock held. It returns,
// for every session with a live player entity, the WorldSnapshot to
// push; a session with nothing new to see this tick has no entry.
func (b *SnapshotBuilder) Build(state *world.State, registry *session.Registry) map[*session.Session]protocol.WorldSnapshot {
	out := make(map[*session.Session]protocol.WorldSnapshot)

	for _, sess := range registry.All() {
		if snap, ok := b.BuildForSession(state, sess); ok {
			out[sess] = snap
		}
	}
	return out
}

// BuildForSession builds the delta-suppressed snapshot for one
// session. A session with no recorded baseline yet (e.g. the one just
// pushed after character select) sees every entity in its zone, since
// nothing has been recorded to suppress against.
func (b *SnapshotBuilder) BuildForSession(state *world.State, sess *session.Session) (protocol.WorldSnapshot, bool) {
	playerID, ok := sess.AllocatePlayerID()
	if !ok {
		return protocol.WorldSnapshot{}, false
	}
	zoneID, ok := state.PlayerZoneID(playerID)
	if !ok {
		return protocol.WorldSnapshot{}, false
	}
	zone := state.Zone(zoneID)
	if zone == nil {
		return protocol.WorldSnapshot{}, false
	}

	var updates []protocol.EntityUpdate
	for _, e := range zone.Store.All() {
		if e.Position == nil {
			continue
		}
		if !b.changed(sess.ID, e) {
			continue
		}
		updates = append(updates, toEntityUpdate(e))
		b.record(sess.ID, e)
	}

	if len(updates) == 0 {
		return protocol.WorldSnapshot{}, false
	}
	return protocol.WorldSnapshot{
		PlayerEntityID: uint64(playerID),
		Entities:       updates,
	}, true
}

func (b *SnapshotBuilder) changed(sessionID string, e *entity.Entity) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	sessionBaselines, ok := b.baselines[sessionID]
	if !ok {
		return true
	}
	prev, ok := sessionBaselines[e.ID]
	if !ok {
		return true
	}
	if abs(e.Position.X-prev.x) > positionEpsilon ||
		abs(e.Position.Y-prev.y) > positionEpsilon ||
		abs(e.Position.Z-prev.z) > positionEpsilon {
		return true
	}
	return abs(e.Position.Yaw-prev.yaw) > yawEpsilon
}

func (b *SnapshotBuilder) record(sessionID string, e *entity.Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.baselines[sessionID] == nil {
		b.baselines[sessionID] = make(map[entity.ID]poseBaseline)
	}
	b.baselines[sessionID][e.ID] = poseBaseline{x: e.Position.X, y: e.Position.Y, z: e.Position.Z, yaw: e.Position.Yaw}
}

// Forget drops a session's delta-suppression baseline, called from
// connection cleanup so a reused session id (never happens with uuids,
// but a belt-and-braces habit from the teacher's cleanup code) can't
// see a stale baseline.
func (b *SnapshotBuilder) Forget(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.baselines, sessionID)
}

func toEntityUpdate(e *entity.Entity) protocol.EntityUpdate {
	u := protocol.EntityUpdate{
		EntityID: uint64(e.ID),
		Kind:     e.Kind.String(),
		Name:     e.Name,
		X:        e.Position.X,
		Y:        e.Position.Y,
		Z:        e.Position.Z,
		Yaw:      e.Position.Yaw,
	}
	if e.Movement != nil {
		u.IsMoving = e.Movement.Moving
	}
	if e.Health != nil {
		u.Health = e.Health.Current
		u.MaxHealth = e.Health.Maximum
	}
	return u
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
