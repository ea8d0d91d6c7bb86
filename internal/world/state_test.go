package world

import (
	"testing"

	"github.com/openmmo/realmd/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnPlayerEntity_FallsBackToStarterZoneWhenUnresolved(t *testing.T) {
	s := NewState()
	id := s.SpawnPlayerEntity("Carol", "nonexistent-zone", entity.Position{X: 10, Y: 2, Z: 12}, entity.Health{Current: 100, Maximum: 100})

	zoneID, ok := s.PlayerZoneID(id)
	require.True(t, ok)
	assert.Equal(t, "zone-1", zoneID)

	pose, ok := s.GetPlayerPose(id)
	require.True(t, ok)
	assert.Equal(t, 10.0, pose.X)
}

func TestSpawnPlayerEntity_ResolvesByNormalizedName(t *testing.T) {
	s := NewState()
	id := s.SpawnPlayerEntity("Bob", "ashen_hollow", entity.Position{}, entity.Health{Maximum: 10})
	zoneID, _ := s.PlayerZoneID(id)
	assert.Equal(t, "zone-2", zoneID)
}

func TestRemovePlayerByName_PurgesDuplicates(t *testing.T) {
	s := NewState()
	first := s.SpawnPlayerEntity("Carol", "zone-1", entity.Position{}, entity.Health{Maximum: 10})
	s.RemovePlayerByName("Carol")

	_, ok := s.PlayerZoneID(first)
	assert.False(t, ok)
	assert.Nil(t, s.Zone("zone-1").Store.Get(first))
}

func TestEvaluateZoneTransitions_CrossesPortalAndTeleports(t *testing.T) {
	s := NewState()
	id := s.SpawnPlayerEntity("Dax", "zone-1", entity.Position{X: 96, Y: 0, Z: 0}, entity.Health{Maximum: 10})

	s.EvaluateZoneTransitions()

	zoneID, ok := s.PlayerZoneID(id)
	require.True(t, ok)
	assert.Equal(t, "zone-2", zoneID)

	pose, _ := s.GetPlayerPose(id)
	assert.Equal(t, -95.0, pose.X)

	assert.Nil(t, s.Zone("zone-1").Store.Get(id))
	assert.NotNil(t, s.Zone("zone-2").Store.Get(id))
}

func TestEnsurePlayerZoneMapping_RepairsMissingEntry(t *testing.T) {
	s := NewState()
	id := s.SpawnPlayerEntity("Eve", "zone-1", entity.Position{}, entity.Health{Maximum: 10})
	delete(s.playerZone, id)

	zoneID, ok := s.EnsurePlayerZoneMapping(id)
	require.True(t, ok)
	assert.Equal(t, "zone-1", zoneID)
}

func TestDrainMovementIntents_ClearsQueue(t *testing.T) {
	s := NewState()
	s.QueueMovementIntent(MovementIntent{PlayerID: 1})
	s.QueueMovementIntent(MovementIntent{PlayerID: 2})

	drained := s.DrainMovementIntents()
	assert.Len(t, drained, 2)
	assert.Empty(t, s.DrainMovementIntents())
}
