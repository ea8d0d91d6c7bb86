package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID_StrictlyIncreasing(t *testing.T) {
	a := GenerateID()
	b := GenerateID()
	assert.Greater(t, uint64(b), uint64(a))
}

func TestStore_InRange_UsesSquaredDistance(t *testing.T) {
	s := NewStore()
	near := &Entity{ID: 1, Position: &Position{X: 1, Y: 0, Z: 0}}
	far := &Entity{ID: 2, Position: &Position{X: 100, Y: 0, Z: 0}}
	noPos := &Entity{ID: 3}
	s.Add(near)
	s.Add(far)
	s.Add(noPos)

	got := s.InRange(0, 0, 0, 5)
	assert.Len(t, got, 1)
	assert.Equal(t, ID(1), got[0].ID)
}

func TestStore_Update_RegenClampsToMaximum(t *testing.T) {
	s := NewStore()
	e := &Entity{ID: 1, Health: &Health{Current: 95, Maximum: 100, RegenPS: 50}}
	s.Add(e)

	s.Update(1.0)
	assert.EqualValues(t, 100, e.Health.Current)
}

func TestStore_Update_MovementIntegratesOnlyWhenMoving(t *testing.T) {
	s := NewStore()
	e := &Entity{
		ID:       1,
		Position: &Position{X: 0, Y: 0, Z: 0},
		Movement: &Movement{VelX: 4, Moving: false},
	}
	s.Add(e)
	s.Update(1.0)
	assert.Zero(t, e.Position.X)

	e.Movement.Moving = true
	s.Update(1.0)
	assert.Equal(t, 4.0, e.Position.X)
}

func TestApplyDamage_ClampsAtZeroAndReportsKill(t *testing.T) {
	e := &Entity{Health: &Health{Current: 5, Maximum: 10}}
	killed := ApplyDamage(e, 10)
	assert.True(t, killed)
	assert.Zero(t, e.Health.Current)
}

func TestApplyDamage_NonLethal(t *testing.T) {
	e := &Entity{Health: &Health{Current: 5, Maximum: 10}}
	killed := ApplyDamage(e, 3)
	assert.False(t, killed)
	assert.EqualValues(t, 2, e.Health.Current)
}

func TestEntity_Alive_NoHealthComponentIsAlwaysAlive(t *testing.T) {
	e := &Entity{}
	assert.True(t, e.Alive())
}
