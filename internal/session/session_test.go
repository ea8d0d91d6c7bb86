package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmmo/realmd/internal/protocol"
)

func envelopeFixture(seq int64) protocol.Envelope {
	return protocol.Envelope{SequenceID: seq, Tag: protocol.TagPing}
}

func TestMapCharacterID_IsBijectiveAndMonotonic(t *testing.T) {
	s := New(8, 30, 60)
	a := uuid.New()
	b := uuid.New()

	synthA := s.MapCharacterID(a)
	synthA2 := s.MapCharacterID(a)
	synthB := s.MapCharacterID(b)

	assert.Equal(t, synthA, synthA2)
	assert.NotEqual(t, synthA, synthB)
	assert.Greater(t, synthB, synthA)

	back, ok := s.DurableForSynthetic(synthA)
	require.True(t, ok)
	assert.Equal(t, a, back)
}

func TestSend_NonBlockingOnFullChannel(t *testing.T) {
	s := New(1, 30, 60)
	require.True(t, s.Send(envelopeFixture(1)))
	assert.False(t, s.Send(envelopeFixture(2)))
}

func TestRegistry_CreateGetRemove(t *testing.T) {
	r := NewRegistry()
	s := r.Create(8, 30, 60)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	r.Remove(s.ID)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
}
