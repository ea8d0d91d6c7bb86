// Package session implements the per-connection Session record and
// its registry: synthetic-id allocation, the outbound envelope
// channel, and character-id mapping, as described by the WorldState's
// sibling contract in internal/world.
package session

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/openmmo/realmd/internal/entity"
	"github.com/openmmo/realmd/internal/protocol"
)

// Session is created on socket accept and destroyed after cleanup on
// disconnect. Synthetic ids are per-session only — the wire never
// exposes durable uuids.
type Session struct {
	mu sync.Mutex

	ID              string // uuid
	Authenticated   bool
	AccountID       *uuid.UUID
	CharacterID     *uuid.UUID // durable character uuid, set once a character is selected
	PlayerEntityID  *entity.ID
	ConnectedAt     time.Time

	nextSynthetic  uint64
	synthByDurable map[uuid.UUID]uint64
	durableBySynth map[uint64]uuid.UUID

	Outbound chan protocol.Envelope
	Limiter  *rate.Limiter
}

// New allocates a fresh session with the given outbound channel
// capacity and inbound rate limit.
func New(outboundBuffer int, ratePerSec float64, burst int) *Session {
	return &Session{
		ID:             uuid.NewString(),
		ConnectedAt:    time.Now(),
		synthByDurable: make(map[uuid.UUID]uint64),
		durableBySynth: make(map[uint64]uuid.UUID),
		Outbound:       make(chan protocol.Envelope, outboundBuffer),
		Limiter:        rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// Authenticate transitions the session to authenticated and installs
// the account and entity ids. A playerID of 0 means no player entity
// yet (entity ids start at 1), leaving the session without one.
// character is recorded as given, nil included.
func (s *Session) Authenticate(account uuid.UUID, playerID entity.ID, character *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Authenticated = true
	s.AccountID = &account
	s.PlayerEntityID = nil
	if playerID != 0 {
		id := playerID
		s.PlayerEntityID = &id
	}
	s.CharacterID = character
}

// AllocatePlayerID returns the already-installed entity id, or
// allocates nothing — player entity ids come from WorldState.
// SpawnPlayerEntity, not from the session's own counter; this method
// exists so callers have one place to read the "current" player id.
func (s *Session) AllocatePlayerID() (entity.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PlayerEntityID == nil {
		return 0, false
	}
	return *s.PlayerEntityID, true
}

// MapCharacterID returns the existing wire id for durable if one was
// already allocated, otherwise allocates the next synthetic id from
// this session's monotonic counter. Synthetic ids stay <= MaxInt64 so
// clients may use signed 64-bit integers.
func (s *Session) MapCharacterID(durable uuid.UUID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if synth, ok := s.synthByDurable[durable]; ok {
		return synth
	}
	s.nextSynthetic++
	synth := s.nextSynthetic
	if synth > math.MaxInt64 {
		// Exhausting 2^63 synthetic ids in one session never happens in
		// practice; guard anyway rather than silently wrapping into a
		// collision.
		panic("session: synthetic id space exhausted")
	}
	s.synthByDurable[durable] = synth
	s.durableBySynth[synth] = durable
	return synth
}

// DurableForSynthetic is the inverse of MapCharacterID.
func (s *Session) DurableForSynthetic(synth uint64) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.durableBySynth[synth]
	return d, ok
}

// Send attempts a non-blocking push onto the bounded outbound channel.
// A false return means the channel is full or closed and env was not
// queued. Send does not end the session, and the callers in
// internal/conn and internal/tick log the drop and carry on; a failed
// send does not trigger disconnect cleanup.
func (s *Session) Send(env protocol.Envelope) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.Outbound <- env:
		return true
	default:
		return false
	}
}
