// Package protocol defines the wire format exchanged between clients
// and realmd: a JSON envelope carrying a typed, tagged payload over a
// websocket text stream.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Tag identifies the concrete payload type carried by an Envelope.
type Tag string

const (
	TagHandshakeRequest        Tag = "handshake_request"
	TagHandshakeResponse       Tag = "handshake_response"
	TagAuthRequest             Tag = "auth_request"
	TagAuthResponse            Tag = "auth_response"
	TagCharacterListRequest    Tag = "character_list_request"
	TagCharacterListResponse   Tag = "character_list_response"
	TagCharacterCreateRequest  Tag = "character_create_request"
	TagCharacterCreateResponse Tag = "character_create_response"
	TagCharacterSelectRequest  Tag = "character_select_request"
	TagCharacterSelectResponse Tag = "character_select_response"
	TagCharacterDeleteRequest  Tag = "character_delete_request"
	TagCharacterDeleteResponse Tag = "character_delete_response"
	TagMovementIntent          Tag = "movement_intent"
	TagCombatAction            Tag = "combat_action"
	TagPing                    Tag = "ping"
	TagPong                    Tag = "pong"
	TagWorldSnapshot           Tag = "world_snapshot"
	TagEntityUpdate            Tag = "entity_update"
	TagError                   Tag = "error"
	TagDisconnect              Tag = "disconnect"
)

// Envelope is the outermost wire object. SequenceID is set by the
// client on requests and echoed back on the matching response; for
// the tick loop's snapshot pushes it carries the tick's wall-clock
// millisecond timestamp folded by TruncateSequence, and for the
// snapshot pushed after character select it is the request's id + 1.
type Envelope struct {
	SequenceID int64           `json:"sequence_id"`
	Timestamp  int64           `json:"timestamp"`
	Tag        Tag             `json:"tag"`
	Payload    json.RawMessage `json:"payload"`
}

// Encode marshals a concrete payload into an Envelope with the given
// tag, sequence id, and timestamp (unix millis).
func Encode(tag Tag, sequenceID int64, timestampMillis int64, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: encoding %s payload: %w", tag, err)
	}
	return Envelope{
		SequenceID: sequenceID,
		Timestamp:  timestampMillis,
		Tag:        tag,
		Payload:    raw,
	}, nil
}

// Decode unmarshals an Envelope's payload into dst, which must be a
// pointer to the struct matching the Envelope's Tag.
func Decode(env Envelope, dst any) error {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("protocol: decoding %s payload: %w", env.Tag, err)
	}
	return nil
}

// TruncateSequence folds a server counter into [0, 2^31), the range
// used for unsolicited push sequence ids.
func TruncateSequence(n uint64) int64 {
	return int64(n % (1 << 31))
}
