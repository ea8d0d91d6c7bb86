package protocol

// HandshakeRequest inits a connection and negotiates protocol version.
type HandshakeRequest struct {
	ClientVersion string `json:"client_version"`
}

type HandshakeResponse struct {
	Accepted        bool   `json:"accepted"`
	ProtocolVersion int    `json:"protocol_version"`
	ServerVersion   string `json:"server_version"`
}

// AuthRequest logs into an existing account (CharacterName unset means
// login-or-auto-register against Username) or names the character the
// caller intends to use after login.
type AuthRequest struct {
	Username      string  `json:"username"`
	PasswordHash  string  `json:"password_hash"`
	CharacterName *string `json:"character_name,omitempty"`
}

type AuthResponse struct {
	Success      bool    `json:"success"`
	PlayerID     *uint64 `json:"player_id,omitempty"`
	SessionToken *string `json:"session_token,omitempty"`
	Message      string  `json:"message,omitempty"`
}

type CharacterListRequest struct{}

type CharacterSummary struct {
	CharacterID uint64 `json:"character_id"` // synthetic wire id for this session
	Name        string `json:"name"`
	Class       string `json:"class"`
	ZoneID      string `json:"zone_id"`
}

type CharacterListResponse struct {
	Success    bool               `json:"success"`
	Characters []CharacterSummary `json:"characters"`
	Message    string             `json:"message,omitempty"`
}

// CharacterCreateRequest's Class must be one of "warrior", "mage", "rogue".
type CharacterCreateRequest struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

type CharacterCreateResponse struct {
	Success   bool   `json:"success"`
	Character *CharacterSummary `json:"character,omitempty"`
	Message   string `json:"message,omitempty"`
}

type CharacterSelectRequest struct {
	CharacterID uint64 `json:"character_id"`
}

type CharacterSelectResponse struct {
	Success  bool    `json:"success"`
	PlayerID *uint64 `json:"player_id,omitempty"`
	Message  string  `json:"message,omitempty"`
}

type CharacterDeleteRequest struct {
	CharacterID uint64 `json:"character_id"`
}

type CharacterDeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MovementIntent is one-way; the server never replies directly to it.
type MovementIntent struct {
	TargetX       float64  `json:"target_x"`
	TargetY       float64  `json:"target_y"`
	TargetZ       float64  `json:"target_z"`
	SpeedModifier float64  `json:"speed_modifier"`
	Stop          bool     `json:"stop"`
	Facing        float64  `json:"facing"`
}

// CombatActionType enumerates the wire action-type.
type CombatActionType string

const (
	CombatActionAutoAttack CombatActionType = "auto_attack"
	CombatActionAbility    CombatActionType = "ability"
)

// CombatAction is one-way.
type CombatAction struct {
	ActionType CombatActionType `json:"action_type"`
	TargetID   uint64           `json:"target_id"`
	AbilityID  *uint32          `json:"ability_id,omitempty"`
}

type Ping struct {
	Timestamp int64 `json:"timestamp"`
}

type Pong struct {
	Timestamp int64 `json:"timestamp"`
}

// EntityUpdate is the per-entity payload inside a WorldSnapshot.
type EntityUpdate struct {
	EntityID    uint64  `json:"entity_id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Yaw         float64 `json:"yaw"`
	IsMoving    bool    `json:"is_moving"`
	Health      int32   `json:"health,omitempty"`
	MaxHealth   int32   `json:"max_health,omitempty"`
}

type WorldSnapshot struct {
	PlayerEntityID uint64         `json:"player_entity_id"`
	Entities       []EntityUpdate `json:"entities"`
}

// ErrorCode enumerates structured disposition codes for the Error tag.
type ErrorCode string

const (
	ErrorCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrorCodeUnauthenticated   ErrorCode = "unauthenticated"
	ErrorCodeAccountFailure    ErrorCode = "account_failure"
	ErrorCodeOwnershipMismatch ErrorCode = "ownership_mismatch"
	ErrorCodeInternal          ErrorCode = "internal"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type DisconnectReason string

const (
	DisconnectReasonShutdown       DisconnectReason = "server_shutdown"
	DisconnectReasonKicked         DisconnectReason = "kicked"
	DisconnectReasonProtocolError DisconnectReason = "protocol_error"
)

type Disconnect struct {
	Reason DisconnectReason `json:"reason"`
}
