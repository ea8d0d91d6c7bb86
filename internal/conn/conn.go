// Package conn implements the per-connection task: websocket upgrade,
// handshake, the inbound dispatch loop, and the cleanup sequence run
// on disconnect. Grounded on the teacher's internal/net.Session
// (Start/readLoop/writeLoop split) adapted from a raw net.Conn to a
// gorilla/websocket.Conn, and on internal/handler's auth/charlist/
// enterworld/movement/attack handlers for the request dispatch shape.
package conn

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openmmo/realmd/internal/accountsvc"
	"github.com/openmmo/realmd/internal/config"
	"github.com/openmmo/realmd/internal/entity"
	"github.com/openmmo/realmd/internal/persist"
	"github.com/openmmo/realmd/internal/protocol"
	"github.com/openmmo/realmd/internal/session"
	"github.com/openmmo/realmd/internal/tick"
	"github.com/openmmo/realmd/internal/world"
)

const protocolVersion = 1

// Deps bundles the collaborators a connection task needs, mirroring
// the teacher's handler.Deps grouping.
type Deps struct {
	Accounts  *accountsvc.Service
	World     *world.State
	Sessions  *session.Registry
	Snapshots *tick.SnapshotBuilder
	Log       *zap.Logger
	Network   config.NetworkConfig
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a websocket and runs the
// connection task until the socket closes or ctx is cancelled.
func ServeHTTP(ctx context.Context, deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			deps.Log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		run(ctx, wsConn, deps)
	}
}

func run(ctx context.Context, wsConn *websocket.Conn, deps *Deps) {
	sess := deps.Sessions.Create(deps.Network.OutQueueSize, deps.Network.RateLimitPerSec, deps.Network.RateLimitBurst)
	log := deps.Log.With(zap.String("session", sess.ID))
	log.Info("connection opened")

	writerDone := make(chan struct{})
	go writeLoop(wsConn, sess, deps.Network.WriteTimeout, writerDone, log)

	sendEnvelope(sess, protocol.TagHandshakeResponse, protocol.HandshakeResponse{
		Accepted:        true,
		ProtocolVersion: protocolVersion,
		ServerVersion:   "realmd",
	}, log)

	readLoop(ctx, wsConn, sess, deps, log)

	cleanup(sess, deps, log)
	close(sess.Outbound)
	<-writerDone
	wsConn.Close()
	log.Info("connection closed")
}

func readLoop(ctx context.Context, wsConn *websocket.Conn, sess *session.Session, deps *Deps, log *zap.Logger) {
	for {
		if deps.Network.ReadTimeout > 0 {
			wsConn.SetReadDeadline(time.Now().Add(deps.Network.ReadTimeout))
		}

		var env protocol.Envelope
		if err := wsConn.ReadJSON(&env); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read error", zap.Error(err))
			}
			return
		}

		if !sess.Limiter.Allow() {
			sendError(sess, protocol.ErrorCodeInvalidRequest, "rate limit exceeded", log)
			continue
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		dispatch(ctx, env, sess, deps, log)
	}
}

func dispatch(ctx context.Context, env protocol.Envelope, sess *session.Session, deps *Deps, log *zap.Logger) {
	switch env.Tag {
	case protocol.TagPing:
		handlePing(env, sess, log)
	case protocol.TagAuthRequest:
		handleAuth(ctx, env, sess, deps, log)
	case protocol.TagCharacterListRequest:
		handleCharacterList(ctx, sess, deps, log)
	case protocol.TagCharacterCreateRequest:
		handleCharacterCreate(ctx, env, sess, deps, log)
	case protocol.TagCharacterSelectRequest:
		handleCharacterSelect(ctx, env, sess, deps, log)
	case protocol.TagCharacterDeleteRequest:
		handleCharacterDelete(ctx, env, sess, deps, log)
	case protocol.TagMovementIntent:
		handleMovementIntent(env, sess, deps, log)
	case protocol.TagCombatAction:
		handleCombatAction(env, sess, deps, log)
	default:
		log.Warn("dropping frame with unrecognized tag", zap.String("tag", string(env.Tag)))
		sendError(sess, protocol.ErrorCodeInvalidRequest, "unrecognized tag", log)
	}
}

func handlePing(env protocol.Envelope, sess *session.Session, log *zap.Logger) {
	var ping protocol.Ping
	if err := protocol.Decode(env, &ping); err != nil {
		sendError(sess, protocol.ErrorCodeInvalidRequest, "malformed ping", log)
		return
	}
	sendEnvelope(sess, protocol.TagPong, protocol.Pong{Timestamp: ping.Timestamp}, log)
}

func handleAuth(ctx context.Context, env protocol.Envelope, sess *session.Session, deps *Deps, log *zap.Logger) {
	var req protocol.AuthRequest
	if err := protocol.Decode(env, &req); err != nil {
		sendError(sess, protocol.ErrorCodeInvalidRequest, "malformed auth request", log)
		return
	}

	// A supplied character name means the caller expects the account to
	// already exist; its absence means try-then-auto-register.
	autoCreate := req.CharacterName == nil
	account, err := deps.Accounts.Authenticate(ctx, req.Username, req.PasswordHash, autoCreate)
	if err != nil {
		msg := "authentication failed"
		if err == accountsvc.ErrAccountBanned {
			msg = "account banned"
		}
		sendEnvelope(sess, protocol.TagAuthResponse, protocol.AuthResponse{Success: false, Message: msg}, log)
		return
	}

	sess.Authenticate(account.ID, 0, nil)
	playerID := sess.MapCharacterID(account.ID)
	token := sess.ID
	sendEnvelope(sess, protocol.TagAuthResponse, protocol.AuthResponse{Success: true, PlayerID: &playerID, SessionToken: &token}, log)
	log.Info("authenticated", zap.String("username", req.Username))
}

func handleCharacterList(ctx context.Context, sess *session.Session, deps *Deps, log *zap.Logger) {
	if !requireAuthenticated(sess, log) {
		return
	}
	rows, err := deps.Accounts.ListCharacters(ctx, *sess.AccountID)
	if err != nil {
		sendEnvelope(sess, protocol.TagCharacterListResponse, protocol.CharacterListResponse{Success: false, Message: "internal error"}, log)
		return
	}
	summaries := make([]protocol.CharacterSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, toSummary(sess, row))
	}
	sendEnvelope(sess, protocol.TagCharacterListResponse, protocol.CharacterListResponse{Success: true, Characters: summaries}, log)
}

func handleCharacterCreate(ctx context.Context, env protocol.Envelope, sess *session.Session, deps *Deps, log *zap.Logger) {
	if !requireAuthenticated(sess, log) {
		return
	}
	var req protocol.CharacterCreateRequest
	if err := protocol.Decode(env, &req); err != nil {
		sendError(sess, protocol.ErrorCodeInvalidRequest, "malformed character create request", log)
		return
	}
	switch req.Class {
	case "warrior", "mage", "rogue":
	default:
		sendEnvelope(sess, protocol.TagCharacterCreateResponse, protocol.CharacterCreateResponse{Success: false, Message: "invalid class"}, log)
		return
	}

	id, err := deps.Accounts.CreateCharacter(ctx, *sess.AccountID, req.Name, req.Class)
	if err != nil {
		msg := "internal error"
		if err == accountsvc.ErrNameTaken {
			msg = "name already taken"
		}
		sendEnvelope(sess, protocol.TagCharacterCreateResponse, protocol.CharacterCreateResponse{Success: false, Message: msg}, log)
		return
	}

	row, err := deps.Accounts.LoadCharacter(ctx, id, *sess.AccountID)
	if err != nil {
		sendEnvelope(sess, protocol.TagCharacterCreateResponse, protocol.CharacterCreateResponse{Success: false, Message: "internal error"}, log)
		return
	}
	summary := toSummary(sess, *row)
	sendEnvelope(sess, protocol.TagCharacterCreateResponse, protocol.CharacterCreateResponse{Success: true, Character: &summary}, log)
}

func handleCharacterSelect(ctx context.Context, env protocol.Envelope, sess *session.Session, deps *Deps, log *zap.Logger) {
	if !requireAuthenticated(sess, log) {
		return
	}
	var req protocol.CharacterSelectRequest
	if err := protocol.Decode(env, &req); err != nil {
		sendError(sess, protocol.ErrorCodeInvalidRequest, "malformed character select request", log)
		return
	}

	durable, ok := sess.DurableForSynthetic(req.CharacterID)
	if !ok {
		sendEnvelope(sess, protocol.TagCharacterSelectResponse, protocol.CharacterSelectResponse{Success: false, Message: "unknown character id"}, log)
		return
	}
	row, err := deps.Accounts.LoadCharacter(ctx, durable, *sess.AccountID)
	if err != nil {
		sendEnvelope(sess, protocol.TagCharacterSelectResponse, protocol.CharacterSelectResponse{Success: false, Message: "character not found"}, log)
		return
	}

	deps.World.Lock()
	deps.World.RemovePlayerByName(row.Name)
	playerID := deps.World.SpawnPlayerEntity(row.Name, row.ZoneID,
		entity.Position{X: row.X, Y: row.Y, Z: row.Z, Yaw: row.Rotation},
		entity.Health{Current: row.Health, Maximum: row.MaxHealth, RegenPS: 2})
	pose, _ := deps.World.GetPlayerPose(playerID)
	zoneID, _ := deps.World.PlayerZoneID(playerID)
	deps.World.Unlock()

	sess.Authenticate(*sess.AccountID, playerID, &durable)
	if err := deps.Accounts.SavePose(ctx, durable, zoneID, pose.X, pose.Y, pose.Z, pose.Yaw); err != nil {
		log.Warn("save spawn pose failed", zap.Error(err))
	}
	if err := deps.Accounts.SetCharacterOnline(ctx, durable, true); err != nil {
		log.Warn("set character online failed", zap.Error(err))
	}

	wireID := uint64(playerID)
	sendEnvelope(sess, protocol.TagCharacterSelectResponse, protocol.CharacterSelectResponse{Success: true, PlayerID: &wireID}, log)
	log.Info("character selected", zap.String("character", row.Name), zap.Uint64("entity_id", wireID))

	if deps.Snapshots != nil {
		deps.World.RLock()
		snap, ok := deps.Snapshots.BuildForSession(deps.World, sess)
		deps.World.RUnlock()
		if ok {
			sendEnvelopeSeq(sess, protocol.TagWorldSnapshot, env.SequenceID+1, snap, log)
		}
	}
}

func handleCharacterDelete(ctx context.Context, env protocol.Envelope, sess *session.Session, deps *Deps, log *zap.Logger) {
	if !requireAuthenticated(sess, log) {
		return
	}
	var req protocol.CharacterDeleteRequest
	if err := protocol.Decode(env, &req); err != nil {
		sendError(sess, protocol.ErrorCodeInvalidRequest, "malformed character delete request", log)
		return
	}
	durable, ok := sess.DurableForSynthetic(req.CharacterID)
	if !ok {
		sendEnvelope(sess, protocol.TagCharacterDeleteResponse, protocol.CharacterDeleteResponse{Success: false, Message: "unknown character id"}, log)
		return
	}
	if err := deps.Accounts.DeleteCharacter(ctx, durable, *sess.AccountID); err != nil {
		sendEnvelope(sess, protocol.TagCharacterDeleteResponse, protocol.CharacterDeleteResponse{Success: false, Message: "internal error"}, log)
		return
	}
	sendEnvelope(sess, protocol.TagCharacterDeleteResponse, protocol.CharacterDeleteResponse{Success: true}, log)
}

func handleMovementIntent(env protocol.Envelope, sess *session.Session, deps *Deps, log *zap.Logger) {
	if !requireAuthenticated(sess, log) {
		return
	}
	playerID, ok := sess.AllocatePlayerID()
	if !ok {
		sendError(sess, protocol.ErrorCodeOwnershipMismatch, "no character selected", log)
		return
	}
	var req protocol.MovementIntent
	if err := protocol.Decode(env, &req); err != nil {
		sendError(sess, protocol.ErrorCodeInvalidRequest, "malformed movement intent", log)
		return
	}

	deps.World.Lock()
	deps.World.QueueMovementIntent(world.MovementIntent{
		PlayerID:      playerID,
		TargetX:       req.TargetX,
		TargetY:       req.TargetY,
		TargetZ:       req.TargetZ,
		SpeedModifier: req.SpeedModifier,
		Stop:          req.Stop,
		Facing:        req.Facing,
	})
	deps.World.Unlock()
}

func handleCombatAction(env protocol.Envelope, sess *session.Session, deps *Deps, log *zap.Logger) {
	if !requireAuthenticated(sess, log) {
		return
	}
	playerID, ok := sess.AllocatePlayerID()
	if !ok {
		sendError(sess, protocol.ErrorCodeOwnershipMismatch, "no character selected", log)
		return
	}
	var req protocol.CombatAction
	if err := protocol.Decode(env, &req); err != nil {
		sendError(sess, protocol.ErrorCodeInvalidRequest, "malformed combat action", log)
		return
	}
	kind := world.CombatAutoAttack
	if req.ActionType == protocol.CombatActionAbility {
		kind = world.CombatAbility
	}

	deps.World.Lock()
	deps.World.QueueCombatAction(world.CombatAction{
		AttackerID: playerID,
		TargetID:   entity.ID(req.TargetID),
		Kind:       kind,
		AbilityID:  req.AbilityID,
	})
	deps.World.Unlock()
}

// cleanup runs the disconnect sequence: persist the final pose, mark
// the character offline, despawn the player entity, drop the session's
// snapshot baselines, and drop the session from the registry.
func cleanup(sess *session.Session, deps *Deps, log *zap.Logger) {
	playerID, hasPlayer := sess.AllocatePlayerID()
	if hasPlayer {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		deps.World.Lock()
		pose, hasPose := deps.World.GetPlayerPose(playerID)
		zoneID, _ := deps.World.PlayerZoneID(playerID)
		deps.World.RemovePlayer(playerID)
		deps.World.Unlock()

		if hasPose && sess.CharacterID != nil {
			if err := deps.Accounts.SavePose(ctx, *sess.CharacterID, zoneID, pose.X, pose.Y, pose.Z, pose.Yaw); err != nil {
				log.Warn("save pose on disconnect failed", zap.Error(err))
			}
			if err := deps.Accounts.SetCharacterOnline(ctx, *sess.CharacterID, false); err != nil {
				log.Warn("set character offline failed", zap.Error(err))
			}
		}
	}
	if deps.Snapshots != nil {
		deps.Snapshots.Forget(sess.ID)
	}
	deps.Sessions.Remove(sess.ID)
}

func writeLoop(wsConn *websocket.Conn, sess *session.Session, writeTimeout time.Duration, done chan<- struct{}, log *zap.Logger) {
	defer close(done)
	for env := range sess.Outbound {
		if writeTimeout > 0 {
			wsConn.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		if err := wsConn.WriteJSON(env); err != nil {
			log.Debug("write error", zap.Error(err))
			return
		}
	}
}

func sendEnvelope(sess *session.Session, tag protocol.Tag, payload any, log *zap.Logger) {
	sendEnvelopeSeq(sess, tag, 0, payload, log)
}

// sendEnvelopeSeq sends payload with an explicit sequence id, used for
// unsolicited pushes that must echo request_sequence+1 rather than 0.
func sendEnvelopeSeq(sess *session.Session, tag protocol.Tag, sequenceID int64, payload any, log *zap.Logger) {
	env, err := protocol.Encode(tag, sequenceID, time.Now().UnixMilli(), payload)
	if err != nil {
		log.Error("encode outbound envelope failed", zap.Error(err))
		return
	}
	if !sess.Send(env) {
		log.Debug("outbound channel full or closed, dropping message", zap.String("tag", string(tag)))
	}
}

func sendError(sess *session.Session, code protocol.ErrorCode, message string, log *zap.Logger) {
	sendEnvelope(sess, protocol.TagError, protocol.Error{Code: code, Message: message}, log)
}

func requireAuthenticated(sess *session.Session, log *zap.Logger) bool {
	if sess.Authenticated && sess.AccountID != nil {
		return true
	}
	sendError(sess, protocol.ErrorCodeUnauthenticated, "authenticate first", log)
	return false
}

func toSummary(sess *session.Session, row persist.CharacterRow) protocol.CharacterSummary {
	return protocol.CharacterSummary{
		CharacterID: sess.MapCharacterID(row.ID),
		Name:        row.Name,
		Class:       row.Class,
		ZoneID:      row.ZoneID,
	}
}
