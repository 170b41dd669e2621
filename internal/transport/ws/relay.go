package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mcoot/posrelay/internal/dependencies/clock"
	"github.com/mcoot/posrelay/internal/dependencies/ident"
	"github.com/mcoot/posrelay/internal/model"
	"github.com/mcoot/posrelay/internal/services/reconcile"
	"github.com/mcoot/posrelay/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from arbitrary origins
		return true
	},
}

// Relay parses inbound application messages, dispatches them to per-type
// handlers that read and write the store through the reconciler, and fans
// resulting messages out through the registry to all connections except
// (optionally) the originator.
type Relay struct {
	registry   *Registry
	store      storage.Store
	reconciler *reconcile.Service
	ident      ident.Generator
	clock      clock.Clock
	logger     *slog.Logger
}

// NewRelay creates a new relay
func NewRelay(
	registry *Registry,
	store storage.Store,
	reconciler *reconcile.Service,
	gen ident.Generator,
	clk clock.Clock,
	logger *slog.Logger,
) *Relay {
	return &Relay{
		registry:   registry,
		store:      store,
		reconciler: reconciler,
		ident:      gen,
		clock:      clk,
		logger:     logger.With(slog.String("component", "relay")),
	}
}

// ServeWS upgrades the request to a WebSocket connection and runs the
// connection's lifecycle to completion: register, push world state, announce,
// read loop, disconnect cleanup.
func (rl *Relay) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		rl.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	rl.handleConnection(r.Context(), conn)
}

func (rl *Relay) handleConnection(ctx context.Context, conn *websocket.Conn) {
	id := model.ClientID(rl.ident.NewClientID())
	connectedAt := rl.clock.Now()
	logger := rl.logger.With(slog.String("client_id", string(id)))

	rl.registry.Register(id, conn)
	logger.Info("client connected", slog.Int("total_clients", rl.registry.Count()))

	rl.sendWorldState(ctx, id)
	rl.broadcastLifecycle(id, model.TypeClientConnected)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				logger.Warn("read error", slog.Any("error", err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			rl.routeText(ctx, id, data)
		case websocket.BinaryMessage:
			// Binary payloads are opaque; relay them as-is
			rl.registry.BroadcastExcept(id, websocket.BinaryMessage, data)
		}
	}

	rl.disconnect(ctx, id)
	_ = conn.Close()
	logger.Info("client disconnected",
		slog.Duration("connection_duration", rl.clock.Since(connectedAt)),
		slog.Int("total_clients", rl.registry.Count()))
}

// routeText decodes a text frame against the message envelope and dispatches
// it. Payloads that do not decode as an envelope fall back to pass-through
// broadcast, as do envelopes with an unrecognized type.
func (rl *Relay) routeText(ctx context.Context, sender model.ClientID, raw []byte) {
	var msg model.Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		rl.registry.BroadcastExcept(sender, websocket.TextMessage, raw)
		return
	}

	switch msg.Type {
	case model.TypePlayerMove:
		rl.handleMove(ctx, sender, &msg, raw)
	case model.TypePlayerJoin:
		rl.handleJoin(ctx, sender, &msg)
	case model.TypeGetPositions:
		rl.handleGetPositions(ctx, sender)
	default:
		rl.registry.BroadcastExcept(sender, websocket.TextMessage, raw)
	}
}

// handleMove records the sender's player binding, overwrites the stored
// position, and rebroadcasts the original envelope verbatim.
func (rl *Relay) handleMove(ctx context.Context, sender model.ClientID, msg *model.Message, raw []byte) {
	if msg.PlayerID == "" || msg.Position == nil {
		rl.logger.Warn("dropping player_move with missing fields",
			slog.String("client_id", string(sender)))
		return
	}

	playerID := model.PlayerID(msg.PlayerID)
	rl.reconciler.Bind(sender, playerID)

	if err := rl.store.UpsertPosition(ctx, playerID, *msg.Position); err != nil {
		rl.logger.Error("upsert position failed",
			slog.String("player_id", msg.PlayerID),
			slog.Any("error", err))
		return
	}

	rl.registry.BroadcastExcept(sender, websocket.TextMessage, raw)
}

// handleJoin runs the identity reconciliation state machine, announces the
// result to the other connections, and catches the joiner up on everyone
// already present via one synthetic player_move per other known player.
func (rl *Relay) handleJoin(ctx context.Context, sender model.ClientID, msg *model.Message) {
	if msg.PlayerID == "" || msg.PlayerName == "" || msg.Color == "" {
		rl.logger.Warn("dropping player_join with missing fields",
			slog.String("client_id", string(sender)))
		return
	}

	playerID := model.PlayerID(msg.PlayerID)
	outcome, err := rl.reconciler.Join(ctx, sender, playerID, msg.PlayerName, msg.Color)
	if err != nil {
		rl.logger.Error("join failed",
			slog.String("player_id", msg.PlayerID),
			slog.Any("error", err))
		return
	}

	announce := model.TypePlayerJoin
	if outcome == reconcile.Reconnected {
		announce = model.TypePlayerReconnect
	}
	rl.broadcastEnvelope(sender, &model.Message{
		Type:       announce,
		PlayerID:   msg.PlayerID,
		PlayerName: msg.PlayerName,
		Color:      msg.Color,
	})

	info, err := rl.store.SnapshotInfo(ctx)
	if err != nil {
		rl.logger.Error("snapshot info failed", slog.Any("error", err))
		return
	}
	for otherID, pi := range info {
		if otherID == playerID {
			continue
		}
		pos := pi.Position
		rl.sendEnvelope(sender, &model.Message{
			Type:       model.TypePlayerMove,
			PlayerID:   string(otherID),
			PlayerName: pi.Name,
			Color:      pi.Color,
			Position:   &pos,
		})
	}
}

// handleGetPositions answers the requesting connection only; the position
// snapshot is never broadcast.
func (rl *Relay) handleGetPositions(ctx context.Context, sender model.ClientID) {
	positions, err := rl.store.SnapshotPositions(ctx)
	if err != nil {
		rl.logger.Error("snapshot positions failed", slog.Any("error", err))
		return
	}

	rl.sendEnvelope(sender, &model.Message{
		Type: model.TypePositionsUpdate,
		Data: positions,
	})
}

// disconnect runs the orderly teardown for a closed connection: mark the
// owning player (if any) offline, broadcast the updated world, announce the
// connection's departure, and deregister.
func (rl *Relay) disconnect(ctx context.Context, id model.ClientID) {
	playerID, hadPlayer, err := rl.reconciler.Disconnect(ctx, id)
	if err != nil {
		rl.logger.Error("disconnect cleanup failed",
			slog.String("client_id", string(id)),
			slog.Any("error", err))
	}

	if hadPlayer && err == nil {
		info, err := rl.store.SnapshotInfo(ctx)
		if err != nil {
			rl.logger.Error("snapshot info failed",
				slog.String("player_id", string(playerID)),
				slog.Any("error", err))
		} else if len(info) > 0 {
			rl.broadcastEnvelope(id, &model.Message{
				Type: model.TypeGameState,
				Data: info,
			})
		}
	}

	rl.broadcastLifecycle(id, model.TypeClientDisconnected)
	rl.registry.Deregister(id)
}

// sendWorldState pushes the current info snapshot to a newly registered
// connection so it can render the world before joining. Nothing is sent when
// the world is empty.
func (rl *Relay) sendWorldState(ctx context.Context, id model.ClientID) {
	info, err := rl.store.SnapshotInfo(ctx)
	if err != nil {
		rl.logger.Error("snapshot info failed", slog.Any("error", err))
		return
	}
	if len(info) == 0 {
		return
	}

	rl.sendEnvelope(id, &model.Message{
		Type: model.TypeGameState,
		Data: info,
	})
}

// broadcastLifecycle announces a connection-scoped event to all other
// connections; the connection identifier rides in the player_id field.
func (rl *Relay) broadcastLifecycle(id model.ClientID, event string) {
	rl.broadcastEnvelope(id, &model.Message{
		Type:     event,
		PlayerID: string(id),
	})
}

func (rl *Relay) broadcastEnvelope(except model.ClientID, msg *model.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		rl.logger.Error("marshal broadcast message failed",
			slog.String("type", msg.Type),
			slog.Any("error", err))
		return
	}
	rl.registry.BroadcastExcept(except, websocket.TextMessage, data)
}

func (rl *Relay) sendEnvelope(id model.ClientID, msg *model.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		rl.logger.Error("marshal message failed",
			slog.String("type", msg.Type),
			slog.Any("error", err))
		return
	}
	if err := rl.registry.Send(id, websocket.TextMessage, data); err != nil {
		rl.logger.Warn("send failed",
			slog.String("client_id", string(id)),
			slog.Any("error", err))
	}
}
