package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/service"
)

var (
	errCloseConnection = errors.New("connection must be closed")
	errAlreadyJoined   = errors.New("connection already joined a room")
	errNotJoined       = errors.New("connection has not joined a room")
	errWrongPlayer     = errors.New("move is not for the sender's mark")
	errRateLimited     = errors.New("too many messages")
)

// handleRoomJoin - seats the connection. The room subscription is opened before the seat is taken
// so the peer:joined broadcast can't be missed.
func (that *Server) handleRoomJoin(ctx context.Context, conn *connection, msg *Message, _ []byte) error {
	log := that.logger.With("method", "handleRoomJoin")

	if conn.player != nil {
		rejectedTotal.WithLabelValues("already_joined").Inc()
		that.sendErrorResponse(ctx, conn, msg.Action, "already joined")
		return errAlreadyJoined
	}

	payload, err := parsePayload(msg)
	if err != nil {
		that.sendErrorResponse(ctx, conn, msg.Action, "malformed payload")
		return err
	}

	roomID := payload.RoomID
	if roomID == "" {
		roomID = uuid.NewString()
	}

	messages, err := that.broker.Subscribe(ctx, roomID)
	if err != nil {
		log.Error("failed to subscribe to room", "room", roomID, "error", err)
		that.sendErrorResponse(ctx, conn, msg.Action, "relay unavailable")
		return errCloseConnection
	}

	room, player, err := that.rooms.Join(ctx, roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomFull) {
			rejectedTotal.WithLabelValues("room_full").Inc()
			that.sendErrorResponse(ctx, conn, msg.Action, "room is full")
		} else {
			log.Error("failed to join room", "room", roomID, "error", err)
			that.sendErrorResponse(ctx, conn, msg.Action, "failed to join room")
		}
		return errCloseConnection
	}

	conn.roomID = room.ID
	conn.player = player

	role, err := newMessage(ActionRoleAssigned, Payload{RoomID: room.ID, Player: player})
	if err != nil {
		return err
	}
	conn.enqueue(ctx, role)
	conn.forward(ctx, messages)

	if room.IsFull() {
		that.publish(ctx, room.ID, ActionPeerJoined, Payload{RoomID: room.ID})
	}

	log.Info("seat taken", "room", room.ID, "player", player.ID, "mark", player.Mark)

	return nil
}

// handleGameMove - rebroadcasts the move verbatim to the whole room. The relay never judges legality,
// it only checks the sender moves with its own mark.
func (that *Server) handleGameMove(ctx context.Context, conn *connection, msg *Message, raw []byte) error {
	if conn.player == nil {
		rejectedTotal.WithLabelValues("not_joined").Inc()
		that.sendErrorResponse(ctx, conn, msg.Action, "join a room first")
		return errNotJoined
	}

	if !conn.limiter.Allow() {
		rejectedTotal.WithLabelValues("rate_limited").Inc()
		that.sendErrorResponse(ctx, conn, msg.Action, "too many messages")
		return errRateLimited
	}

	payload, err := parsePayload(msg)
	if err != nil || payload.Move == nil {
		rejectedTotal.WithLabelValues("malformed").Inc()
		that.sendErrorResponse(ctx, conn, msg.Action, "move is required")
		return fmt.Errorf("invalid move payload: %w", err)
	}

	if payload.Move.Player != conn.player.Mark {
		rejectedTotal.WithLabelValues("wrong_player").Inc()
		that.sendErrorResponse(ctx, conn, msg.Action, "move is not for your mark")
		return errWrongPlayer
	}

	if err = that.broker.Publish(ctx, conn.roomID, raw); err != nil {
		return fmt.Errorf("failed to relay move: %w", err)
	}
	relayedTotal.WithLabelValues(ActionGameMove).Inc()

	return nil
}

// handleDisconnect - frees the seat and tells whoever is left.
func (that *Server) handleDisconnect(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleDisconnect")

	if conn.player == nil {
		return
	}

	room, err := that.rooms.Leave(ctx, conn.roomID, conn.player.ID)
	if err != nil {
		log.Error("failed to leave room", "room", conn.roomID, "player", conn.player.ID, "error", err)
		return
	}

	if len(room.Players) > 0 {
		that.publish(ctx, room.ID, ActionPeerLeft, Payload{RoomID: room.ID, Player: conn.player})
	}

	log.Info("seat freed", "room", conn.roomID, "player", conn.player.ID)
}

func (that *Server) publish(ctx context.Context, roomID, action string, payload Payload) {
	data, err := newMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to build message", "action", action, "error", err)
		return
	}

	if err = that.broker.Publish(ctx, roomID, data); err != nil {
		that.logger.Error("failed to publish", "room", roomID, "action", action, "error", err)
		return
	}

	relayedTotal.WithLabelValues(action).Inc()
}
