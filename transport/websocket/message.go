package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

const (
	ActionRoomJoin     = "room:join"
	ActionRoleAssigned = "role:assigned"
	ActionPeerJoined   = "peer:joined"
	ActionPeerLeft     = "peer:left"
	ActionGameMove     = "game:move"
	ActionError        = "error"
)

type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	RoomID string         `json:"room_id,omitempty"`
	Player *entity.Player `json:"player,omitempty"`
	Move   *entity.Move   `json:"move,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func newMessage(action string, payload Payload) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: payloadBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func parsePayload(msg *Message) (Payload, error) {
	var payload Payload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}
