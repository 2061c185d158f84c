package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/session"
)

const signalBuffer = 16

var (
	ErrJoinRefused   = errors.New("relay refused to seat the participant")
	errSendQueueFull = errors.New("send queue is full")
)

// Client is the participant side of the relay. Its goroutines meet the tick loop only through
// Send, PollIncoming and Signals, none of which block on the network.
type Client struct {
	logger *slog.Logger
	ws     *websocket.Conn

	send    chan []byte
	signals chan session.Signal

	mu     sync.Mutex
	inbox  deque.Deque[entity.Move]
	roomID string
	player *entity.Player
}

// Dial - connects to the relay and asks for a seat in roomID (a new room when empty).
func Dial(ctx context.Context, logger *slog.Logger, url, roomID string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", url, err)
	}

	join, err := newMessage(ActionRoomJoin, Payload{RoomID: roomID})
	if err != nil {
		_ = ws.Close()
		return nil, err
	}

	client := &Client{
		logger:  logger.With("component", "relay-client"),
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		signals: make(chan session.Signal, signalBuffer),
	}

	client.send <- join
	client.signals <- session.NewSignal(session.ConnectionEstablished)

	return client, nil
}

// Run - pumps the socket until ctx is done or the relay goes away. ConnectionLost is always signalled on exit.
func (that *Client) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-groupCtx.Done()
		_ = that.ws.SetReadDeadline(time.Now())
		return nil
	})

	group.Go(func() error {
		return that.readPump()
	})

	group.Go(func() error {
		return that.writePump(groupCtx)
	})

	err := group.Wait()
	_ = that.ws.Close()

	that.signal(session.NewSignal(session.ConnectionLost))

	if ctx.Err() != nil {
		return nil
	}

	return err
}

// Send - queues a move for the relay.
func (that *Client) Send(ctx context.Context, move entity.Move) error {
	data, err := newMessage(ActionGameMove, Payload{Move: &move})
	if err != nil {
		return err
	}

	select {
	case that.send <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("failed to send %s: %w", move, errSendQueueFull)
	}
}

// PollIncoming - the oldest relayed move not yet handed to the core.
func (that *Client) PollIncoming() (entity.Move, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.inbox.Len() == 0 {
		return entity.Move{}, false
	}

	return that.inbox.PopFront(), true
}

func (that *Client) Signals() <-chan session.Signal {
	return that.signals
}

// Seat - the room and seat assigned by the relay, nil until role:assigned arrived.
func (that *Client) Seat() (string, *entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.roomID, that.player
}

func (that *Client) readPump() error {
	log := that.logger.With("method", "readPump")

	that.ws.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := that.ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("relay connection closed: %w", apperror.ErrConnectionLost)
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			log.Debug("malformed message from relay", "error", err)
			continue
		}

		payload, err := parsePayload(&message)
		if err != nil {
			log.Debug("malformed payload from relay", "action", message.Action, "error", err)
			continue
		}

		if err = that.handle(message.Action, payload); err != nil {
			return err
		}
	}
}

func (that *Client) handle(action string, payload Payload) error {
	log := that.logger.With("method", "handle")

	switch action {
	case ActionGameMove:
		if payload.Move == nil {
			return nil
		}

		that.mu.Lock()
		that.inbox.PushBack(*payload.Move)
		that.mu.Unlock()

	case ActionRoleAssigned:
		if payload.Player == nil {
			return nil
		}

		that.mu.Lock()
		that.roomID = payload.RoomID
		that.player = payload.Player
		that.mu.Unlock()

		log.Info("seat assigned", "room", payload.RoomID, "mark", payload.Player.Mark)
		that.signal(session.RoleAssigned(payload.Player.Mark))

	case ActionPeerJoined:
		that.signal(session.NewSignal(session.PeerJoined))

	case ActionPeerLeft:
		log.Info("peer left the room", "room", payload.RoomID)
		return fmt.Errorf("peer left: %w", apperror.ErrConnectionLost)

	case ActionError:
		_, player := that.Seat()
		if player == nil {
			return fmt.Errorf("%w: %s", ErrJoinRefused, payload.Error)
		}
		log.Warn("relay error", "error", payload.Error)

	default:
		log.Debug("unknown action from relay", "action", action)
	}

	return nil
}

func (that *Client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil

		case data := <-that.send:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("failed to write to relay: %w", err)
			}

		case <-ticker.C:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("failed to ping relay: %w", err)
			}
		}
	}
}

func (that *Client) signal(signal session.Signal) {
	select {
	case that.signals <- signal:
	default:
		that.logger.Warn("signal dropped", "signal", signal.String())
	}
}
