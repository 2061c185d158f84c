package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

type broker interface {
	Publish(ctx context.Context, room string, payload []byte) error
	Subscribe(ctx context.Context, room string) (<-chan []byte, error)
}

type roomService interface {
	Join(ctx context.Context, roomID string) (*entity.Room, *entity.Player, error)
	Leave(ctx context.Context, roomID, playerID string) (*entity.Room, error)
}

type handlerFunc func(ctx context.Context, conn *connection, msg *Message, raw []byte) error

// Server is the relay: it seats two participants per room and rebroadcasts every move to the
// whole room, the sender included.
type Server struct {
	logger   *slog.Logger
	rooms    roomService
	broker   broker
	upgrader websocket.Upgrader

	messageRate  rate.Limit
	messageBurst int

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, rooms roomService, broker broker, messageRate float64, messageBurst int) *Server {
	server := &Server{
		logger: logger.With("component", "relay"),
		rooms:  rooms,
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		messageRate:  rate.Limit(messageRate),
		messageBurst: messageBurst,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[ActionRoomJoin] = server.handleRoomJoin
	server.handlers[ActionGameMove] = server.handleGameMove

	return server
}

// Serve - serves the relay on path until ctx is done.
func (that *Server) Serve(ctx context.Context, listener net.Listener, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, that)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve relay: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeWait)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown relay: %w", err)
		}
		return nil
	}
}

// ServeHTTP - upgrades the request and runs the connection until either side closes it.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(req.Context())
	conn := &connection{
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(that.messageRate, that.messageBurst),
		cancel:  cancel,
	}

	connectionsActive.Inc()
	defer connectionsActive.Dec()

	go func() {
		<-ctx.Done()
		// unblocks the read loop when the relay shuts down
		_ = ws.SetReadDeadline(time.Now())
	}()

	var writerDone sync.WaitGroup
	writerDone.Add(1)
	go func() {
		defer writerDone.Done()
		conn.writePump(log)
	}()

	that.readPump(ctx, conn)

	cancel()
	conn.forwarders.Wait()
	that.handleDisconnect(context.WithoutCancel(ctx), conn)

	close(conn.send)
	writerDone.Wait()
	_ = ws.Close()
}

func (that *Server) readPump(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "readPump")

	conn.ws.SetReadLimit(maxMessageSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				log.Debug("connection closed", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			rejectedTotal.WithLabelValues("malformed").Inc()
			that.sendErrorResponse(ctx, conn, "", "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			rejectedTotal.WithLabelValues("unknown_action").Inc()
			that.sendErrorResponse(ctx, conn, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, conn, &message, raw); err != nil {
			if errors.Is(err, errCloseConnection) {
				return
			}
			log.Debug("message refused", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) sendErrorResponse(ctx context.Context, conn *connection, action, errorMsg string) {
	data, err := newMessage(ActionError, Payload{Error: errorMsg})
	if err != nil {
		that.logger.Error("failed to build error response", "action", action, "error", err)
		return
	}

	conn.enqueue(ctx, data)
}

// connection is one participant socket. Only writePump writes to ws.
type connection struct {
	ws      *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	cancel  context.CancelFunc

	forwarders sync.WaitGroup

	roomID string
	player *entity.Player
}

func (that *connection) enqueue(ctx context.Context, data []byte) {
	select {
	case that.send <- data:
	case <-ctx.Done():
	}
}

// forward - copies room messages to the socket until the subscription closes.
func (that *connection) forward(ctx context.Context, messages <-chan []byte) {
	that.forwarders.Add(1)
	go func() {
		defer that.forwarders.Done()

		for data := range messages {
			that.enqueue(ctx, data)
		}
	}()
}

func (that *connection) writePump(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-that.send:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := that.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				that.cancel()
				that.drain()
				return
			}

		case <-ticker.C:
			_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.cancel()
				that.drain()
				return
			}
		}
	}
}

// drain - discards queued messages until the send channel is closed.
func (that *connection) drain() {
	for range that.send {
	}
}
