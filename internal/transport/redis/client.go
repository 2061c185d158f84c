package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const subscriberBuffer = 64

// Broker fans room messages out over redis pub/sub, so relays sharing a redis can serve the two
// seats of one room from different processes.
type Broker struct {
	logger *slog.Logger
	client *redis.Client
}

func New(logger *slog.Logger, client *redis.Client) *Broker {
	return &Broker{
		logger: logger.With("component", "redis-broker"),
		client: client,
	}
}

func channel(room string) string {
	return "room:" + room + ":events"
}

// Publish - sends the payload to every subscriber of the room.
func (that *Broker) Publish(ctx context.Context, room string, payload []byte) error {
	if err := that.client.Publish(ctx, channel(room), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to room %s: %w", room, err)
	}

	return nil
}

// Subscribe - returns once redis confirmed the subscription. The channel is closed once ctx is done.
func (that *Broker) Subscribe(ctx context.Context, room string) (<-chan []byte, error) {
	pubsub := that.client.Subscribe(ctx, channel(room))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", room, err)
	}

	out := make(chan []byte, subscriberBuffer)

	go func() {
		defer close(out)
		defer func() {
			if err := pubsub.Close(); err != nil {
				that.logger.Debug("failed to close subscription", "room", room, "error", err)
			}
		}()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
