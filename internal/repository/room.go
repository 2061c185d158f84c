package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

const maxUpdateRetries = 10

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomContended = errors.New("room is updated concurrently, retries exhausted")
)

// UpdateFunc mutates a room in place. A room left without players is deleted.
type UpdateFunc func(room *entity.Room) error

type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	// Update - loads the room (a new waiting room if absent), applies fn and stores the result atomically.
	Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Room, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomRepository - rooms expire after ttl without updates; zero keeps them forever.
func NewRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func roomKey(id string) string {
	return "room:" + id
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &entity.Room{}, ErrRoomNotFound
	}

	if err != nil {
		return &entity.Room{}, fmt.Errorf("failed to get room by ID: %w", err)
	}

	var room entity.Room
	if err = json.Unmarshal(response, &room); err != nil {
		return &entity.Room{}, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

func (that *dbRoom) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Room, error) {
	key := roomKey(id)

	var room *entity.Room
	txf := func(tx *redis.Tx) error {
		room = entity.NewRoom(id)

		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("failed to get room: %w", err)
		default:
			if err = json.Unmarshal(data, room); err != nil {
				return fmt.Errorf("failed to unmarshal room: %w", err)
			}
		}

		if err = fn(room); err != nil {
			return err
		}

		var roomJSON []byte
		if len(room.Players) > 0 {
			if roomJSON, err = json.Marshal(room); err != nil {
				return fmt.Errorf("failed to marshal room: %w", err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if roomJSON == nil {
				pipe.Del(ctx, key)
				return nil
			}

			pipe.Set(ctx, key, roomJSON, that.ttl)
			return nil
		})

		return err
	}

	for range maxUpdateRetries {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return room, nil
	}

	return nil, ErrRoomContended
}

func (that *dbRoom) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, roomKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete room by ID: %w", err)
	}

	return nil
}
