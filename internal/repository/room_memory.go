package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

type memRoom struct {
	mu    sync.Mutex
	rooms map[string][]byte
}

// NewMemoryRoomRepository - a process-local registry for a relay that runs without redis.
// Rooms are stored encoded so callers never share pointers with the registry.
func NewMemoryRoomRepository() RoomRepository {
	return &memRoom{
		rooms: make(map[string][]byte),
	}
}

func (that *memRoom) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.load(id)
}

func (that *memRoom) Update(_ context.Context, id string, fn UpdateFunc) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.load(id)
	if err != nil {
		room = entity.NewRoom(id)
	}

	if err = fn(room); err != nil {
		return nil, err
	}

	if len(room.Players) == 0 {
		delete(that.rooms, id)
		return room, nil
	}

	data, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room: %w", err)
	}
	that.rooms[id] = data

	return room, nil
}

func (that *memRoom) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, id)

	return nil
}

func (that *memRoom) load(id string) (*entity.Room, error) {
	data, ok := that.rooms[id]
	if !ok {
		return &entity.Room{}, ErrRoomNotFound
	}

	var room entity.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return &entity.Room{}, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}
