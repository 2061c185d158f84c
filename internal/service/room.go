package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/repository"
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrPlayerNotFound = errors.New("player not found in room")
)

type RoomService interface {
	// Join - seats a new player in the room, creating it when needed. An empty id creates a fresh room.
	Join(ctx context.Context, roomID string) (*entity.Room, *entity.Player, error)
	Leave(ctx context.Context, roomID, playerID string) (*entity.Room, error)
}

type roomRepo interface {
	Update(ctx context.Context, id string, fn repository.UpdateFunc) (*entity.Room, error)
}

type roomService struct {
	logger   *slog.Logger
	roomRepo roomRepo
}

func NewRoomService(logger *slog.Logger, roomRepo roomRepo) RoomService {
	return &roomService{
		logger:   logger.With("component", "room-service"),
		roomRepo: roomRepo,
	}
}

func (that *roomService) Join(ctx context.Context, roomID string) (*entity.Room, *entity.Player, error) {
	if roomID == "" {
		roomID = uuid.NewString()
	}

	player := &entity.Player{
		ID:     uuid.NewString(),
		RoomID: roomID,
	}

	room, err := that.roomRepo.Update(ctx, roomID, func(room *entity.Room) error {
		if room.IsFull() {
			return ErrRoomFull
		}

		player.Mark = room.NextMark()
		room.Players = append(room.Players, player)

		if room.IsFull() {
			room.Status = entity.StatusOngoing
		}

		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	that.logger.Info("player joined", "room", roomID, "player", player.ID, "mark", player.Mark)

	return room, player, nil
}

func (that *roomService) Leave(ctx context.Context, roomID, playerID string) (*entity.Room, error) {
	room, err := that.roomRepo.Update(ctx, roomID, func(room *entity.Room) error {
		if room.Player(playerID) == nil {
			return ErrPlayerNotFound
		}

		room.Remove(playerID)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to leave room %s: %w", roomID, err)
	}

	that.logger.Info("player left", "room", roomID, "player", playerID, "remaining", len(room.Players))

	return room, nil
}
