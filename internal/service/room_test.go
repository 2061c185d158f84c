package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/repository"
)

func newRoomService() RoomService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewRoomService(logger, repository.NewMemoryRoomRepository())
}

func TestRoomService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a room with a generated id", func(t *testing.T) {
		// Given: a room service
		service := newRoomService()

		// When: joining without a room id
		room, player, err := service.Join(ctx, "")

		// Then: a waiting room is created and the host gets X
		require.NoError(t, err)
		assert.NotEmpty(t, room.ID)
		assert.Equal(t, room.ID, player.RoomID)
		assert.NotEmpty(t, player.ID)
		assert.Equal(t, entity.X, player.Mark)
		assert.True(t, room.IsWaiting())
	})

	t.Run("Second player gets O and the game starts", func(t *testing.T) {
		// Given: a room with its host
		service := newRoomService()
		_, host, err := service.Join(ctx, "abc")
		require.NoError(t, err)

		// When: another player joins by id
		room, joiner, err := service.Join(ctx, "abc")

		// Then: the joiner plays O and the room is ongoing
		require.NoError(t, err)
		assert.Equal(t, entity.O, joiner.Mark)
		assert.NotEqual(t, host.ID, joiner.ID)
		assert.Equal(t, entity.StatusOngoing, room.Status)
	})

	t.Run("Third player is refused", func(t *testing.T) {
		// Given: a full room
		service := newRoomService()
		for range 2 {
			_, _, err := service.Join(ctx, "abc")
			require.NoError(t, err)
		}

		// When: a third player joins
		room, player, err := service.Join(ctx, "abc")

		// Then: there are no spectator seats
		require.ErrorIs(t, err, ErrRoomFull)
		assert.Nil(t, room)
		assert.Nil(t, player)
	})
}

func TestRoomService_Leave(t *testing.T) {
	ctx := context.Background()

	t.Run("Frees the seat", func(t *testing.T) {
		// Given: a full room
		service := newRoomService()
		_, host, err := service.Join(ctx, "abc")
		require.NoError(t, err)
		_, _, err = service.Join(ctx, "abc")
		require.NoError(t, err)

		// When: the host leaves
		room, err := service.Leave(ctx, "abc", host.ID)

		// Then: the room waits again and a newcomer takes X
		require.NoError(t, err)
		assert.Len(t, room.Players, 1)
		assert.True(t, room.IsWaiting())

		_, newcomer, err := service.Join(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, entity.X, newcomer.Mark)
	})

	t.Run("Unknown player", func(t *testing.T) {
		// Given: an empty service
		service := newRoomService()

		// When: leaving a room nobody joined
		_, err := service.Leave(ctx, "abc", "ghost")

		// Then: the player is not found
		require.ErrorIs(t, err, ErrPlayerNotFound)
	})
}
