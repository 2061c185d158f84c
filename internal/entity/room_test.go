package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoom_NextMark(t *testing.T) {
	t.Run("Host gets X", func(t *testing.T) {
		// Given: an empty room
		room := NewRoom("r1")

		// When: asking for the next mark
		mark := room.NextMark()

		// Then: the host plays X
		assert.Equal(t, X, mark)
	})

	t.Run("Joiner gets O", func(t *testing.T) {
		// Given: a room with the host seated
		room := NewRoom("r1")
		room.Players = append(room.Players, &Player{ID: "host", Mark: X, RoomID: "r1"})

		// When: asking for the next mark
		mark := room.NextMark()

		// Then: the joiner plays O
		assert.Equal(t, O, mark)
		assert.False(t, room.IsFull())
	})
}

func TestRoom_Remove(t *testing.T) {
	// Given: a full ongoing room
	room := NewRoom("r1")
	room.Players = []*Player{{ID: "a", Mark: X}, {ID: "b", Mark: O}}
	room.Status = StatusOngoing
	assert.True(t, room.IsFull())

	// When: the host leaves
	room.Remove("a")

	// Then: one seat is left and the room waits again
	assert.Len(t, room.Players, 1)
	assert.Nil(t, room.Player("a"))
	assert.NotNil(t, room.Player("b"))
	assert.True(t, room.IsWaiting())
	assert.Equal(t, X, room.NextMark())
}
