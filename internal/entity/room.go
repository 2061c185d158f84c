package entity

const (
	StatusWaiting = "waiting"
	StatusOngoing = "ongoing"

	RoomCapacity = 2
)

// Room groups the two seats that share one relayed game.
type Room struct {
	ID      string    `json:"id"`
	Status  string    `json:"status"`
	Players []*Player `json:"players,omitempty"`
}

func NewRoom(id string) *Room {
	return &Room{
		ID:     id,
		Status: StatusWaiting,
	}
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= RoomCapacity
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// NextMark - the host gets X, whoever joins second gets O.
func (that *Room) NextMark() Symbol {
	for _, player := range that.Players {
		if player.Mark == X {
			return O
		}
	}
	return X
}

// Player - returns the seat with the given id, or nil.
func (that *Room) Player(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

// Remove - drops a seat; the room goes back to waiting.
func (that *Room) Remove(id string) {
	players := that.Players[:0]
	for _, player := range that.Players {
		if player.ID != id {
			players = append(players, player)
		}
	}
	that.Players = players
	that.Status = StatusWaiting
}
