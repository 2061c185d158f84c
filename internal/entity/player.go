package entity

// Player is one seat in a relay room.
type Player struct {
	ID     string `json:"id"`
	Mark   Symbol `json:"mark,omitempty"`
	RoomID string `json:"room_id,omitempty"`
}

// Identity is the local participant's mark, fixed for one game session.
type Identity struct {
	Local Symbol `json:"local"`
}

// TurnState is whose turn it is and which sub-board, if any, they must play in.
type TurnState struct {
	Current  Symbol    `json:"current"`
	Mandated *Position `json:"mandated,omitempty"`
}
