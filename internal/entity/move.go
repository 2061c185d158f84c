package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
)

var (
	ErrInvalidPosition = fmt.Errorf("%w: invalid board position", apperror.ErrIllegalMove)
	ErrInvalidPlayer   = fmt.Errorf("%w: invalid player mark", apperror.ErrIllegalMove)
)

// Symbol is the mark held by a cell and the identity of a player.
type Symbol string

const (
	Empty Symbol = ""
	X     Symbol = "X"
	O     Symbol = "O"
)

// IsPlayer reports whether the symbol is one of the two player marks.
func (that Symbol) IsPlayer() bool {
	return that == X || that == O
}

// Opponent - returns the other player's mark.
func (that Symbol) Opponent() Symbol {
	if that == X {
		return O
	}
	return X
}

func (that Symbol) Outcome() Outcome {
	switch that {
	case X:
		return OutcomeX
	case O:
		return OutcomeO
	default:
		return OutcomeNone
	}
}

// Position addresses a cell inside a 3x3 grid. On the wire it is a [row, col] pair.
type Position struct {
	Row int
	Col int
}

func (that Position) Valid() bool {
	return that.Row >= 0 && that.Row < 3 && that.Col >= 0 && that.Col < 3
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

func (that Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{that.Row, that.Col})
}

// UnmarshalJSON - accepts exactly a [row, col] pair; null and any other length are refused.
func (that *Position) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("failed to unmarshal position: %w", err)
	}

	if len(pair) != 2 {
		return fmt.Errorf("%w: want a [row, col] pair, got %s", ErrInvalidPosition, data)
	}

	that.Row, that.Col = pair[0], pair[1]

	return nil
}

// AllPositions lists the nine grid positions in row-major order.
func AllPositions() []Position {
	positions := make([]Position, 0, 9)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			positions = append(positions, Position{Row: row, Col: col})
		}
	}
	return positions
}

// Move is the single event exchanged between participants.
type Move struct {
	Meta   Position `json:"meta"`
	Local  Position `json:"local"`
	Player Symbol   `json:"player"`
}

// UnmarshalJSON - both positions must be present; a missing one never defaults to (0,0).
func (that *Move) UnmarshalJSON(data []byte) error {
	var raw struct {
		Meta   *Position `json:"meta"`
		Local  *Position `json:"local"`
		Player Symbol    `json:"player"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal move: %w", err)
	}

	if raw.Meta == nil || raw.Local == nil {
		return fmt.Errorf("%w: move needs both meta and local", ErrInvalidPosition)
	}

	*that = Move{Meta: *raw.Meta, Local: *raw.Local, Player: raw.Player}

	return nil
}

// Validate - checks that the move addresses a real cell and carries a player mark.
func (that Move) Validate() error {
	if !that.Meta.Valid() || !that.Local.Valid() {
		return fmt.Errorf("%w: meta %s local %s", ErrInvalidPosition, that.Meta, that.Local)
	}

	if !that.Player.IsPlayer() {
		return fmt.Errorf("%w: %q", ErrInvalidPlayer, that.Player)
	}

	return nil
}

func (that Move) String() string {
	return fmt.Sprintf("%s@%s%s", that.Player, that.Meta, that.Local)
}

// MoveEffect is what the presentation layer learns after a move was applied.
type MoveEffect struct {
	Move               Move    `json:"move"`
	SubBoardCompleted  Outcome `json:"sub_board_completed,omitempty"`
	MetaBoardCompleted Outcome `json:"meta_board_completed,omitempty"`
}
