package entity

import (
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
)

type Cell struct {
	Local Position `json:"local"`
	State Symbol   `json:"state"`
}

// SubBoard is one of the nine inner boards. Once Outcome is set it is frozen.
type SubBoard struct {
	Meta    Position   `json:"meta"`
	Cells   [3][3]Cell `json:"cells"`
	Outcome Outcome    `json:"outcome"`
}

func (that *SubBoard) Completed() bool {
	return that.Outcome != OutcomeNone
}

func (that *SubBoard) IsFull() bool {
	for row := range that.Cells {
		for col := range that.Cells[row] {
			if that.Cells[row][col].State == Empty {
				return false
			}
		}
	}
	return true
}

// States - lifts the cell marks into the evaluator's state map.
func (that *SubBoard) States() [3][3]Outcome {
	var states [3][3]Outcome
	for row := range that.Cells {
		for col := range that.Cells[row] {
			states[row][col] = that.Cells[row][col].State.Outcome()
		}
	}
	return states
}

// MetaBoard is the whole game: a 3x3 grid of sub-boards.
type MetaBoard struct {
	SubBoards [3][3]SubBoard `json:"sub_boards"`
	Outcome   Outcome        `json:"outcome"`
}

func NewMetaBoard() MetaBoard {
	var board MetaBoard
	for row := range board.SubBoards {
		for col := range board.SubBoards[row] {
			sub := &board.SubBoards[row][col]
			sub.Meta = Position{Row: row, Col: col}
			for r := range sub.Cells {
				for c := range sub.Cells[r] {
					sub.Cells[r][c].Local = Position{Row: r, Col: c}
				}
			}
		}
	}
	return board
}

// SubBoard - returns a copy of the sub-board at pos.
func (that *MetaBoard) SubBoard(pos Position) SubBoard {
	return that.SubBoards[pos.Row][pos.Col]
}

func (that *MetaBoard) CellState(meta, local Position) Symbol {
	return that.SubBoards[meta.Row][meta.Col].Cells[local.Row][local.Col].State
}

// Outcomes - the meta-level state map; open sub-boards count as None.
func (that *MetaBoard) Outcomes() [3][3]Outcome {
	var states [3][3]Outcome
	for row := range that.SubBoards {
		for col := range that.SubBoards[row] {
			states[row][col] = that.SubBoards[row][col].Outcome
		}
	}
	return states
}

func (that *MetaBoard) Completed() bool {
	return that.Outcome != OutcomeNone
}

// Check - validates raw board legality of a move without mutating anything.
// Turn order and the mandated sub-board are not the board's concern.
func (that *MetaBoard) Check(move Move) error {
	if err := move.Validate(); err != nil {
		return err
	}

	if that.Completed() {
		return apperror.ErrGameOver
	}

	sub := &that.SubBoards[move.Meta.Row][move.Meta.Col]
	if sub.Completed() {
		return fmt.Errorf("%w: sub-board %s", apperror.ErrSubBoardCompleted, move.Meta)
	}

	if sub.Cells[move.Local.Row][move.Local.Col].State != Empty {
		return fmt.Errorf("%w: cell %s%s", apperror.ErrCellOccupied, move.Meta, move.Local)
	}

	return nil
}

// ApplyMove - places the mark and re-evaluates the touched sub-board and the meta-board.
func (that *MetaBoard) ApplyMove(move Move) (MoveEffect, error) {
	if err := that.Check(move); err != nil {
		return MoveEffect{}, err
	}

	effect := MoveEffect{Move: move}

	sub := &that.SubBoards[move.Meta.Row][move.Meta.Col]
	sub.Cells[move.Local.Row][move.Local.Col].State = move.Player

	if outcome := Evaluate(sub.States()); outcome != OutcomeNone {
		sub.Outcome = outcome
		effect.SubBoardCompleted = outcome

		if meta := Evaluate(that.Outcomes()); meta != OutcomeNone {
			that.Outcome = meta
			effect.MetaBoardCompleted = meta
		}
	}

	return effect, nil
}

// Count - number of cells holding each player's mark.
func (that *MetaBoard) Count() (x, o int) {
	for row := range that.SubBoards {
		for col := range that.SubBoards[row] {
			for _, cells := range that.SubBoards[row][col].Cells {
				for _, cell := range cells {
					switch cell.State {
					case X:
						x++
					case O:
						o++
					case Empty:
					}
				}
			}
		}
	}
	return x, o
}
