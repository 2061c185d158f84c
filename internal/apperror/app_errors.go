package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove = errors.New("illegal move")

	ErrCellOccupied      = fmt.Errorf("%w: cell is already occupied", ErrIllegalMove)
	ErrSubBoardCompleted = fmt.Errorf("%w: sub-board is already completed", ErrIllegalMove)
	ErrNotMandated       = fmt.Errorf("%w: move must be played in the mandated sub-board", ErrIllegalMove)

	ErrOutOfTurn     = errors.New("it's not your turn")
	ErrGameOver      = errors.New("game is already finished")
	ErrDuplicateMove = errors.New("move was already applied")

	ErrNotInGame        = errors.New("session is not in game")
	ErrUnexpectedSignal = errors.New("signal is not expected in this phase")
	ErrConnectionLost   = errors.New("connection to the relay was lost")

	// ErrInvariantViolation is the only fatal condition: the state machine disagrees with itself.
	ErrInvariantViolation = errors.New("internal invariant violation")
)
