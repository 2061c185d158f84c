package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

// Verify - audits the coordinator state. A failure means a bug, never bad input.
func (that *Coordinator) Verify() error {
	for _, pos := range entity.AllPositions() {
		sub := that.board.SubBoard(pos)
		if got := entity.Evaluate(sub.States()); got != sub.Outcome {
			return fmt.Errorf("%w: sub-board %s holds outcome %q but its cells evaluate to %q",
				apperror.ErrInvariantViolation, pos, sub.Outcome, got)
		}
	}

	if got := entity.Evaluate(that.board.Outcomes()); got != that.board.Outcome {
		return fmt.Errorf("%w: meta-board holds outcome %q but evaluates to %q",
			apperror.ErrInvariantViolation, that.board.Outcome, got)
	}

	if that.mandatedCompleted() {
		return fmt.Errorf("%w: mandated sub-board %s is completed",
			apperror.ErrInvariantViolation, *that.mandated)
	}

	xs, os := that.board.Count()
	switch {
	case xs == os && that.current == entity.X:
	case xs == os+1 && that.current == entity.O:
	default:
		return fmt.Errorf("%w: %d X and %d O marks with %s to move",
			apperror.ErrInvariantViolation, xs, os, that.current)
	}

	return nil
}
