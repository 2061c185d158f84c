package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

// Coordinator owns the authoritative turn state on top of the board: whose turn it is and which
// sub-board the next mover is held to.
type Coordinator struct {
	board    entity.MetaBoard
	current  entity.Symbol
	mandated *entity.Position
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		board:   entity.NewMetaBoard(),
		current: entity.X,
	}
}

// Restore - rebuilds a coordinator from a board and turn state as they are. Nothing is checked; run Verify.
func Restore(board entity.MetaBoard, state entity.TurnState) *Coordinator {
	coordinator := &Coordinator{
		board:   board,
		current: state.Current,
	}

	if state.Mandated != nil {
		mandated := *state.Mandated
		coordinator.mandated = &mandated
	}

	return coordinator
}

// Apply - validates the move against turn, mandate and board, applies it and advances the turn.
func (that *Coordinator) Apply(move entity.Move) (entity.MoveEffect, error) {
	if err := that.CheckLegal(move); err != nil {
		return entity.MoveEffect{}, err
	}

	effect, err := that.board.ApplyMove(move)
	if err != nil {
		return entity.MoveEffect{}, fmt.Errorf("invalid turn: %w", err)
	}

	that.updateMandate(move, effect)
	that.current = toggleMark(move.Player)

	return effect, nil
}

// CheckLegal - reports why a move would be refused right now, without mutating anything.
func (that *Coordinator) CheckLegal(move entity.Move) error {
	if that.board.Completed() {
		return apperror.ErrGameOver
	}

	if err := move.Validate(); err != nil {
		return err
	}

	if move.Player != that.current {
		return apperror.ErrOutOfTurn
	}

	if err := that.board.Check(move); err != nil {
		return err
	}

	if that.mandated != nil && *that.mandated != move.Meta {
		if !that.mandatedCompleted() {
			return fmt.Errorf("%w: expected %s, got %s", apperror.ErrNotMandated, *that.mandated, move.Meta)
		}
	}

	return nil
}

// PreventLock - clears the mandate when the mandated sub-board can no longer be played.
func (that *Coordinator) PreventLock() {
	if that.mandatedCompleted() {
		that.mandated = nil
	}
}

// LegalTargets - the sub-boards the current player may play in.
func (that *Coordinator) LegalTargets() []entity.Position {
	if that.board.Completed() {
		return nil
	}

	if that.mandated != nil && !that.mandatedCompleted() {
		return []entity.Position{*that.mandated}
	}

	targets := make([]entity.Position, 0, 9)
	for _, pos := range entity.AllPositions() {
		sub := that.board.SubBoard(pos)
		if !sub.Completed() {
			targets = append(targets, pos)
		}
	}

	return targets
}

func (that *Coordinator) TurnState() entity.TurnState {
	state := entity.TurnState{Current: that.current}
	if that.mandated != nil {
		mandated := *that.mandated
		state.Mandated = &mandated
	}
	return state
}

// Board - returns a copy of the board.
func (that *Coordinator) Board() entity.MetaBoard {
	return that.board
}

func (that *Coordinator) Outcome() entity.Outcome {
	return that.board.Outcome
}

func (that *Coordinator) IsOver() bool {
	return that.board.Completed()
}

func (that *Coordinator) updateMandate(move entity.Move, effect entity.MoveEffect) {
	if effect.SubBoardCompleted != entity.OutcomeNone || effect.MetaBoardCompleted != entity.OutcomeNone {
		that.mandated = nil
		return
	}

	next := move.Local
	that.mandated = &next
	that.PreventLock()
}

func (that *Coordinator) mandatedCompleted() bool {
	if that.mandated == nil {
		return false
	}

	sub := that.board.SubBoard(*that.mandated)

	return sub.Completed()
}

func toggleMark(currentMark entity.Symbol) entity.Symbol {
	return currentMark.Opponent()
}
