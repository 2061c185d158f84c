package eventsync

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gammazero/deque"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/tictactoe"
)

// Verdict is the optimistic answer to a local click. It is a UI hint, never the source of truth.
type Verdict string

const (
	Accepted Verdict = "accepted"
	Rejected Verdict = "rejected"
)

// Layer keeps one participant's board in step with the relayed move stream.
//
// Local clicks go to the outgoing queue, everything the relay delivers (own echoes included)
// goes to the incoming queue and is applied by ApplyPending in arrival order. The mutex only
// guards the two queues; the coordinator is touched from the tick loop alone.
type Layer struct {
	logger      *slog.Logger
	coordinator *tictactoe.Coordinator
	identity    entity.Identity

	mu       sync.Mutex
	outgoing deque.Deque[entity.Move]
	incoming deque.Deque[entity.Move]
}

func NewLayer(logger *slog.Logger, coordinator *tictactoe.Coordinator, identity entity.Identity) *Layer {
	return &Layer{
		logger:      logger.With("component", "eventsync", "identity", identity.Local),
		coordinator: coordinator,
		identity:    identity,
	}
}

// SubmitLocalClick - resolves a click to a move for the local player and queues it if it looks legal.
func (that *Layer) SubmitLocalClick(meta, local entity.Position) (Verdict, error) {
	move := entity.Move{Meta: meta, Local: local, Player: that.identity.Local}

	if err := that.coordinator.CheckLegal(move); err != nil {
		submittedTotal.WithLabelValues(string(Rejected)).Inc()
		return Rejected, fmt.Errorf("click %s rejected: %w", move, err)
	}

	that.mu.Lock()
	that.outgoing.PushBack(move)
	that.mu.Unlock()

	submittedTotal.WithLabelValues(string(Accepted)).Inc()

	return Accepted, nil
}

// DrainOutgoing - removes and returns every move waiting to be sent.
func (that *Layer) DrainOutgoing() []entity.Move {
	that.mu.Lock()
	defer that.mu.Unlock()

	return drain(&that.outgoing)
}

// OnEventReceived - queues a move delivered by the relay. Never blocks on the tick loop.
func (that *Layer) OnEventReceived(move entity.Move) {
	that.mu.Lock()
	that.incoming.PushBack(move)
	that.mu.Unlock()
}

// ApplyPending - applies every queued incoming move that is still legal against the current state.
// Moves that fail the authority check are dropped; only an invariant violation is returned.
func (that *Layer) ApplyPending() ([]entity.MoveEffect, error) {
	log := that.logger.With("method", "ApplyPending")

	that.coordinator.PreventLock()

	that.mu.Lock()
	pending := drain(&that.incoming)
	that.mu.Unlock()

	var effects []entity.MoveEffect
	for _, move := range pending {
		effect, err := that.coordinator.Apply(move)
		if err != nil {
			err = that.classify(move, err)
			discardedTotal.WithLabelValues(reason(err)).Inc()
			log.Debug("move discarded", "move", move.String(), "error", err)
			continue
		}

		appliedTotal.Inc()
		effects = append(effects, effect)

		if err = that.coordinator.Verify(); err != nil {
			log.Error("board is inconsistent", "move", move.String(), "error", err)
			return effects, fmt.Errorf("failed to apply %s: %w", move, err)
		}
	}

	return effects, nil
}

// Pending - number of queued moves in each direction.
func (that *Layer) Pending() (outgoing, incoming int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.outgoing.Len(), that.incoming.Len()
}

// Reset - drops both queues.
func (that *Layer) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.outgoing.Clear()
	that.incoming.Clear()
}

// classify - a rejected move whose cell already holds the same mark is a replay of an applied move.
func (that *Layer) classify(move entity.Move, err error) error {
	if errors.Is(err, entity.ErrInvalidPosition) || errors.Is(err, entity.ErrInvalidPlayer) {
		return err
	}

	board := that.coordinator.Board()
	if board.CellState(move.Meta, move.Local) == move.Player {
		return fmt.Errorf("%w: %s", apperror.ErrDuplicateMove, move)
	}

	return err
}

func drain(queue *deque.Deque[entity.Move]) []entity.Move {
	if queue.Len() == 0 {
		return nil
	}

	moves := make([]entity.Move, 0, queue.Len())
	for queue.Len() > 0 {
		moves = append(moves, queue.PopFront())
	}

	return moves
}
