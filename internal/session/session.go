package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/eventsync"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/tictactoe"
)

// Session gates when the coordinator and the sync layer run. The board and both queues exist
// only between PeerJoined and the return to the menu.
//
// Not safe for concurrent use: every method is meant to be called from the tick loop.
type Session struct {
	logger      *slog.Logger
	presenter   Presenter
	settleDelay time.Duration

	phase      Phase
	identity   entity.Identity
	finishedAt time.Time
	outcome    entity.Outcome
	err        error

	coordinator *tictactoe.Coordinator
	layer       *eventsync.Layer
}

func New(logger *slog.Logger, presenter Presenter, settleDelay time.Duration) *Session {
	return &Session{
		logger:      logger.With("component", "session"),
		presenter:   presenter,
		settleDelay: settleDelay,
		phase:       PhaseMenu,
	}
}

// StartClient - leaves the menu to join a game hosted elsewhere. The joiner plays O unless told otherwise.
func (that *Session) StartClient() error {
	if that.phase != PhaseMenu {
		return fmt.Errorf("start client in %s: %w", that.phase, apperror.ErrUnexpectedSignal)
	}

	that.identity = entity.Identity{Local: entity.O}
	that.err = nil
	that.outcome = entity.OutcomeNone
	that.setPhase(PhaseConnecting)

	return nil
}

// StartServer - leaves the menu to host a game. The host plays X unless told otherwise.
func (that *Session) StartServer() error {
	if that.phase != PhaseMenu {
		return fmt.Errorf("start server in %s: %w", that.phase, apperror.ErrUnexpectedSignal)
	}

	that.identity = entity.Identity{Local: entity.X}
	that.err = nil
	that.outcome = entity.OutcomeNone
	that.setPhase(PhaseCreatingServer)

	return nil
}

// Signal - feeds a transport notification into the phase machine.
func (that *Session) Signal(signal Signal) error {
	switch signal.Kind {
	case ConnectionEstablished:
		switch that.phase {
		case PhaseConnecting:
			that.setPhase(PhaseStartingGame)
			return nil
		case PhaseStartingGame:
			// the host's own loopback connection to the endpoint it just created
			return nil
		default:
		}

	case EndpointCreated:
		if that.phase == PhaseCreatingServer {
			that.setPhase(PhaseStartingGame)
			return nil
		}

	case HostRoleAssigned:
		if !signal.Mark.IsPlayer() {
			return fmt.Errorf("%s: %w", signal, entity.ErrInvalidPlayer)
		}

		switch that.phase {
		case PhaseConnecting, PhaseCreatingServer, PhaseStartingGame:
			that.identity = entity.Identity{Local: signal.Mark}
			that.logger.Info("role assigned", "mark", signal.Mark)
			return nil
		default:
		}

	case PeerJoined:
		if that.phase == PhaseStartingGame {
			that.startGame()
			return nil
		}

	case ConnectionLost:
		if that.phase == PhaseMenu {
			return nil
		}

		if that.phase == PhaseFinishingGame {
			// the result stands; the settle delay still runs out on Tick
			that.logger.Info("peer gone after the game finished")
			return nil
		}

		that.err = apperror.ErrConnectionLost
		that.logger.Warn("connection lost", "phase", that.phase)
		that.reset()
		return nil
	}

	return fmt.Errorf("%s in %s: %w", signal, that.phase, apperror.ErrUnexpectedSignal)
}

// Tick - one step of the authoritative loop.
func (that *Session) Tick(now time.Time) error {
	log := that.logger.With("method", "Tick")

	switch that.phase {
	case PhaseInGame:
		effects, err := that.layer.ApplyPending()
		for _, effect := range effects {
			that.presenter.OnMoveApplied(effect)
		}

		if err != nil {
			log.Error("aborting session", "error", err)
			that.err = err
			that.reset()
			return err
		}

		if that.coordinator.IsOver() {
			that.outcome = that.coordinator.Outcome()
			that.finishedAt = now
			log.Info("game finished", "outcome", that.outcome)
			that.setPhase(PhaseFinishingGame)
			return nil
		}

		if len(effects) > 0 {
			that.presenter.OnLegalTargets(that.coordinator.LegalTargets())
		}

	case PhaseFinishingGame:
		// trailing events are flushed; the finished board refuses all of them
		if _, err := that.layer.ApplyPending(); err != nil {
			log.Error("board is inconsistent after finish", "error", err)
		}

		if now.Sub(that.finishedAt) >= that.settleDelay {
			that.reset()
		}

	case PhaseMenu, PhaseConnecting, PhaseCreatingServer, PhaseStartingGame:
	}

	return nil
}

// SubmitLocalClick - forwards a resolved click to the sync layer while a game is running.
func (that *Session) SubmitLocalClick(meta, local entity.Position) (eventsync.Verdict, error) {
	if that.phase != PhaseInGame {
		return eventsync.Rejected, apperror.ErrNotInGame
	}

	return that.layer.SubmitLocalClick(meta, local)
}

// DrainOutgoing - moves waiting for the transport; nil outside a game.
func (that *Session) DrainOutgoing() []entity.Move {
	if that.phase != PhaseInGame {
		return nil
	}

	return that.layer.DrainOutgoing()
}

// OnEventReceived - queues a relayed move. Moves arriving outside a game are dropped.
func (that *Session) OnEventReceived(move entity.Move) {
	if that.layer == nil {
		that.logger.Debug("move dropped outside a game", "move", move.String(), "phase", that.phase)
		return
	}

	that.layer.OnEventReceived(move)
}

func (that *Session) Phase() Phase {
	return that.phase
}

func (that *Session) Identity() entity.Identity {
	return that.identity
}

// Coordinator - the running game, nil outside InGame and FinishingGame.
func (that *Session) Coordinator() *tictactoe.Coordinator {
	return that.coordinator
}

// Result - outcome of the last finished game and the reason the last session ended early, if any.
func (that *Session) Result() (entity.Outcome, error) {
	return that.outcome, that.err
}

// Fatal reports whether the last session was aborted by an inconsistent board.
func (that *Session) Fatal() bool {
	return errors.Is(that.err, apperror.ErrInvariantViolation)
}

func (that *Session) startGame() {
	that.coordinator = tictactoe.NewCoordinator()
	that.layer = eventsync.NewLayer(that.logger, that.coordinator, that.identity)

	that.logger.Info("game started", "identity", that.identity.Local)
	that.setPhase(PhaseInGame)
	that.presenter.OnLegalTargets(that.coordinator.LegalTargets())
}

func (that *Session) reset() {
	if that.layer != nil {
		that.layer.Reset()
	}

	that.layer = nil
	that.coordinator = nil
	that.identity = entity.Identity{}
	that.finishedAt = time.Time{}

	that.setPhase(PhaseMenu)
}

func (that *Session) setPhase(phase Phase) {
	if that.phase == phase {
		return
	}

	that.logger.Debug("phase changed", "from", that.phase, "to", phase)
	that.phase = phase
	that.presenter.OnPhaseChanged(phase)
}
