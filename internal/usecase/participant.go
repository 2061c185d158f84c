package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/session"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/tictactoe"
)

const clickBuffer = 8

type transport interface {
	Send(ctx context.Context, move entity.Move) error
	PollIncoming() (entity.Move, bool)
	Signals() <-chan session.Signal
}

type bot interface {
	PickMove(game *tictactoe.Coordinator, mark entity.Symbol) (entity.Move, error)
}

// Click is a board coordinate already resolved by the input layer.
type Click struct {
	Meta  entity.Position
	Local entity.Position
}

// Participant owns the single tick loop of one player: it feeds transport events into the session,
// advances it once per tick and hands the drained outgoing moves back to the transport.
type Participant struct {
	logger       *slog.Logger
	session      *session.Session
	transport    transport
	tickInterval time.Duration
	host         bool

	bot        bot
	botPending bool

	clicks chan Click
}

func NewParticipant(logger *slog.Logger, sess *session.Session, transport transport, tickInterval time.Duration, host bool) *Participant {
	return &Participant{
		logger:       logger.With("component", "participant", "host", host),
		session:      sess,
		transport:    transport,
		tickInterval: tickInterval,
		host:         host,
		clicks:       make(chan Click, clickBuffer),
	}
}

// WithBot - lets bot play the local mark.
func (that *Participant) WithBot(bot bot) *Participant {
	that.bot = bot
	return that
}

// Click - hands a click to the tick loop. Returns false when the loop is not keeping up.
func (that *Participant) Click(meta, local entity.Position) bool {
	select {
	case that.clicks <- Click{Meta: meta, Local: local}:
		return true
	default:
		return false
	}
}

// Run - plays one session from the menu back to the menu and reports how it ended.
func (that *Participant) Run(ctx context.Context) (entity.Outcome, error) {
	log := that.logger.With("method", "Run")

	if err := that.start(); err != nil {
		return entity.OutcomeNone, err
	}

	ticker := time.NewTicker(that.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return entity.OutcomeNone, ctx.Err()

		case signal := <-that.transport.Signals():
			that.signal(signal)

		case click := <-that.clicks:
			verdict, err := that.session.SubmitLocalClick(click.Meta, click.Local)
			log.Debug("click", "meta", click.Meta.String(), "local", click.Local.String(), "verdict", verdict, "error", err)

		case now := <-ticker.C:
			that.step(ctx, now)
		}

		if that.session.Phase() == session.PhaseMenu {
			outcome, err := that.session.Result()
			log.Info("session ended", "outcome", outcome, "error", err)
			return outcome, err
		}
	}
}

func (that *Participant) start() error {
	if !that.host {
		return that.session.StartClient()
	}

	if err := that.session.StartServer(); err != nil {
		return err
	}

	// the relay is already listening when the participant starts
	return that.session.Signal(session.NewSignal(session.EndpointCreated))
}

func (that *Participant) step(ctx context.Context, now time.Time) {
	log := that.logger.With("method", "step")

	// a move is queued after every signal the relay sent before it, so
	// draining signals first keeps the relay's order (PeerJoined before the first move)
	that.drainSignals()

	for {
		move, ok := that.transport.PollIncoming()
		if !ok {
			break
		}
		that.session.OnEventReceived(move)
	}

	if err := that.session.Tick(now); err != nil {
		log.Error("session aborted", "error", err)
		return
	}

	that.playBot()

	for _, move := range that.session.DrainOutgoing() {
		if err := that.transport.Send(ctx, move); err != nil {
			log.Warn("failed to send move", "move", move.String(), "error", err)
		}
	}
}

func (that *Participant) signal(signal session.Signal) {
	if err := that.session.Signal(signal); err != nil {
		that.logger.Debug("signal ignored", "signal", signal.String(), "error", err)
	}
}

func (that *Participant) drainSignals() {
	for {
		select {
		case signal := <-that.transport.Signals():
			that.signal(signal)
		default:
			return
		}
	}
}

// playBot - one move per turn; the bot waits for its own echo before it considers moving again.
func (that *Participant) playBot() {
	if that.bot == nil || that.session.Phase() != session.PhaseInGame {
		return
	}

	game := that.session.Coordinator()
	mark := that.session.Identity().Local

	if game.TurnState().Current != mark {
		that.botPending = false
		return
	}

	if that.botPending {
		return
	}

	move, err := that.bot.PickMove(game, mark)
	if err != nil {
		that.logger.Debug("bot can't move", "error", err)
		return
	}

	if _, err = that.session.SubmitLocalClick(move.Meta, move.Local); err != nil {
		that.logger.Warn("bot move rejected", "move", move.String(), "error", err)
		return
	}

	that.botPending = true
}
