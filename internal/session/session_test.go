package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/eventsync"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/tictactoe"
)

const settleDelay = 2 * time.Second

type mockPresenter struct {
	mock.Mock
}

func (m *mockPresenter) OnPhaseChanged(phase Phase) {
	m.Called(phase)
}

func (m *mockPresenter) OnMoveApplied(effect entity.MoveEffect) {
	m.Called(effect)
}

func (m *mockPresenter) OnLegalTargets(targets []entity.Position) {
	m.Called(targets)
}

func newSession(t *testing.T) (*Session, *mockPresenter) {
	t.Helper()

	presenter := &mockPresenter{}
	presenter.On("OnPhaseChanged", mock.Anything).Return()
	presenter.On("OnMoveApplied", mock.Anything).Return()
	presenter.On("OnLegalTargets", mock.Anything).Return()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return New(logger, presenter, settleDelay), presenter
}

func inGame(t *testing.T) (*Session, *mockPresenter) {
	t.Helper()

	session, presenter := newSession(t)
	require.NoError(t, session.StartServer())
	require.NoError(t, session.Signal(NewSignal(EndpointCreated)))
	require.NoError(t, session.Signal(NewSignal(PeerJoined)))
	require.Equal(t, PhaseInGame, session.Phase())

	return session, presenter
}

// firstLegalMove - the first empty cell of the first legal sub-board for whoever is to move.
func firstLegalMove(t *testing.T, session *Session) entity.Move {
	t.Helper()

	coordinator := session.Coordinator()
	board := coordinator.Board()
	for _, meta := range coordinator.LegalTargets() {
		for _, local := range entity.AllPositions() {
			if board.CellState(meta, local) == entity.Empty {
				return entity.Move{Meta: meta, Local: local, Player: coordinator.TurnState().Current}
			}
		}
	}

	require.FailNow(t, "no legal move left")
	return entity.Move{}
}

func TestSession_HostFlow(t *testing.T) {
	// Given: a session in the menu
	session, presenter := newSession(t)
	assert.Equal(t, PhaseMenu, session.Phase())

	// When: hosting and the endpoint comes up
	require.NoError(t, session.StartServer())
	assert.Equal(t, PhaseCreatingServer, session.Phase())
	assert.Equal(t, entity.X, session.Identity().Local)

	require.NoError(t, session.Signal(NewSignal(EndpointCreated)))
	assert.Equal(t, PhaseStartingGame, session.Phase())

	// the host's loopback connection does not move the phase
	require.NoError(t, session.Signal(NewSignal(ConnectionEstablished)))
	assert.Equal(t, PhaseStartingGame, session.Phase())
	assert.Nil(t, session.Coordinator())

	// When: the opponent joins
	require.NoError(t, session.Signal(NewSignal(PeerJoined)))

	// Then: a fresh game is running with X to move anywhere
	assert.Equal(t, PhaseInGame, session.Phase())
	require.NotNil(t, session.Coordinator())
	assert.Equal(t, entity.X, session.Coordinator().TurnState().Current)

	presenter.AssertCalled(t, "OnPhaseChanged", PhaseCreatingServer)
	presenter.AssertCalled(t, "OnPhaseChanged", PhaseStartingGame)
	presenter.AssertCalled(t, "OnPhaseChanged", PhaseInGame)
	presenter.AssertCalled(t, "OnLegalTargets", entity.AllPositions())
}

func TestSession_ClientFlow(t *testing.T) {
	// Given: a session joining someone else's game
	session, _ := newSession(t)
	require.NoError(t, session.StartClient())
	assert.Equal(t, PhaseConnecting, session.Phase())
	assert.Equal(t, entity.O, session.Identity().Local)

	// When: the connection is up and the relay hands out X
	require.NoError(t, session.Signal(NewSignal(ConnectionEstablished)))
	require.NoError(t, session.Signal(RoleAssigned(entity.X)))
	require.NoError(t, session.Signal(NewSignal(PeerJoined)))

	// Then: the assigned mark wins over the default
	assert.Equal(t, PhaseInGame, session.Phase())
	assert.Equal(t, entity.X, session.Identity().Local)
}

func TestSession_UnexpectedSignals(t *testing.T) {
	t.Run("Peer joined in the menu", func(t *testing.T) {
		// Given: a session in the menu
		session, _ := newSession(t)

		// When: a peer joins
		err := session.Signal(NewSignal(PeerJoined))

		// Then: the signal is refused and nothing changes
		require.ErrorIs(t, err, apperror.ErrUnexpectedSignal)
		assert.Equal(t, PhaseMenu, session.Phase())
	})

	t.Run("Start twice", func(t *testing.T) {
		// Given: a session already connecting
		session, _ := newSession(t)
		require.NoError(t, session.StartClient())

		// When: starting a server on top
		err := session.StartServer()

		// Then: it is refused
		require.ErrorIs(t, err, apperror.ErrUnexpectedSignal)
		assert.Equal(t, PhaseConnecting, session.Phase())
	})

	t.Run("Role without a player mark", func(t *testing.T) {
		// Given: a connecting session
		session, _ := newSession(t)
		require.NoError(t, session.StartClient())

		// When: the role carries no mark
		err := session.Signal(RoleAssigned(entity.Empty))

		// Then: the identity is untouched
		require.ErrorIs(t, err, entity.ErrInvalidPlayer)
		assert.Equal(t, entity.O, session.Identity().Local)
	})

	t.Run("Clicks and moves outside a game", func(t *testing.T) {
		// Given: a session in the menu
		session, _ := newSession(t)

		// When: clicking and receiving
		verdict, err := session.SubmitLocalClick(entity.Position{}, entity.Position{})
		session.OnEventReceived(entity.Move{Player: entity.X})

		// Then: nothing happens
		require.ErrorIs(t, err, apperror.ErrNotInGame)
		assert.Equal(t, eventsync.Rejected, verdict)
		assert.Nil(t, session.DrainOutgoing())
		require.NoError(t, session.Tick(time.Now()))
	})
}

func TestSession_Tick(t *testing.T) {
	// Given: the host clicked and the relay echoed the move back
	session, presenter := inGame(t)

	verdict, err := session.SubmitLocalClick(entity.Position{Row: 0, Col: 0}, entity.Position{Row: 1, Col: 1})
	require.NoError(t, err)
	require.Equal(t, eventsync.Accepted, verdict)

	sent := session.DrainOutgoing()
	require.Len(t, sent, 1)
	session.OnEventReceived(sent[0])

	// When: ticking
	require.NoError(t, session.Tick(time.Now()))

	// Then: the presenter sees the move and the new highlight
	presenter.AssertCalled(t, "OnMoveApplied", entity.MoveEffect{Move: sent[0]})
	presenter.AssertCalled(t, "OnLegalTargets", []entity.Position{{Row: 1, Col: 1}})
	assert.Equal(t, entity.O, session.Coordinator().TurnState().Current)

	// And: X can't click again before O has moved
	_, err = session.SubmitLocalClick(entity.Position{Row: 1, Col: 1}, entity.Position{Row: 0, Col: 0})
	require.ErrorIs(t, err, apperror.ErrOutOfTurn)
}

func TestSession_FinishGame(t *testing.T) {
	// Given: a running game
	session, presenter := inGame(t)
	now := time.Now()

	// When: both players' moves arrive until the game ends
	for session.Phase() == PhaseInGame {
		session.OnEventReceived(firstLegalMove(t, session))
		require.NoError(t, session.Tick(now))
	}

	// Then: the session settles before going back to the menu
	require.Equal(t, PhaseFinishingGame, session.Phase())
	outcome := session.Coordinator().Outcome()
	assert.NotEqual(t, entity.OutcomeNone, outcome)

	_, err := session.SubmitLocalClick(entity.Position{}, entity.Position{})
	require.ErrorIs(t, err, apperror.ErrNotInGame)

	require.NoError(t, session.Tick(now.Add(settleDelay-time.Millisecond)))
	assert.Equal(t, PhaseFinishingGame, session.Phase())

	require.NoError(t, session.Tick(now.Add(settleDelay)))
	assert.Equal(t, PhaseMenu, session.Phase())

	// And: everything from the game is gone but the result
	assert.Nil(t, session.Coordinator())
	assert.Equal(t, entity.Identity{}, session.Identity())

	result, err := session.Result()
	require.NoError(t, err)
	assert.Equal(t, outcome, result)
	presenter.AssertCalled(t, "OnPhaseChanged", PhaseFinishingGame)
}

func TestSession_ConnectionLost(t *testing.T) {
	// Given: a running game with a pending move
	session, _ := inGame(t)
	_, err := session.SubmitLocalClick(entity.Position{}, entity.Position{})
	require.NoError(t, err)

	// When: the connection drops
	require.NoError(t, session.Signal(NewSignal(ConnectionLost)))

	// Then: the session is back in the menu with nothing left over
	assert.Equal(t, PhaseMenu, session.Phase())
	assert.Nil(t, session.Coordinator())
	assert.Nil(t, session.DrainOutgoing())

	_, err = session.Result()
	require.ErrorIs(t, err, apperror.ErrConnectionLost)
	assert.False(t, session.Fatal())

	// And: a new game can be started
	require.NoError(t, session.StartClient())
	_, err = session.Result()
	require.NoError(t, err)
}

func TestSession_InvariantViolation(t *testing.T) {
	// Given: a running game whose board disagrees with its turn state
	session, presenter := inGame(t)
	session.coordinator = tictactoe.Restore(entity.NewMetaBoard(), entity.TurnState{Current: entity.O})
	session.layer = eventsync.NewLayer(session.logger, session.coordinator, session.Identity())

	// When: a move that passes the authority check is applied
	session.OnEventReceived(entity.Move{
		Meta:   entity.Position{Row: 0, Col: 0},
		Local:  entity.Position{Row: 1, Col: 1},
		Player: entity.O,
	})
	err := session.Tick(time.Now())

	// Then: the session aborts to the menu with a fatal diagnostic
	require.ErrorIs(t, err, apperror.ErrInvariantViolation)
	assert.Equal(t, PhaseMenu, session.Phase())
	assert.True(t, session.Fatal())
	assert.Nil(t, session.Coordinator())
	assert.Nil(t, session.DrainOutgoing())

	outcome, result := session.Result()
	require.ErrorIs(t, result, apperror.ErrInvariantViolation)
	assert.Equal(t, entity.OutcomeNone, outcome)
	presenter.AssertCalled(t, "OnPhaseChanged", PhaseMenu)
}

func TestSession_ConnectionLostAfterFinish(t *testing.T) {
	// Given: a finished game still settling
	session, _ := inGame(t)
	now := time.Now()
	for session.Phase() == PhaseInGame {
		session.OnEventReceived(firstLegalMove(t, session))
		require.NoError(t, session.Tick(now))
	}
	require.Equal(t, PhaseFinishingGame, session.Phase())

	// When: the peer leaves right away
	require.NoError(t, session.Signal(NewSignal(ConnectionLost)))

	// Then: the final board stays up until the settle delay is over
	assert.Equal(t, PhaseFinishingGame, session.Phase())
	require.NotNil(t, session.Coordinator())

	require.NoError(t, session.Tick(now.Add(settleDelay-time.Millisecond)))
	assert.Equal(t, PhaseFinishingGame, session.Phase())

	require.NoError(t, session.Tick(now.Add(settleDelay)))
	assert.Equal(t, PhaseMenu, session.Phase())

	// And: the game ended with its result, not with a lost connection
	outcome, err := session.Result()
	require.NoError(t, err)
	assert.NotEqual(t, entity.OutcomeNone, outcome)
}
