package service

import (
	"errors"
	"math/rand"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/tictactoe"
)

var (
	ErrNotBotTurn       = errors.New("it's not the bot's turn")
	ErrNoAvailableMoves = errors.New("no available moves")
)

type BotService interface {
	PickMove(game *tictactoe.Coordinator, mark entity.Symbol) (entity.Move, error)
}

type botService struct {
	rnd *rand.Rand
}

func NewBotService(seed int64) BotService {
	return &botService{
		rnd: rand.New(rand.NewSource(seed)), //nolint: gosec // it's ok
	}
}

// PickMove - a random legal move for mark, or an error when mark can't move right now.
func (that *botService) PickMove(game *tictactoe.Coordinator, mark entity.Symbol) (entity.Move, error) {
	if game.IsOver() || game.TurnState().Current != mark {
		return entity.Move{}, ErrNotBotTurn
	}

	board := game.Board()

	availableMoves := make([]entity.Move, 0, 9)
	for _, meta := range game.LegalTargets() {
		for _, local := range entity.AllPositions() {
			if board.CellState(meta, local) == entity.Empty {
				availableMoves = append(availableMoves, entity.Move{Meta: meta, Local: local, Player: mark})
			}
		}
	}

	if len(availableMoves) == 0 {
		return entity.Move{}, ErrNoAvailableMoves
	}

	return availableMoves[that.rnd.Intn(len(availableMoves))], nil
}
