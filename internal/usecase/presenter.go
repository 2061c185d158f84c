package usecase

import (
	"log/slog"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/session"
)

// LogPresenter reports what a renderer would draw as structured log lines.
type LogPresenter struct {
	logger *slog.Logger
}

func NewLogPresenter(logger *slog.Logger) *LogPresenter {
	return &LogPresenter{
		logger: logger.With("component", "presenter"),
	}
}

func (that *LogPresenter) OnPhaseChanged(phase session.Phase) {
	that.logger.Info("phase", "phase", phase)
}

func (that *LogPresenter) OnMoveApplied(effect entity.MoveEffect) {
	attrs := []any{"move", effect.Move.String()}

	if effect.SubBoardCompleted != entity.OutcomeNone {
		attrs = append(attrs, "sub_board", effect.Move.Meta.String(), "sub_board_outcome", effect.SubBoardCompleted)
	}

	if effect.MetaBoardCompleted != entity.OutcomeNone {
		attrs = append(attrs, "game_outcome", effect.MetaBoardCompleted)
	}

	that.logger.Info("move applied", attrs...)
}

func (that *LogPresenter) OnLegalTargets(targets []entity.Position) {
	positions := make([]string, 0, len(targets))
	for _, target := range targets {
		positions = append(positions, target.String())
	}

	that.logger.Debug("legal targets", "targets", positions)
}
