package eventsync

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
)

var (
	submittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uttt_sync_submitted_total",
		Help: "Local clicks by verdict",
	}, []string{"verdict"})

	appliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uttt_sync_applied_total",
		Help: "Received moves applied to the board",
	})

	discardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uttt_sync_discarded_total",
		Help: "Received moves dropped by the authority check, by reason",
	}, []string{"reason"})
)

// reason - short metric label for a recoverable move error.
func reason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrDuplicateMove):
		return "duplicate"
	case errors.Is(err, apperror.ErrGameOver):
		return "game_over"
	case errors.Is(err, apperror.ErrOutOfTurn):
		return "out_of_turn"
	case errors.Is(err, apperror.ErrNotMandated):
		return "not_mandated"
	case errors.Is(err, apperror.ErrIllegalMove):
		return "illegal"
	default:
		return "unknown"
	}
}
