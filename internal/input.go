package application

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

var ErrBadClick = errors.New("expected four numbers 0-2: meta-row meta-col row col")

type clicker interface {
	Click(meta, local entity.Position) bool
}

// readClicks - turns lines like "1 1 0 2" into clicks until the reader ends or ctx is done.
func readClicks(ctx context.Context, logger *slog.Logger, reader io.Reader, target clicker) {
	log := logger.With("method", "readClicks")

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		meta, local, err := parseClick(line)
		if err != nil {
			log.Warn("click ignored", "input", line, "error", err)
			continue
		}

		if !target.Click(meta, local) {
			log.Warn("click dropped", "input", line)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error("failed to read input", "error", err)
	}
}

func parseClick(line string) (entity.Position, entity.Position, error) {
	var meta, local entity.Position

	n, err := fmt.Sscanf(line, "%d %d %d %d", &meta.Row, &meta.Col, &local.Row, &local.Col)
	if err != nil || n != 4 {
		return meta, local, ErrBadClick
	}

	if !meta.Valid() || !local.Valid() {
		return meta, local, ErrBadClick
	}

	return meta, local, nil
}
