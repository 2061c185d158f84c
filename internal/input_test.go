package application

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/entity"
)

type mockClicker struct {
	mock.Mock
}

func (m *mockClicker) Click(meta, local entity.Position) bool {
	args := m.Called(meta, local)
	return args.Bool(0)
}

func TestParseClick(t *testing.T) {
	tests := []struct {
		name  string
		input string
		meta  entity.Position
		local entity.Position
		err   error
	}{
		{name: "valid", input: "1 2 0 1", meta: entity.Position{Row: 1, Col: 2}, local: entity.Position{Row: 0, Col: 1}},
		{name: "out of range", input: "3 0 0 0", err: ErrBadClick},
		{name: "too short", input: "1 1 1", err: ErrBadClick},
		{name: "not numbers", input: "a b c d", err: ErrBadClick},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, local, err := parseClick(tt.input)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.meta, meta)
			assert.Equal(t, tt.local, local)
		})
	}
}

func TestReadClicks(t *testing.T) {
	// Given: input with a valid click, garbage and an empty line
	target := &mockClicker{}
	target.On("Click", entity.Position{Row: 1, Col: 1}, entity.Position{Row: 2, Col: 0}).Return(true).Once()

	input := strings.NewReader("1 1 2 0\nhello\n\n")
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	// When: reading all of it
	readClicks(context.Background(), logger, input, target)

	// Then: only the valid click is forwarded
	target.AssertExpectations(t)
}
