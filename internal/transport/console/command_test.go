package console

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
	"github.com/rocketscienceinc/arena-client/internal/entity"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Command
	}{
		{"ranked", "ranked caro", Command{Action: ActionRanked, GameType: entity.Caro}},
		{"practice", "practice tic-tac-toe hard", Command{Action: ActionPractice, GameType: entity.TicTacToe, Difficulty: entity.HardDifficulty}},
		{"move", "move 1 2", Command{Action: ActionMove, Row: 1, Col: 2}},
		{"chat keeps spacing", "  chat  good game,  well played ", Command{Action: ActionChat, Text: "good game,  well played"}},
		{"replay", "replay 42", Command{Action: ActionReplay, MatchID: "42"}},
		{"case insensitive", "UNDO", Command{Action: ActionUndo}},
		{"blank line redraws", "   ", Command{Action: ActionBoard}},
		{"profile", "profile", Command{Action: ActionProfile}},
		{"quit", "quit", Command{Action: ActionQuit}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.line)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Run("Unknown command", func(t *testing.T) {
		_, err := Parse("castle")

		require.ErrorIs(t, err, ErrUnknownCommand)
	})

	t.Run("Bad arguments", func(t *testing.T) {
		for _, line := range []string{"move 1", "move a b", "ranked", "chat", "replay", "practice caro"} {
			_, err := Parse(line)

			require.ErrorIs(t, err, ErrBadArguments, line)
		}
	})

	t.Run("Unknown game type keeps its kind", func(t *testing.T) {
		_, err := Parse("ranked chess")

		require.ErrorIs(t, err, ErrBadArguments)
		require.ErrorIs(t, err, apperror.ErrUnknownGameType)
	})

	t.Run("Unknown difficulty keeps its kind", func(t *testing.T) {
		_, err := Parse("practice caro impossible")

		require.ErrorIs(t, err, entity.ErrUnknownDifficulty)
	})
}

type recordingHandler struct {
	commands []Command
	errors   []error
}

func (that *recordingHandler) HandleCommand(cmd Command) {
	that.commands = append(that.commands, cmd)
}

func (that *recordingHandler) HandleInputError(err error) {
	that.errors = append(that.errors, err)
}

func TestReader_Run(t *testing.T) {
	t.Run("Stops after quit", func(t *testing.T) {
		// Given: input with a typo and lines after quit
		handler := &recordingHandler{}
		reader := NewReader(slog.New(slog.NewTextHandler(io.Discard, nil)), handler)

		// When: reading it
		err := reader.Run(context.Background(), strings.NewReader("move 0 0\nfly\nquit\nmove 1 1\n"))

		// Then: lines up to quit were handled
		require.NoError(t, err)
		require.Len(t, handler.commands, 2)
		assert.Equal(t, ActionMove, handler.commands[0].Action)
		assert.Equal(t, ActionQuit, handler.commands[1].Action)
		require.Len(t, handler.errors, 1)
		assert.ErrorIs(t, handler.errors[0], ErrUnknownCommand)
	})

	t.Run("Ends with the input", func(t *testing.T) {
		handler := &recordingHandler{}
		reader := NewReader(slog.New(slog.NewTextHandler(io.Discard, nil)), handler)

		require.NoError(t, reader.Run(context.Background(), strings.NewReader("board\n")))

		assert.Len(t, handler.commands, 1)
	})
}
