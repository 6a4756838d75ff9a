// Package replay rebuilds board states from a persisted move log.
package replay

import (
	"errors"
	"fmt"
	"math"

	"github.com/rocketscienceinc/arena-client/internal/entity"
)

var (
	ErrMoveOutOfBounds = errors.New("move is out of bounds")
	ErrCellOccupied    = errors.New("move targets an occupied cell")
	ErrInvalidPlayer   = errors.New("move has an invalid player")
	ErrTurnOrder       = errors.New("move breaks turn order")
)

// Reconstruct returns the board after the first upto moves. Moves that cannot be applied are
// skipped, so the result is always a usable board.
func Reconstruct(shape entity.Shape, moves []entity.Move, upto int) *entity.Board {
	board := entity.NewBoardWithShape(shape)

	upto = clamp(upto, 0, len(moves))
	for _, move := range moves[:upto] {
		apply(board, move)
	}

	return board
}

// apply writes the move when it is applicable and reports whether it did.
func apply(board *entity.Board, move entity.Move) bool {
	if !move.Player.IsPlayer() {
		return false
	}

	if !board.IsEmptyAt(move.Row, move.Col) {
		return false
	}

	return board.Set(move.Row, move.Col, move.Player) == nil
}

// Validate reports every reason the log is malformed: moves off the board, moves onto occupied
// cells, unknown players and players that do not alternate starting from firstMover.
func Validate(shape entity.Shape, moves []entity.Move, firstMover entity.CellValue) error {
	board := entity.NewBoardWithShape(shape)
	expected := firstMover

	var errs []error

	for i, move := range moves {
		switch {
		case !shape.Contains(move.Row, move.Col):
			errs = append(errs, fmt.Errorf("%w: move %d at (%d,%d)", ErrMoveOutOfBounds, i, move.Row, move.Col))
		case !move.Player.IsPlayer():
			errs = append(errs, fmt.Errorf("%w: move %d player %d", ErrInvalidPlayer, i, move.Player))
		case !board.IsEmptyAt(move.Row, move.Col):
			errs = append(errs, fmt.Errorf("%w: move %d at (%d,%d)", ErrCellOccupied, i, move.Row, move.Col))
		}

		if move.Player.IsPlayer() && move.Player != expected {
			errs = append(errs, fmt.Errorf("%w: move %d by %s, want %s", ErrTurnOrder, i, move.Player.Mark(), expected.Mark()))
		}

		apply(board, move)

		expected = expected.Opposite()
	}

	return errors.Join(errs...)
}

// Advance moves the cursor by delta and keeps it inside [0, length].
func Advance(cursor, delta, length int) int {
	if length < 0 {
		length = 0
	}

	cursor = clamp(cursor, 0, length)

	switch {
	case delta > 0 && cursor > math.MaxInt-delta:
		return length
	case delta < 0 && cursor < math.MinInt-delta:
		return 0
	}

	return clamp(cursor+delta, 0, length)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}

	if value > high {
		return high
	}

	return value
}
