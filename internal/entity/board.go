package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
)

type CellValue int

const (
	Empty   CellValue = 0
	PlayerA CellValue = 1
	PlayerB CellValue = 2
)

func (that CellValue) IsValid() bool {
	return that == Empty || that == PlayerA || that == PlayerB
}

func (that CellValue) IsPlayer() bool {
	return that == PlayerA || that == PlayerB
}

// Opposite returns the other player, Empty stays Empty.
func (that CellValue) Opposite() CellValue {
	switch that {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return Empty
	}
}

// Mark is the symbol shown for the cell: X for PlayerA, O for PlayerB.
func (that CellValue) Mark() string {
	switch that {
	case PlayerA:
		return "X"
	case PlayerB:
		return "O"
	default:
		return "."
	}
}

type Shape struct {
	Rows int
	Cols int
}

func (that Shape) Contains(r, c int) bool {
	return r >= 0 && r < that.Rows && c >= 0 && c < that.Cols
}

func (that Shape) Size() int {
	return that.Rows * that.Cols
}

// Board is a fixed-size grid of cells. It performs bounds checks only; whether a cell may be
// overwritten is decided by its owner.
type Board struct {
	shape Shape
	cells []CellValue
}

func NewBoard(rows, cols int) *Board {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}

	shape := Shape{Rows: rows, Cols: cols}

	return &Board{
		shape: shape,
		cells: make([]CellValue, shape.Size()),
	}
}

func NewBoardWithShape(shape Shape) *Board {
	return NewBoard(shape.Rows, shape.Cols)
}

// BoardFromRows builds a board from its wire form, a list of equally long rows.
func BoardFromRows(rows [][]CellValue) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", apperror.ErrMalformedBoard)
	}

	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: empty row", apperror.ErrMalformedBoard)
	}

	board := NewBoard(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", apperror.ErrMalformedBoard, r, len(row), cols)
		}

		for c, value := range row {
			if err := board.Set(r, c, value); err != nil {
				return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedBoard, err)
			}
		}
	}

	return board, nil
}

func (that *Board) Shape() Shape {
	return that.shape
}

func (that *Board) Rows() int {
	return that.shape.Rows
}

func (that *Board) Cols() int {
	return that.shape.Cols
}

func (that *Board) Get(r, c int) (CellValue, error) {
	if !that.shape.Contains(r, c) {
		return Empty, fmt.Errorf("%w: (%d,%d) on %dx%d board", apperror.ErrOutOfBounds, r, c, that.shape.Rows, that.shape.Cols)
	}

	return that.cells[r*that.shape.Cols+c], nil
}

func (that *Board) Set(r, c int, value CellValue) error {
	if !that.shape.Contains(r, c) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d board", apperror.ErrOutOfBounds, r, c, that.shape.Rows, that.shape.Cols)
	}

	if !value.IsValid() {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, value)
	}

	that.cells[r*that.shape.Cols+c] = value

	return nil
}

func (that *Board) IsEmptyAt(r, c int) bool {
	value, err := that.Get(r, c)
	return err == nil && value == Empty
}

func (that *Board) Clone() *Board {
	if that == nil {
		return nil
	}

	cells := make([]CellValue, len(that.cells))
	copy(cells, that.cells)

	return &Board{shape: that.shape, cells: cells}
}

func (that *Board) Equal(other *Board) bool {
	if that == nil || other == nil {
		return that == other
	}

	if that.shape != other.shape {
		return false
	}

	for i := range that.cells {
		if that.cells[i] != other.cells[i] {
			return false
		}
	}

	return true
}

// RowsCopy returns the board in its wire form.
func (that *Board) RowsCopy() [][]CellValue {
	rows := make([][]CellValue, that.shape.Rows)
	for r := range rows {
		row := make([]CellValue, that.shape.Cols)
		copy(row, that.cells[r*that.shape.Cols:(r+1)*that.shape.Cols])
		rows[r] = row
	}

	return rows
}

func (that *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.RowsCopy())
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var rows [][]CellValue
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	board, err := BoardFromRows(rows)
	if err != nil {
		return err
	}

	*that = *board

	return nil
}
