package replay

import (
	"fmt"

	"github.com/rocketscienceinc/arena-client/internal/entity"
)

// Subject is the read-only replay source built from a persisted match.
type Subject struct {
	matchID  string
	gameType entity.GameType
	shape    entity.Shape
	p1Name   string
	p2Name   string
	moves    []entity.Move

	malformed error
}

func NewSubject(record *entity.MatchRecord, firstMover entity.CellValue) (*Subject, error) {
	shape, err := record.GameType.Shape()
	if err != nil {
		return nil, fmt.Errorf("failed to build replay subject %s: %w", record.ID, err)
	}

	moves := append([]entity.Move(nil), record.Moves...)

	return &Subject{
		matchID:   record.ID,
		gameType:  record.GameType,
		shape:     shape,
		p1Name:    record.P1Name,
		p2Name:    record.P2Name,
		moves:     moves,
		malformed: Validate(shape, moves, firstMover),
	}, nil
}

func (that *Subject) MatchID() string {
	return that.matchID
}

func (that *Subject) GameType() entity.GameType {
	return that.gameType
}

func (that *Subject) Shape() entity.Shape {
	return that.shape
}

func (that *Subject) Names() (string, string) {
	return that.p1Name, that.p2Name
}

func (that *Subject) Len() int {
	return len(that.moves)
}

// HasData is false for matches recorded before move logs existed.
func (that *Subject) HasData() bool {
	return len(that.moves) > 0
}

// Malformed returns the validation problems of the log, nil for a clean log.
func (that *Subject) Malformed() error {
	return that.malformed
}

func (that *Subject) BoardAt(step int) *entity.Board {
	return Reconstruct(that.shape, that.moves, step)
}
