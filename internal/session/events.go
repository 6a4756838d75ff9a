package session

import (
	"fmt"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
	"github.com/rocketscienceinc/arena-client/internal/entity"
)

// MatchAssigned is the authority's notice that a match has been created for this client.
type MatchAssigned struct {
	MatchID    string
	GameType   entity.GameType
	Mode       entity.Mode
	Difficulty entity.Difficulty
	Opponent   *entity.Opponent
	Self       entity.CellValue
	FirstTurn  entity.CellValue
	Board      *entity.Board
}

func (that *MatchAssigned) validate() error {
	if that.MatchID == "" {
		return fmt.Errorf("%w: match id", apperror.ErrMissingField)
	}

	if that.Board == nil {
		return fmt.Errorf("%w: board", apperror.ErrMissingField)
	}

	shape, err := that.GameType.Shape()
	if err != nil {
		return err
	}

	if _, err = entity.ParseMode(string(that.Mode)); err != nil {
		return err
	}

	if that.Board.Shape() != shape {
		return fmt.Errorf("%w: %dx%d board for %s", apperror.ErrMalformedBoard, that.Board.Rows(), that.Board.Cols(), that.GameType)
	}

	if !that.Self.IsPlayer() {
		return fmt.Errorf("%w: player slot %d", apperror.ErrInvalidCell, that.Self)
	}

	if !that.FirstTurn.IsPlayer() {
		return fmt.Errorf("%w: first turn %d", apperror.ErrInvalidCell, that.FirstTurn)
	}

	return nil
}

// GameUpdate carries the authority's complete view of the match after any change.
type GameUpdate struct {
	MatchID     string
	Sequence    uint64
	Board       *entity.Board
	Turn        entity.CellValue
	Outcome     entity.Outcome
	WinningLine []entity.Coord
	LastMove    *entity.Coord
}

func (that *GameUpdate) validate(shape entity.Shape) error {
	if that.Board == nil {
		return fmt.Errorf("%w: board", apperror.ErrMissingField)
	}

	if that.Board.Shape() != shape {
		return fmt.Errorf("%w: %dx%d board, want %dx%d", apperror.ErrMalformedBoard, that.Board.Rows(), that.Board.Cols(), shape.Rows, shape.Cols)
	}

	// a finished game may carry turn 0
	if !that.Outcome.IsTerminal() && !that.Turn.IsPlayer() {
		return fmt.Errorf("%w: current turn %d", apperror.ErrInvalidCell, that.Turn)
	}

	return nil
}

type NotificationKind string

const (
	NotifyMatchFound    NotificationKind = "match_found"
	NotifyUndoRequested NotificationKind = "undo_requested"
	NotifyUndoSent      NotificationKind = "undo_sent"
	NotifyUndoDeclined  NotificationKind = "undo_declined"
	NotifyGameOver      NotificationKind = "game_over"
	NotifyTimeoutClaim  NotificationKind = "timeout_claimed"
	NotifyChat          NotificationKind = "chat"
	NotifyError         NotificationKind = "error"
)

type Notification struct {
	Kind    NotificationKind
	Message string
}
