package entity

import "time"

// MatchSession is one live match from assignment to termination.
type MatchSession struct {
	ID         string
	GameType   GameType
	Mode       Mode
	Difficulty Difficulty

	Self     CellValue
	Opponent *Opponent

	Board       *Board
	Turn        CellValue
	Outcome     Outcome
	WinningLine []Coord
	LastMove    *Coord

	Countdown time.Duration
	Chat      []ChatMessage
}

func (that *MatchSession) IsMyTurn() bool {
	return that.Turn == that.Self
}

func (that *MatchSession) IsFinished() bool {
	return that.Outcome.IsTerminal()
}

func (that *MatchSession) Clone() *MatchSession {
	if that == nil {
		return nil
	}

	clone := *that
	clone.Board = that.Board.Clone()

	if that.Opponent != nil {
		opponent := *that.Opponent
		clone.Opponent = &opponent
	}

	if that.WinningLine != nil {
		clone.WinningLine = append([]Coord(nil), that.WinningLine...)
	}

	if that.LastMove != nil {
		lastMove := *that.LastMove
		clone.LastMove = &lastMove
	}

	if that.Chat != nil {
		clone.Chat = append([]ChatMessage(nil), that.Chat...)
	}

	return &clone
}
