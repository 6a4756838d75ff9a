// Package view projects session and replay state into read-only values for the terminal.
package view

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/internal/replay"
	"github.com/rocketscienceinc/arena-client/internal/session"
)

const chatTail = 5

type Kind int

const (
	KindLobby Kind = iota
	KindQueued
	KindMatch
	KindReplay
)

const (
	ResultVictory = "VICTORY"
	ResultDefeat  = "DEFEAT"
	ResultDraw    = "DRAW"
)

// View is a detached copy; changing it never reaches the session or the replay player.
type View struct {
	Kind  Kind
	Title string

	Board     *entity.Board
	LastMove  *entity.Coord
	Highlight []entity.Coord

	Status    string
	Timer     string
	ShowTimer bool

	CanMove     bool
	CanUndo     bool
	UndoPending bool
	UndoPrompt  bool
	Result      string
	Chat        []entity.ChatMessage

	Step    int
	Steps   int
	NoData  bool
	Playing bool
	Warning string
}

func FromSession(snapshot session.Snapshot) View {
	switch snapshot.State {
	case session.StateQueued:
		view := View{Kind: KindQueued, Status: "searching for an opponent..."}
		if snapshot.Pending != nil {
			view.Title = title(snapshot.Pending.GameType, snapshot.Pending.Mode, "")
		}
		return view
	case session.StateActive, session.StateEnded:
		if snapshot.Session != nil {
			return fromMatch(snapshot)
		}
	}

	return View{Kind: KindLobby, Status: "not in a match"}
}

func fromMatch(snapshot session.Snapshot) View {
	match := snapshot.Session

	opponent := "bot"
	if match.Opponent != nil && match.Opponent.DisplayName != "" {
		opponent = match.Opponent.DisplayName
	}

	view := View{
		Kind:      KindMatch,
		Title:     title(match.GameType, match.Mode, opponent),
		Board:     match.Board.Clone(),
		LastMove:  match.LastMove,
		Highlight: match.WinningLine,
	}

	if n := len(match.Chat); n > chatTail {
		view.Chat = match.Chat[n-chatTail:]
	} else {
		view.Chat = match.Chat
	}

	if match.IsFinished() {
		view.Result = result(match.Outcome, match.Self)
		view.Status = "game over"

		return view
	}

	live := snapshot.State == session.StateActive
	ranked := match.Mode.IsRanked()

	if match.IsMyTurn() {
		view.Status = fmt.Sprintf("your turn (%s)", match.Self.Mark())
	} else {
		view.Status = fmt.Sprintf("opponent's turn (%s)", match.Turn.Mark())
	}

	view.CanMove = live && match.IsMyTurn()
	view.ShowTimer = live && ranked
	view.Timer = countdown(match.Countdown)
	if view.ShowTimer && !snapshot.CountdownRunning {
		view.Timer = "time up, waiting for the server"
	}
	view.UndoPending = snapshot.Undo == session.UndoRequestSent
	view.UndoPrompt = snapshot.Undo == session.UndoRequestReceived
	view.CanUndo = live && ranked && !match.IsMyTurn() && snapshot.Undo == session.UndoIdle

	return view
}

func FromReplay(player *replay.Player) View {
	subject := player.Subject()
	p1, p2 := subject.Names()

	view := View{
		Kind:     KindReplay,
		Title:    fmt.Sprintf("replay #%s: %s (X) vs %s (O), %s", subject.MatchID(), p1, p2, subject.GameType()),
		Board:    player.Board(),
		LastMove: player.LastMove(),
		Step:     player.Cursor(),
		Steps:    player.Len(),
		NoData:   !subject.HasData(),
		Playing:  player.Playing(),
	}

	if err := subject.Malformed(); err != nil {
		view.Warning = "move log is malformed, this replay may be inaccurate"
	}

	switch {
	case view.NoData:
		view.Status = "no move data recorded for this match"
	case player.AtEnd():
		view.Status = "end of match"
	case view.Playing:
		view.Status = "playing"
	default:
		view.Status = "paused"
	}

	return view
}

func title(gameType entity.GameType, mode entity.Mode, opponent string) string {
	if opponent == "" {
		return fmt.Sprintf("%s, %s", gameType, mode)
	}

	return fmt.Sprintf("%s, %s, vs %s", gameType, mode, opponent)
}

func result(outcome entity.Outcome, self entity.CellValue) string {
	switch {
	case outcome == entity.OutcomeDraw:
		return ResultDraw
	case outcome.Winner() == self:
		return ResultVictory
	default:
		return ResultDefeat
	}
}

func countdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}

	seconds := int(remaining.Round(time.Second) / time.Second)

	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
