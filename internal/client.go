package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/arena-client/internal/clock"
	"github.com/rocketscienceinc/arena-client/internal/config"
	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/internal/replay"
	"github.com/rocketscienceinc/arena-client/internal/session"
	"github.com/rocketscienceinc/arena-client/internal/transport/console"
	"github.com/rocketscienceinc/arena-client/internal/view"
)

const requestTimeout = 15 * time.Second

type replayLoader interface {
	Load(ctx context.Context, matchID string) (*replay.Subject, error)
}

type lobbyClient interface {
	FetchUser(ctx context.Context, userID string) (*entity.UserProfile, error)
	FetchLeaderboard(ctx context.Context, limit int) ([]entity.UserProfile, error)
	FetchMatchHistory(ctx context.Context, userID string, limit int) ([]entity.MatchHistoryEntry, error)
}

type connection interface {
	Connected() bool
}

// client binds terminal commands to the session machine and the replay player. Everything except
// the network fetches runs on the loop.
type client struct {
	logger    *slog.Logger
	out       io.Writer
	loop      clock.Poster
	scheduler clock.Scheduler
	machine   *session.Machine
	replays   replayLoader
	lobby     lobbyClient
	link      connection

	// runs network fetches off the loop
	background func(fn func())

	userID           string
	autoplayInterval time.Duration

	player *replay.Player
}

func newClient(
	logger *slog.Logger,
	out io.Writer,
	loop clock.Poster,
	scheduler clock.Scheduler,
	machine *session.Machine,
	replays replayLoader,
	lobby lobbyClient,
	link connection,
	conf *config.Config,
) *client {
	that := &client{
		logger:           logger.With("component", "client"),
		out:              out,
		loop:             loop,
		scheduler:        scheduler,
		machine:          machine,
		replays:          replays,
		lobby:            lobby,
		link:             link,
		background:       func(fn func()) { go fn() },
		userID:           conf.UserID,
		autoplayInterval: conf.Replay.AutoplayInterval,
	}

	machine.OnChange(that.render)
	machine.OnNotify(that.notify)

	return that
}

func (that *client) greet() {
	that.loop.Post(func() {
		that.printf("arena client, user %s. type 'help' for commands.\n", that.userID)
	})
}

func (that *client) HandleCommand(cmd console.Command) {
	switch cmd.Action {
	case console.ActionReplay:
		that.background(func() { that.fetchReplay(cmd.MatchID) })
	case console.ActionLeaderboard:
		that.background(that.fetchLeaderboard)
	case console.ActionHistory:
		that.background(that.fetchHistory)
	case console.ActionProfile:
		that.background(that.fetchProfile)
	default:
		that.loop.Post(func() { that.handle(cmd) })
	}
}

func (that *client) HandleInputError(err error) {
	that.loop.Post(func() {
		that.printf("! %v\n", err)
	})
}

func (that *client) handle(cmd console.Command) {
	switch cmd.Action {
	case console.ActionRanked:
		that.join(cmd.GameType, entity.RankedMode, "")
	case console.ActionPractice:
		that.join(cmd.GameType, entity.PracticeMode, cmd.Difficulty)
	case console.ActionMove:
		that.machine.SubmitMove(cmd.Row, cmd.Col)
	case console.ActionUndo:
		that.machine.RequestUndo()
	case console.ActionAccept:
		that.machine.ResolveUndo(true)
	case console.ActionDecline:
		that.machine.ResolveUndo(false)
	case console.ActionChat:
		that.machine.SendChat(cmd.Text)
	case console.ActionLeave:
		if that.player != nil {
			that.closeReplay()
			that.render()
			return
		}

		ended := that.machine.State() == session.StateEnded
		that.machine.Leave()

		// back in the lobby the rank may have changed
		if ended {
			that.background(that.fetchProfile)
		}
	case console.ActionNext, console.ActionPrev, console.ActionStart, console.ActionEnd,
		console.ActionPlay, console.ActionPause:
		that.navigate(cmd.Action)
	case console.ActionBoard:
		that.render()
	case console.ActionHelp:
		that.printf("%s\n", console.Usage)
	case console.ActionQuit:
		that.closeReplay()
		that.machine.Leave()
	}
}

func (that *client) join(gameType entity.GameType, mode entity.Mode, difficulty entity.Difficulty) {
	switch that.machine.State() {
	case session.StateQueued, session.StateActive:
		that.printf("! already in a match, type 'leave' first\n")
		return
	case session.StateEnded:
		that.machine.Leave()
	}

	that.closeReplay()
	that.machine.JoinMatchmaking(gameType, mode, difficulty)
}

func (that *client) navigate(action console.Action) {
	if that.player == nil {
		that.printf("! no replay open, use 'replay <match id>'\n")
		return
	}

	switch action {
	case console.ActionNext:
		that.player.Step(1)
	case console.ActionPrev:
		that.player.Step(-1)
	case console.ActionStart:
		that.player.Rewind()
	case console.ActionEnd:
		that.player.End()
	case console.ActionPlay:
		that.player.Play()
		that.render()
	case console.ActionPause:
		that.player.Pause()
		that.render()
	}
}

func (that *client) fetchReplay(matchID string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	subject, err := that.replays.Load(ctx, matchID)

	that.loop.Post(func() {
		if err != nil {
			that.logger.Warn("failed to load replay", "matchID", matchID, "error", err)
			that.printf("! could not load replay %s: %v\n", matchID, err)
			return
		}

		that.openReplay(subject)
	})
}

func (that *client) openReplay(subject *replay.Subject) {
	that.closeReplay()

	that.player = replay.NewPlayer(that.logger, that.scheduler, that.autoplayInterval, subject)
	that.player.OnChange(that.render)

	that.render()
}

func (that *client) closeReplay() {
	if that.player == nil {
		return
	}

	that.player.Close()
	that.player = nil
}

func (that *client) fetchProfile() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	profile, err := that.lobby.FetchUser(ctx, that.userID)

	that.loop.Post(func() {
		if err != nil {
			that.printf("! could not load profile: %v\n", err)
			return
		}

		that.printf("%s: %s, %d points, level %d\n", profile.DisplayName, profile.RankLevel, profile.RankScore, profile.UserLevel)
	})
}

func (that *client) fetchLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	users, err := that.lobby.FetchLeaderboard(ctx, 0)

	that.loop.Post(func() {
		if err != nil {
			that.printf("! could not load leaderboard: %v\n", err)
			return
		}

		that.printf("leaderboard\n")
		for i, user := range users {
			that.printf("%3d. %-20s %6d  %s\n", i+1, user.DisplayName, user.RankScore, user.TierName)
		}
	})
}

func (that *client) fetchHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	history, err := that.lobby.FetchMatchHistory(ctx, that.userID, 0)

	that.loop.Post(func() {
		if err != nil {
			that.printf("! could not load match history: %v\n", err)
			return
		}

		if len(history) == 0 {
			that.printf("no matches played yet\n")
			return
		}

		that.printf("match history (replay <id> to watch)\n")
		for _, entry := range history {
			that.printf("  #%-6d %-11s %-8s vs %-20s %s\n", entry.ID, entry.GameType, entry.Mode, entry.OpponentName, entry.Result)
		}
	})
}

func (that *client) render() {
	var current view.View
	if that.player != nil {
		current = view.FromReplay(that.player)
	} else {
		current = view.FromSession(that.machine.Snapshot())
	}

	if err := view.Render(that.out, current); err != nil {
		that.logger.Error("failed to render", "error", err)
	}

	if that.player == nil && that.link != nil && !that.link.Connected() {
		that.printf("(offline, reconnecting to the server)\n")
	}
}

func (that *client) notify(note session.Notification) {
	that.printf("! %s\n", note.Message)
}

func (that *client) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(that.out, format, args...); err != nil {
		that.logger.Error("failed to write output", "error", err)
	}
}
