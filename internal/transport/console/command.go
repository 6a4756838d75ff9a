// Package console turns terminal lines into user commands.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/arena-client/internal/entity"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
)

type Action string

const (
	ActionRanked      Action = "ranked"
	ActionPractice    Action = "practice"
	ActionMove        Action = "move"
	ActionUndo        Action = "undo"
	ActionAccept      Action = "accept"
	ActionDecline     Action = "decline"
	ActionChat        Action = "chat"
	ActionLeave       Action = "leave"
	ActionReplay      Action = "replay"
	ActionNext        Action = "next"
	ActionPrev        Action = "prev"
	ActionStart       Action = "start"
	ActionEnd         Action = "end"
	ActionPlay        Action = "play"
	ActionPause       Action = "pause"
	ActionBoard       Action = "board"
	ActionLeaderboard Action = "leaderboard"
	ActionHistory     Action = "history"
	ActionProfile     Action = "profile"
	ActionHelp        Action = "help"
	ActionQuit        Action = "quit"
)

type Command struct {
	Action     Action
	GameType   entity.GameType
	Difficulty entity.Difficulty
	Row        int
	Col        int
	Text       string
	MatchID    string
}

const Usage = `commands:
  ranked <tic-tac-toe|caro>            join ranked matchmaking
  practice <type> <easy|medium|hard>   play against the bot
  move <row> <col>                     place a mark
  undo | accept | decline              take-back negotiation (ranked)
  chat <text>                          message the opponent
  leave                                abandon the match
  replay <match id>                    open a finished match
  next | prev | start | end            step through the replay
  play | pause                         replay autoplay
  board | leaderboard | history        show state, rankings, your matches
  profile                              show your rank
  help | quit`

// Parse reads one line. Blank lines parse to the board command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Action: ActionBoard}, nil
	}

	action := Action(strings.ToLower(fields[0]))
	args := fields[1:]

	switch action {
	case ActionRanked:
		return parseRanked(args)
	case ActionPractice:
		return parsePractice(args)
	case ActionMove:
		return parseMove(args)
	case ActionChat:
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		if text == "" {
			return Command{}, fmt.Errorf("%w: chat needs a message", ErrBadArguments)
		}
		return Command{Action: ActionChat, Text: text}, nil
	case ActionReplay:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: replay needs a match id", ErrBadArguments)
		}
		return Command{Action: ActionReplay, MatchID: args[0]}, nil
	case ActionUndo, ActionAccept, ActionDecline, ActionLeave, ActionNext, ActionPrev, ActionStart,
		ActionEnd, ActionPlay, ActionPause, ActionBoard, ActionLeaderboard, ActionHistory, ActionProfile, ActionHelp, ActionQuit:
		return Command{Action: action}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

func parseRanked(args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, fmt.Errorf("%w: ranked needs a game type", ErrBadArguments)
	}

	gameType, err := entity.ParseGameType(args[0])
	if err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrBadArguments, err)
	}

	return Command{Action: ActionRanked, GameType: gameType}, nil
}

func parsePractice(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, fmt.Errorf("%w: practice needs a game type and a difficulty", ErrBadArguments)
	}

	gameType, err := entity.ParseGameType(args[0])
	if err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrBadArguments, err)
	}

	difficulty, err := entity.ParseDifficulty(args[1])
	if err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrBadArguments, err)
	}

	return Command{Action: ActionPractice, GameType: gameType, Difficulty: difficulty}, nil
}

func parseMove(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, fmt.Errorf("%w: move needs a row and a column", ErrBadArguments)
	}

	row, err := strconv.Atoi(args[0])
	if err != nil {
		return Command{}, fmt.Errorf("%w: row %q", ErrBadArguments, args[0])
	}

	col, err := strconv.Atoi(args[1])
	if err != nil {
		return Command{}, fmt.Errorf("%w: column %q", ErrBadArguments, args[1])
	}

	return Command{Action: ActionMove, Row: row, Col: col}, nil
}
