package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
)

type GameType string

const (
	TicTacToe GameType = "tic-tac-toe"
	Caro      GameType = "caro"
)

var (
	TicTacToeShape = Shape{Rows: 3, Cols: 3}
	CaroShape      = Shape{Rows: 15, Cols: 20}
)

func (that GameType) Shape() (Shape, error) {
	switch that {
	case TicTacToe:
		return TicTacToeShape, nil
	case Caro:
		return CaroShape, nil
	default:
		return Shape{}, fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, string(that))
	}
}

func ParseGameType(value string) (GameType, error) {
	gameType := GameType(value)
	if _, err := gameType.Shape(); err != nil {
		return "", err
	}

	return gameType, nil
}

type Mode string

const (
	RankedMode   Mode = "ranked"
	PracticeMode Mode = "practice"
	LocalMode    Mode = "local"
)

func ParseMode(value string) (Mode, error) {
	switch mode := Mode(value); mode {
	case RankedMode, PracticeMode, LocalMode:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownMode, value)
	}
}

func (that Mode) IsRanked() bool {
	return that == RankedMode
}

type Difficulty string

const (
	EasyDifficulty   Difficulty = "easy"
	MediumDifficulty Difficulty = "medium"
	HardDifficulty   Difficulty = "hard"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

func ParseDifficulty(value string) (Difficulty, error) {
	switch difficulty := Difficulty(value); difficulty {
	case EasyDifficulty, MediumDifficulty, HardDifficulty:
		return difficulty, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, value)
	}
}

type Coord struct {
	Row int `json:"r"`
	Col int `json:"c"`
}

type Move struct {
	Row    int       `json:"r"`
	Col    int       `json:"c"`
	Player CellValue `json:"player"`
}

func (that Move) Coord() Coord {
	return Coord{Row: that.Row, Col: that.Col}
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePlayerAWins
	OutcomePlayerBWins
	OutcomeDraw
)

const outcomeDrawWire = "draw"

var ErrInvalidOutcome = errors.New("invalid outcome")

func (that Outcome) IsTerminal() bool {
	return that != OutcomeNone
}

// Winner returns the winning player, Empty for none or draw.
func (that Outcome) Winner() CellValue {
	switch that {
	case OutcomePlayerAWins:
		return PlayerA
	case OutcomePlayerBWins:
		return PlayerB
	default:
		return Empty
	}
}

func (that Outcome) String() string {
	switch that {
	case OutcomePlayerAWins:
		return "player-a-wins"
	case OutcomePlayerBWins:
		return "player-b-wins"
	case OutcomeDraw:
		return outcomeDrawWire
	default:
		return "none"
	}
}

// MarshalJSON writes the authority's form: 0, 1, 2 or "draw".
func (that Outcome) MarshalJSON() ([]byte, error) {
	switch that {
	case OutcomeNone:
		return []byte("0"), nil
	case OutcomePlayerAWins:
		return []byte("1"), nil
	case OutcomePlayerBWins:
		return []byte("2"), nil
	case OutcomeDraw:
		return json.Marshal(outcomeDrawWire)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(that))
	}
}

func (that *Outcome) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("failed to unmarshal outcome: %w", err)
		}

		if text != outcomeDrawWire {
			return fmt.Errorf("%w: %q", ErrInvalidOutcome, text)
		}

		*that = OutcomeDraw

		return nil
	}

	number, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOutcome, data)
	}

	switch number {
	case 0:
		*that = OutcomeNone
	case 1:
		*that = OutcomePlayerAWins
	case 2:
		*that = OutcomePlayerBWins
	default:
		return fmt.Errorf("%w: %d", ErrInvalidOutcome, number)
	}

	return nil
}

// Opponent is the other participant; ID is kept as text because the authority sends numbers for
// people and "ai" for bots.
type Opponent struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

func (that *Opponent) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		DisplayName string          `json:"display_name"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal opponent: %w", err)
	}

	id, err := flexibleID(raw.ID)
	if err != nil {
		return fmt.Errorf("failed to unmarshal opponent id: %w", err)
	}

	that.ID = id
	that.DisplayName = raw.DisplayName

	return nil
}

func flexibleID(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return "", err
		}
		return text, nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return "", err
	}

	return number.String(), nil
}

type ChatMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}
