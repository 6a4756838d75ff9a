package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/internal/session"
)

// ProtocolVersion is stamped on every outbound message. Inbound messages without a version are
// treated as version 1.
const ProtocolVersion = 1

const (
	actionJoinMatchmaking = "join_matchmaking"
	actionMakeMove        = "make_move"
	actionRequestUndo     = "request_undo"
	actionResolveUndo     = "resolve_undo"
	actionClaimTimeout    = "claim_timeout"
	actionSendChat        = "send_chat"

	actionMatchFound    = "match_found"
	actionGameUpdate    = "game_update"
	actionUndoRequested = "undo_requested"
	actionUndoDeclined  = "undo_declined"
	actionReceiveChat   = "receive_chat"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Version int             `json:"v,omitempty"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	UserID     string            `json:"userId"`
	Type       entity.GameType   `json:"type"`
	Mode       entity.Mode       `json:"mode"`
	Difficulty entity.Difficulty `json:"difficulty,omitempty"`
}

type movePayload struct {
	RoomID string           `json:"roomId"`
	Row    int              `json:"r"`
	Col    int              `json:"c"`
	Player entity.CellValue `json:"player"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type resolveUndoPayload struct {
	RoomID string `json:"roomId"`
	Accept bool   `json:"accept"`
}

type chatPayload struct {
	RoomID  string `json:"roomId,omitempty"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type matchFoundPayload struct {
	RoomID       string            `json:"roomId"`
	GameType     entity.GameType   `json:"gameType"`
	Mode         entity.Mode       `json:"mode"`
	Difficulty   entity.Difficulty `json:"difficulty,omitempty"`
	Opponent     *entity.Opponent  `json:"opponent,omitempty"`
	FirstTurn    entity.CellValue  `json:"firstTurn"`
	Board        *entity.Board     `json:"board"`
	PlayerNumber entity.CellValue  `json:"playerNumber"`
}

func (that *matchFoundPayload) event() session.MatchAssigned {
	return session.MatchAssigned{
		MatchID:    that.RoomID,
		GameType:   that.GameType,
		Mode:       that.Mode,
		Difficulty: that.Difficulty,
		Opponent:   that.Opponent,
		Self:       that.PlayerNumber,
		FirstTurn:  that.FirstTurn,
		Board:      that.Board,
	}
}

type gameUpdatePayload struct {
	RoomID        string           `json:"roomId,omitempty"`
	Seq           uint64           `json:"seq,omitempty"`
	Board         *entity.Board    `json:"board"`
	CurrentPlayer entity.CellValue `json:"currentPlayer"`
	Winner        entity.Outcome   `json:"winner"`
	WinningLine   []entity.Coord   `json:"winningLine,omitempty"`
	LastMove      *entity.Coord    `json:"lastMove,omitempty"`
}

func (that *gameUpdatePayload) event() session.GameUpdate {
	return session.GameUpdate{
		MatchID:     that.RoomID,
		Sequence:    that.Seq,
		Board:       that.Board,
		Turn:        that.CurrentPlayer,
		Outcome:     that.Winner,
		WinningLine: that.WinningLine,
		LastMove:    that.LastMove,
	}
}

func encode(action string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}

	data, err := json.Marshal(Message{Version: ProtocolVersion, Action: action, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
