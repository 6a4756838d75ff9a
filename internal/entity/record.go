package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MatchRecord is a finished match as persisted by the authority.
type MatchRecord struct {
	ID       string   `json:"id"`
	GameType GameType `json:"game_type"`
	Mode     Mode     `json:"mode"`
	P1Name   string   `json:"p1_name"`
	P2Name   string   `json:"p2_name"`
	P1ID     string   `json:"player1_id"`
	P2ID     string   `json:"player2_id"`
	WinnerID string   `json:"winner_id,omitempty"`
	PlayedAt string   `json:"played_at,omitempty"`
	Moves    MoveLog  `json:"moves"`
}

func (that *MatchRecord) UnmarshalJSON(data []byte) error {
	type plain MatchRecord

	var raw struct {
		plain
		ID       json.RawMessage `json:"id"`
		P1ID     json.RawMessage `json:"player1_id"`
		P2ID     json.RawMessage `json:"player2_id"`
		WinnerID json.RawMessage `json:"winner_id"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal match record: %w", err)
	}

	*that = MatchRecord(raw.plain)

	ids := []struct {
		dst *string
		src json.RawMessage
	}{
		{&that.ID, raw.ID},
		{&that.P1ID, raw.P1ID},
		{&that.P2ID, raw.P2ID},
		{&that.WinnerID, raw.WinnerID},
	}

	for _, id := range ids {
		value, err := flexibleID(id.src)
		if err != nil {
			return fmt.Errorf("failed to unmarshal match record id: %w", err)
		}
		*id.dst = value
	}

	return nil
}

// MoveLog is the ordered list of moves. Legacy records store it as a JSON string or null.
type MoveLog []Move

func (that *MoveLog) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*that = nil
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("failed to unmarshal encoded move log: %w", err)
		}

		if encoded == "" {
			*that = nil
			return nil
		}

		data = []byte(encoded)
	}

	var moves []Move
	if err := json.Unmarshal(data, &moves); err != nil {
		return fmt.Errorf("failed to unmarshal move log: %w", err)
	}

	*that = moves

	return nil
}

type UserProfile struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	RankLevel   string `json:"rank_level"`
	RankScore   int    `json:"rank_score"`
	UserLevel   int    `json:"user_level,omitempty"`
	TierName    string `json:"tier_name,omitempty"`
}

type MatchHistoryEntry struct {
	ID           int      `json:"id"`
	GameType     GameType `json:"game_type"`
	Mode         Mode     `json:"mode"`
	PlayedAt     string   `json:"played_at"`
	OpponentName string   `json:"opponent_name"`
	Result       string   `json:"result"`
}
