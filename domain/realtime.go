package domain

import (
	"encoding/json"
	"time"
)

const (
	TableRooms   = "rooms"
	TablePlayers = "room_players"
)

type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// Broadcast event types exchanged on a room channel.
const (
	EventRoundStarted = "round_started"
	EventShowResults  = "show_results"
	EventRoomClosed   = "room_closed"
)

// RowChange is a row-level notification. Row holds the new row, or the old
// one for deletes.
type RowChange struct {
	Table    string          `json:"table"`
	Op       ChangeOp        `json:"op"`
	RoomCode string          `json:"room_code"`
	Row      json.RawMessage `json:"row"`
}

// ChangeFilter selects row changes. Zero fields match anything.
type ChangeFilter struct {
	Table    string
	Op       ChangeOp
	RoomCode string
	Match    func(RowChange) bool
}

func (f ChangeFilter) Matches(c RowChange) bool {
	if f.Table != "" && f.Table != c.Table {
		return false
	}
	if f.Op != "" && f.Op != c.Op {
		return false
	}
	if f.RoomCode != "" && f.RoomCode != c.RoomCode {
		return false
	}
	if f.Match != nil && !f.Match(c) {
		return false
	}
	return true
}

// PlayerIs matches player rows that belong to userID.
func PlayerIs(userID string) func(RowChange) bool {
	return func(c RowChange) bool {
		var p Player
		if err := json.Unmarshal(c.Row, &p); err != nil {
			return false
		}
		return p.UserID == userID
	}
}

type Broadcast struct {
	RoomCode  string          `json:"room_code"`
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type ChangeSubscription interface {
	Changes() <-chan RowChange
	Close() error
}

type BroadcastSubscription interface {
	Messages() <-chan Broadcast
	Close() error
}
