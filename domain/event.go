package domain

import "time"

// Domain events published to the event stream.
const (
	EventRoomCreated  = "room_created"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
)

type DomainEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	RoomCode   string    `json:"room_code"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
