package domain

import "time"

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

// Room json tags follow the column names so row-change payloads decode into it.
type Room struct {
	Code             string     `json:"code"`
	NumPlayers       int        `json:"num_players"`
	NumImpostors     int        `json:"num_impostors"`
	HostUserID       string     `json:"host_user_id,omitempty"` // empty for anonymous hosts
	Status           RoomStatus `json:"status"`
	CurrentSubjectID *int64     `json:"current_subject_id,omitempty"`
	CurrentSubject   *Subject   `json:"current_subject,omitempty"`
	RoundNumber      int        `json:"round_number"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (r Room) IsHost(userID string) bool {
	return r.HostUserID != "" && r.HostUserID == userID
}

type Player struct {
	RoomCode     string    `json:"room_code"`
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	PlayerNumber int       `json:"player_number"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Subject is an entry of the externally owned pool a round draws from.
type Subject struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// RoundSession is the role of one player slot for one round.
type RoundSession struct {
	ID           int64     `json:"id"`
	RoomCode     string    `json:"room_code"`
	PlayerNumber int       `json:"player_number"`
	IsImpostor   bool      `json:"is_impostor"`
	SubjectID    int64     `json:"subject_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Round struct {
	Room    Room    `json:"room"`
	Subject Subject `json:"subject"`

	// Roles[i] is the role dealt to PlayerNumbers[i].
	PlayerNumbers []int  `json:"player_numbers"`
	Roles         []bool `json:"roles"`
}

type Impostor struct {
	PlayerNumber int    `json:"player_number"`
	DisplayName  string `json:"display_name,omitempty"`
}

type RoundResults struct {
	RoundNumber int        `json:"round_number"`
	Subject     Subject    `json:"subject"`
	Impostors   []Impostor `json:"impostors"`
}
