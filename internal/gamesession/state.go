package gamesession

import (
	"errors"

	"impostor-service/domain"
)

// State is the per-client game state. Entering a round always lands in
// StateRoleHidden.
type State string

const (
	StateWaiting      State = "waiting"
	StateRoleHidden   State = "role_hidden"
	StateRoleRevealed State = "role_revealed"
	StateResultsShown State = "results_shown"
	StateClosed       State = "closed"
)

const (
	ReasonHostLeft = "host_left"
	ReasonFinished = "room_finished"
	ReasonNotFound = "room_not_found"
	ReasonLeft     = "left"
	ReasonEnded    = "ended"
)

var (
	ErrClosed        = errors.New("game session closed")
	ErrInvalidAction = errors.New("action not allowed in current state")
)

// View is an immutable snapshot of the machine for rendering.
type View struct {
	State        State                `json:"state"`
	RoomCode     string               `json:"room_code"`
	PlayerNumber int                  `json:"player_number"`
	IsHost       bool                 `json:"is_host"`
	Room         domain.Room          `json:"room"`
	Role         *domain.RoundSession `json:"role,omitempty"`
	Subject      *domain.Subject      `json:"subject,omitempty"` // only for revealed non-impostors
	Results      *domain.RoundResults `json:"results,omitempty"`
	Error        string               `json:"error,omitempty"` // retryable failure of the last action
	CloseReason  string               `json:"close_reason,omitempty"`
}

type action string

const (
	actReveal      action = "reveal"
	actHide        action = "hide"
	actStartRound  action = "start round"
	actShowResults action = "show results"
	actNewRound    action = "start new round"
	actLeave       action = "leave"
	actEnd         action = "end room"
)

type command struct {
	action action
	reply  chan error
}
