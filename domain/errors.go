package domain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRoomFull     = errors.New("room is full")
	ErrGameOver     = errors.New("game is over")
	ErrNoSubjects   = errors.New("no subjects available")
	ErrBackend      = errors.New("backend error")
)

// IsTerminal reports whether err means the room is gone or finished, in which
// case retrying the action cannot succeed.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrGameOver)
}
