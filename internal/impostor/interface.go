package impostor

import (
	"context"

	"impostor-service/domain"
)

// Repository is the persistence the service coordinates over. Implementations
// map unique-constraint violations to domain.ErrConflict and missing rows to
// domain.ErrNotFound.
type Repository interface {
	CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error)
	GetRoom(ctx context.Context, code string) (domain.Room, error)
	CloseRoom(ctx context.Context, code string) error
	SetImpostors(ctx context.Context, code string, numImpostors int) error

	GetPlayer(ctx context.Context, code, userID string) (domain.Player, error)
	ListPlayers(ctx context.Context, code string) ([]domain.Player, error)
	InsertPlayer(ctx context.Context, player domain.Player) (domain.Player, error)
	DeletePlayer(ctx context.Context, code, userID string) error

	ListSubjects(ctx context.Context) ([]domain.Subject, error)
	UsedSubjectIDs(ctx context.Context, code string) ([]int64, error)
	// BeginRound atomically marks the room playing on subjectID, bumps its
	// round number and replaces any sessions of that room for the subject.
	BeginRound(ctx context.Context, code string, subjectID int64, sessions []domain.RoundSession) (domain.Room, error)
	LatestSession(ctx context.Context, code string, playerNumber int) (domain.RoundSession, error)
	ListSessions(ctx context.Context, code string) ([]domain.RoundSession, error)
}
