package httpUsecase

import (
	"context"

	"impostor-service/domain"
)

type RoomService interface {
	CreateRoom(ctx context.Context, numPlayers, numImpostors int, hostUserID string) (domain.Room, error)
	GetRoom(ctx context.Context, code string) (domain.Room, error)
	CloseRoom(ctx context.Context, code string) error
	SetImpostors(ctx context.Context, code, userID string, numImpostors int) (domain.Room, error)

	Join(ctx context.Context, code, userID, displayName string) (int, error)
	ListPlayers(ctx context.Context, code string) ([]domain.Player, error)
	Leave(ctx context.Context, code, userID string) error

	StartRound(ctx context.Context, code string, numPlayers, numImpostors int) (domain.Round, error)
	StartSeatedRound(ctx context.Context, code string, numImpostors int) (domain.Round, error)
	GetRole(ctx context.Context, code string, playerNumber int) (domain.RoundSession, error)
	GetSessions(ctx context.Context, code string) ([]domain.RoundSession, error)
	Results(ctx context.Context, code string) (domain.RoundResults, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, code, eventType string, content any) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType, roomCode string, data any) error
}
