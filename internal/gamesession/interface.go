package gamesession

import (
	"context"

	"impostor-service/domain"
)

// Backend is the room, roster and round API the machine drives.
type Backend interface {
	GetRoom(ctx context.Context, code string) (domain.Room, error)
	CloseRoom(ctx context.Context, code string) error
	Join(ctx context.Context, code, userID, displayName string) (int, error)
	ListPlayers(ctx context.Context, code string) ([]domain.Player, error)
	Leave(ctx context.Context, code, userID string) error
	StartSeatedRound(ctx context.Context, code string, numImpostors int) (domain.Round, error)
	GetRole(ctx context.Context, code string, playerNumber int) (domain.RoundSession, error)
	Results(ctx context.Context, code string) (domain.RoundResults, error)
}

type ChangeFeed interface {
	Subscribe(ctx context.Context, filter domain.ChangeFilter) (domain.ChangeSubscription, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, code, eventType string, content any) error
	Subscribe(ctx context.Context, code string) (domain.BroadcastSubscription, error)
}
