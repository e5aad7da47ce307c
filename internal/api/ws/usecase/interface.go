package wsUsecase

import (
	"context"

	"impostor-service/domain"
)

type RoomReader interface {
	GetRoom(ctx context.Context, code string) (domain.Room, error)
}

type ChangeFeed interface {
	Subscribe(ctx context.Context, filter domain.ChangeFilter) (domain.ChangeSubscription, error)
}

type BroadcastSubscriber interface {
	Subscribe(ctx context.Context, code string) (domain.BroadcastSubscription, error)
}

// Conn is the part of a websocket connection the relay uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
}
