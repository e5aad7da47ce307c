package wsUsecase

import (
	"context"
	"fmt"
	"time"

	"impostor-service/domain"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

const (
	FrameRoom      = "room"
	FrameRowChange = "row_change"
	FrameBroadcast = "broadcast"
)

const defaultPingInterval = 20 * time.Second

type RoomRelayUseCase interface {
	Execute(ctx context.Context, conn Conn, code string) error
}

type roomRelayUseCase struct {
	rooms        RoomReader
	changes      ChangeFeed
	bus          BroadcastSubscriber
	pingInterval time.Duration
}

func NewRoomRelayUseCase(rooms RoomReader, changes ChangeFeed, bus BroadcastSubscriber) RoomRelayUseCase {
	return &roomRelayUseCase{
		rooms:        rooms,
		changes:      changes,
		bus:          bus,
		pingInterval: defaultPingInterval,
	}
}

// Execute streams room and roster changes plus room broadcasts to conn until
// the peer disconnects, ctx ends or the room is closed.
func (u *roomRelayUseCase) Execute(ctx context.Context, conn Conn, code string) error {
	room, err := u.rooms.GetRoom(ctx, code)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := u.changes.Subscribe(ctx, domain.ChangeFilter{RoomCode: code})
	if err != nil {
		return fmt.Errorf("subscribe to changes: %w", err)
	}
	defer changes.Close()

	messages, err := u.bus.Subscribe(ctx, code)
	if err != nil {
		return fmt.Errorf("subscribe to room channel: %w", err)
	}
	defer messages.Close()

	// Reads only detect the peer going away; watchers never send.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(domain.WebSocketMessage{Type: FrameRoom, Content: room}); err != nil {
		return err
	}

	ping := time.NewTicker(u.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes.Changes():
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(domain.WebSocketMessage{Type: FrameRowChange, Content: change}); err != nil {
				return err
			}
		case msg, ok := <-messages.Messages():
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(domain.WebSocketMessage{Type: FrameBroadcast, Content: msg}); err != nil {
				return err
			}
			if msg.Type == domain.EventRoomClosed {
				zap.L().Debug("Room closed, ending relay", zap.String("room", code))
				return nil
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
