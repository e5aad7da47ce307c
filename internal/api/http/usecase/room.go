package httpUsecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"impostor-service/domain"

	"go.uber.org/zap"
)

type CreateRoomUseCase interface {
	Execute(ctx context.Context, numPlayers, numImpostors int, hostUserID string) (domain.Room, int, error)
}

type createRoomUseCase struct {
	service      RoomService
	events       EventPublisher
	codeAttempts int
}

func NewCreateRoomUseCase(service RoomService, events EventPublisher, codeAttempts int) CreateRoomUseCase {
	if codeAttempts < 1 {
		codeAttempts = 1
	}
	return &createRoomUseCase{service: service, events: events, codeAttempts: codeAttempts}
}

// Execute retries with a fresh code while the store reports a collision.
func (u *createRoomUseCase) Execute(ctx context.Context, numPlayers, numImpostors int, hostUserID string) (domain.Room, int, error) {
	var err error
	for attempt := 1; attempt <= u.codeAttempts; attempt++ {
		var room domain.Room
		room, err = u.service.CreateRoom(ctx, numPlayers, numImpostors, hostUserID)
		if err == nil {
			zap.L().Info("Room created", zap.String("room", room.Code), zap.Int("attempt", attempt))
			notify(nil, u.events, room.Code, "", domain.EventRoomCreated, room)
			return room, http.StatusCreated, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Room{}, statusFor(err), err
		}
	}
	err = fmt.Errorf("gave up after %d room codes: %w", u.codeAttempts, err)
	return domain.Room{}, statusFor(err), err
}

type GetRoomUseCase interface {
	Execute(ctx context.Context, code string) (domain.Room, int, error)
}

type getRoomUseCase struct {
	service RoomService
}

func NewGetRoomUseCase(service RoomService) GetRoomUseCase {
	return &getRoomUseCase{service: service}
}

func (u *getRoomUseCase) Execute(ctx context.Context, code string) (domain.Room, int, error) {
	room, err := u.service.GetRoom(ctx, code)
	if err != nil {
		return domain.Room{}, statusFor(err), err
	}
	return room, http.StatusOK, nil
}

type CloseRoomUseCase interface {
	Execute(ctx context.Context, code, userID string) (int, error)
}

type closeRoomUseCase struct {
	service RoomService
	bus     Broadcaster
	events  EventPublisher
}

func NewCloseRoomUseCase(service RoomService, bus Broadcaster, events EventPublisher) CloseRoomUseCase {
	return &closeRoomUseCase{service: service, bus: bus, events: events}
}

func (u *closeRoomUseCase) Execute(ctx context.Context, code, userID string) (int, error) {
	if _, err := requireHost(ctx, u.service, code, userID); err != nil {
		return statusFor(err), err
	}
	if err := u.service.CloseRoom(ctx, code); err != nil {
		return statusFor(err), err
	}
	payload := map[string]string{"reason": "closed_by_host"}
	notify(u.bus, u.events, code, domain.EventRoomClosed, domain.EventRoomClosed, payload)
	return http.StatusOK, nil
}

type SetImpostorsUseCase interface {
	Execute(ctx context.Context, code, userID string, numImpostors int) (domain.Room, int, error)
}

type setImpostorsUseCase struct {
	service RoomService
}

func NewSetImpostorsUseCase(service RoomService) SetImpostorsUseCase {
	return &setImpostorsUseCase{service: service}
}

func (u *setImpostorsUseCase) Execute(ctx context.Context, code, userID string, numImpostors int) (domain.Room, int, error) {
	room, err := u.service.SetImpostors(ctx, code, userID, numImpostors)
	if err != nil {
		return domain.Room{}, statusFor(err), err
	}
	return room, http.StatusOK, nil
}
