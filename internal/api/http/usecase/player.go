package httpUsecase

import (
	"context"
	"net/http"

	"impostor-service/domain"
)

type JoinRoomUseCase interface {
	Execute(ctx context.Context, code, userID, displayName string) (int, int, error)
}

type joinRoomUseCase struct {
	service RoomService
	events  EventPublisher
}

func NewJoinRoomUseCase(service RoomService, events EventPublisher) JoinRoomUseCase {
	return &joinRoomUseCase{service: service, events: events}
}

// Execute returns the player number and the HTTP status.
func (u *joinRoomUseCase) Execute(ctx context.Context, code, userID, displayName string) (int, int, error) {
	number, err := u.service.Join(ctx, code, userID, displayName)
	if err != nil {
		return 0, statusFor(err), err
	}
	notify(nil, u.events, code, "", domain.EventPlayerJoined, map[string]any{
		"user_id":       userID,
		"display_name":  displayName,
		"player_number": number,
	})
	return number, http.StatusOK, nil
}

type ListPlayersUseCase interface {
	Execute(ctx context.Context, code string) ([]domain.Player, int, error)
}

type listPlayersUseCase struct {
	service RoomService
}

func NewListPlayersUseCase(service RoomService) ListPlayersUseCase {
	return &listPlayersUseCase{service: service}
}

func (u *listPlayersUseCase) Execute(ctx context.Context, code string) ([]domain.Player, int, error) {
	if _, err := u.service.GetRoom(ctx, code); err != nil {
		return nil, statusFor(err), err
	}
	players, err := u.service.ListPlayers(ctx, code)
	if err != nil {
		return nil, statusFor(err), err
	}
	return players, http.StatusOK, nil
}

type LeaveRoomUseCase interface {
	Execute(ctx context.Context, code, userID string) (int, error)
}

type leaveRoomUseCase struct {
	service RoomService
	events  EventPublisher
}

func NewLeaveRoomUseCase(service RoomService, events EventPublisher) LeaveRoomUseCase {
	return &leaveRoomUseCase{service: service, events: events}
}

func (u *leaveRoomUseCase) Execute(ctx context.Context, code, userID string) (int, error) {
	if err := u.service.Leave(ctx, code, userID); err != nil {
		return statusFor(err), err
	}
	notify(nil, u.events, code, "", domain.EventPlayerLeft, map[string]string{"user_id": userID})
	return http.StatusOK, nil
}
