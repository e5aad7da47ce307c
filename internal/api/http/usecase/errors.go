package httpUsecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"impostor-service/domain"

	"go.uber.org/zap"
)

const sideEffectTimeout = 5 * time.Second

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrRoomFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGameOver):
		return http.StatusGone
	case errors.Is(err, domain.ErrNoSubjects):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// notify broadcasts to the room and emits a domain event without tying
// either to the request lifetime. Failures are logged only.
func notify(bus Broadcaster, events EventPublisher, code, broadcastType, eventType string, data any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if bus != nil && broadcastType != "" {
			if err := bus.Broadcast(ctx, code, broadcastType, data); err != nil {
				zap.L().Warn("Failed to broadcast", zap.String("room", code), zap.String("type", broadcastType), zap.Error(err))
			}
		}
		if events != nil && eventType != "" {
			if err := events.Publish(ctx, eventType, code, data); err != nil {
				zap.L().Warn("Failed to publish event", zap.String("room", code), zap.String("type", eventType), zap.Error(err))
			}
		}
	}()
}

func requireHost(ctx context.Context, service RoomService, code, userID string) (domain.Room, error) {
	room, err := service.GetRoom(ctx, code)
	if err != nil {
		return domain.Room{}, err
	}
	if !room.IsHost(userID) {
		return domain.Room{}, fmt.Errorf("%w: only the host can do this", domain.ErrForbidden)
	}
	return room, nil
}
