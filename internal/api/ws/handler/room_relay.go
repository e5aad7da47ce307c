package wsHandler

import (
	"context"
	"errors"
	"strings"

	"impostor-service/domain"
	wsUsecase "impostor-service/internal/api/ws/usecase"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RoomRelayHandler struct {
	usecase wsUsecase.RoomRelayUseCase
}

type RoomRelayRequest struct{}

func NewRoomRelayHandler(usecase wsUsecase.RoomRelayUseCase) *RoomRelayHandler {
	return &RoomRelayHandler{usecase: usecase}
}

func (h *RoomRelayHandler) sendErrorAndClose(conn *websocket.Conn, msg string, code int) {
	errorMessage := domain.WebSocketErrorMessage{
		Type:    "error",
		Message: msg,
		Code:    code,
	}
	if err := conn.WriteJSON(errorMessage); err != nil {
		zap.L().Debug("Failed to send error message to client", zap.Error(err))
	}
	conn.Close()
}

func (h *RoomRelayHandler) HandleWS(c *websocket.Conn, ctx context.Context, req *RoomRelayRequest) {
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))

	err := h.usecase.Execute(ctx, c, code)
	switch {
	case err == nil:
		c.Close()
	case errors.Is(err, domain.ErrNotFound):
		h.sendErrorAndClose(c, err.Error(), fiber.StatusNotFound)
	default:
		zap.L().Warn("Room relay ended", zap.String("room", code), zap.Error(err))
		h.sendErrorAndClose(c, "relay failed", fiber.StatusInternalServerError)
	}
}
