package handler

import (
	"context"

	"impostor-service/domain"
	httpUsecase "impostor-service/internal/api/http/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type JoinRoomRequest struct {
	Code        string `params:"code" validate:"required,len=6,alphanum"`
	UserID      string `reqHeader:"X-User-ID"`
	DisplayName string `json:"display_name" validate:"required,max=32"`
}

type JoinRoomResponse struct {
	UserID       string `json:"user_id"`
	PlayerNumber int    `json:"player_number"`
}

type JoinRoomHandler struct {
	usecase httpUsecase.JoinRoomUseCase
}

func NewJoinRoomHandler(usecase httpUsecase.JoinRoomUseCase) *JoinRoomHandler {
	return &JoinRoomHandler{usecase: usecase}
}

// Handle issues an anonymous identity when the caller has none; clients send
// it back in X-User-ID to rejoin.
func (h *JoinRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *JoinRoomRequest) (*JoinRoomResponse, int, error) {
	userID := req.UserID
	if userID == "" {
		userID = uuid.NewString()
	}

	number, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), userID, req.DisplayName)
	if err != nil {
		return nil, status, err
	}
	fbrCtx.Set(userIDHeader, userID)
	return &JoinRoomResponse{UserID: userID, PlayerNumber: number}, status, nil
}

type ListPlayersRequest struct {
	Code string `params:"code" validate:"required,len=6,alphanum"`
}

type ListPlayersResponse struct {
	Players []domain.Player `json:"players"`
}

type ListPlayersHandler struct {
	usecase httpUsecase.ListPlayersUseCase
}

func NewListPlayersHandler(usecase httpUsecase.ListPlayersUseCase) *ListPlayersHandler {
	return &ListPlayersHandler{usecase: usecase}
}

func (h *ListPlayersHandler) Handle(ctx context.Context, req *ListPlayersRequest) (*ListPlayersResponse, int, error) {
	players, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code))
	if err != nil {
		return nil, status, err
	}
	return &ListPlayersResponse{Players: players}, status, nil
}

type LeaveRoomRequest struct {
	Code   string `params:"code" validate:"required,len=6,alphanum"`
	UserID string `reqHeader:"X-User-ID"`
}

type LeaveRoomResponse struct {
	Message string `json:"message"`
}

type LeaveRoomHandler struct {
	usecase httpUsecase.LeaveRoomUseCase
}

func NewLeaveRoomHandler(usecase httpUsecase.LeaveRoomUseCase) *LeaveRoomHandler {
	return &LeaveRoomHandler{usecase: usecase}
}

func (h *LeaveRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *LeaveRoomRequest) (*LeaveRoomResponse, int, error) {
	if req.UserID == "" {
		return nil, fiber.StatusUnauthorized, domain.ErrUnauthorized
	}
	status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), req.UserID)
	if err != nil {
		return nil, status, err
	}
	return &LeaveRoomResponse{Message: "left room"}, status, nil
}
