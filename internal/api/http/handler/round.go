package handler

import (
	"context"

	"impostor-service/domain"
	httpUsecase "impostor-service/internal/api/http/usecase"

	"github.com/gofiber/fiber/v2"
)

type StartRoundRequest struct {
	Code         string `params:"code" validate:"required,len=6,alphanum"`
	UserID       string `reqHeader:"X-User-ID"`
	NumPlayers   int    `json:"num_players" validate:"min=0"`
	NumImpostors int    `json:"num_impostors" validate:"min=0"`
}

type StartRoundHandler struct {
	usecase httpUsecase.StartRoundUseCase
}

func NewStartRoundHandler(usecase httpUsecase.StartRoundUseCase) *StartRoundHandler {
	return &StartRoundHandler{usecase: usecase}
}

func (h *StartRoundHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *StartRoundRequest) (*httpUsecase.RoundStarted, int, error) {
	if req.UserID == "" {
		return nil, fiber.StatusUnauthorized, domain.ErrUnauthorized
	}
	started, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), req.UserID, req.NumPlayers, req.NumImpostors)
	if err != nil {
		return nil, status, err
	}
	return &started, status, nil
}

type GetRoleRequest struct {
	Code         string `params:"code" validate:"required,len=6,alphanum"`
	UserID       string `reqHeader:"X-User-ID"`
	PlayerNumber int    `params:"number" validate:"required,min=1"`
}

type GetRoleHandler struct {
	usecase httpUsecase.GetRoleUseCase
}

func NewGetRoleHandler(usecase httpUsecase.GetRoleUseCase) *GetRoleHandler {
	return &GetRoleHandler{usecase: usecase}
}

func (h *GetRoleHandler) Handle(ctx context.Context, req *GetRoleRequest) (*httpUsecase.RoleView, int, error) {
	if req.UserID == "" {
		return nil, fiber.StatusUnauthorized, domain.ErrUnauthorized
	}
	role, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), req.UserID, req.PlayerNumber)
	if err != nil {
		return nil, status, err
	}
	return &role, status, nil
}

type GetSessionsRequest struct {
	Code   string `params:"code" validate:"required,len=6,alphanum"`
	UserID string `reqHeader:"X-User-ID"`
}

type GetSessionsResponse struct {
	Sessions []domain.RoundSession `json:"sessions"`
}

type GetSessionsHandler struct {
	usecase httpUsecase.GetSessionsUseCase
}

func NewGetSessionsHandler(usecase httpUsecase.GetSessionsUseCase) *GetSessionsHandler {
	return &GetSessionsHandler{usecase: usecase}
}

func (h *GetSessionsHandler) Handle(ctx context.Context, req *GetSessionsRequest) (*GetSessionsResponse, int, error) {
	if req.UserID == "" {
		return nil, fiber.StatusUnauthorized, domain.ErrUnauthorized
	}
	sessions, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), req.UserID)
	if err != nil {
		return nil, status, err
	}
	return &GetSessionsResponse{Sessions: sessions}, status, nil
}

type ShowResultsRequest struct {
	Code   string `params:"code" validate:"required,len=6,alphanum"`
	UserID string `reqHeader:"X-User-ID"`
}

type ShowResultsHandler struct {
	usecase httpUsecase.ShowResultsUseCase
}

func NewShowResultsHandler(usecase httpUsecase.ShowResultsUseCase) *ShowResultsHandler {
	return &ShowResultsHandler{usecase: usecase}
}

func (h *ShowResultsHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *ShowResultsRequest) (*domain.RoundResults, int, error) {
	if req.UserID == "" {
		return nil, fiber.StatusUnauthorized, domain.ErrUnauthorized
	}
	results, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), req.UserID)
	if err != nil {
		return nil, status, err
	}
	return &results, status, nil
}
