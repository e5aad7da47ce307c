package handler

import (
	"context"
	"fmt"
	"strings"

	"impostor-service/domain"
	httpUsecase "impostor-service/internal/api/http/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/skip2/go-qrcode"
)

const userIDHeader = "X-User-ID"

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ShareURL(baseURL, code string) string {
	return fmt.Sprintf("%s/impostor/%s", strings.TrimRight(baseURL, "/"), code)
}

type CreateRoomRequest struct {
	NumPlayers   int    `json:"num_players" validate:"required,min=1"`
	NumImpostors int    `json:"num_impostors" validate:"required,min=1"`
	UserID       string `reqHeader:"X-User-ID"`
}

type CreateRoomResponse struct {
	Room     domain.Room `json:"room"`
	ShareURL string      `json:"share_url"`
}

type CreateRoomHandler struct {
	usecase      httpUsecase.CreateRoomUseCase
	shareBaseURL string
}

func NewCreateRoomHandler(usecase httpUsecase.CreateRoomUseCase, shareBaseURL string) *CreateRoomHandler {
	return &CreateRoomHandler{usecase: usecase, shareBaseURL: shareBaseURL}
}

func (h *CreateRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *CreateRoomRequest) (*CreateRoomResponse, int, error) {
	room, status, err := h.usecase.Execute(ctx, req.NumPlayers, req.NumImpostors, req.UserID)
	if err != nil {
		return nil, status, err
	}
	return &CreateRoomResponse{Room: room, ShareURL: ShareURL(h.shareBaseURL, room.Code)}, status, nil
}

type GetRoomRequest struct {
	Code string `params:"code" validate:"required,len=6,alphanum"`
}

type GetRoomResponse struct {
	Room domain.Room `json:"room"`
}

type GetRoomHandler struct {
	usecase httpUsecase.GetRoomUseCase
}

func NewGetRoomHandler(usecase httpUsecase.GetRoomUseCase) *GetRoomHandler {
	return &GetRoomHandler{usecase: usecase}
}

func (h *GetRoomHandler) Handle(ctx context.Context, req *GetRoomRequest) (*GetRoomResponse, int, error) {
	room, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code))
	if err != nil {
		return nil, status, err
	}
	return &GetRoomResponse{Room: room}, status, nil
}

type CloseRoomRequest struct {
	Code   string `params:"code" validate:"required,len=6,alphanum"`
	UserID string `reqHeader:"X-User-ID"`
}

type CloseRoomResponse struct {
	Message string `json:"message"`
}

type CloseRoomHandler struct {
	usecase httpUsecase.CloseRoomUseCase
}

func NewCloseRoomHandler(usecase httpUsecase.CloseRoomUseCase) *CloseRoomHandler {
	return &CloseRoomHandler{usecase: usecase}
}

func (h *CloseRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *CloseRoomRequest) (*CloseRoomResponse, int, error) {
	if req.UserID == "" {
		return nil, fiber.StatusUnauthorized, domain.ErrUnauthorized
	}
	status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), req.UserID)
	if err != nil {
		return nil, status, err
	}
	return &CloseRoomResponse{Message: "room closed"}, status, nil
}

type SetImpostorsRequest struct {
	Code         string `params:"code" validate:"required,len=6,alphanum"`
	UserID       string `reqHeader:"X-User-ID"`
	NumImpostors int    `json:"num_impostors" validate:"required,min=1"`
}

type SetImpostorsResponse struct {
	Room domain.Room `json:"room"`
}

type SetImpostorsHandler struct {
	usecase httpUsecase.SetImpostorsUseCase
}

func NewSetImpostorsHandler(usecase httpUsecase.SetImpostorsUseCase) *SetImpostorsHandler {
	return &SetImpostorsHandler{usecase: usecase}
}

func (h *SetImpostorsHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *SetImpostorsRequest) (*SetImpostorsResponse, int, error) {
	if req.UserID == "" {
		return nil, fiber.StatusUnauthorized, domain.ErrUnauthorized
	}
	room, status, err := h.usecase.Execute(ctx, normalizeCode(req.Code), req.UserID, req.NumImpostors)
	if err != nil {
		return nil, status, err
	}
	return &SetImpostorsResponse{Room: room}, status, nil
}

// RoomQRHandler renders the share URL of an existing room as a PNG.
type RoomQRHandler struct {
	usecase      httpUsecase.GetRoomUseCase
	shareBaseURL string
	size         int
}

func NewRoomQRHandler(usecase httpUsecase.GetRoomUseCase, shareBaseURL string) *RoomQRHandler {
	return &RoomQRHandler{usecase: usecase, shareBaseURL: shareBaseURL, size: 256}
}

func (h *RoomQRHandler) Handle(c *fiber.Ctx) error {
	code := normalizeCode(c.Params("code"))
	room, status, err := h.usecase.Execute(c.UserContext(), code)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	png, err := qrcode.Encode(ShareURL(h.shareBaseURL, room.Code), qrcode.Medium, h.size)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(png)
}
