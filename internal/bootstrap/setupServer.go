package bootstrap

import (
	"time"

	"impostor-service/config"
	"impostor-service/domain"
	httpRoomHandler "impostor-service/internal/api/http/handler"
	httpUsecase "impostor-service/internal/api/http/usecase"
	wsHandler "impostor-service/internal/api/ws/handler"
	"impostor-service/internal/handler"
	"impostor-service/internal/middleware"
	"impostor-service/internal/server"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func SetupServer(config config.Config, httpHandlers map[string]interface{}, wsHandlers map[string]interface{}) *fiber.App {
	serverConfig := server.Config{
		Port:         config.Server.Port,
		AllowOrigins: config.App.ShareBaseURL,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	app := server.NewFiberApp(serverConfig)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Global: middleware.Limit{
			RequestsPerMinute: config.RateLimit.RequestsPerMinute,
			Burst:             config.RateLimit.Burst,
		},
		Groups: map[string]middleware.Limit{
			"create": {
				RequestsPerMinute: config.RateLimit.CreateRequestsPerMinute,
				Burst:             config.RateLimit.CreateBurst,
			},
		},
	})

	createRoomHandler := httpHandlers["create-room"].(*httpRoomHandler.CreateRoomHandler)
	getRoomHandler := httpHandlers["get-room"].(*httpRoomHandler.GetRoomHandler)
	roomQRHandler := httpHandlers["room-qr"].(*httpRoomHandler.RoomQRHandler)
	closeRoomHandler := httpHandlers["close-room"].(*httpRoomHandler.CloseRoomHandler)
	setImpostorsHandler := httpHandlers["set-impostors"].(*httpRoomHandler.SetImpostorsHandler)
	joinRoomHandler := httpHandlers["join-room"].(*httpRoomHandler.JoinRoomHandler)
	listPlayersHandler := httpHandlers["list-players"].(*httpRoomHandler.ListPlayersHandler)
	leaveRoomHandler := httpHandlers["leave-room"].(*httpRoomHandler.LeaveRoomHandler)
	startRoundHandler := httpHandlers["start-round"].(*httpRoomHandler.StartRoundHandler)
	getRoleHandler := httpHandlers["get-role"].(*httpRoomHandler.GetRoleHandler)
	getSessionsHandler := httpHandlers["get-sessions"].(*httpRoomHandler.GetSessionsHandler)
	showResultsHandler := httpHandlers["show-results"].(*httpRoomHandler.ShowResultsHandler)

	rooms := app.Group("/rooms", rateLimiter.Middleware())
	rooms.Post("", rateLimiter.Group("create"), handler.HandleWithFiber[httpRoomHandler.CreateRoomRequest, httpRoomHandler.CreateRoomResponse](createRoomHandler))
	rooms.Get("/:code", handler.HandleBasic[httpRoomHandler.GetRoomRequest, httpRoomHandler.GetRoomResponse](getRoomHandler))
	rooms.Get("/:code/qr", roomQRHandler.Handle)
	rooms.Post("/:code/close", handler.HandleWithFiber[httpRoomHandler.CloseRoomRequest, httpRoomHandler.CloseRoomResponse](closeRoomHandler))
	rooms.Patch("/:code/impostors", handler.HandleWithFiber[httpRoomHandler.SetImpostorsRequest, httpRoomHandler.SetImpostorsResponse](setImpostorsHandler))
	rooms.Post("/:code/players", handler.HandleWithFiber[httpRoomHandler.JoinRoomRequest, httpRoomHandler.JoinRoomResponse](joinRoomHandler))
	rooms.Get("/:code/players", handler.HandleBasic[httpRoomHandler.ListPlayersRequest, httpRoomHandler.ListPlayersResponse](listPlayersHandler))
	rooms.Delete("/:code/players/me", handler.HandleWithFiber[httpRoomHandler.LeaveRoomRequest, httpRoomHandler.LeaveRoomResponse](leaveRoomHandler))
	rooms.Post("/:code/rounds", handler.HandleWithFiber[httpRoomHandler.StartRoundRequest, httpUsecase.RoundStarted](startRoundHandler))
	rooms.Get("/:code/roles/:number", handler.HandleBasic[httpRoomHandler.GetRoleRequest, httpUsecase.RoleView](getRoleHandler))
	rooms.Get("/:code/sessions", handler.HandleBasic[httpRoomHandler.GetSessionsRequest, httpRoomHandler.GetSessionsResponse](getSessionsHandler))
	rooms.Post("/:code/results", handler.HandleWithFiber[httpRoomHandler.ShowResultsRequest, domain.RoundResults](showResultsHandler))

	wsRoute := app.Group("/ws", rateLimiter.Middleware(), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	roomRelayHandler := wsHandlers["room-relay"].(*wsHandler.RoomRelayHandler)
	wsRoute.Get("/rooms/:code", handler.HandleWithFiberWS[wsHandler.RoomRelayRequest](roomRelayHandler))

	return app
}
