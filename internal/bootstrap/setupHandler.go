package bootstrap

import (
	"impostor-service/config"
	httpRoomHandler "impostor-service/internal/api/http/handler"
	httpUsecase "impostor-service/internal/api/http/usecase"
	wsHandler "impostor-service/internal/api/ws/handler"
	wsUsecase "impostor-service/internal/api/ws/usecase"
)

func SetupHTTPHandlers(config config.Config, service httpUsecase.RoomService, roomBus RoomBus, events EventPublisher) map[string]interface{} {
	shareBaseURL := config.App.ShareBaseURL

	createRoomUseCase := httpUsecase.NewCreateRoomUseCase(service, events, config.Rooms.CodeAttempts)
	createRoomHandler := httpRoomHandler.NewCreateRoomHandler(createRoomUseCase, shareBaseURL)

	getRoomUseCase := httpUsecase.NewGetRoomUseCase(service)
	getRoomHandler := httpRoomHandler.NewGetRoomHandler(getRoomUseCase)
	roomQRHandler := httpRoomHandler.NewRoomQRHandler(getRoomUseCase, shareBaseURL)

	closeRoomUseCase := httpUsecase.NewCloseRoomUseCase(service, roomBus, events)
	closeRoomHandler := httpRoomHandler.NewCloseRoomHandler(closeRoomUseCase)

	setImpostorsUseCase := httpUsecase.NewSetImpostorsUseCase(service)
	setImpostorsHandler := httpRoomHandler.NewSetImpostorsHandler(setImpostorsUseCase)

	joinRoomUseCase := httpUsecase.NewJoinRoomUseCase(service, events)
	joinRoomHandler := httpRoomHandler.NewJoinRoomHandler(joinRoomUseCase)

	listPlayersUseCase := httpUsecase.NewListPlayersUseCase(service)
	listPlayersHandler := httpRoomHandler.NewListPlayersHandler(listPlayersUseCase)

	leaveRoomUseCase := httpUsecase.NewLeaveRoomUseCase(service, events)
	leaveRoomHandler := httpRoomHandler.NewLeaveRoomHandler(leaveRoomUseCase)

	startRoundUseCase := httpUsecase.NewStartRoundUseCase(service, roomBus, events)
	startRoundHandler := httpRoomHandler.NewStartRoundHandler(startRoundUseCase)

	getRoleUseCase := httpUsecase.NewGetRoleUseCase(service)
	getRoleHandler := httpRoomHandler.NewGetRoleHandler(getRoleUseCase)

	getSessionsUseCase := httpUsecase.NewGetSessionsUseCase(service)
	getSessionsHandler := httpRoomHandler.NewGetSessionsHandler(getSessionsUseCase)

	showResultsUseCase := httpUsecase.NewShowResultsUseCase(service, roomBus)
	showResultsHandler := httpRoomHandler.NewShowResultsHandler(showResultsUseCase)

	return map[string]interface{}{
		"create-room":   createRoomHandler,
		"get-room":      getRoomHandler,
		"room-qr":       roomQRHandler,
		"close-room":    closeRoomHandler,
		"set-impostors": setImpostorsHandler,
		"join-room":     joinRoomHandler,
		"list-players":  listPlayersHandler,
		"leave-room":    leaveRoomHandler,
		"start-round":   startRoundHandler,
		"get-role":      getRoleHandler,
		"get-sessions":  getSessionsHandler,
		"show-results":  showResultsHandler,
	}
}

func SetupWSHandlers(rooms wsUsecase.RoomReader, changes wsUsecase.ChangeFeed, roomBus wsUsecase.BroadcastSubscriber) map[string]interface{} {
	roomRelayUseCase := wsUsecase.NewRoomRelayUseCase(rooms, changes, roomBus)
	roomRelayHandler := wsHandler.NewRoomRelayHandler(roomRelayUseCase)

	return map[string]interface{}{
		"room-relay": roomRelayHandler,
	}
}
