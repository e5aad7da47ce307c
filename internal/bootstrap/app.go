package bootstrap

import (
	"context"
	"time"

	"impostor-service/config"
	"impostor-service/internal/impostor"
	"impostor-service/pkg/graceful"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type App struct {
	config       config.Config
	repository   Repository
	changeFeed   ChangeFeed
	roomBus      RoomBus
	events       EventPublisher
	service      *impostor.Service
	fiberApp     *fiber.App
	httpHandlers map[string]interface{}
	wsHandlers   map[string]interface{}
}

func NewApp(config config.Config) *App {
	app := &App{
		config: config,
	}
	app.initDependencies()
	return app
}

func (a *App) initDependencies() {
	a.repository = InitDatabase(a.config)
	a.changeFeed = InitChangeFeed(a.config, a.repository)
	a.roomBus = InitRoomRedis(a.config)
	a.events = SetupMessaging(a.config)
	a.service = NewRoomService(a.config, a.repository)
	a.httpHandlers = SetupHTTPHandlers(a.config, a.service, a.roomBus, a.events)
	a.wsHandlers = SetupWSHandlers(a.service, a.changeFeed, a.roomBus)
	a.fiberApp = SetupServer(a.config, a.httpHandlers, a.wsHandlers)
}

func (a *App) Start() {
	go func() {
		port := a.config.Server.Port
		if err := a.fiberApp.Listen(":" + port); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
		}
	}()

	zap.L().Info("Server started on port", zap.String("port", a.config.Server.Port))

	defer a.close()

	graceful.WaitForShutdown(a.fiberApp, 5*time.Second, context.Background())
}

func (a *App) close() {
	if err := a.events.Close(); err != nil {
		zap.L().Error("Failed to close event publisher", zap.Error(err))
	}
	if err := a.roomBus.Close(); err != nil {
		zap.L().Error("Failed to close room bus", zap.Error(err))
	}
	// The memory driver is its own change feed; closing the repository covers it.
	if any(a.changeFeed) != any(a.repository) {
		if err := a.changeFeed.Close(); err != nil {
			zap.L().Error("Failed to close change feed", zap.Error(err))
		}
	}
	if err := a.repository.Close(); err != nil {
		zap.L().Error("Failed to close database", zap.Error(err))
	}
}
