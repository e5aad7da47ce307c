package bootstrap

import (
	"impostor-service/config"
	"impostor-service/internal/initializer"
)

type RoomBus = initializer.RoomBus

type EventPublisher = initializer.EventPublisher

func InitRoomRedis(config config.Config) RoomBus {
	return initializer.InitRoomRedis(config)
}

func SetupMessaging(config config.Config) EventPublisher {
	return initializer.InitMessaging(config)
}
