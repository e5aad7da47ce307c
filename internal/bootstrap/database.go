package bootstrap

import (
	"impostor-service/config"
	"impostor-service/internal/impostor"
	"impostor-service/internal/initializer"
)

type Repository = initializer.Repository

type ChangeFeed = initializer.ChangeFeed

func InitDatabase(config config.Config) Repository {
	return initializer.InitDatabase(config)
}

func InitChangeFeed(config config.Config, repo Repository) ChangeFeed {
	return initializer.InitChangeFeed(config, repo)
}

func NewRoomService(config config.Config, repo Repository) *impostor.Service {
	return impostor.NewService(repo, impostor.WithLimits(impostor.Limits{
		MinPlayers: config.Rooms.MinPlayers,
		MaxPlayers: config.Rooms.MaxPlayers,
	}))
}
