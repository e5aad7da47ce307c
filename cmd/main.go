package main

import (
	"impostor-service/config"
	"impostor-service/internal/bootstrap"
	_ "impostor-service/log"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Read()
	defer zap.L().Sync()

	zap.L().Info("Impostor service starting",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("events", cfg.Kafka.Enabled),
		zap.Int("min_players", cfg.Rooms.MinPlayers),
		zap.Int("max_players", cfg.Rooms.MaxPlayers),
	)

	bootstrap.NewApp(cfg).Start()
}
