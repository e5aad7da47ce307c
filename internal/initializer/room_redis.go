package initializer

import (
	"context"
	"time"

	"impostor-service/config"
	"impostor-service/domain"
	"impostor-service/infra/memory"
	"impostor-service/infra/redis"

	"go.uber.org/zap"
)

type RoomBus interface {
	Broadcast(ctx context.Context, code, eventType string, content any) error
	Subscribe(ctx context.Context, code string) (domain.BroadcastSubscription, error)
	Close() error
}

func InitRoomRedis(appConfig config.Config) RoomBus {
	if appConfig.Store.Driver == DriverMemory {
		return memory.NewBus()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisManager, err := redis.NewRedisManager(ctx, appConfig.Redis.Addr(), appConfig.Redis.Password, appConfig.Redis.DB)
	if err != nil {
		zap.L().Fatal("Failed to connect to redis", zap.String("addr", appConfig.Redis.Addr()), zap.Error(err))
	}
	return redisManager
}
