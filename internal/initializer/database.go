package initializer

import (
	"context"

	"impostor-service/config"
	"impostor-service/domain"
	"impostor-service/infra/memory"
	"impostor-service/infra/postgres"
	"impostor-service/internal/impostor"

	"go.uber.org/zap"
)

type Repository interface {
	impostor.Repository
	Close() error
}

type ChangeFeed interface {
	Subscribe(ctx context.Context, filter domain.ChangeFilter) (domain.ChangeSubscription, error)
	Close() error
}

const DriverMemory = "memory"

// InitDatabase opens the configured store. The memory driver also serves as
// its own change feed.
func InitDatabase(appConfig config.Config) Repository {
	if appConfig.Store.Driver == DriverMemory {
		zap.L().Warn("Using in-memory store; state is lost on restart")
		return memory.NewStore(memory.SampleSubjects()...)
	}

	repo, err := postgres.NewRepository(appConfig.Postgres.DSN())
	if err != nil {
		zap.L().Fatal("Failed to connect to postgres", zap.Error(err))
	}
	zap.L().Info("Connected to postgres", zap.String("host", appConfig.Postgres.Host), zap.String("db", appConfig.Postgres.DB))
	return repo
}

func InitChangeFeed(appConfig config.Config, repo Repository) ChangeFeed {
	if store, ok := repo.(*memory.Store); ok {
		return store
	}

	feed, err := postgres.NewChangeFeed(appConfig.Postgres.DSN())
	if err != nil {
		zap.L().Fatal("Failed to start change feed", zap.Error(err))
	}
	return feed
}
