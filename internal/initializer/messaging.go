package initializer

import (
	"context"

	"impostor-service/config"
	"impostor-service/infra/kafka"

	"go.uber.org/zap"
)

type EventPublisher interface {
	Publish(ctx context.Context, eventType, roomCode string, data any) error
	Close() error
}

func InitMessaging(appConfig config.Config) EventPublisher {
	if !appConfig.Kafka.Enabled {
		zap.L().Info("Kafka disabled; domain events are dropped")
		return kafka.Discard{}
	}

	kafkaConfig := kafka.NewDefaultConfig(appConfig.Kafka.Brokers)
	if appConfig.Kafka.Topic != "" {
		kafkaConfig.Topic = appConfig.Kafka.Topic
	}
	if appConfig.Kafka.Encoding != "" {
		kafkaConfig.Encoding = appConfig.Kafka.Encoding
	}
	producer := kafka.NewProducer(kafkaConfig)
	zap.L().Info("Kafka producer initialized", zap.Strings("brokers", kafkaConfig.Brokers), zap.String("topic", kafkaConfig.Topic), zap.String("encoding", kafkaConfig.Encoding))
	return producer
}
