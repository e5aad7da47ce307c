package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"impostor-service/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	EncodingJSON     = "json"
	EncodingProtobuf = "protobuf"
)

type Config struct {
	Brokers      []string
	Topic        string
	Encoding     string
	WriteTimeout time.Duration
}

func NewDefaultConfig(brokers []string) Config {
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	return Config{
		Brokers:      brokers,
		Topic:        "impostor-events",
		Encoding:     EncodingJSON,
		WriteTimeout: 10 * time.Second,
	}
}

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes domain events keyed by room code so a room's events stay
// ordered within one partition.
type Producer struct {
	writer   messageWriter
	encoding string
	now      func() time.Time
}

func NewProducer(cfg Config) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
		encoding: cfg.Encoding,
		now:      time.Now,
	}
}

func (p *Producer) Publish(ctx context.Context, eventType, roomCode string, data any) error {
	event := domain.DomainEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		RoomCode:   roomCode,
		Data:       data,
		OccurredAt: p.now().UTC(),
	}
	value, contentType, err := p.encode(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(roomCode),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "content_type", Value: []byte(contentType)},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: write %s event: %v", domain.ErrBackend, eventType, err)
	}
	return nil
}

// encode renders the event as JSON, or as a protobuf Struct carrying the same
// fields when the topic is consumed by protobuf readers.
func (p *Producer) encode(event domain.DomainEvent) ([]byte, string, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, "", err
	}
	if p.encoding != EncodingProtobuf {
		return value, "application/json", nil
	}

	var fields map[string]any
	if err := json.Unmarshal(value, &fields); err != nil {
		return nil, "", err
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, "", err
	}
	value, err = proto.Marshal(msg)
	if err != nil {
		return nil, "", err
	}
	return value, "application/x-protobuf", nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Discard drops every event. It stands in when the event stream is disabled.
type Discard struct{}

func (Discard) Publish(context.Context, string, string, any) error { return nil }

func (Discard) Close() error { return nil }
