package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"impostor-service/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	envelopeType     = "broadcast"
	subscriberBuffer = 64
)

// RedisManager carries room broadcasts over Redis pub/sub.
type RedisManager struct {
	client *redis.Client
}

// RoomMessage is the wire envelope published on a room channel.
type RoomMessage struct {
	RoomCode string `json:"room_code"`
	Type     string `json:"type"`
	Data     struct {
		Type    string          `json:"type"`
		Content json.RawMessage `json:"content,omitempty"`
	} `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRedisManager(ctx context.Context, redisAddr string, password string, db int) (*RedisManager, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", redisAddr, err)
	}

	return &RedisManager{client: rdb}, nil
}

func (rm *RedisManager) Close() error {
	return rm.client.Close()
}

func Channel(code string) string {
	return fmt.Sprintf("room:%s", code)
}

func (rm *RedisManager) Broadcast(ctx context.Context, code, eventType string, content any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal %s content: %w", eventType, err)
	}

	msg := RoomMessage{RoomCode: code, Type: envelopeType, Timestamp: time.Now().UTC()}
	msg.Data.Type = eventType
	msg.Data.Content = raw

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", eventType, err)
	}

	if err := rm.client.Publish(ctx, Channel(code), payload).Err(); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", domain.ErrBackend, Channel(code), err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so messages
// published afterwards are not missed.
func (rm *RedisManager) Subscribe(ctx context.Context, code string) (domain.BroadcastSubscription, error) {
	pubsub := rm.client.Subscribe(ctx, Channel(code))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe to %s: %v", domain.ErrBackend, Channel(code), err)
	}

	sub := &subscription{
		pubsub: pubsub,
		out:    make(chan domain.Broadcast, subscriberBuffer),
	}
	go sub.forward(ctx, code)
	return sub, nil
}

type subscription struct {
	pubsub *redis.PubSub
	out    chan domain.Broadcast
}

func (s *subscription) forward(ctx context.Context, code string) {
	defer close(s.out)
	defer s.pubsub.Close()

	in := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			var msg RoomMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil || msg.Type != envelopeType {
				zap.L().Warn("Ignoring malformed room message", zap.String("room", code), zap.Error(err))
				continue
			}
			select {
			case s.out <- domain.Broadcast{
				RoomCode:  msg.RoomCode,
				Type:      msg.Data.Type,
				Content:   msg.Data.Content,
				Timestamp: msg.Timestamp,
			}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *subscription) Messages() <-chan domain.Broadcast { return s.out }

// Close ends the subscription; Messages is closed shortly after.
func (s *subscription) Close() error {
	return s.pubsub.Close()
}
