package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"impostor-service/domain"
	"impostor-service/pkg/fanout"
)

// Bus is an in-process broadcast channel keyed by room code.
type Bus struct {
	hub *fanout.Hub[domain.Broadcast]
}

func NewBus() *Bus {
	return &Bus{hub: fanout.New[domain.Broadcast]()}
}

func (b *Bus) Broadcast(ctx context.Context, code, eventType string, content any) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal %s broadcast: %w", eventType, err)
	}
	b.hub.Publish(domain.Broadcast{
		RoomCode:  code,
		Type:      eventType,
		Content:   payload,
		Timestamp: time.Now(),
	})
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, code string) (domain.BroadcastSubscription, error) {
	sub := b.hub.Subscribe(func(msg domain.Broadcast) bool { return msg.RoomCode == code }, subscriberBuffer)
	stop := context.AfterFunc(ctx, func() { sub.Close() })
	return &broadcastSubscription{sub: sub, stop: stop}, nil
}

func (b *Bus) Close() error {
	b.hub.Close()
	return nil
}

type broadcastSubscription struct {
	sub  *fanout.Subscription[domain.Broadcast]
	stop func() bool
}

func (s *broadcastSubscription) Messages() <-chan domain.Broadcast { return s.sub.C() }

func (s *broadcastSubscription) Close() error {
	s.stop()
	return s.sub.Close()
}
