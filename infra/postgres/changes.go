package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"impostor-service/domain"
	"impostor-service/pkg/fanout"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
	subscriberBuffer     = 64
)

// ChangeFeed turns trigger notifications into row changes for subscribers.
type ChangeFeed struct {
	listener *pq.Listener
	hub      *fanout.Hub[domain.RowChange]
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewChangeFeed(connString string) (*ChangeFeed, error) {
	listener := pq.NewListener(connString, listenerMinReconnect, listenerMaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				zap.L().Warn("Change listener event", zap.Int("event", int(ev)), zap.Error(err))
			}
		})
	if err := listener.Listen(ChangesChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", ChangesChannel, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	feed := &ChangeFeed{
		listener: listener,
		hub:      fanout.New[domain.RowChange](),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go feed.run(ctx)
	return feed, nil
}

func (f *ChangeFeed) run(ctx context.Context) {
	defer close(f.done)
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-f.listener.Notify:
			if !ok {
				return
			}
			// nil after a reconnect; notifications sent meanwhile are lost and
			// clients catch up by polling.
			if n == nil {
				continue
			}
			change, err := decodeChange(n.Extra)
			if err != nil {
				zap.L().Warn("Dropping malformed change notification", zap.Error(err))
				continue
			}
			f.hub.Publish(change)
		case <-ticker.C:
			go func() {
				if err := f.listener.Ping(); err != nil {
					zap.L().Warn("Change listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func decodeChange(payload string) (domain.RowChange, error) {
	var change domain.RowChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return domain.RowChange{}, fmt.Errorf("decode change: %w", err)
	}
	if change.Table == "" || change.Op == "" {
		return domain.RowChange{}, fmt.Errorf("decode change: missing table or op")
	}
	return change, nil
}

func (f *ChangeFeed) Subscribe(ctx context.Context, filter domain.ChangeFilter) (domain.ChangeSubscription, error) {
	sub := f.hub.Subscribe(filter.Matches, subscriberBuffer)
	stop := context.AfterFunc(ctx, func() { sub.Close() })
	return &changeSubscription{sub: sub, stop: stop}, nil
}

func (f *ChangeFeed) Close() error {
	f.cancel()
	<-f.done
	f.hub.Close()
	return f.listener.Close()
}

type changeSubscription struct {
	sub  *fanout.Subscription[domain.RowChange]
	stop func() bool
}

func (c *changeSubscription) Changes() <-chan domain.RowChange { return c.sub.C() }

func (c *changeSubscription) Close() error {
	c.stop()
	return c.sub.Close()
}
