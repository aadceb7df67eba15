package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster delivers through Redis pub/sub so that every server instance sees every message.
type RedisBroadcaster struct {
	rdb *redis.Client
}

var _ Broadcaster = (*RedisBroadcaster)(nil)

// NewRedisBroadcaster creates a RedisBroadcaster on rdb.
func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, chatID uint, payload []byte) error {
	if err := b.rdb.Publish(ctx, Channel(chatID), payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", Channel(chatID), err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so nothing published afterwards is missed.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, chatID uint) (<-chan []byte, func(), error) {
	ps := b.rdb.Subscribe(ctx, Channel(chatID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe to %s: %w", Channel(chatID), err)
	}

	out := make(chan []byte, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				cancel()
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-done:
					return
				}
			}
		}
	}()
	return out, cancel, nil
}
