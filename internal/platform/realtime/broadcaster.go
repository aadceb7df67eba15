// Package realtime fans chat messages out to every connected subscriber.
package realtime

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
)

// subscriberBuffer is how many undelivered payloads a slow subscriber may queue before drops start.
const subscriberBuffer = 32

// Broadcaster publishes payloads on a per-chat channel.
type Broadcaster interface {
	Publish(ctx context.Context, chatID uint, payload []byte) error
	// Subscribe returns the payloads published on chatID from now on.
	// The channel is closed after cancel is called or ctx is done.
	Subscribe(ctx context.Context, chatID uint) (<-chan []byte, func(), error)
}

// Channel returns the channel name for chatID.
func Channel(chatID uint) string {
	return "chats:" + strconv.FormatUint(uint64(chatID), 10)
}

// MemoryBroadcaster delivers within one process. It is used when Redis is not configured.
type MemoryBroadcaster struct {
	mu   sync.RWMutex
	subs map[uint]map[*memorySub]struct{}
}

type memorySub struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

var _ Broadcaster = (*MemoryBroadcaster)(nil)

// NewMemoryBroadcaster creates an empty MemoryBroadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[uint]map[*memorySub]struct{})}
}

// Publish never blocks. A subscriber whose buffer is full misses the payload.
func (b *MemoryBroadcaster) Publish(ctx context.Context, chatID uint, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for s := range b.subs[chatID] {
		select {
		case s.ch <- payload:
		default:
			slog.Warn("dropping realtime payload for slow subscriber", "chat_id", chatID)
		}
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(ctx context.Context, chatID uint) (<-chan []byte, func(), error) {
	s := &memorySub{ch: make(chan []byte, subscriberBuffer), done: make(chan struct{})}

	b.mu.Lock()
	if b.subs[chatID] == nil {
		b.subs[chatID] = make(map[*memorySub]struct{})
	}
	b.subs[chatID][s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			b.mu.Lock()
			delete(b.subs[chatID], s)
			if len(b.subs[chatID]) == 0 {
				delete(b.subs, chatID)
			}
			b.mu.Unlock()
			close(s.ch)
			close(s.done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-s.done:
		}
	}()
	return s.ch, cancel, nil
}
