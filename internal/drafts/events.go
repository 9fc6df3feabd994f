package drafts

import (
	"context"
	"sync"
	"time"
)

type broadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan ChangeEvent
	nextID   uint64
	now      func() time.Time
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		watchers: make(map[uint64]chan ChangeEvent),
		now:      time.Now,
	}
}

// Subscribe registers a watcher until ctx is done. Slow watchers miss events
// instead of blocking writers.
func (b *broadcaster) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		ch := make(chan ChangeEvent)
		close(ch)
		return ch, nil
	}
	ch := make(chan ChangeEvent, 8)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}

func (b *broadcaster) publish(key string, action Action) {
	evt := ChangeEvent{Key: key, Action: action, OccurredAt: b.now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}
