// Package event fans domain events out to subscribers.
package event

import (
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cwygoda/yaydl/internal/domain"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Bus implements domain.EventSink. Emit never blocks: an event is dropped for
// any subscriber whose buffer is full.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan domain.Event
	buffer int
	logger *slog.Logger
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{
		subs:   make(map[string]chan domain.Event),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new subscriber. The returned cancel func closes the
// channel and is safe to call more than once.
func (b *Bus) Subscribe() (string, <-chan domain.Event, func()) {
	id := uuid.NewString()
	ch := make(chan domain.Event, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	b.logger.Debug("event subscriber added", "subscriber", id)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
			b.logger.Debug("event subscriber removed", "subscriber", id)
		})
	}
	return id, ch, cancel
}

// Emit delivers ev to every subscriber with room in its buffer.
func (b *Bus) Emit(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("event dropped", "subscriber", id, "kind", ev.Kind)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
