// Package memory is an in-process fake of eventbus.Bus: Publish invokes
// every subscribed handler synchronously instead of round-tripping through
// a broker.
package memory

import (
	"context"
	"sync"

	"github.com/menestis/skynet/internal/eventbus"
)

// Bus is a fan-out fake satisfying eventbus.Bus. Published is the record of every event Publish has seen, for assertions in tests that
// don't register a handler.
type Bus struct {
	mu       sync.Mutex
	handlers []eventbus.Handler
	Published []eventbus.ServerEvent
}

func New() *Bus { return &Bus{} }

func (b *Bus) Publish(ctx context.Context, event eventbus.ServerEvent) error {
	b.mu.Lock()
	b.Published = append(b.Published, event)
	handlers := append([]eventbus.Handler(nil), b.handlers...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, event)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, handler eventbus.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *Bus) Close() error { return nil }

var _ eventbus.Bus = (*Bus)(nil)
