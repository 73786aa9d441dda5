package eventbus

import "context"

// Handler processes one delivered event. Delivery is at-least-once, so
// handlers must be idempotent; a handler returns nothing, so its outcome
// never triggers redelivery.
type Handler func(ctx context.Context, event ServerEvent)

// Bus is the pub-sub abstraction every component publishes through and the
// consumer loop delivers from. Publish returns an error when the event
// cannot be encoded or sent; it does not wait for a broker acknowledgement.
// Subscribe registers the handler invoked for
// every delivery accepted by the bus's own consume loop and returns once
// registration succeeds (the loop itself runs until ctx is cancelled).
type Bus interface {
	Publish(ctx context.Context, event ServerEvent) error
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}
