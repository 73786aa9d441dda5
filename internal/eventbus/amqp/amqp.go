// Package amqp implements eventbus.Bus over RabbitMQ via amqp091-go: one
// durable, exclusive per-replica queue bound to both a direct exchange
// (targeted commands) and a topic exchange (fleet-wide broadcasts),
// grounded on the original messenger's lapin usage.
package amqp

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/shutdown"
	"github.com/menestis/skynet/internal/tracing"
)

const traceparentHeader = "traceparent"

const (
	directExchange = "direct"
	topicExchange  = "events"
)

// Bus is a single AMQP connection plus the channel and queue bound to this
// replica's id. replicaID doubles as the queue name and the direct
// exchange's routing key.
type Bus struct {
	log       logr.Logger
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	replicaID string

	mu        sync.Mutex
	consuming bool

	coordinator *shutdown.Coordinator
}

// New dials address, declares the direct and topic exchanges, and declares
// this replica's private exclusive queue bound to both.
func New(ctx context.Context, address, replicaID string, log logr.Logger, coordinator *shutdown.Coordinator) (*Bus, error) {
	conn, err := amqp.DialConfig(address, amqp.Config{})
	if err != nil {
		return nil, apierr.Wrap(apierr.KindBus, err, "dial amqp broker")
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, apierr.Wrap(apierr.KindBus, err, "open amqp channel")
	}

	if err := channel.ExchangeDeclare(directExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, apierr.Wrap(apierr.KindBus, err, "declare direct exchange")
	}
	if err := channel.ExchangeDeclare(topicExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, apierr.Wrap(apierr.KindBus, err, "declare topic exchange")
	}

	queue, err := channel.QueueDeclare(replicaID, true, true, true, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, apierr.Wrap(apierr.KindBus, err, "declare replica queue")
	}

	if err := channel.QueueBind(queue.Name, replicaID, directExchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, apierr.Wrap(apierr.KindBus, err, "bind direct queue")
	}
	if err := channel.QueueBind(queue.Name, "skynet.#", topicExchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, apierr.Wrap(apierr.KindBus, err, "bind topic queue")
	}
	// The wildcard binding above does not catch routing keys the fleet uses
	// that don't start with "skynet." (e.g. proxy.servers.routes.*), so add
	// a catch-all topic binding too.
	if err := channel.QueueBind(queue.Name, "#", topicExchange, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, apierr.Wrap(apierr.KindBus, err, "bind catch-all topic queue")
	}

	return &Bus{
		log:         log,
		conn:        conn,
		channel:     channel,
		queueName:   queue.Name,
		replicaID:   replicaID,
		coordinator: coordinator,
	}, nil
}

// Publish encodes event as JSON and publishes it to the exchange and
// routing key its Route/Direct methods select.
func (b *Bus) Publish(ctx context.Context, event eventbus.ServerEvent) error {
	data, err := event.MarshalJSON()
	if err != nil {
		return apierr.Wrap(apierr.KindBus, err, "encode event %s", event.Type)
	}

	exchange := topicExchange
	if event.Direct() {
		exchange = directExchange
	}

	headers := amqp.Table{}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		headers[traceparentHeader] = tracing.GenerateTraceparent(sc)
	}

	err = b.channel.PublishWithContext(ctx, exchange, event.Route(), false, false, amqp.Publishing{
		ContentType: "application/json",
		Headers:     headers,
		Body:        data,
	})
	if err != nil {
		return apierr.Wrap(apierr.KindBus, err, "publish event %s", event.Type)
	}
	return nil
}

// Subscribe starts the replica's consume loop if it isn't already running
// and registers handler to receive every delivery. The loop runs until ctx
// is cancelled; a transport error triggers basic.recover, and a failed
// recovery triggers shutdown via the coordinator (spec's "recover failure
// triggers graceful shutdown").
func (b *Bus) Subscribe(ctx context.Context, handler eventbus.Handler) error {
	b.mu.Lock()
	alreadyConsuming := b.consuming
	b.consuming = true
	b.mu.Unlock()

	if alreadyConsuming {
		return fmt.Errorf("amqp bus: only one consume loop is supported per Bus instance")
	}

	deliveries, err := b.channel.Consume(b.queueName, b.replicaID, false, true, false, false, nil)
	if err != nil {
		return apierr.Wrap(apierr.KindBus, err, "start consuming")
	}

	go b.run(ctx, deliveries, handler)
	return nil
}

func (b *Bus) run(ctx context.Context, deliveries <-chan amqp.Delivery, handler eventbus.Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				b.log.Info("amqp delivery channel closed, attempting recovery")
				if err := b.channel.Recover(false); err != nil {
					b.log.Error(err, "amqp recovery failed, triggering shutdown")
					b.coordinator.Cancel()
					return
				}
				continue
			}
			b.handle(ctx, delivery, handler)
		}
	}
}

func (b *Bus) handle(ctx context.Context, delivery amqp.Delivery, handler eventbus.Handler) {
	var event eventbus.ServerEvent
	if err := event.UnmarshalJSON(delivery.Body); err != nil {
		b.log.Error(err, "discarding malformed event delivery")
		delivery.Ack(false)
		return
	}
	if raw, ok := delivery.Headers[traceparentHeader].(string); ok {
		if sc, err := tracing.ParseTraceparent(raw); err == nil {
			ctx = trace.ContextWithRemoteSpanContext(ctx, sc)
		}
	}
	handler(ctx, event)
	delivery.Ack(false)
}

// Close tears down the channel and connection.
func (b *Bus) Close() error {
	b.channel.Close()
	return b.conn.Close()
}

var _ eventbus.Bus = (*Bus)(nil)
