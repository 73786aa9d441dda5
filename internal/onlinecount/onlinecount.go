// Package onlinecount merges per-proxy player counts into a global total,
// persisting it and publishing PlayerCount on the leader replica, per spec
// §4.7. The per-proxy map is the one piece of shared mutable state outside
// Repository (spec §5 "shared-resource policy").
package onlinecount

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/metrics"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository"
	"github.com/menestis/skynet/internal/tracing"
)

// IsLeader reports whether this replica currently holds the reconciler
// lease; Aggregator only persists and re-publishes totals when true.
type IsLeader func() bool

// Aggregator owns the per-proxy count map, guarded by a read-write lock:
// Update (writer) takes exclusive access, Total (reader) takes shared.
type Aggregator struct {
	mu     sync.RWMutex
	counts map[string]int

	repo     repository.Repository
	bus      eventbus.Bus
	isLeader IsLeader
	log      logr.Logger
}

func New(repo repository.Repository, bus eventbus.Bus, isLeader IsLeader, log logr.Logger) *Aggregator {
	return &Aggregator{counts: map[string]int{}, repo: repo, bus: bus, isLeader: isLeader, log: log}
}

// Total returns the current global sum.
func (a *Aggregator) Total() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sumLocked()
}

func (a *Aggregator) sumLocked() int {
	total := 0
	for _, c := range a.counts {
		total += c
	}
	return total
}

// Update applies one proxy's reported count, from either an HTTP report or
// an inbound PlayerCountSync. On leader, the total is persisted and
// re-published; non-leaders forward by publishing PlayerCountSync.
func (a *Aggregator) Update(ctx context.Context, proxy string, count int) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanOnlineCountUpdate, trace.WithAttributes(tracing.AttrProxyID(proxy)))
	defer span.End()

	a.mu.Lock()
	a.counts[proxy] = count
	total := a.sumLocked()
	a.mu.Unlock()

	if !a.isLeader() {
		return a.bus.Publish(ctx, eventbus.PlayerCountSyncEvent(eventbus.PlayerCountSyncPayload{Proxy: proxy, Count: count}))
	}

	if err := a.repo.SetSetting(ctx, model.SettingOnlineCount, itoa(total)); err != nil {
		return err
	}
	metrics.OnlinePlayers.Set(float64(total))

	return a.bus.Publish(ctx, eventbus.PlayerCountEvent(eventbus.PlayerCountPayload{Count: total}))
}

// Remove drops proxy from the map, so later Totals exclude its count. It
// neither persists nor publishes the new total, and the reconciler's
// release path does not call it.
func (a *Aggregator) Remove(proxy string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counts, proxy)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
