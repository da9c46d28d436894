// Package reconcile folds realtime push events into the normalized cache
// so that watched queries converge on the server's view of the order
// book without a refetch.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/shopstream/storefront-sync/internal/cache"
	"github.com/shopstream/storefront-sync/internal/realtime"
)

// StoreOrdersRoot is the cached root field holding the store's order
// list, newest first.
const StoreOrdersRoot = "storeOrders"

const orderTypename = "Order"

// Engine applies push events to the cache. Every event carries the
// order's full current field values, so applying the same event twice
// converges on the same state.
type Engine struct {
	cache  *cache.Cache
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates a reconciliation engine writing into c.
func New(c *cache.Cache, opts ...Option) *Engine {
	e := &Engine{cache: c, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply folds one event into the cache.
//
// All event types upsert the order entity by identity, so an update for
// an order the cache has never seen still lands and is completed by a
// later query response. NEW_ORDER additionally prepends the order to
// the storeOrders list when that list is cached; the prepend
// deduplicates, so replaying the event cannot double-insert.
func (e *Engine) Apply(ev realtime.Event) {
	id := ev.OrderID()
	if id == "" {
		e.logger.Warn("dropping order event without id",
			slog.String("type", string(ev.Type)))
		return
	}

	e.cache.WriteEntity(orderTypename, id, ev.Order)

	if ev.Type == realtime.EventNewOrder {
		e.cache.PrependRoot(StoreOrdersRoot, cache.Ref{Typename: orderTypename, ID: id})
	}

	e.logger.Debug("applied order event",
		slog.String("type", string(ev.Type)),
		slog.String("order_id", id),
	)
}

// Run consumes events until the stream closes or ctx is cancelled. It is
// the bridge between a realtime channel and the cache; callers run it in
// its own goroutine.
func (e *Engine) Run(ctx context.Context, events <-chan realtime.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.Apply(ev)
		}
	}
}
