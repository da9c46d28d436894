package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopstream/storefront-sync/internal/api"
	"github.com/shopstream/storefront-sync/internal/cache"
	"github.com/shopstream/storefront-sync/internal/domain"
	"github.com/shopstream/storefront-sync/internal/realtime"
	"github.com/shopstream/storefront-sync/internal/reconcile"
)

// Orders lists the signed-in user's own orders.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	data, err := c.query(ctx, api.OrdersQuery, nil)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.OrdersPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, id string) (*domain.Order, error) {
	data, err := c.query(ctx, api.OrderQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.OrderPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Order, nil
}

// Checkout converts the cart into an order and clears the cached cart.
func (c *Client) Checkout(ctx context.Context, addressID, paymentMethod string) (*domain.Order, error) {
	merge := func(w cache.Writer, data json.RawMessage) error {
		// The server empties the cart as part of checkout.
		w.WriteQuery("cart", nil)
		return nil
	}
	data, err := c.mutate(ctx, api.CheckoutMutation, map[string]any{
		"addressId":     addressID,
		"paymentMethod": paymentMethod,
	}, merge)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.CheckoutPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.Checkout, nil
}

// StoreOrders lists a store's order book, replacing the cached list.
func (c *Client) StoreOrders(ctx context.Context, storeID string) ([]domain.Order, error) {
	data, err := c.query(ctx, api.StoreOrdersQuery, map[string]any{"storeId": storeID})
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.StoreOrdersPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.StoreOrders, nil
}

// StoreCustomers lists a store's customers, replacing the cached list.
func (c *Client) StoreCustomers(ctx context.Context, storeID string) ([]domain.Customer, error) {
	data, err := c.query(ctx, api.StoreCustomersQuery, map[string]any{"storeId": storeID})
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.StoreCustomersPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.StoreCustomers, nil
}

// upsertByID upserts the mutation's returned fields onto the identified
// entity, leaving fields the selection omitted untouched.
func upsertByID(typename, field string) func(cache.Writer, json.RawMessage) error {
	return func(w cache.Writer, data json.RawMessage) error {
		var roots map[string]map[string]any
		if err := json.Unmarshal(data, &roots); err != nil {
			return err
		}
		fields, ok := roots[field]
		if !ok {
			return fmt.Errorf("response missing %s", field)
		}
		id, _ := fields["_id"].(string)
		if id == "" {
			id, _ = fields["id"].(string)
		}
		if id == "" {
			return fmt.Errorf("%s response missing entity id", field)
		}
		w.WriteEntity(typename, id, fields)
		return nil
	}
}

// UpdateOrderStatus advances an order's lifecycle state. The merge upserts
// only the returned fields, so cached line items survive.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	data, err := c.mutate(ctx, api.UpdateOrderStatusMutation, map[string]any{
		"orderId": orderID,
		"status":  status,
	}, upsertByID("Order", "updateOrderStatus"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateOrderStatusPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateOrderStatus, nil
}

// UpdateCustomerStatus changes a customer's console classification.
func (c *Client) UpdateCustomerStatus(ctx context.Context, customerID string, status domain.CustomerStatus) (*domain.Customer, error) {
	data, err := c.mutate(ctx, api.UpdateCustomerStatusMutation, map[string]any{
		"customerId": customerID,
		"status":     status,
	}, upsertByID("Customer", "updateCustomerStatus"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateCustomerStatusPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateCustomerStatus, nil
}

// UpdateCustomerNotes replaces a customer's console notes.
func (c *Client) UpdateCustomerNotes(ctx context.Context, customerID, notes string) (*domain.Customer, error) {
	data, err := c.mutate(ctx, api.UpdateCustomerNotesMutation, map[string]any{
		"customerId": customerID,
		"notes":      notes,
	}, upsertByID("Customer", "updateCustomerNotes"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateCustomerNotesPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateCustomerNotes, nil
}

// Watch is a live view over a store's order book. Close tears down the
// realtime channel, the reconciliation loop and the cache watcher.
type Watch struct {
	channel *realtime.Channel
	cancel  context.CancelFunc
	unwatch func()
}

// State reports the realtime channel state.
func (w *Watch) State() realtime.State {
	return w.channel.State()
}

// Channel exposes the underlying realtime channel for status reporting.
func (w *Watch) Channel() *realtime.Channel {
	return w.channel
}

// Close stops the watch. Safe to call more than once.
func (w *Watch) Close() {
	w.unwatch()
	w.cancel()
	w.channel.Close()
}

// WatchStoreOrders opens a live view over the store's orders: it registers
// the cache watcher, fetches the current list, connects the realtime
// channel and reconciles push events into the cache. onChange fires with
// the full denormalized list after the initial fetch and on every
// subsequent change. Realtime loss degrades the watch to the last fetched
// state; it never fails it.
func (c *Client) WatchStoreOrders(ctx context.Context, storeID string, onChange func([]domain.Order)) (*Watch, error) {
	// The watcher goes in before the query so the initial result and any
	// event racing it are both observed.
	unwatch := c.cache.Watch("storeOrders", func(v any) {
		orders, err := ordersFromCache(v)
		if err != nil {
			c.logger.Warn("failed to project cached orders",
				slog.String("error", err.Error()))
			return
		}
		onChange(orders)
	})

	if _, err := c.StoreOrders(ctx, storeID); err != nil {
		unwatch()
		return nil, fmt.Errorf("failed to fetch store orders: %w", err)
	}

	header := http.Header{}
	if cred, ok, _ := c.store.Get(); ok && cred.AccessToken != "" {
		header.Set("Authorization", "Bearer "+cred.AccessToken)
	}

	ch := realtime.Dial(c.cfg.WSURL+"/store/"+storeID,
		realtime.WithDialer(c.dialer),
		realtime.WithHeader(header),
		realtime.WithLogger(c.logger),
		realtime.WithReconnectInterval(c.cfg.Realtime.ReconnectInterval()),
		realtime.WithMaxReconnectAttempts(c.cfg.Realtime.MaxReconnectAttempts),
		realtime.OnUnavailable(func() {
			c.logger.Warn("realtime updates unavailable, showing last fetched state")
			if c.onUnavailable != nil {
				c.onUnavailable()
			}
		}),
	)

	engine := reconcile.New(c.cache, reconcile.WithLogger(c.logger))
	runCtx, cancel := context.WithCancel(context.Background())
	go engine.Run(runCtx, ch.Events())

	return &Watch{channel: ch, cancel: cancel, unwatch: unwatch}, nil
}

// ordersFromCache converts a denormalized storeOrders value into typed
// orders via a JSON round trip.
func ordersFromCache(v any) ([]domain.Order, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
