package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(id, number, status string) map[string]any {
	return map[string]any{
		"__typename":  "Order",
		"_id":         id,
		"orderNumber": number,
		"status":      status,
	}
}

func TestWriteQuery_NormalizesEntities(t *testing.T) {
	c := New()
	c.WriteQuery("storeOrders", []any{
		order("o1", "ORD-1001", "PENDING"),
		order("o2", "ORD-1002", "PROCESSING"),
	})

	require.Equal(t, 2, c.Len())

	got, ok := c.Entity("Order", "o1")
	require.True(t, ok)
	assert.Equal(t, "ORD-1001", got["orderNumber"])

	list, ok := c.ReadQuery("storeOrders")
	require.True(t, ok)
	items := list.([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "o1", first["_id"])
}

func TestWriteQuery_ReplacePolicyDropsStaleRows(t *testing.T) {
	c := New()
	c.SetRootPolicy("storeOrders", Replace)

	c.WriteQuery("storeOrders", []any{
		order("o1", "ORD-1001", "PENDING"),
		order("o2", "ORD-1002", "PENDING"),
		order("o3", "ORD-1003", "PENDING"),
	})

	// A shorter refetch must leave exactly the new rows, never leftovers.
	c.WriteQuery("storeOrders", []any{
		order("o2", "ORD-1002", "SHIPPED"),
	})

	list, ok := c.ReadQuery("storeOrders")
	require.True(t, ok)
	items := list.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "o2", items[0].(map[string]any)["_id"])
}

func TestWriteEntity_UpsertsOnlyGivenFields(t *testing.T) {
	c := New()
	c.WriteQuery("order", map[string]any{
		"__typename":  "Order",
		"_id":         "o1",
		"orderNumber": "ORD-1001",
		"status":      "PENDING",
		"items": []any{
			map[string]any{"productId": "p1", "quantity": float64(2)},
		},
	})

	c.WriteEntity("Order", "o1", map[string]any{"status": "SHIPPED"})

	got, ok := c.Entity("Order", "o1")
	require.True(t, ok)
	assert.Equal(t, "SHIPPED", got["status"])
	assert.Equal(t, "ORD-1001", got["orderNumber"])
	require.Len(t, got["items"], 1)
}

func TestWriteEntity_UnknownIdentityInsertsFresh(t *testing.T) {
	c := New()
	c.WriteEntity("Order", "o9", map[string]any{
		"_id":    "o9",
		"status": "PENDING",
	})

	got, ok := c.Entity("Order", "o9")
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestDefaultPolicy_DeepMergesEmbeddedObjects(t *testing.T) {
	c := New()
	c.WriteQuery("me", map[string]any{
		"__typename": "User",
		"id":         "u1",
		"email":      "a@example.com",
		"profile":    map[string]any{"theme": "dark", "locale": "en"},
	})
	c.WriteQuery("me", map[string]any{
		"__typename": "User",
		"id":         "u1",
		"profile":    map[string]any{"locale": "de"},
	})

	got, ok := c.Entity("User", "u1")
	require.True(t, ok)
	assert.Equal(t, "a@example.com", got["email"])
	profile := got["profile"].(map[string]any)
	assert.Equal(t, "dark", profile["theme"])
	assert.Equal(t, "de", profile["locale"])
}

func TestWatch_ReinvokedOnRelevantEntityChange(t *testing.T) {
	c := New()
	c.SetRootPolicy("storeOrders", Replace)
	c.WriteQuery("storeOrders", []any{order("o1", "ORD-1001", "PENDING")})

	var seen []string
	cancel := c.Watch("storeOrders", func(data any) {
		items := data.([]any)
		seen = append(seen, items[0].(map[string]any)["status"].(string))
	})

	c.WriteEntity("Order", "o1", map[string]any{"status": "SHIPPED"})
	require.Equal(t, []string{"SHIPPED"}, seen)

	// An unrelated entity must not re-invoke the watcher.
	c.WriteEntity("Order", "o2", map[string]any{"status": "PENDING"})
	assert.Len(t, seen, 1)

	cancel()
	c.WriteEntity("Order", "o1", map[string]any{"status": "DELIVERED"})
	assert.Len(t, seen, 1)
}

func TestWatch_NoopWriteDoesNotNotify(t *testing.T) {
	c := New()
	c.WriteQuery("storeOrders", []any{order("o1", "ORD-1001", "PENDING")})

	calls := 0
	defer c.Watch("storeOrders", func(any) { calls++ })()

	c.WriteEntity("Order", "o1", map[string]any{"status": "PENDING"})
	assert.Zero(t, calls)
}

func TestPrependRoot(t *testing.T) {
	c := New()
	c.SetRootPolicy("storeOrders", Replace)
	c.WriteQuery("storeOrders", []any{order("o1", "ORD-1001", "PENDING")})

	c.WriteEntity("Order", "o2", map[string]any{"_id": "o2", "orderNumber": "ORD-1002"})
	c.PrependRoot("storeOrders", Ref{Typename: "Order", ID: "o2"})

	list, ok := c.ReadQuery("storeOrders")
	require.True(t, ok)
	items := list.([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "o2", items[0].(map[string]any)["_id"])

	// Prepending the same ref again must be a no-op.
	c.PrependRoot("storeOrders", Ref{Typename: "Order", ID: "o2"})
	list, _ = c.ReadQuery("storeOrders")
	assert.Len(t, list.([]any), 2)

	// Absent roots are never materialized by a prepend.
	c.PrependRoot("orders", Ref{Typename: "Order", ID: "o2"})
	_, ok = c.ReadQuery("orders")
	assert.False(t, ok)
}

func TestBatch_CommitAppliesAtomically(t *testing.T) {
	c := New()
	c.WriteQuery("cart", map[string]any{
		"__typename": "Cart", "id": "c1", "totalItems": float64(1),
	})

	calls := 0
	defer c.Watch("cart", func(any) { calls++ })()

	b := c.Batch()
	b.WriteEntity("Cart", "c1", map[string]any{"totalItems": float64(3)})
	b.WriteEntity("Cart", "c1", map[string]any{"totalAmount": float64(42.5)})
	b.Commit()

	// Two staged writes, one notification.
	assert.Equal(t, 1, calls)

	got, ok := c.Entity("Cart", "c1")
	require.True(t, ok)
	assert.Equal(t, float64(3), got["totalItems"])
	assert.Equal(t, float64(42.5), got["totalAmount"])
}

func TestBatch_DiscardLeavesStateUntouched(t *testing.T) {
	c := New()
	c.WriteQuery("cart", map[string]any{
		"__typename": "Cart", "id": "c1", "totalItems": float64(1),
	})

	b := c.Batch()
	b.WriteEntity("Cart", "c1", map[string]any{"totalItems": float64(99)})
	b.Discard()
	b.Commit()

	got, _ := c.Entity("Cart", "c1")
	assert.Equal(t, float64(1), got["totalItems"])
}

func TestReadQuery_MissOnUncachedRoot(t *testing.T) {
	c := New()
	_, ok := c.ReadQuery("storeOrders")
	assert.False(t, ok)
}
