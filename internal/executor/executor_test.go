package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopstream/storefront-sync/internal/cache"
	"github.com/shopstream/storefront-sync/internal/graphql"
)

type stubLink struct {
	resp  *graphql.Response
	err   error
	calls int
}

func (s *stubLink) Do(ctx context.Context, op *graphql.Operation) (*graphql.Response, error) {
	s.calls++
	return s.resp, s.err
}

func updateStatusOp(t *testing.T) *graphql.Operation {
	t.Helper()
	op, err := graphql.NewOperation(
		`mutation UpdateOrderStatus($id: ID!, $status: String!) {
			updateOrderStatus(id: $id, status: $status) { _id status }
		}`,
		map[string]any{"id": "o1", "status": "SHIPPED"},
	)
	if err != nil {
		t.Fatalf("NewOperation() error = %v", err)
	}
	return op
}

func seedOrder(c *cache.Cache) {
	c.WriteQuery("order", map[string]any{
		"__typename":  "Order",
		"_id":         "o1",
		"orderNumber": "ORD-1001",
		"status":      "PENDING",
		"items": []any{
			map[string]any{"productId": "p1", "quantity": float64(2)},
		},
	})
}

func TestMutate_AppliesMergeOnSuccess(t *testing.T) {
	c := cache.New()
	seedOrder(c)

	link := &stubLink{resp: &graphql.Response{
		Data: []byte(`{"updateOrderStatus":{"_id":"o1","status":"SHIPPED"}}`),
	}}
	exec := New(link, c, nil)

	merges := 0
	_, err := exec.Mutate(context.Background(), updateStatusOp(t), func(w cache.Writer, data json.RawMessage) error {
		merges++
		var payload struct {
			UpdateOrderStatus map[string]any `json:"updateOrderStatus"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		w.WriteEntity("Order", "o1", payload.UpdateOrderStatus)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if merges != 1 {
		t.Errorf("merge applied %d times, want exactly once", merges)
	}

	// The status changed and the untouched items survived.
	got, ok := c.Entity("Order", "o1")
	if !ok {
		t.Fatal("order missing from cache")
	}
	if got["status"] != "SHIPPED" {
		t.Errorf("status = %v, want SHIPPED", got["status"])
	}
	items, ok := got["items"].([]any)
	if !ok || len(items) != 1 {
		t.Errorf("items = %v, want original single item preserved", got["items"])
	}
}

func TestMutate_GraphQLErrorLeavesCacheUntouched(t *testing.T) {
	c := cache.New()
	seedOrder(c)

	link := &stubLink{resp: &graphql.Response{
		Errors: graphql.ErrorList{{Message: "invalid status", Extensions: graphql.Extensions{Code: graphql.CodeBadUserInput}}},
	}}
	exec := New(link, c, nil)

	merges := 0
	_, err := exec.Mutate(context.Background(), updateStatusOp(t), func(w cache.Writer, data json.RawMessage) error {
		merges++
		return nil
	})
	if err == nil {
		t.Fatal("Mutate() = nil error, want BAD_USER_INPUT surfaced")
	}
	if merges != 0 {
		t.Errorf("merge applied %d times on failure, want 0", merges)
	}

	got, _ := c.Entity("Order", "o1")
	if got["status"] != "PENDING" {
		t.Errorf("status = %v, cache must be untouched on failure", got["status"])
	}
}

func TestMutate_MergeErrorDiscardsStagedWrites(t *testing.T) {
	c := cache.New()
	seedOrder(c)

	link := &stubLink{resp: &graphql.Response{
		Data: []byte(`{"updateOrderStatus":{}}`),
	}}
	exec := New(link, c, nil)

	_, err := exec.Mutate(context.Background(), updateStatusOp(t), func(w cache.Writer, data json.RawMessage) error {
		// Stage a write, then report the response unusable.
		w.WriteEntity("Order", "o1", map[string]any{"status": "SHIPPED"})
		return errors.New("response missing _id")
	})
	if err == nil {
		t.Fatal("Mutate() = nil error, want merge failure surfaced")
	}

	got, _ := c.Entity("Order", "o1")
	if got["status"] != "PENDING" {
		t.Errorf("status = %v, staged write must have been discarded", got["status"])
	}
}

func TestQuery_WritesRootFields(t *testing.T) {
	c := cache.New()
	c.SetRootPolicy("storeOrders", cache.Replace)

	link := &stubLink{resp: &graphql.Response{
		Data: []byte(`{"storeOrders":[{"__typename":"Order","_id":"o1","orderNumber":"ORD-1001","status":"PENDING"}]}`),
	}}
	exec := New(link, c, nil)

	op, err := graphql.NewOperation(`query GetStoreOrders($storeId: ID!) { storeOrders(storeId: $storeId) { _id } }`, map[string]any{"storeId": "s1"})
	if err != nil {
		t.Fatalf("NewOperation() error = %v", err)
	}
	if _, err := exec.Query(context.Background(), op); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	list, ok := c.ReadQuery("storeOrders")
	if !ok {
		t.Fatal("storeOrders root missing after query")
	}
	if len(list.([]any)) != 1 {
		t.Errorf("storeOrders = %v, want 1 row", list)
	}
}

func TestQuery_SharedRootKeepsBothEntities(t *testing.T) {
	c := cache.New()
	exec := New(&stubLink{}, c, nil)

	fetch := func(id, name string) {
		t.Helper()
		exec.link = &stubLink{resp: &graphql.Response{
			Data: []byte(`{"product":{"__typename":"Product","id":"` + id + `","name":"` + name + `"}}`),
		}}
		op, err := graphql.NewOperation(`query GetProduct($id: ID!) { product(id: $id) { id name } }`, map[string]any{"id": id})
		if err != nil {
			t.Fatalf("NewOperation() error = %v", err)
		}
		if _, err := exec.Query(context.Background(), op); err != nil {
			t.Fatalf("Query() error = %v", err)
		}
	}

	fetch("p1", "Desk Lamp")
	fetch("p2", "Side Table")

	// The shared root holds the latest fetch only.
	root, ok := c.ReadQuery("product")
	if !ok {
		t.Fatal("product root missing after queries")
	}
	if got := root.(map[string]any)["id"]; got != "p2" {
		t.Errorf("product root id = %v, want p2 (latest fetch)", got)
	}

	// Both products remain reachable as normalized entities.
	for _, id := range []string{"p1", "p2"} {
		if _, ok := c.Entity("Product", id); !ok {
			t.Errorf("Product %s missing from cache", id)
		}
	}
}
