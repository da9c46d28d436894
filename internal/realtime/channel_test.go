package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr bool
		wantID  string
	}{
		{
			name:   "valid new order",
			frame:  `{"type":"NEW_ORDER","payload":{"_id":"o1","orderNumber":"ORD-2001","status":"PENDING"}}`,
			wantID: "o1",
		},
		{
			name:   "valid payment update",
			frame:  `{"type":"ORDER_PAYMENT_UPDATED","payload":{"_id":"o2","paymentStatus":"PAID"}}`,
			wantID: "o2",
		},
		{name: "not json", frame: `{{{`, wantErr: true},
		{name: "unknown type", frame: `{"type":"CART_UPDATED","payload":{"_id":"o1"}}`, wantErr: true},
		{name: "payload not an object", frame: `{"type":"NEW_ORDER","payload":[1,2]}`, wantErr: true},
		{name: "payload missing id", frame: `{"type":"NEW_ORDER","payload":{"orderNumber":"ORD-1"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.frame))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseEvent() = nil error, want rejection")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEvent() error = %v", err)
			}
			if ev.OrderID() != tt.wantID {
				t.Errorf("OrderID() = %q, want %q", ev.OrderID(), tt.wantID)
			}
		})
	}
}

func TestChannel_DeliversEventsAndDropsMalformedFrames(t *testing.T) {
	frames := []string{
		`not even json`,
		`{"type":"MYSTERY","payload":{"_id":"o0"}}`,
		`{"type":"NEW_ORDER","payload":{"_id":"o1","orderNumber":"ORD-2001","status":"PENDING"}}`,
		`{"type":"ORDER_STATUS_UPDATED","payload":{"_id":"o1","status":"SHIPPED"}}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Keep the connection up until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ch := Dial(wsURL(srv),
		WithReconnectInterval(5*time.Millisecond),
		WithMaxReconnectAttempts(2),
	)
	defer ch.Close()

	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev, ok := <-ch.Events():
			if !ok {
				t.Fatal("events channel closed early")
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, received %d events", len(got))
		}
	}

	if got[0].Type != EventNewOrder || got[0].OrderID() != "o1" {
		t.Errorf("first event = %+v, want NEW_ORDER o1", got[0])
	}
	if got[1].Type != EventOrderStatusUpdated {
		t.Errorf("second event = %+v, want ORDER_STATUS_UPDATED", got[1])
	}
	if ch.LastEventAt().IsZero() {
		t.Error("LastEventAt() is zero after delivery")
	}
}

func TestChannel_GivesUpAfterMaxConsecutiveFailures(t *testing.T) {
	var (
		closes      atomic.Int32
		unavailable atomic.Int32
	)

	// Nothing listens here; every dial fails.
	ch := Dial("ws://127.0.0.1:1/store/s1",
		WithReconnectInterval(2*time.Millisecond),
		WithMaxReconnectAttempts(3),
		OnClose(func() { closes.Add(1) }),
		OnUnavailable(func() { unavailable.Add(1) }),
	)
	defer ch.Close()

	select {
	case _, ok := <-ch.Events():
		if ok {
			t.Fatal("unexpected event from dead endpoint")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel never terminated")
	}

	if got := ch.State(); got != StateGivenUp {
		t.Errorf("State() = %v, want given_up", got)
	}
	if got := closes.Load(); got != 3 {
		t.Errorf("onClose fired %d times, want 3", got)
	}
	if got := unavailable.Load(); got != 1 {
		t.Errorf("unavailable signaled %d times, want exactly 1", got)
	}

	// A send after giving up is a warn-and-drop no-op.
	ch.Send(map[string]string{"type": "PING"})
}

func TestChannel_ReopensAfterServerDrop(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := conns.Add(1)
		if n == 1 {
			// Drop the first connection immediately.
			conn.Close()
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"NEW_ORDER","payload":{"_id":"o9","orderNumber":"ORD-2009"}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	var opens atomic.Int32
	ch := Dial(wsURL(srv),
		WithReconnectInterval(5*time.Millisecond),
		WithMaxReconnectAttempts(5),
		OnOpen(func() { opens.Add(1) }),
	)
	defer ch.Close()

	select {
	case ev := <-ch.Events():
		if ev.OrderID() != "o9" {
			t.Errorf("event order = %q, want o9", ev.OrderID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event after reconnect")
	}

	if got := opens.Load(); got < 2 {
		t.Errorf("onOpen fired %d times, want at least 2 (initial + reconnect)", got)
	}
}

func TestChannel_CloseStopsPendingReconnect(t *testing.T) {
	ch := Dial("ws://127.0.0.1:1/store/s1",
		WithReconnectInterval(time.Minute),
		WithMaxReconnectAttempts(5),
	)

	// Let the first dial fail and the reconnect timer arm.
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	ch.Close()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Close() took %v, reconnect timer leaked", elapsed)
	}
	if got := ch.State(); got != StateClosed {
		t.Errorf("State() after Close = %v, want closed", got)
	}
}
