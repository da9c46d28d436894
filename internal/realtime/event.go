package realtime

import (
	"encoding/json"
	"fmt"
)

// EventType tags the push events the storefront backend emits on the
// order channel.
type EventType string

const (
	EventNewOrder            EventType = "NEW_ORDER"
	EventOrderStatusUpdated  EventType = "ORDER_STATUS_UPDATED"
	EventOrderPaymentUpdated EventType = "ORDER_PAYMENT_UPDATED"
)

var knownEvents = map[EventType]struct{}{
	EventNewOrder:            {},
	EventOrderStatusUpdated:  {},
	EventOrderPaymentUpdated: {},
}

// Event is a validated push event. Each event instance carries the full
// current field values of the order, not a delta, which is what makes
// applying it idempotent downstream.
type Event struct {
	Type  EventType
	Order map[string]any
}

// OrderID returns the identity of the order the event concerns.
func (e Event) OrderID() string {
	id, _ := e.Order["_id"].(string)
	return id
}

type envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ParseEvent validates an inbound frame at the channel boundary. Frames
// with an unknown type tag or a payload that is not an order object are
// rejected; the channel logs and drops them.
func ParseEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	if _, ok := knownEvents[env.Type]; !ok {
		return Event{}, fmt.Errorf("unknown event type %q", env.Type)
	}

	var order map[string]any
	if err := json.Unmarshal(env.Payload, &order); err != nil {
		return Event{}, fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
	}
	if id, _ := order["_id"].(string); id == "" {
		return Event{}, fmt.Errorf("%s payload missing order id", env.Type)
	}

	return Event{Type: env.Type, Order: order}, nil
}
