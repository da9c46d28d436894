package domain

import "time"

// OrderStatus is the server-defined order lifecycle state. The client never
// validates transition legality; it displays and caches whatever the server
// reports.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// PaymentStatus is the payment state reported alongside an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	VariantID   string  `json:"variantId,omitempty"`
	VariantName string  `json:"variantName,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// Order is the entity the reconciliation engine and the store console share.
// The wire format uses "_id" as the identity field.
type Order struct {
	ID            string        `json:"_id"`
	OrderNumber   string        `json:"orderNumber"`
	UserID        string        `json:"userId,omitempty"`
	Items         []OrderItem   `json:"items,omitempty"`
	Subtotal      float64       `json:"subtotal,omitempty"`
	Tax           float64       `json:"tax,omitempty"`
	Total         float64       `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
	CreatedAt     time.Time     `json:"createdAt,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt,omitempty"`
}
