package domain

import "time"

// User is the authenticated account profile.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Address is a saved shipping address. It is its own entity on the wire,
// keyed by "_id", not a field of the user profile.
type Address struct {
	ID        string `json:"_id"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Apartment string `json:"apartment,omitempty"`
	UserID    string `json:"userId,omitempty"`
	IsDefault bool   `json:"isDefault"`
	Label     string `json:"label,omitempty"`
}

// AddressFilter narrows an addresses query.
type AddressFilter struct {
	IsDefault *bool  `json:"isDefault,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// AddressInput carries the writable address fields for create and update.
// On update, zero fields are omitted and the server keeps current values.
type AddressInput struct {
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	IsDefault *bool  `json:"isDefault,omitempty"`
	Label     string `json:"label,omitempty"`
}

// CustomerStatus is the store-console classification of a customer.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "ACTIVE"
	CustomerInactive CustomerStatus = "INACTIVE"
	CustomerBlocked  CustomerStatus = "BLOCKED"
)

// Customer is a store-console view of a buyer, keyed by "_id" on the wire.
type Customer struct {
	ID            string         `json:"_id"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email"`
	PhoneNumber   string         `json:"phoneNumber,omitempty"`
	TotalOrders   int            `json:"totalOrders"`
	TotalSpent    float64        `json:"totalSpent"`
	LastOrderDate string         `json:"lastOrderDate,omitempty"`
	Status        CustomerStatus `json:"status"`
	Tags          []string       `json:"tags,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"createdAt,omitempty"`
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}
