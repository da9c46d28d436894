package domain

// Cart is the single active cart for the authenticated user.
type Cart struct {
	ID          string     `json:"id"`
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"totalItems"`
	TotalAmount float64    `json:"totalAmount"`
}

type CartItem struct {
	ID       string   `json:"id"`
	Quantity int      `json:"quantity"`
	Product  *Product `json:"product,omitempty"`
}

// Wishlist holds the products a user has saved for later.
type Wishlist struct {
	ID       string    `json:"id"`
	Products []Product `json:"products"`
}
