package domain

import "time"

// Product is a catalog entry as returned by the products and product queries.
type Product struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Price       float64            `json:"price"`
	ImageURL    string             `json:"imageUrl,omitempty"`
	Category    string             `json:"category,omitempty"`
	InStock     bool               `json:"inStock"`
	Attributes  []ProductAttribute `json:"attributes,omitempty"`
	Variants    []ProductVariant   `json:"variants,omitempty"`
	Reviews     []Review           `json:"reviews,omitempty"`
	CreatedAt   time.Time          `json:"createdAt,omitempty"`
}

type ProductAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ProductVariant struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Review is a customer review attached to a product.
type Review struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ProductFilter narrows a products query.
type ProductFilter struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

// ProductStatus is the store console's listing state for a product.
type ProductStatus string

const (
	ProductActive     ProductStatus = "ACTIVE"
	ProductInactive   ProductStatus = "INACTIVE"
	ProductOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// StoreProduct is the store console's view of a catalog entry: the same
// underlying product, but keyed by "_id" with inventory and listing fields
// the storefront surface never sees.
type StoreProduct struct {
	ID          string                `json:"_id"`
	StoreID     string                `json:"storeId,omitempty"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Price       float64               `json:"price"`
	SalePrice   *float64              `json:"salePrice,omitempty"`
	Stock       int                   `json:"stock"`
	Images      []string              `json:"images,omitempty"`
	Category    []string              `json:"category,omitempty"`
	Variants    []StoreProductVariant `json:"variants,omitempty"`
	Attributes  []ProductAttribute    `json:"attributes,omitempty"`
	Status      ProductStatus         `json:"status"`
	CreatedAt   time.Time             `json:"createdAt,omitempty"`
	UpdatedAt   time.Time             `json:"updatedAt,omitempty"`
}

// StoreProductVariant groups a variant axis with its options, e.g.
// "size" -> ["S", "M", "L"].
type StoreProductVariant struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// StoreProductFilter narrows a store products query. StoreID is required.
type StoreProductFilter struct {
	StoreID  string        `json:"storeId"`
	Status   ProductStatus `json:"status,omitempty"`
	Category []string      `json:"category,omitempty"`
	Search   string        `json:"search,omitempty"`
	MinPrice *float64      `json:"minPrice,omitempty"`
	MaxPrice *float64      `json:"maxPrice,omitempty"`
}

// StoreProductInput carries the writable product fields for create and
// update. On update, zero fields are omitted and the server keeps current
// values.
type StoreProductInput struct {
	StoreID     string                `json:"storeId,omitempty"`
	Name        string                `json:"name,omitempty"`
	Description string                `json:"description,omitempty"`
	Price       *float64              `json:"price,omitempty"`
	SalePrice   *float64              `json:"salePrice,omitempty"`
	Stock       *int                  `json:"stock,omitempty"`
	Images      []string              `json:"images,omitempty"`
	Category    []string              `json:"category,omitempty"`
	Variants    []StoreProductVariant `json:"variants,omitempty"`
	Attributes  []ProductAttribute    `json:"attributes,omitempty"`
}
