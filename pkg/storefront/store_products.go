package storefront

import (
	"context"

	"github.com/shopstream/storefront-sync/internal/api"
	"github.com/shopstream/storefront-sync/internal/domain"
)

// StoreProducts lists a store's product inventory, replacing the cached
// list. The filter must name the store.
func (c *Client) StoreProducts(ctx context.Context, filter domain.StoreProductFilter) ([]domain.StoreProduct, error) {
	data, err := c.query(ctx, api.StoreProductsQuery, map[string]any{"filter": filter})
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.StoreProductsPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.StoreProducts, nil
}

// CreateProduct adds a product to the store's inventory and caches the
// returned entity. The listing it belongs to is refreshed on the next
// StoreProducts fetch.
func (c *Client) CreateProduct(ctx context.Context, input domain.StoreProductInput) (*domain.StoreProduct, error) {
	data, err := c.mutate(ctx, api.CreateProductMutation, map[string]any{
		"input": input,
	}, upsertByID("Product", "createProduct"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.CreateProductPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.CreateProduct, nil
}

// UpdateProduct edits a product; the returned fields upsert onto the
// cached entity, leaving fields the selection omits untouched.
func (c *Client) UpdateProduct(ctx context.Context, id string, input domain.StoreProductInput) (*domain.StoreProduct, error) {
	data, err := c.mutate(ctx, api.UpdateProductMutation, map[string]any{
		"id":    id,
		"input": input,
	}, upsertByID("Product", "updateProduct"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateProductPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateProduct, nil
}

// DeleteProduct removes a product from the inventory. The cache is not
// rewritten; the next StoreProducts fetch replaces the list.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	data, err := c.mutate(ctx, api.DeleteProductMutation, map[string]any{"id": id}, nil)
	if err != nil {
		return err
	}
	if _, err := decode[api.DeleteProductPayload](data); err != nil {
		return err
	}
	return nil
}

// UpdateProductStatus changes a product's listing state.
func (c *Client) UpdateProductStatus(ctx context.Context, id string, status domain.ProductStatus) (*domain.StoreProduct, error) {
	data, err := c.mutate(ctx, api.UpdateProductStatusMutation, map[string]any{
		"id":     id,
		"status": status,
	}, upsertByID("Product", "updateProductStatus"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateProductStatusPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateProductStatus, nil
}
