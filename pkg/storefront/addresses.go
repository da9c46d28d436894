package storefront

import (
	"context"

	"github.com/shopstream/storefront-sync/internal/api"
	"github.com/shopstream/storefront-sync/internal/domain"
)

// Addresses lists the user's saved addresses, optionally filtered.
func (c *Client) Addresses(ctx context.Context, filter *domain.AddressFilter) ([]domain.Address, error) {
	vars := map[string]any{}
	if filter != nil {
		vars["filter"] = filter
	}
	data, err := c.query(ctx, api.AddressesQuery, vars)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.AddressesPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Addresses, nil
}

// Address fetches one saved address.
func (c *Client) Address(ctx context.Context, id string) (*domain.Address, error) {
	data, err := c.query(ctx, api.AddressQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.AddressPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Address, nil
}

// CreateAddress saves a new shipping address and caches the returned
// entity.
func (c *Client) CreateAddress(ctx context.Context, input domain.AddressInput) (*domain.Address, error) {
	data, err := c.mutate(ctx, api.CreateAddressMutation, map[string]any{
		"input": input,
	}, upsertByID("Address", "createAddress"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.CreateAddressPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.CreateAddress, nil
}

// UpdateAddress edits a saved address; the returned fields upsert onto the
// cached entity.
func (c *Client) UpdateAddress(ctx context.Context, id string, input domain.AddressInput) (*domain.Address, error) {
	data, err := c.mutate(ctx, api.UpdateAddressMutation, map[string]any{
		"id":    id,
		"input": input,
	}, upsertByID("Address", "updateAddress"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateAddressPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateAddress, nil
}

// DeleteAddress removes a saved address. The cache is not rewritten; the
// next addresses fetch replaces the list without the deleted row.
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	data, err := c.mutate(ctx, api.DeleteAddressMutation, map[string]any{"id": id}, nil)
	if err != nil {
		return err
	}
	if _, err := decode[api.DeleteAddressPayload](data); err != nil {
		return err
	}
	return nil
}

// SetDefaultAddress marks an address as the shipping default. Only the
// returned address is updated; the previously default one stays as-is
// until refetched, matching what the server reports.
func (c *Client) SetDefaultAddress(ctx context.Context, id string) (*domain.Address, error) {
	data, err := c.mutate(ctx, api.SetDefaultAddressMutation, map[string]any{
		"id": id,
	}, upsertByID("Address", "setDefaultAddress"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.SetDefaultAddressPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.SetDefaultAddress, nil
}
