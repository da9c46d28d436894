// Package api is the operation catalog: the GraphQL documents the client
// sends and the typed payloads their responses decode into. Every selection
// carries __typename so normalization can detect entity identity.
package api

import "github.com/shopstream/storefront-sync/internal/domain"

const productFields = `
    __typename
    id
    name
    description
    price
    imageUrl
    category
    inStock
    attributes {
      name
      value
    }
    variants {
      id
      name
      price
    }
`

const cartFields = `
    __typename
    id
    totalItems
    totalAmount
    items {
      id
      quantity
      product {
        __typename
        id
        name
        price
        imageUrl
        inStock
      }
    }
`

const orderFields = `
    __typename
    _id
    orderNumber
    status
    paymentStatus
    subtotal
    tax
    total
    createdAt
    items {
      productId
      productName
      quantity
      price
      variantId
      variantName
      imageUrl
    }
`

// ProductsQuery lists the catalog, optionally filtered by category or a
// search term.
const ProductsQuery = `
  query Products($filter: ProductFilterInput) {
    products(filter: $filter) {` + productFields + `}
  }
`

// ProductQuery fetches a single product with its reviews.
const ProductQuery = `
  query Product($id: ID!) {
    product(id: $id) {` + productFields + `
      reviews {
        __typename
        id
        rating
        comment
        createdAt
        user {
          __typename
          id
          firstName
          lastName
        }
      }
    }
  }
`

// CartQuery fetches the authenticated user's active cart.
const CartQuery = `
  query Cart {
    cart {` + cartFields + `}
  }
`

// OrdersQuery lists the authenticated user's own orders.
const OrdersQuery = `
  query Orders {
    orders {` + orderFields + `}
  }
`

// OrderQuery fetches one order by id.
const OrderQuery = `
  query Order($id: ID!) {
    order(id: $id) {` + orderFields + `}
  }
`

// MeQuery fetches the authenticated profile.
const MeQuery = `
  query Me {
    me {
      __typename
      id
      email
      firstName
      lastName
      role
    }
  }
`

const addressFields = `
    __typename
    _id
    street
    city
    state
    zipCode
    apartment
    userId
    isDefault
    label
`

// AddressesQuery lists the user's saved addresses, optionally filtered.
const AddressesQuery = `
  query Addresses($filter: AddressFilterInput) {
    addresses(filter: $filter) {` + addressFields + `}
  }
`

// AddressQuery fetches one saved address.
const AddressQuery = `
  query Address($id: ID!) {
    address(id: $id) {` + addressFields + `}
  }
`

// WishlistQuery fetches the saved-for-later products.
const WishlistQuery = `
  query Wishlist {
    wishlist {
      __typename
      id
      products {` + productFields + `}
    }
  }
`

// StoreOrdersQuery lists a store's order book, newest first. Its cache
// root uses the replace policy.
const StoreOrdersQuery = `
  query StoreOrders($storeId: ID!) {
    storeOrders(storeId: $storeId) {` + orderFields + `}
  }
`

const storeProductFields = `
    __typename
    _id
    storeId
    name
    description
    price
    salePrice
    stock
    images
    category
    variants {
      name
      options
    }
    attributes {
      name
      value
    }
    status
    createdAt
    updatedAt
`

// StoreProductsQuery lists a store's product inventory. Its cache root
// uses the replace policy; the filter is required and must name the store.
const StoreProductsQuery = `
  query StoreProducts($filter: ProductFilterInput!) {
    storeProducts(filter: $filter) {` + storeProductFields + `}
  }
`

// StoreCustomersQuery lists a store's customers. Its cache root uses the
// replace policy.
const StoreCustomersQuery = `
  query StoreCustomers($storeId: ID!) {
    storeCustomers(storeId: $storeId) {
      __typename
      _id
      firstName
      lastName
      email
      phoneNumber
      totalOrders
      totalSpent
      lastOrderDate
      status
      tags
      notes
      createdAt
    }
  }
`

// Response payload envelopes, one per query root field.

type ProductsPayload struct {
	Products []domain.Product `json:"products"`
}

type ProductPayload struct {
	Product *domain.Product `json:"product"`
}

type CartPayload struct {
	Cart *domain.Cart `json:"cart"`
}

type OrdersPayload struct {
	Orders []domain.Order `json:"orders"`
}

type OrderPayload struct {
	Order *domain.Order `json:"order"`
}

type MePayload struct {
	Me *domain.User `json:"me"`
}

type AddressesPayload struct {
	Addresses []domain.Address `json:"addresses"`
}

type AddressPayload struct {
	Address *domain.Address `json:"address"`
}

type StoreProductsPayload struct {
	StoreProducts []domain.StoreProduct `json:"storeProducts"`
}

type WishlistPayload struct {
	Wishlist *domain.Wishlist `json:"wishlist"`
}

type StoreOrdersPayload struct {
	StoreOrders []domain.Order `json:"storeOrders"`
}

type StoreCustomersPayload struct {
	StoreCustomers []domain.Customer `json:"storeCustomers"`
}
