package api

import "github.com/shopstream/storefront-sync/internal/domain"

// LoginMutation exchanges credentials for a token pair and the profile.
const LoginMutation = `
  mutation Login($email: String!, $password: String!) {
    login(email: $email, password: $password) {
      token
      refreshToken
      user {
        __typename
        id
        email
        firstName
        lastName
        role
      }
    }
  }
`

// RegisterMutation creates an account and signs it in.
const RegisterMutation = `
  mutation Register($input: RegisterInput!) {
    register(input: $input) {
      token
      refreshToken
      user {
        __typename
        id
        email
        firstName
        lastName
      }
    }
  }
`

// LogoutMutation invalidates the server-side session.
const LogoutMutation = `
  mutation Logout {
    logout
  }
`

const AddToCartMutation = `
  mutation AddToCart($productId: ID!, $quantity: Int!, $variantId: ID) {
    addToCart(productId: $productId, quantity: $quantity, variantId: $variantId) {` + cartFields + `}
  }
`

const UpdateCartItemMutation = `
  mutation UpdateCartItem($itemId: ID!, $quantity: Int!) {
    updateCartItem(itemId: $itemId, quantity: $quantity) {` + cartFields + `}
  }
`

const RemoveFromCartMutation = `
  mutation RemoveFromCart($itemId: ID!) {
    removeFromCart(itemId: $itemId) {` + cartFields + `}
  }
`

// CheckoutMutation converts the cart into an order.
const CheckoutMutation = `
  mutation Checkout($addressId: ID!, $paymentMethod: String!) {
    checkout(addressId: $addressId, paymentMethod: $paymentMethod) {` + orderFields + `}
  }
`

const AddToWishlistMutation = `
  mutation AddToWishlist($productId: ID!) {
    addToWishlist(productId: $productId) {
      __typename
      id
      products {` + productFields + `}
    }
  }
`

const RemoveFromWishlistMutation = `
  mutation RemoveFromWishlist($productId: ID!) {
    removeFromWishlist(productId: $productId) {
      __typename
      id
      products {` + productFields + `}
    }
  }
`

const CreateAddressMutation = `
  mutation CreateAddress($input: CreateAddressInput!) {
    createAddress(input: $input) {` + addressFields + `}
  }
`

const UpdateAddressMutation = `
  mutation UpdateAddress($id: ID!, $input: UpdateAddressInput!) {
    updateAddress(id: $id, input: $input) {` + addressFields + `}
  }
`

// DeleteAddressMutation returns a bare acknowledgement; the cache is left
// alone and the next addresses fetch drops the row.
const DeleteAddressMutation = `
  mutation DeleteAddress($id: ID!) {
    deleteAddress(id: $id) {
      _id
      success
    }
  }
`

// SetDefaultAddressMutation flips the default flag. Only the returned
// address is updated in the cache; the previously default one stays stale
// until refetched, which is how the backend reports it too.
const SetDefaultAddressMutation = `
  mutation SetDefaultAddress($id: ID!) {
    setDefaultAddress(id: $id) {
      __typename
      _id
      isDefault
    }
  }
`

const CreateProductMutation = `
  mutation CreateProduct($input: CreateProductInput!) {
    createProduct(input: $input) {` + storeProductFields + `}
  }
`

const UpdateProductMutation = `
  mutation UpdateProduct($id: ID!, $input: UpdateProductInput!) {
    updateProduct(id: $id, input: $input) {
      __typename
      _id
      name
      description
      price
      salePrice
      stock
      status
    }
  }
`

const DeleteProductMutation = `
  mutation DeleteProduct($id: ID!) {
    deleteProduct(id: $id) {
      _id
      success
    }
  }
`

const UpdateProductStatusMutation = `
  mutation UpdateProductStatus($id: ID!, $status: ProductStatus!) {
    updateProductStatus(id: $id, status: $status) {
      __typename
      _id
      status
    }
  }
`

const AddReviewMutation = `
  mutation AddReview($productId: ID!, $rating: Int!, $comment: String) {
    addReview(productId: $productId, rating: $rating, comment: $comment) {
      __typename
      id
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

const UpdateReviewMutation = `
  mutation UpdateReview($id: ID!, $input: UpdateReviewInput!) {
    updateReview(id: $id, input: $input) {
      __typename
      id
      rating
      comment
    }
  }
`

const DeleteReviewMutation = `
  mutation DeleteReview($id: ID!) {
    deleteReview(id: $id) {
      _id
      success
    }
  }
`

const ClearWishlistMutation = `
  mutation ClearWishlist {
    clearWishlist {
      __typename
      id
      products {` + productFields + `}
    }
  }
`

// UpdateOrderStatusMutation advances an order through its lifecycle. The
// selection deliberately omits items: the merge upserts only the returned
// fields, so the cached line items survive.
const UpdateOrderStatusMutation = `
  mutation UpdateOrderStatus($orderId: ID!, $status: OrderStatus!) {
    updateOrderStatus(orderId: $orderId, status: $status) {
      __typename
      _id
      orderNumber
      status
      paymentStatus
      total
      updatedAt
    }
  }
`

const UpdateCustomerStatusMutation = `
  mutation UpdateCustomerStatus($customerId: ID!, $status: CustomerStatus!) {
    updateCustomerStatus(customerId: $customerId, status: $status) {
      __typename
      _id
      status
    }
  }
`

const UpdateCustomerNotesMutation = `
  mutation UpdateCustomerNotes($customerId: ID!, $notes: String!) {
    updateCustomerNotes(customerId: $customerId, notes: $notes) {
      __typename
      _id
      notes
    }
  }
`

// AuthResult is the login/register payload: the token pair plus the
// signed-in profile.
type AuthResult struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	User         domain.User `json:"user"`
}

type LoginPayload struct {
	Login AuthResult `json:"login"`
}

type RegisterPayload struct {
	Register AuthResult `json:"register"`
}

type LogoutPayload struct {
	Logout bool `json:"logout"`
}

type AddToCartPayload struct {
	AddToCart domain.Cart `json:"addToCart"`
}

type UpdateCartItemPayload struct {
	UpdateCartItem domain.Cart `json:"updateCartItem"`
}

type RemoveFromCartPayload struct {
	RemoveFromCart domain.Cart `json:"removeFromCart"`
}

type CheckoutPayload struct {
	Checkout domain.Order `json:"checkout"`
}

type AddToWishlistPayload struct {
	AddToWishlist domain.Wishlist `json:"addToWishlist"`
}

type RemoveFromWishlistPayload struct {
	RemoveFromWishlist domain.Wishlist `json:"removeFromWishlist"`
}

type AddReviewPayload struct {
	AddReview domain.Product `json:"addReview"`
}

// DeleteResult is the acknowledgement shape of every delete mutation.
type DeleteResult struct {
	ID      string `json:"_id"`
	Success bool   `json:"success"`
}

// ReviewInput carries the editable review fields.
type ReviewInput struct {
	Rating  *int   `json:"rating,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type CreateAddressPayload struct {
	CreateAddress domain.Address `json:"createAddress"`
}

type UpdateAddressPayload struct {
	UpdateAddress domain.Address `json:"updateAddress"`
}

type DeleteAddressPayload struct {
	DeleteAddress DeleteResult `json:"deleteAddress"`
}

type SetDefaultAddressPayload struct {
	SetDefaultAddress domain.Address `json:"setDefaultAddress"`
}

type CreateProductPayload struct {
	CreateProduct domain.StoreProduct `json:"createProduct"`
}

type UpdateProductPayload struct {
	UpdateProduct domain.StoreProduct `json:"updateProduct"`
}

type DeleteProductPayload struct {
	DeleteProduct DeleteResult `json:"deleteProduct"`
}

type UpdateProductStatusPayload struct {
	UpdateProductStatus domain.StoreProduct `json:"updateProductStatus"`
}

type UpdateReviewPayload struct {
	UpdateReview domain.Review `json:"updateReview"`
}

type DeleteReviewPayload struct {
	DeleteReview DeleteResult `json:"deleteReview"`
}

type ClearWishlistPayload struct {
	ClearWishlist domain.Wishlist `json:"clearWishlist"`
}

type UpdateOrderStatusPayload struct {
	UpdateOrderStatus domain.Order `json:"updateOrderStatus"`
}

type UpdateCustomerStatusPayload struct {
	UpdateCustomerStatus domain.Customer `json:"updateCustomerStatus"`
}

type UpdateCustomerNotesPayload struct {
	UpdateCustomerNotes domain.Customer `json:"updateCustomerNotes"`
}
