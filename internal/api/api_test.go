package api

import (
	"testing"

	"github.com/shopstream/storefront-sync/internal/graphql"
)

func TestDocumentsParse(t *testing.T) {
	tests := []struct {
		doc  string
		name string
		kind graphql.OperationKind
	}{
		{ProductsQuery, "Products", graphql.KindQuery},
		{ProductQuery, "Product", graphql.KindQuery},
		{CartQuery, "Cart", graphql.KindQuery},
		{OrdersQuery, "Orders", graphql.KindQuery},
		{OrderQuery, "Order", graphql.KindQuery},
		{MeQuery, "Me", graphql.KindQuery},
		{WishlistQuery, "Wishlist", graphql.KindQuery},
		{AddressesQuery, "Addresses", graphql.KindQuery},
		{AddressQuery, "Address", graphql.KindQuery},
		{StoreOrdersQuery, "StoreOrders", graphql.KindQuery},
		{StoreProductsQuery, "StoreProducts", graphql.KindQuery},
		{StoreCustomersQuery, "StoreCustomers", graphql.KindQuery},
		{LoginMutation, "Login", graphql.KindMutation},
		{RegisterMutation, "Register", graphql.KindMutation},
		{LogoutMutation, "Logout", graphql.KindMutation},
		{AddToCartMutation, "AddToCart", graphql.KindMutation},
		{UpdateCartItemMutation, "UpdateCartItem", graphql.KindMutation},
		{RemoveFromCartMutation, "RemoveFromCart", graphql.KindMutation},
		{CheckoutMutation, "Checkout", graphql.KindMutation},
		{AddToWishlistMutation, "AddToWishlist", graphql.KindMutation},
		{RemoveFromWishlistMutation, "RemoveFromWishlist", graphql.KindMutation},
		{ClearWishlistMutation, "ClearWishlist", graphql.KindMutation},
		{CreateAddressMutation, "CreateAddress", graphql.KindMutation},
		{UpdateAddressMutation, "UpdateAddress", graphql.KindMutation},
		{DeleteAddressMutation, "DeleteAddress", graphql.KindMutation},
		{SetDefaultAddressMutation, "SetDefaultAddress", graphql.KindMutation},
		{CreateProductMutation, "CreateProduct", graphql.KindMutation},
		{UpdateProductMutation, "UpdateProduct", graphql.KindMutation},
		{DeleteProductMutation, "DeleteProduct", graphql.KindMutation},
		{UpdateProductStatusMutation, "UpdateProductStatus", graphql.KindMutation},
		{AddReviewMutation, "AddReview", graphql.KindMutation},
		{UpdateReviewMutation, "UpdateReview", graphql.KindMutation},
		{DeleteReviewMutation, "DeleteReview", graphql.KindMutation},
		{UpdateOrderStatusMutation, "UpdateOrderStatus", graphql.KindMutation},
		{UpdateCustomerStatusMutation, "UpdateCustomerStatus", graphql.KindMutation},
		{UpdateCustomerNotesMutation, "UpdateCustomerNotes", graphql.KindMutation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := graphql.NewOperation(tt.doc, nil)
			if err != nil {
				t.Fatalf("document does not parse: %v", err)
			}
			if op.Name != tt.name {
				t.Errorf("derived name = %q, want %q", op.Name, tt.name)
			}
			if op.Kind != tt.kind {
				t.Errorf("derived kind = %v, want %v", op.Kind, tt.kind)
			}
		})
	}
}
