// Package storefront is the public client for the ShopStream GraphQL
// backend. It owns the whole sync stack: the authenticated transport
// chain, the normalized cache, the mutation executor and the realtime
// order channel, assembled once per client and shared by every call.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/shopstream/storefront-sync/internal/api"
	"github.com/shopstream/storefront-sync/internal/cache"
	"github.com/shopstream/storefront-sync/internal/config"
	"github.com/shopstream/storefront-sync/internal/domain"
	"github.com/shopstream/storefront-sync/internal/executor"
	"github.com/shopstream/storefront-sync/internal/graphql"
	"github.com/shopstream/storefront-sync/internal/token"
	"github.com/shopstream/storefront-sync/internal/transport"
)

// Client is the storefront API client. It is safe for concurrent use.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger

	store     token.Store
	refresher *token.Refresher
	httpLink  *transport.HTTPLink
	cache     *cache.Cache
	exec      *executor.Executor
	dialer    *websocket.Dialer

	onLogout      func()
	onUnavailable func()

	ownsStore bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient sets the HTTP client used for GraphQL and refresh
// requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpLink = transport.NewHTTPLink(c.cfg.APIURL, transport.WithClient(hc))
	}
}

// WithTokenStore overrides the credential store. The caller keeps
// ownership; Close will not touch it.
func WithTokenStore(s token.Store) Option {
	return func(c *Client) { c.store = s }
}

// WithDialer sets the websocket dialer used by WatchStoreOrders.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// OnLogout registers a callback fired when a token refresh fails and the
// stored credential is cleared. The UI routes to its login screen here.
func OnLogout(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// OnRealtimeUnavailable registers a callback fired once per watch when
// the realtime channel gives up reconnecting.
func OnRealtimeUnavailable(fn func()) Option {
	return func(c *Client) { c.onUnavailable = fn }
}

// New assembles a client for the given configuration.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		if cfg.Token.StorePath != "" {
			s, err := token.OpenSQLite(cfg.Token.StorePath)
			if err != nil {
				return nil, fmt.Errorf("failed to open credential store: %w", err)
			}
			c.store = s
			c.ownsStore = true
		} else {
			c.store = token.NewMemoryStore()
		}
	}
	if c.httpLink == nil {
		c.httpLink = transport.NewHTTPLink(cfg.APIURL)
	}

	c.refresher = token.NewRefresher(refreshURL(cfg.APIURL), c.store,
		token.WithHTTPClient(c.httpLink.Client()),
		token.WithLogger(c.logger),
	)

	chain := transport.Chain(c.httpLink,
		transport.Retry(transport.RetryConfig{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay(),
			MaxDelay:     cfg.Retry.MaxDelay(),
		}, c.logger),
		transport.RefreshOnAuthError(c.refresher, c.handleLogout, c.logger),
		transport.AuthHeader(c.store, c.refresher, c.logger),
	)

	c.cache = cache.New()
	// Filterable listings are replaced wholesale on each fetch so removed
	// or reordered rows never linger.
	c.cache.SetRootPolicy("storeOrders", cache.Replace)
	c.cache.SetRootPolicy("storeCustomers", cache.Replace)
	c.cache.SetRootPolicy("storeProducts", cache.Replace)
	c.cache.SetRootPolicy("addresses", cache.Replace)

	c.exec = executor.New(chain, c.cache, c.logger)
	return c, nil
}

// Close releases resources owned by the client. Active watches must be
// closed first.
func (c *Client) Close() error {
	if c.ownsStore {
		if s, ok := c.store.(*token.SQLiteStore); ok {
			return s.Close()
		}
	}
	return nil
}

// Cache exposes the normalized cache for status reporting.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

func (c *Client) handleLogout() {
	c.logger.Info("session ended, credential cleared")
	if c.onLogout != nil {
		c.onLogout()
	}
}

// refreshURL derives the token refresh endpoint from the GraphQL URL.
func refreshURL(apiURL string) string {
	return strings.TrimSuffix(apiURL, "/graphql") + "/auth/refresh"
}

func (c *Client) query(ctx context.Context, doc string, vars map[string]any) (json.RawMessage, error) {
	op, err := graphql.NewOperation(doc, vars)
	if err != nil {
		return nil, err
	}
	return c.exec.Query(ctx, op)
}

func (c *Client) mutate(ctx context.Context, doc string, vars map[string]any, merge executor.MergeFunc) (json.RawMessage, error) {
	op, err := graphql.NewOperation(doc, vars)
	if err != nil {
		return nil, err
	}
	return c.exec.Mutate(ctx, op, merge)
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode response payload: %w", err)
	}
	return v, nil
}

// replaceRoot is the merge shape shared by cart and wishlist mutations:
// the server returns the full updated aggregate and it replaces the
// cached root.
func replaceRoot(root, field string) executor.MergeFunc {
	return func(w cache.Writer, data json.RawMessage) error {
		var roots map[string]json.RawMessage
		if err := json.Unmarshal(data, &roots); err != nil {
			return err
		}
		raw, ok := roots[field]
		if !ok {
			return fmt.Errorf("response missing %s", field)
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
		w.WriteQuery(root, value)
		return nil
	}
}

// Login signs in and persists the returned credential.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	data, err := c.mutate(ctx, api.LoginMutation, map[string]any{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.LoginPayload](data)
	if err != nil {
		return nil, err
	}
	if err := c.storeCredential(payload.Login); err != nil {
		return nil, err
	}
	user := payload.Login.User
	return &user, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, error) {
	data, err := c.mutate(ctx, api.RegisterMutation, map[string]any{
		"input": input,
	}, nil)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.RegisterPayload](data)
	if err != nil {
		return nil, err
	}
	if err := c.storeCredential(payload.Register); err != nil {
		return nil, err
	}
	user := payload.Register.User
	return &user, nil
}

// Logout ends the server session and clears the stored credential. The
// credential is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.mutate(ctx, api.LogoutMutation, nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		c.logger.Warn("failed to clear credential store",
			slog.String("error", clearErr.Error()))
	}
	return err
}

func (c *Client) storeCredential(auth api.AuthResult) error {
	cred := token.Credential{
		AccessToken:  auth.Token,
		RefreshToken: auth.RefreshToken,
	}
	if err := c.store.Set(cred); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// Products lists the catalog, optionally filtered.
func (c *Client) Products(ctx context.Context, filter *domain.ProductFilter) ([]domain.Product, error) {
	vars := map[string]any{}
	if filter != nil {
		vars["filter"] = filter
	}
	data, err := c.query(ctx, api.ProductsQuery, vars)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.ProductsPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Products, nil
}

// Product fetches one product with reviews.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.query(ctx, api.ProductQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.ProductPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Product, nil
}

// Cart fetches the active cart.
func (c *Client) Cart(ctx context.Context) (*domain.Cart, error) {
	data, err := c.query(ctx, api.CartQuery, nil)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.CartPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Cart, nil
}

// AddToCart adds a product (optionally a specific variant) to the cart.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int, variantID string) (*domain.Cart, error) {
	vars := map[string]any{"productId": productID, "quantity": quantity}
	if variantID != "" {
		vars["variantId"] = variantID
	}
	data, err := c.mutate(ctx, api.AddToCartMutation, vars, replaceRoot("cart", "addToCart"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.AddToCartPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.AddToCart, nil
}

// UpdateCartItem changes a cart line's quantity.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*domain.Cart, error) {
	data, err := c.mutate(ctx, api.UpdateCartItemMutation, map[string]any{
		"itemId":   itemID,
		"quantity": quantity,
	}, replaceRoot("cart", "updateCartItem"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateCartItemPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateCartItem, nil
}

// RemoveFromCart drops a cart line.
func (c *Client) RemoveFromCart(ctx context.Context, itemID string) (*domain.Cart, error) {
	data, err := c.mutate(ctx, api.RemoveFromCartMutation, map[string]any{
		"itemId": itemID,
	}, replaceRoot("cart", "removeFromCart"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.RemoveFromCartPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.RemoveFromCart, nil
}

// Me fetches the signed-in profile.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	data, err := c.query(ctx, api.MeQuery, nil)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.MePayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Me, nil
}

// Wishlist fetches the saved products.
func (c *Client) Wishlist(ctx context.Context) (*domain.Wishlist, error) {
	data, err := c.query(ctx, api.WishlistQuery, nil)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.WishlistPayload](data)
	if err != nil {
		return nil, err
	}
	return payload.Wishlist, nil
}

// AddToWishlist saves a product for later.
func (c *Client) AddToWishlist(ctx context.Context, productID string) (*domain.Wishlist, error) {
	data, err := c.mutate(ctx, api.AddToWishlistMutation, map[string]any{
		"productId": productID,
	}, replaceRoot("wishlist", "addToWishlist"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.AddToWishlistPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.AddToWishlist, nil
}

// RemoveFromWishlist drops a saved product.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) (*domain.Wishlist, error) {
	data, err := c.mutate(ctx, api.RemoveFromWishlistMutation, map[string]any{
		"productId": productID,
	}, replaceRoot("wishlist", "removeFromWishlist"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.RemoveFromWishlistPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.RemoveFromWishlist, nil
}

// ClearWishlist drops every saved product.
func (c *Client) ClearWishlist(ctx context.Context) (*domain.Wishlist, error) {
	data, err := c.mutate(ctx, api.ClearWishlistMutation, nil,
		replaceRoot("wishlist", "clearWishlist"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.ClearWishlistPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.ClearWishlist, nil
}

// UpdateReview edits the user's own review; the returned fields upsert
// onto the cached review entity, so products embedding it reflect the
// edit without a refetch.
func (c *Client) UpdateReview(ctx context.Context, id string, input api.ReviewInput) (*domain.Review, error) {
	data, err := c.mutate(ctx, api.UpdateReviewMutation, map[string]any{
		"id":    id,
		"input": input,
	}, upsertByID("Review", "updateReview"))
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.UpdateReviewPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.UpdateReview, nil
}

// DeleteReview removes the user's own review. The cache is not rewritten;
// the next product fetch drops it from the embedding list.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	data, err := c.mutate(ctx, api.DeleteReviewMutation, map[string]any{"id": id}, nil)
	if err != nil {
		return err
	}
	if _, err := decode[api.DeleteReviewPayload](data); err != nil {
		return err
	}
	return nil
}

// AddReview attaches a review, upserting the returned reviews onto the
// cached product.
func (c *Client) AddReview(ctx context.Context, productID string, rating int, comment string) (*domain.Product, error) {
	merge := func(w cache.Writer, data json.RawMessage) error {
		var payload struct {
			AddReview map[string]any `json:"addReview"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		id, _ := payload.AddReview["id"].(string)
		if id == "" {
			return fmt.Errorf("addReview response missing product id")
		}
		w.WriteEntity("Product", id, payload.AddReview)
		return nil
	}
	data, err := c.mutate(ctx, api.AddReviewMutation, map[string]any{
		"productId": productID,
		"rating":    rating,
		"comment":   comment,
	}, merge)
	if err != nil {
		return nil, err
	}
	payload, err := decode[api.AddReviewPayload](data)
	if err != nil {
		return nil, err
	}
	return &payload.AddReview, nil
}
