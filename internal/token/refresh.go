package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// Refresher exchanges the stored refresh token for a fresh credential at the
// refresh endpoint. A failed refresh is irrecoverable for the current
// session: the store is cleared so the caller is forced back to login.
type Refresher struct {
	url    string
	client *http.Client
	store  Store
	logger *slog.Logger

	group singleflight.Group
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithHTTPClient sets the HTTP client used for the refresh call. The client
// should carry the same cookie jar as the GraphQL transport so same-site
// session cookies flow with the request.
func WithHTTPClient(client *http.Client) RefresherOption {
	return func(r *Refresher) {
		r.client = client
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// NewRefresher creates a refresher posting to url and persisting into store.
func NewRefresher(url string, store Store, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		url:    url,
		client: http.DefaultClient,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// refreshResponse covers both endpoint variants: the plain route returns
// only a new access token, the mutation-based one rotates both tokens.
type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Refresh coalesces concurrent callers into a single network refresh:
// every caller that arrives while a refresh is in flight awaits that same
// result. Uncoalesced concurrent refreshes can race and invalidate each
// other's refresh tokens, so this is a correctness requirement.
func (r *Refresher) Refresh(ctx context.Context) (Credential, error) {
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.refresh(ctx)
	})
	if err != nil {
		return Credential{}, err
	}
	if shared {
		r.logger.Debug("token refresh coalesced with concurrent caller")
	}
	return v.(Credential), nil
}

func (r *Refresher) refresh(ctx context.Context) (Credential, error) {
	current, _, _ := r.store.Get()

	var body bytes.Buffer
	if current.RefreshToken != "" {
		payload := map[string]string{"refreshToken": current.RefreshToken}
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return Credential{}, fmt.Errorf("failed to encode refresh request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, &body)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Credential{}, r.fail(fmt.Errorf("refresh request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, r.fail(fmt.Errorf("failed to read refresh response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return Credential{}, r.fail(fmt.Errorf("refresh rejected with status %d", resp.StatusCode))
	}

	var parsed refreshResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Credential{}, r.fail(fmt.Errorf("failed to decode refresh response: %w", err))
	}
	if parsed.AccessToken == "" {
		return Credential{}, r.fail(fmt.Errorf("refresh response missing access token"))
	}

	cred := Credential{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = current.RefreshToken
	}
	if exp, ok := claimExpiry(cred.AccessToken); ok {
		cred.ExpiresAt = exp
	}

	if err := r.store.Set(cred); err != nil {
		return Credential{}, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	r.logger.Info("credential refreshed",
		slog.Time("expires_at", cred.ExpiresAt),
		slog.Duration("valid_for", time.Until(cred.ExpiresAt)),
	)
	return cred, nil
}

// fail clears the stored credential and returns err. Once a refresh fails
// the session cannot be recovered without a new login.
func (r *Refresher) fail(err error) error {
	if clearErr := r.store.Clear(); clearErr != nil {
		r.logger.Error("failed to clear credential after refresh failure",
			slog.String("error", clearErr.Error()))
	}
	r.logger.Warn("token refresh failed", slog.String("error", err.Error()))
	return err
}
