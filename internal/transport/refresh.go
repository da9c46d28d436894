package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopstream/storefront-sync/internal/graphql"
	"github.com/shopstream/storefront-sync/internal/token"
)

// RefreshFailedError marks an irrecoverable credential refresh. The retry
// stage never retries it; the caller must re-authenticate.
type RefreshFailedError struct {
	Err error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("credential refresh failed: %v", e.Err)
}

func (e *RefreshFailedError) Unwrap() error {
	return e.Err
}

type refreshLink struct {
	next      Link
	refresher *token.Refresher
	onLogout  func()
	logger    *slog.Logger
}

// RefreshOnAuthError returns the error-interception middleware. When a
// response carries an authentication-expired failure it refreshes the
// credential (coalesced across concurrent operations by the refresher) and
// replays the operation exactly once with fresh headers. A failed refresh
// forces logout and surfaces the original failure.
func RefreshOnAuthError(refresher *token.Refresher, onLogout func(), logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Link) Link {
		return &refreshLink{next: next, refresher: refresher, onLogout: onLogout, logger: logger}
	}
}

func (l *refreshLink) Do(ctx context.Context, op *graphql.Operation) (*graphql.Response, error) {
	resp, err := l.next.Do(ctx, op)
	if !authExpired(resp, err) {
		return resp, err
	}

	l.logger.Info("authentication expired, refreshing credential",
		slog.String("operation", op.Name))

	if _, refreshErr := l.refresher.Refresh(ctx); refreshErr != nil {
		// Irrecoverable: the refresher already cleared the credential.
		if l.onLogout != nil {
			l.onLogout()
		}
		return nil, &RefreshFailedError{Err: refreshErr}
	}

	// Exactly one replay; the auth link below re-reads the fresh
	// credential. A replay that still fails auth surfaces as-is, and the
	// retry stage above never retries UNAUTHENTICATED.
	return l.next.Do(ctx, op)
}

// authExpired detects the auth-expired condition on either channel: a
// GraphQL UNAUTHENTICATED error or a bare HTTP 401 from the endpoint.
func authExpired(resp *graphql.Response, err error) bool {
	if resp != nil && resp.Errors.HasCode(graphql.CodeUnauthenticated) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized
	}
	return false
}
