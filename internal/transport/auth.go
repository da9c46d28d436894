package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopstream/storefront-sync/internal/graphql"
	"github.com/shopstream/storefront-sync/internal/token"
)

type authLink struct {
	next      Link
	store     token.Store
	refresher *token.Refresher
	logger    *slog.Logger
}

// AuthHeader returns the middleware that attaches the current credential as
// a bearer header. An expired credential is refreshed before use (through
// the shared coalescing refresher); an absent credential attaches nothing
// and lets the server decide whether the operation is permitted
// anonymously. refresher may be nil when no refresh endpoint is configured.
func AuthHeader(store token.Store, refresher *token.Refresher, logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Link) Link {
		return &authLink{next: next, store: store, refresher: refresher, logger: logger}
	}
}

func (l *authLink) Do(ctx context.Context, op *graphql.Operation) (*graphql.Response, error) {
	cred, ok, err := l.store.Get()
	if err != nil {
		l.logger.Warn("failed to read credential, sending anonymously",
			slog.String("error", err.Error()))
		ok = false
	}

	// Only a credential whose expiry is locally determinable refreshes
	// pre-emptively; opaque tokens go to the server, whose rejection is
	// handled by the interception stage above.
	if ok && l.refresher != nil && token.HasKnownExpiry(cred) && token.Expired(cred, time.Now()) {
		fresh, refreshErr := l.refresher.Refresh(ctx)
		if refreshErr != nil {
			// The store was cleared; send anonymously and let the server
			// reject if the operation needs auth.
			ok = false
		} else {
			cred = fresh
		}
	}

	if ok && cred.AccessToken != "" {
		op.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	} else {
		op.Header.Del("Authorization")
	}

	return l.next.Do(ctx, op)
}
