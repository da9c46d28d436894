// Package transport implements the composable request pipeline every
// GraphQL operation flows through: retry, auth-refresh interception, header
// injection and the terminal HTTP exchange, composed in that fixed order.
package transport

import (
	"context"

	"github.com/shopstream/storefront-sync/internal/graphql"
)

// Link is one stage of the request pipeline.
type Link interface {
	Do(ctx context.Context, op *graphql.Operation) (*graphql.Response, error)
}

// LinkFunc adapts a function to the Link interface.
type LinkFunc func(ctx context.Context, op *graphql.Operation) (*graphql.Response, error)

func (f LinkFunc) Do(ctx context.Context, op *graphql.Operation) (*graphql.Response, error) {
	return f(ctx, op)
}

// Middleware wraps a link with additional behavior.
type Middleware func(next Link) Link

// Chain composes middlewares around a terminal link. The first middleware
// becomes the outermost stage.
func Chain(terminal Link, mws ...Middleware) Link {
	link := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		link = mws[i](link)
	}
	return link
}
