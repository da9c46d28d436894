// Package executor funnels every read and write operation through the link
// chain and folds results into the normalized cache. Each mutation site
// declares its merge intent explicitly through a MergeFunc instead of
// writing to the cache ad hoc.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopstream/storefront-sync/internal/cache"
	"github.com/shopstream/storefront-sync/internal/graphql"
	"github.com/shopstream/storefront-sync/internal/transport"
)

// MergeFunc folds a successful mutation response into the cache. It runs
// against a staged batch: returning an error discards every staged write,
// so previously cached state is never corrupted by a bad response.
type MergeFunc func(w cache.Writer, data json.RawMessage) error

// Executor dispatches operations and applies their results to the cache.
type Executor struct {
	link   transport.Link
	cache  *cache.Cache
	logger *slog.Logger
}

// New creates an executor over the given chain and cache.
func New(link transport.Link, c *cache.Cache, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{link: link, cache: c, logger: logger}
}

// Query dispatches a read operation and, on success, writes the result's
// root fields into the cache under their field names.
func (e *Executor) Query(ctx context.Context, op *graphql.Operation) (json.RawMessage, error) {
	resp, err := e.link.Do(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var roots map[string]any
	if err := json.Unmarshal(resp.Data, &roots); err != nil {
		return nil, fmt.Errorf("failed to decode query data: %w", err)
	}
	// Roots are keyed by bare field name, so two operations that share a
	// root but differ in variables (product(id: "p1") vs product(id: "p2"))
	// overwrite each other's root value. Normalized entities are unaffected:
	// both products stay cached under their refs, and watchers re-read
	// through those refs. Dedicated per-variable root keys can come later if
	// a caller needs to ReadQuery both results at once.
	b := e.cache.Batch()
	for root, value := range roots {
		b.WriteQuery(root, value)
	}
	b.Commit()

	return resp.Data, nil
}

// Mutate dispatches a write operation. On success the merge function is
// applied to the cache at most once; on any failure the cache is left
// untouched and the error is returned for display. No optimistic write is
// ever applied before the server responds.
func (e *Executor) Mutate(ctx context.Context, op *graphql.Operation, merge MergeFunc) (json.RawMessage, error) {
	resp, err := e.link.Do(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	if merge != nil {
		b := e.cache.Batch()
		if err := merge(b, resp.Data); err != nil {
			b.Discard()
			e.logger.Warn("mutation merge skipped",
				slog.String("operation", op.Name),
				slog.String("error", err.Error()),
			)
			return resp.Data, fmt.Errorf("failed to apply %s result: %w", op.Name, err)
		}
		b.Commit()
	}

	return resp.Data, nil
}
