// Package blocks materializes a page's content tree, groups list items and
// renders the result as HTML.
package blocks

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/notion"
)

const defaultConcurrency = 4

// Resolver fetches block trees. It never mutates fetched blocks; every level
// of the result is a fresh slice.
type Resolver struct {
	src         notion.Source
	cache       *cache.Cache
	ttl         time.Duration
	concurrency int
	logger      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache caches whole-page trees for ttl under the page tags.
func WithCache(c *cache.Cache, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithConcurrency bounds sibling fetches per level.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger for pruned subtrees.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver over src.
func NewResolver(src notion.Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{src: src, concurrency: defaultConcurrency, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the fully materialized children of a page or block. A
// failed fetch at any level logs and yields an empty subtree; a tree with a
// pruned branch is returned but not cached.
func (r *Resolver) Resolve(ctx context.Context, id string) []notion.Block {
	key := cache.Key("blocks", notion.CompactID(id))
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return cloneTree(v.([]notion.Block))
		}
	}

	var failed atomic.Bool
	children, err := r.fetchChildren(ctx, id)
	if err != nil {
		r.logger.Error("blocks: fetch failed", slog.String("block_id", id), slog.String("error", err.Error()))
		return []notion.Block{}
	}
	tree := r.resolveLevel(ctx, children, &failed)

	if r.cache != nil && !failed.Load() {
		r.cache.Set(key, cloneTree(tree), r.ttl, content.TagPages, content.PageTag(id))
	}
	return tree
}

// cloneTree copies blocks and their nested Children slices so callers never
// share backing arrays with the cached tree. Content payloads are not copied.
func cloneTree(blocks []notion.Block) []notion.Block {
	out := make([]notion.Block, len(blocks))
	for i, b := range blocks {
		if b.Children != nil {
			b.Children = cloneTree(b.Children)
		}
		out[i] = b
	}
	return out
}

func (r *Resolver) resolveLevel(ctx context.Context, blocks []notion.Block, failed *atomic.Bool) []notion.Block {
	out := make([]notion.Block, len(blocks))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, b := range blocks {
		switch {
		case b.Children != nil:
			out[i] = b.WithChildren(r.resolveLevel(ctx, b.Children, failed))
		case !b.HasChildren:
			out[i] = b
		default:
			g.Go(func() error {
				children, err := r.fetchChildren(ctx, b.ID)
				if err != nil {
					r.logger.Warn("blocks: subtree pruned", slog.String("block_id", b.ID), slog.String("error", err.Error()))
					failed.Store(true)
					out[i] = b.WithChildren([]notion.Block{})
					return nil
				}
				out[i] = b.WithChildren(r.resolveLevel(ctx, children, failed))
				return nil
			})
		}
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) fetchChildren(ctx context.Context, id string) ([]notion.Block, error) {
	out := []notion.Block{}
	cursor := ""
	for {
		list, err := r.src.ListBlockChildren(ctx, id, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			return out, nil
		}
		cursor = list.NextCursor
	}
}
