package content

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/notion"
)

// Cache tags.
const (
	TagPortfolios = "portfolios"
	TagPosts      = "posts"
	TagPages      = "pages"
)

// PortfolioTag scopes a single portfolio item.
func PortfolioTag(id string) string { return "portfolio:" + notion.CompactID(id) }

// PostTag scopes a single post.
func PostTag(slug string) string { return "post:" + slug }

// PageTag scopes the block tree of one page.
func PageTag(id string) string { return "page:" + notion.CompactID(id) }

// Config selects the databases and cache lifetimes.
type Config struct {
	PortfolioDatabaseID string
	BlogDatabaseID      string
	PortfolioTTL        time.Duration
	PostTTL             time.Duration
}

// Repository serves portfolio items and blog posts. Upstream failures are
// logged and reported as empty results so pages keep rendering.
type Repository struct {
	src    notion.Source
	cfg    Config
	cache  *cache.Cache
	logger *slog.Logger
}

// NewRepository creates a repository. A nil cache disables caching.
func NewRepository(src notion.Source, cfg Config, c *cache.Cache, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{src: src, cfg: cfg, cache: c, logger: logger}
}

// ListPortfolios returns published items, featured first then by order.
func (r *Repository) ListPortfolios(ctx context.Context) []models.Portfolio {
	if r.cfg.PortfolioDatabaseID == "" {
		r.logger.Debug("content: portfolio database not configured")
		return []models.Portfolio{}
	}
	items, err := cache.Remember(ctx, r.cache, cache.Key("portfolios"), r.cfg.PortfolioTTL,
		[]string{TagPortfolios}, r.fetchPortfolios)
	if err != nil {
		r.logger.Error("content: list portfolios failed", slog.String("error", err.Error()))
		return []models.Portfolio{}
	}
	return slices.Clone(items)
}

func (r *Repository) fetchPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	q := notion.Query{
		Filter: ptr(notion.CheckboxEquals(propPublished, true)),
		Sorts: []notion.Sort{
			notion.SortBy(propFeatured, notion.Descending),
			notion.SortBy(propOrder, notion.Ascending),
		},
	}
	pages, err := r.queryAll(ctx, r.cfg.PortfolioDatabaseID, q)
	if err != nil {
		return nil, err
	}
	items := make([]models.Portfolio, 0, len(pages))
	for i := range pages {
		if !isPublished(&pages[i]) {
			continue
		}
		items = append(items, ParsePortfolio(&pages[i]))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Featured && !items[j].Featured
	})
	return items, nil
}

// GetPortfolioByID returns one published item from the portfolio database, or
// nil when it does not exist, is unpublished, or the lookup failed.
func (r *Repository) GetPortfolioByID(ctx context.Context, id string) *models.Portfolio {
	if id == "" || r.cfg.PortfolioDatabaseID == "" {
		return nil
	}
	item, err := cache.Remember(ctx, r.cache, cache.Key("portfolio", notion.CompactID(id)), r.cfg.PortfolioTTL,
		[]string{TagPortfolios, PortfolioTag(id)},
		func(ctx context.Context) (*models.Portfolio, error) {
			page, err := r.src.RetrievePage(ctx, id)
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			if !r.inDatabase(page, r.cfg.PortfolioDatabaseID) || !isPublished(page) {
				return nil, nil
			}
			p := ParsePortfolio(page)
			return &p, nil
		})
	if err != nil {
		r.logger.Error("content: get portfolio failed", slog.String("id", id), slog.String("error", err.Error()))
		return nil
	}
	return item
}

// ListBlogPosts returns published posts, newest first.
func (r *Repository) ListBlogPosts(ctx context.Context) []models.BlogPost {
	if r.cfg.BlogDatabaseID == "" {
		r.logger.Debug("content: blog database not configured")
		return []models.BlogPost{}
	}
	posts, err := r.cachedPosts(ctx)
	if err != nil {
		r.logger.Error("content: list posts failed", slog.String("error", err.Error()))
		return []models.BlogPost{}
	}
	return slices.Clone(posts)
}

func (r *Repository) cachedPosts(ctx context.Context) ([]models.BlogPost, error) {
	return cache.Remember(ctx, r.cache, cache.Key("posts"), r.cfg.PostTTL,
		[]string{TagPosts}, r.fetchPosts)
}

func (r *Repository) fetchPosts(ctx context.Context) ([]models.BlogPost, error) {
	q := notion.Query{
		Filter: ptr(notion.CheckboxEquals(propPublished, true)),
		Sorts:  []notion.Sort{notion.SortBy(propPublishedAt, notion.Descending)},
	}
	pages, err := r.queryAll(ctx, r.cfg.BlogDatabaseID, q)
	if err != nil {
		return nil, err
	}
	posts := make([]models.BlogPost, 0, len(pages))
	for i := range pages {
		if !isPublished(&pages[i]) {
			continue
		}
		posts = append(posts, ParseBlogPost(&pages[i]))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.After(posts[j].PublishedAt)
	})
	return posts, nil
}

// GetBlogPostBySlug returns the published post with the given slug, or nil.
func (r *Repository) GetBlogPostBySlug(ctx context.Context, slug string) *models.BlogPost {
	if slug == "" || r.cfg.BlogDatabaseID == "" {
		return nil
	}
	post, err := cache.Remember(ctx, r.cache, cache.Key("post", slug), r.cfg.PostTTL,
		[]string{TagPosts, PostTag(slug)},
		func(ctx context.Context) (*models.BlogPost, error) {
			q := notion.Query{
				Filter: ptr(notion.And(
					notion.RichTextEquals(propSlug, slug),
					notion.CheckboxEquals(propPublished, true),
				)),
				PageSize: 1,
			}
			list, err := r.src.QueryDatabase(ctx, r.cfg.BlogDatabaseID, q)
			if err != nil {
				return nil, err
			}
			for i := range list.Results {
				page := &list.Results[i]
				if !isPublished(page) {
					continue
				}
				if p := ParseBlogPost(page); p.Slug == slug {
					return &p, nil
				}
			}
			// Posts without a Slug column are listed under a slug derived
			// from the title, which the filter above cannot match.
			posts, err := r.cachedPosts(ctx)
			if err != nil {
				return nil, err
			}
			for i := range posts {
				if posts[i].Slug == slug {
					p := posts[i]
					return &p, nil
				}
			}
			return nil, nil
		})
	if err != nil {
		r.logger.Error("content: get post failed", slog.String("slug", slug), slog.String("error", err.Error()))
		return nil
	}
	return post
}

// TagsForChange maps a changed snapshot record onto the cache tags it affects.
func (r *Repository) TagsForChange(kind, id string) []string {
	switch kind {
	case "databases":
		switch {
		case r.cfg.PortfolioDatabaseID != "" && notion.SameID(id, r.cfg.PortfolioDatabaseID):
			return []string{TagPortfolios}
		case r.cfg.BlogDatabaseID != "" && notion.SameID(id, r.cfg.BlogDatabaseID):
			return []string{TagPosts}
		}
	case "pages":
		return []string{PortfolioTag(id), TagPosts}
	case "blocks":
		return []string{TagPages}
	}
	return nil
}

func (r *Repository) queryAll(ctx context.Context, databaseID string, q notion.Query) ([]notion.Page, error) {
	var out []notion.Page
	q.PageSize = notion.MaxPageSize
	for {
		list, err := r.src.QueryDatabase(ctx, databaseID, q)
		if err != nil {
			return nil, err
		}
		out = append(out, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			return out, nil
		}
		q.StartCursor = list.NextCursor
	}
}

func (r *Repository) inDatabase(page *notion.Page, databaseID string) bool {
	if page.Parent.Type != "" && page.Parent.Type != "database_id" {
		return false
	}
	return page.Parent.DatabaseID == "" || notion.SameID(page.Parent.DatabaseID, databaseID)
}

func ptr[T any](v T) *T { return &v }
