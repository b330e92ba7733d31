package content_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/testutil"
)

const (
	portfolioDB = "portfolio-db"
	blogDB      = "blog-db"
)

func newRepo(src *testutil.Source, c *cache.Cache) *content.Repository {
	return content.NewRepository(src, content.Config{
		PortfolioDatabaseID: portfolioDB,
		BlogDatabaseID:      blogDB,
		PortfolioTTL:        time.Hour,
		PostTTL:             time.Hour,
	}, c, nil)
}

func TestListPortfolios_PublishedFeaturedFirst(t *testing.T) {
	src := testutil.NewSource()
	src.IgnoreFilter = true
	src.AddPages(portfolioDB,
		testutil.PortfolioPage("p1", "One", true, false, 1),
		testutil.PortfolioPage("p2", "Two", true, true, 2),
		testutil.PortfolioPage("p3", "Three", false, true, 0),
		testutil.PortfolioPage("p4", "Four", true, false, 3, "Go", "SQL"),
	)
	repo := newRepo(src, nil)

	items := repo.ListPortfolios(context.Background())
	require.Len(t, items, 3)
	require.Equal(t, "p2", items[0].ID)
	require.True(t, items[0].Featured)
	require.Equal(t, "p1", items[1].ID)
	require.Equal(t, "p4", items[2].ID)
	require.Equal(t, []string{"Go", "SQL"}, items[2].Technologies)
}

func TestListPortfolios_Cached(t *testing.T) {
	src := testutil.NewSource()
	src.AddPages(portfolioDB, testutil.PortfolioPage("p1", "One", true, false, 1))
	c := cache.New()
	repo := newRepo(src, c)
	ctx := context.Background()

	require.Len(t, repo.ListPortfolios(ctx), 1)
	require.Len(t, repo.ListPortfolios(ctx), 1)
	require.Equal(t, 1, src.Calls("query"))

	c.InvalidateTag(content.TagPortfolios)
	require.Len(t, repo.ListPortfolios(ctx), 1)
	require.Equal(t, 2, src.Calls("query"))
}

func TestListPortfolios_UpstreamFailureIsEmpty(t *testing.T) {
	src := testutil.NewSource()
	src.Fail(portfolioDB, apperr.ErrUpstream)
	c := cache.New()
	repo := newRepo(src, c)

	items := repo.ListPortfolios(context.Background())
	require.NotNil(t, items)
	require.Empty(t, items)
	require.Equal(t, 0, c.Len())
}

func TestListPortfolios_NotConfigured(t *testing.T) {
	src := testutil.NewSource()
	repo := content.NewRepository(src, content.Config{}, nil, nil)
	require.Empty(t, repo.ListPortfolios(context.Background()))
	require.Empty(t, repo.ListBlogPosts(context.Background()))
	require.Equal(t, 0, src.Calls("query"))
}

func TestGetPortfolioByID(t *testing.T) {
	src := testutil.NewSource()
	src.AddPages(portfolioDB,
		testutil.PortfolioPage("p1", "One", true, false, 1),
		testutil.PortfolioPage("p2", "Draft", false, false, 2),
	)
	src.AddPages(blogDB, testutil.PostPage("b1", "Post", "post", true, "2024-01-01"))
	repo := newRepo(src, nil)
	ctx := context.Background()

	got := repo.GetPortfolioByID(ctx, "p1")
	require.NotNil(t, got)
	require.Equal(t, "One", got.Title)

	require.Nil(t, repo.GetPortfolioByID(ctx, "p2"), "unpublished")
	require.Nil(t, repo.GetPortfolioByID(ctx, "b1"), "record from another database")
	require.Nil(t, repo.GetPortfolioByID(ctx, "missing"))
	require.Nil(t, repo.GetPortfolioByID(ctx, ""))
}

func TestListBlogPosts_NewestFirst(t *testing.T) {
	src := testutil.NewSource()
	src.IgnoreFilter = true
	src.AddPages(blogDB,
		testutil.PostPage("b1", "Old", "old", true, "2023-01-01"),
		testutil.PostPage("b2", "New", "new", true, "2024-06-01"),
		testutil.PostPage("b3", "Hidden", "hidden", false, "2025-01-01"),
		testutil.PostPage("b4", "Derived Slug", "", true, "2024-01-01"),
	)
	repo := newRepo(src, nil)

	posts := repo.ListBlogPosts(context.Background())
	require.Len(t, posts, 3)
	require.Equal(t, "new", posts[0].Slug)
	require.Equal(t, "derived-slug", posts[1].Slug)
	require.Equal(t, "old", posts[2].Slug)
}

func TestListBlogPosts_FollowsCursors(t *testing.T) {
	src := testutil.NewSource()
	for i := 0; i < 130; i++ {
		id := string(rune('a'+i%26)) + string(rune('a'+i/26))
		src.AddPages(blogDB, testutil.PostPage(id, "Post "+id, id, true, "2024-01-01"))
	}
	repo := newRepo(src, nil)

	require.Len(t, repo.ListBlogPosts(context.Background()), 130)
	require.Equal(t, 2, src.Calls("query"))
}

func TestGetBlogPostBySlug(t *testing.T) {
	src := testutil.NewSource()
	src.AddPages(blogDB,
		testutil.PostPage("b1", "Hello", "hello", true, "2024-01-01"),
		testutil.PostPage("b2", "Draft", "draft", false, "2024-01-01"),
	)
	repo := newRepo(src, cache.New())
	ctx := context.Background()

	got := repo.GetBlogPostBySlug(ctx, "hello")
	require.NotNil(t, got)
	require.Equal(t, "b1", got.ID)
	require.Nil(t, repo.GetBlogPostBySlug(ctx, "draft"))
	require.Nil(t, repo.GetBlogPostBySlug(ctx, "nope"))
}

func TestGetBlogPostBySlug_DerivedSlug(t *testing.T) {
	src := testutil.NewSource()
	src.AddPages(blogDB,
		testutil.PostPage("b1", "Hello World", "", true, "2024-01-01"),
		testutil.PostPage("b2", "Hidden Draft", "", false, "2024-01-01"),
	)
	repo := newRepo(src, cache.New())
	ctx := context.Background()

	posts := repo.ListBlogPosts(ctx)
	require.Len(t, posts, 1)
	require.Equal(t, "hello-world", posts[0].Slug)

	got := repo.GetBlogPostBySlug(ctx, posts[0].Slug)
	require.NotNil(t, got)
	require.Equal(t, "b1", got.ID)
	require.Equal(t, "Hello World", got.Title)
	require.Nil(t, repo.GetBlogPostBySlug(ctx, "hidden-draft"))
}

func TestGetBlogPostBySlug_ErrorIsNil(t *testing.T) {
	src := testutil.NewSource()
	src.Fail(blogDB, errors.New("boom"))
	repo := newRepo(src, nil)
	require.Nil(t, repo.GetBlogPostBySlug(context.Background(), "hello"))
}

func TestTagsForChange(t *testing.T) {
	repo := newRepo(testutil.NewSource(), nil)
	require.Equal(t, []string{content.TagPortfolios}, repo.TagsForChange("databases", portfolioDB))
	require.Equal(t, []string{content.TagPosts}, repo.TagsForChange("databases", blogDB))
	require.Nil(t, repo.TagsForChange("databases", "other"))
	require.Equal(t, []string{content.PortfolioTag("p1"), content.TagPosts}, repo.TagsForChange("pages", "p1"))
	require.Equal(t, []string{content.TagPages}, repo.TagsForChange("blocks", "x"))
}
