// Package mcpserver exposes the published portfolio and blog content as MCP
// tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/models"
)

// Content is the read side of the content pipeline.
type Content interface {
	ListPortfolios(ctx context.Context) []models.Portfolio
	GetPortfolioByID(ctx context.Context, id string) *models.Portfolio
	ListBlogPosts(ctx context.Context) []models.BlogPost
	GetBlogPostBySlug(ctx context.Context, slug string) *models.BlogPost
}

// BodyFunc returns the plain-text body of a page.
type BodyFunc func(ctx context.Context, pageID string) string

// InvalidateFunc drops cached entries for a tag and reports how many.
type InvalidateFunc func(tag string) int

// Server wraps the MCP server with content tools.
type Server struct {
	mcp        *server.MCPServer
	content    Content
	body       BodyFunc
	invalidate InvalidateFunc
}

// New creates a new MCP server with all tools registered. body and invalidate
// may be nil; the tools then omit page bodies and refuse to revalidate.
func New(content Content, body BodyFunc, invalidate InvalidateFunc) *Server {
	s := &Server{content: content, body: body, invalidate: invalidate}

	s.mcp = server.NewMCPServer(
		"Folio",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_portfolios",
		mcp.WithDescription("List published portfolio projects, featured first."),
	), s.listPortfolios)

	s.mcp.AddTool(mcp.NewTool("get_portfolio",
		mcp.WithDescription("Get one published portfolio project by id, with its page text."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Portfolio record id")),
	), s.getPortfolio)

	s.mcp.AddTool(mcp.NewTool("list_blog_posts",
		mcp.WithDescription("List published blog posts, newest first."),
		mcp.WithString("tag", mcp.Description("Only posts carrying this tag")),
	), s.listBlogPosts)

	s.mcp.AddTool(mcp.NewTool("get_blog_post",
		mcp.WithDescription("Get a published blog post by slug, including its plain-text body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug")),
	), s.getBlogPost)

	s.mcp.AddTool(mcp.NewTool("revalidate",
		mcp.WithDescription("Drop cached content for a tag such as posts, portfolios or post:<slug>."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Cache tag")),
	), s.revalidate)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type portfolioResult struct {
	models.Portfolio
	Body string `json:"body,omitempty"`
}

type postResult struct {
	models.BlogPost
	Body string `json:"body"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) pageBody(ctx context.Context, id string) string {
	if s.body == nil {
		return ""
	}
	return s.body(ctx, id)
}

func (s *Server) listPortfolios(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.content.ListPortfolios(ctx))
}

func (s *Server) getPortfolio(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := s.content.GetPortfolioByID(ctx, id)
	if p == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(portfolioResult{Portfolio: *p, Body: s.pageBody(ctx, p.ID)})
}

func (s *Server) listBlogPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts := s.content.ListBlogPosts(ctx)
	tag := strings.TrimSpace(req.GetString("tag", ""))
	if tag == "" {
		return jsonResult(posts)
	}
	filtered := make([]models.BlogPost, 0, len(posts))
	for _, p := range posts {
		for _, t := range p.Tags {
			if strings.EqualFold(t, tag) {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return jsonResult(filtered)
}

func (s *Server) getBlogPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := s.content.GetBlogPostBySlug(ctx, slug)
	if p == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	return jsonResult(postResult{BlogPost: *p, Body: s.pageBody(ctx, p.ID)})
}

func (s *Server) revalidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return mcp.NewToolResultError("tag is required"), nil
	}
	if s.invalidate == nil {
		return mcp.NewToolResultError("cache disabled"), nil
	}
	n := s.invalidate(tag)
	return mcp.NewToolResultText(fmt.Sprintf("revalidated %s (%d entries)", tag, n)), nil
}
