package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/blocks"
	"github.com/starford/folio/internal/comments"
	"github.com/starford/folio/internal/imageproxy"
	"github.com/starford/folio/internal/mailer"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/notion"
	"github.com/starford/folio/internal/site"
)

// Content is the read side of the content pipeline.
type Content interface {
	ListPortfolios(ctx context.Context) []models.Portfolio
	GetPortfolioByID(ctx context.Context, id string) *models.Portfolio
	ListBlogPosts(ctx context.Context) []models.BlogPost
	GetBlogPostBySlug(ctx context.Context, slug string) *models.BlogPost
}

// PageResolver materializes the block tree of a page.
type PageResolver interface {
	Resolve(ctx context.Context, id string) []notion.Block
}

// Notifier receives comment moderation events.
type Notifier interface {
	PublishComment(eventType, id, postSlug string)
}

// Deps are the collaborators of the HTTP handlers. Comments, Images, Mailer
// and Invalidate may be nil; their endpoints then answer 503.
type Deps struct {
	Content    Content
	Pages      PageResolver
	Renderer   blocks.Renderer
	Comments   *comments.Service
	Images     *imageproxy.Proxy
	Mailer     mailer.Mailer
	ContactTo  string
	Invalidate func(tag string) int
	Notifier   Notifier
	BaseURL    string
	Now        func() time.Time
}

// Handler holds API route handlers.
type Handler struct {
	d Deps
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Handler{d: d}
}

func (h *Handler) render(ctx context.Context, pageID string) template.HTML {
	if h.d.Pages == nil {
		return ""
	}
	return h.d.Renderer.Render(h.d.Pages.Resolve(ctx, pageID))
}

// ListPortfolios handles GET /api/portfolios.
//
//	@Summary	List published portfolio items, featured first
//	@Tags		content
//	@Produce	json
//	@Router		/portfolios [get]
func (h *Handler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	items := h.d.Content.ListPortfolios(r.Context())
	writeCachedJSON(w, r, map[string]any{
		"success":    true,
		"portfolios": items,
		"total":      len(items),
	})
}

// GetPortfolio handles GET /api/portfolios/{id}.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := h.d.Content.GetPortfolioByID(r.Context(), id)
	if p == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeCachedJSON(w, r, PortfolioDetail{Portfolio: *p, HTML: h.render(r.Context(), p.ID)})
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts := h.d.Content.ListBlogPosts(r.Context())
	if tag := strings.TrimSpace(r.URL.Query().Get("tag")); tag != "" {
		filtered := make([]models.BlogPost, 0, len(posts))
		for _, p := range posts {
			for _, t := range p.Tags {
				if strings.EqualFold(t, tag) {
					filtered = append(filtered, p)
					break
				}
			}
		}
		posts = filtered
	}
	writeCachedJSON(w, r, map[string]any{
		"success": true,
		"posts":   posts,
		"total":   len(posts),
	})
}

// GetPost handles GET /api/posts/{slug}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p := h.d.Content.GetBlogPostBySlug(r.Context(), slug)
	if p == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeCachedJSON(w, r, PostDetail{BlogPost: *p, HTML: h.render(r.Context(), p.ID)})
}

// ImageProxy handles GET /api/image-proxy.
//
//	@Summary	Fetch an allow-listed remote image
//	@Tags		images
//	@Param		url	query	string	true	"Image URL"
//	@Success	200	"image bytes"
//	@Failure	400	{object}	errResponse
//	@Failure	408	{object}	errResponse
//	@Router		/image-proxy [get]
func (h *Handler) ImageProxy(w http.ResponseWriter, r *http.Request) {
	if h.d.Images == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("image proxy is not configured"))
		return
	}
	raw := r.URL.Query().Get("url")
	img, err := h.d.Images.Fetch(r.Context(), raw)
	if err != nil {
		var se *imageproxy.StatusError
		switch {
		case errors.Is(err, apperr.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrTimeout):
			writeJSON(w, http.StatusRequestTimeout, errorBody("upstream timeout"))
		case errors.As(err, &se) && se.Status >= 400 && se.Status <= 599:
			writeJSON(w, se.Status, errorBody(fmt.Sprintf("upstream returned %d", se.Status)))
		default:
			slog.Error("api: image proxy failed", slog.String("url", raw), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to fetch image"))
		}
		return
	}
	defer img.Close()

	w.Header().Set("Content-Type", img.ContentType)
	if img.ContentLength > 0 {
		w.Header().Set("Content-Length", fmt.Sprint(img.ContentLength))
	}
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, img.Body); err != nil {
		slog.Warn("api: image stream interrupted", slog.String("url", raw), slog.String("error", err.Error()))
	}
}

// Contact handles POST /api/contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	if h.d.Mailer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("contact form is not configured"))
		return
	}
	var c mailer.Contact
	if !decodeJSON(w, r, &c) {
		return
	}
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := h.d.Mailer.Send(r.Context(), c.ToEmail(h.d.ContactTo)); err != nil {
		slog.Error("api: contact delivery failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to send message"))
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Message sent"})
}

// Revalidate handles POST /api/admin/revalidate.
func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	if h.d.Invalidate == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("cache is disabled"))
		return
	}
	var req RevalidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag is required"))
		return
	}
	n := h.d.Invalidate(tag)
	slog.Info("api: revalidated", slog.String("tag", tag), slog.Int("entries", n))
	writeJSON(w, http.StatusOK, RevalidateResponse{Success: true, Revalidated: n, Tag: tag})
}

// Sitemap handles GET /sitemap.xml.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries := site.Sitemap(r.Context(), h.d.BaseURL, h.d.Content, h.d.Now())
	var buf bytes.Buffer
	if err := site.WriteSitemap(&buf, entries); err != nil {
		slog.Error("api: write sitemap failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeCached(w, r, "application/xml; charset=utf-8", buf.Bytes())
}

// Robots handles GET /robots.txt.
func (h *Handler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, site.Robots(h.d.BaseURL))
}
