package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all /api routes mounted.
// authEnabled controls whether Bearer token auth is enforced on admin routes.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	// Content.
	r.Get("/portfolios", h.ListPortfolios)
	r.Get("/portfolios/{id}", h.GetPortfolio)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)

	// Comments.
	r.Get("/comments", h.ListComments)
	r.Post("/comments", h.CreateComment)
	r.Post("/comments/{id}/like", h.LikeComment)
	r.Post("/comments/{id}/report", h.ReportComment)

	r.Post("/contact", h.Contact)

	// Image proxy answers cross-origin requests, preflight included.
	r.Group(func(r chi.Router) {
		r.Use(CORS())
		r.Get("/image-proxy", h.ImageProxy)
		r.Options("/image-proxy", func(http.ResponseWriter, *http.Request) {})
	})

	// Admin.
	r.Route("/admin", func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Get("/comments/pending", h.PendingComments)
		r.Post("/comments/{id}/approve", h.ApproveComment)
		r.Delete("/comments/{id}", h.DeleteComment)
		r.Post("/revalidate", h.Revalidate)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewRootRouter mounts the API under /api next to health checks, sitemap.xml
// and robots.txt. middlewares wrap every route.
func NewRootRouter(h *Handler, api chi.Router, middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health/live", health)
	r.Get("/health/ready", health)
	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/robots.txt", h.Robots)
	r.Mount("/api", api)
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
