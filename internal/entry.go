// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/blocks"
	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/comments"
	"github.com/starford/folio/internal/comments/mongostore"
	"github.com/starford/folio/internal/comments/sqlitestore"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/imageproxy"
	"github.com/starford/folio/internal/mailer"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/notion"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/sse"
)

// pipeline is the content read path shared by every command.
type pipeline struct {
	snapshot *notion.Snapshot
	cache    *cache.Cache
	repo     *content.Repository
	resolver *blocks.Resolver
	proxy    *imageproxy.Proxy
	renderer blocks.Renderer
}

func newApplication(opts []Option) (*application, error) {
	app := &application{output: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *application) pipeline(logger *slog.Logger) (*pipeline, error) {
	cfg := a.config
	p := &pipeline{cache: cache.New()}

	src := a.source
	switch {
	case src != nil:
	case cfg.Notion.SnapshotDir != "":
		snap, err := notion.NewSnapshot(cfg.Notion.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("init snapshot source: %w", err)
		}
		p.snapshot = snap
		src = snap
	default:
		if cfg.Notion.Token == "" {
			logger.Warn("notion token is empty; content queries will fail and render empty")
		}
		src = notion.New(cfg.Notion.Token,
			&http.Client{Timeout: cfg.Notion.Timeout},
			notion.WithBaseURL(cfg.Notion.APIURL),
			notion.WithVersion(cfg.Notion.Version),
		)
	}

	p.repo = content.NewRepository(src, content.Config{
		PortfolioDatabaseID: cfg.Notion.PortfolioDatabaseID,
		BlogDatabaseID:      cfg.Notion.BlogDatabaseID,
		PortfolioTTL:        cfg.Cache.PortfolioTTL,
		PostTTL:             cfg.Cache.PostTTL,
	}, p.cache, logger)
	p.resolver = blocks.NewResolver(src,
		blocks.WithCache(p.cache, cfg.Cache.PageTTL),
		blocks.WithConcurrency(cfg.Notion.Concurrency),
		blocks.WithLogger(logger),
	)
	p.proxy = imageproxy.New(cfg.ImageProxy.Proxy(), nil, logger)
	p.renderer = blocks.Renderer{ImageURL: p.proxy.URL, SiteOrigin: cfg.App.BaseURL}
	return p, nil
}

// plainBody returns the page text for MCP output.
func (p *pipeline) plainBody(ctx context.Context, pageID string) string {
	return blocks.PlainText(p.resolver.Resolve(ctx, pageID))
}

// revalidateChanged drops the cache entries affected by a snapshot edit.
func (p *pipeline) revalidateChanged(logger *slog.Logger) notion.ChangeCallback {
	return func(kind, id string) {
		for _, tag := range p.repo.TagsForChange(kind, id) {
			n := p.cache.InvalidateTag(tag)
			logger.Info("snapshot changed", slog.String("kind", kind), slog.String("id", id),
				slog.String("tag", tag), slog.Int("entries", n))
		}
	}
}

func openComments(ctx context.Context, cfg CommentsConfig, logger *slog.Logger) (*comments.Service, error) {
	var backend comments.Backend
	switch cfg.Provider {
	case CommentsSQLite:
		db, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init comments sqlite: %w", err)
		}
		backend = db
	case CommentsMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		store, err := mongostore.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("init comments mongo: %w", err)
		}
		backend = store
	default:
		logger.Info("comments disabled")
		return nil, nil
	}
	return comments.NewService(backend, logger), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("base_url", cfg.App.BaseURL),
		slog.String("snapshot_dir", cfg.Notion.SnapshotDir),
		slog.String("comments_provider", cfg.Comments.Provider),
		slog.Bool("contact_enabled", cfg.Contact.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	p, err := app.pipeline(logger)
	if err != nil {
		return err
	}

	svc, err := openComments(ctx, cfg.Comments, logger)
	if err != nil {
		return err
	}
	if svc != nil {
		defer svc.Close()
	}

	// SSE broker announces revalidations to connected clients.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	p.cache.OnInvalidate(broker.PublishRevalidation)

	deps := api.Deps{
		Content:    p.repo,
		Pages:      p.resolver,
		Renderer:   p.renderer,
		Comments:   svc,
		Images:     p.proxy,
		ContactTo:  cfg.Contact.To,
		Invalidate: p.cache.InvalidateTag,
		Notifier:   broker,
		BaseURL:    cfg.App.BaseURL,
	}
	if cfg.Contact.Enabled() {
		deps.Mailer = mailer.NewSMTP(cfg.Contact.Mailer(), logger)
	}
	h := api.NewHandler(deps)
	r := api.NewRootRouter(h,
		api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker),
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Evict expired cache entries.
	g.Go(func() error {
		p.cache.Run(gCtx, cfg.Cache.SweepInterval, logger)
		return nil
	})

	// Watch the snapshot directory and revalidate affected tags.
	if p.snapshot != nil {
		g.Go(func() error {
			if err := notion.Watch(gCtx, p.snapshot.Root(), 0, logger, p.revalidateChanged(logger)); err != nil {
				logger.Warn("snapshot watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams never finish on their own; close them before draining.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so background loops stop with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the content tools over stdio. Logs go to stderr since stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)
	slog.SetDefault(logger)

	p, err := app.pipeline(logger)
	if err != nil {
		return err
	}

	if p.snapshot != nil {
		go func() {
			if err := notion.Watch(ctx, p.snapshot.Root(), 0, logger, p.revalidateChanged(logger)); err != nil {
				logger.Warn("snapshot watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	srv := mcpserver.New(p.repo, p.plainBody, p.cache.InvalidateTag)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// WriteSitemap writes sitemap.xml for the configured site to the output.
func WriteSitemap(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)

	p, err := app.pipeline(logger)
	if err != nil {
		return err
	}
	entries := site.Sitemap(ctx, app.config.App.BaseURL, p.repo, time.Now().UTC())
	return site.WriteSitemap(app.output, entries)
}
