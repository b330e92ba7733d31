// Package imageproxy fetches images from allow-listed hosts on behalf of the
// browser, so pages never embed short-lived signed upstream URLs directly.
package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
)

// Path is the route the proxy is mounted on.
const Path = "/api/image-proxy"

// DefaultAllowedHosts covers the content service's file hosts and common
// external image hosts.
var DefaultAllowedHosts = []string{
	"*.amazonaws.com",
	"*.notion.so",
	"notion.so",
	"*.notion-static.com",
	"images.unsplash.com",
}

// Config controls fetching.
type Config struct {
	AllowedHosts []string
	Timeout      time.Duration
	UserAgent    string
	Referer      string
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string { return fmt.Sprintf("imageproxy: upstream status %d", e.Status) }
func (e *StatusError) Unwrap() error { return apperr.ErrUpstream }

// Image is a fetched upstream image. Close releases the request.
type Image struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Close closes the body.
func (i *Image) Close() error { return i.Body.Close() }

// Proxy validates and fetches image URLs.
type Proxy struct {
	allow     []string
	client    *http.Client
	timeout   time.Duration
	userAgent string
	referer   string
	logger    *slog.Logger
}

// maxRedirects caps redirect hops per fetch.
const maxRedirects = 5

// New creates a proxy. A nil client uses http.DefaultClient. The client is
// copied so that redirects can be held to the allow-list.
func New(cfg Config, client *http.Client, logger *slog.Logger) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	hc := *client
	if logger == nil {
		logger = slog.Default()
	}
	allow := cfg.AllowedHosts
	if len(allow) == 0 {
		allow = DefaultAllowedHosts
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := &Proxy{
		allow:     normalize(allow),
		client:    &hc,
		timeout:   timeout,
		userAgent: cfg.UserAgent,
		referer:   cfg.Referer,
		logger:    logger,
	}
	hc.CheckRedirect = p.checkRedirect
	return p
}

// checkRedirect refuses hops to hosts off the allow-list.
func (p *Proxy) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: too many redirects", apperr.ErrInvalidInput)
	}
	if !p.Allowed(req.URL.String()) {
		return fmt.Errorf("%w: redirect to host %q not allowed", apperr.ErrInvalidInput, req.URL.Hostname())
	}
	return nil
}

func normalize(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Allowed reports whether raw is an http(s) URL on an allow-listed host.
// Patterns are exact hosts or "*.suffix", which matches subdomains only.
func (p *Proxy) Allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, pat := range p.allow {
		if suffix, ok := strings.CutPrefix(pat, "*"); ok {
			if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
				return true
			}
			continue
		}
		if host == pat {
			return true
		}
	}
	return false
}

// URL rewrites src to go through the proxy when its host is allowed;
// other sources are returned unchanged.
func (p *Proxy) URL(src string) string {
	if !p.Allowed(src) {
		return src
	}
	return Path + "?url=" + url.QueryEscape(src)
}

// Fetch retrieves raw. Errors wrap apperr.ErrInvalidInput (rejected URL or
// non-image response), apperr.ErrTimeout, or are a *StatusError.
func (p *Proxy) Fetch(ctx context.Context, raw string) (*Image, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: url parameter is required", apperr.ErrInvalidInput)
	}
	if !p.Allowed(raw) {
		return nil, fmt.Errorf("%w: host not allowed", apperr.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	req.Header.Set("Accept", "image/*")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if p.referer != "" {
		req.Header.Set("Referer", p.referer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		cancel()
		if errors.Is(err, apperr.ErrInvalidInput) {
			p.logger.Warn("imageproxy: redirect rejected", slog.String("url", raw), slog.String("error", err.Error()))
			return nil, fmt.Errorf("imageproxy: fetch: %w", err)
		}
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return nil, fmt.Errorf("imageproxy: fetch: %w", apperr.ErrTimeout)
		}
		return nil, fmt.Errorf("imageproxy: fetch: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, &StatusError{Status: resp.StatusCode}
	}
	ct := resp.Header.Get("Content-Type")
	if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: upstream content type %q is not an image", apperr.ErrInvalidInput, ct)
	}
	return &Image{
		Body:          cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		ContentType:   ct,
		ContentLength: resp.ContentLength,
	}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
