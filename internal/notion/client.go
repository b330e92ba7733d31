// Package notion is a small typed client for the Notion API, used as the
// headless content source for portfolio items, blog posts and page bodies.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/starford/folio/internal/apperr"
)

// Defaults for the public API.
const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
	MaxPageSize    = 100
)

// Source is the read-only content service surface used by folio.
type Source interface {
	QueryDatabase(ctx context.Context, databaseID string, q Query) (*PageList, error)
	RetrievePage(ctx context.Context, pageID string) (*Page, error)
	ListBlockChildren(ctx context.Context, blockID, cursor string) (*BlockList, error)
}

// Verify *Client satisfies Source at compile time.
var _ Source = (*Client)(nil)

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap classifies the error for errors.Is.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return apperr.ErrNotFound
	}
	return apperr.ErrUpstream
}

// Client talks to the Notion REST API.
type Client struct {
	baseURL string
	version string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API origin (tests point it at httptest servers).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithVersion overrides the Notion-Version header.
func WithVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.version = v
		}
	}
}

// New creates a client authenticating with an integration token. The token is
// attached by an oauth2 transport; base, if non-nil, supplies the underlying
// transport and timeout.
func New(token string, base *http.Client, opts ...Option) *Client {
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	hc := base
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		hc.Timeout = base.Timeout
	}
	c := &Client{baseURL: DefaultBaseURL, version: DefaultVersion, http: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryDatabase runs one filtered, sorted query page against a database.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, q Query) (*PageList, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("notion: query database: %w", apperr.ErrNotConfigured)
	}
	if q.PageSize <= 0 || q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	var out PageList
	path := "/v1/databases/" + url.PathEscape(databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RetrievePage fetches one page by id.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var out Page
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBlockChildren fetches one page (up to 100) of a block's direct children.
func (c *Client) ListBlockChildren(ctx context.Context, blockID, cursor string) (*BlockList, error) {
	v := url.Values{}
	v.Set("page_size", fmt.Sprint(MaxPageSize))
	if cursor != "" {
		v.Set("start_cursor", cursor)
	}
	var out BlockList
	path := "/v1/blocks/" + url.PathEscape(blockID) + "/children?" + v.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("notion: encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("notion: %s %s: %w", method, path, apperr.ErrTimeout)
		}
		return fmt.Errorf("notion: %s %s: %w: %v", method, path, apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if len(data) > 0 {
			_ = json.Unmarshal(data, apiErr)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("notion: decode %s: %w", path, err)
	}
	return nil
}
