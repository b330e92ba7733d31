package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/imageproxy"
	"github.com/starford/folio/internal/mailer"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Comment providers.
const (
	CommentsDisabled = "disabled"
	CommentsSQLite   = "sqlite"
	CommentsMongo    = "mongo"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Notion     NotionConfig      `yaml:"notion"`
	Cache      CacheConfig       `yaml:"cache"`
	Comments   CommentsConfig    `yaml:"comments"`
	ImageProxy ImageProxyConfig  `yaml:"image_proxy"`
	Contact    ContactConfig     `yaml:"contact"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Notion, &c.Cache, &c.Comments, &c.ImageProxy, &c.Contact, &c.Auth,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// BaseURL is the public site origin used in sitemap.xml and robots.txt.
	BaseURL string `yaml:"base_url"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NotionConfig selects the content source.
//
// With SnapshotDir set, records are read from recorded API responses on disk
// and edits to that directory revalidate the cache. Otherwise the live API is
// queried with Token. Empty database ids are valid; the matching listings are
// then empty.
type NotionConfig struct {
	Token               string `yaml:"token"`
	APIURL              string `yaml:"api_url"`
	Version             string `yaml:"version"`
	PortfolioDatabaseID string `yaml:"portfolio_database_id"`
	BlogDatabaseID      string `yaml:"blog_database_id"`
	SnapshotDir         string `yaml:"snapshot_dir"`
	// Concurrency bounds sibling fetches while resolving a block tree.
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Validate validates the content source configuration.
func (c *NotionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, is.URL),
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(32)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// CacheConfig holds per call site expiry.
type CacheConfig struct {
	PortfolioTTL  time.Duration `yaml:"portfolio_ttl"`
	PostTTL       time.Duration `yaml:"post_ttl"`
	PageTTL       time.Duration `yaml:"page_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PortfolioTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.PostTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.PageTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Second)),
	)
}

// CommentsConfig selects the comment backend.
type CommentsConfig struct {
	Provider string       `yaml:"provider"`
	SQLite   SQLiteConfig `yaml:"sqlite"`
	Mongo    MongoConfig  `yaml:"mongo"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// Validate validates the comments configuration.
func (c *CommentsConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = CommentsDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(CommentsDisabled, CommentsSQLite, CommentsMongo)),
	); err != nil {
		return err
	}
	switch c.Provider {
	case CommentsSQLite:
		return validation.ValidateStruct(&c.SQLite,
			validation.Field(&c.SQLite.Path, validation.Required),
		)
	case CommentsMongo:
		return validation.ValidateStruct(&c.Mongo,
			validation.Field(&c.Mongo.URI, validation.Required),
			validation.Field(&c.Mongo.Database, validation.Required),
		)
	}
	return nil
}

// Enabled reports whether a comment backend is configured.
func (c *CommentsConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != CommentsDisabled
}

// ImageProxyConfig controls the image proxy.
type ImageProxyConfig struct {
	AllowedHosts []string      `yaml:"allowed_hosts"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	Referer      string        `yaml:"referer"`
}

// Validate validates the image proxy configuration.
func (c *ImageProxyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Referer, is.URL),
	)
}

// Proxy returns the imageproxy settings.
func (c *ImageProxyConfig) Proxy() imageproxy.Config {
	return imageproxy.Config{
		AllowedHosts: c.AllowedHosts,
		Timeout:      c.Timeout,
		UserAgent:    c.UserAgent,
		Referer:      c.Referer,
	}
}

// ContactConfig holds SMTP delivery for the contact form. An empty host
// disables the form.
type ContactConfig struct {
	SMTP SMTPConfig `yaml:"smtp"`
	From string     `yaml:"from"`
	// FromName is the display name on outgoing mail.
	FromName string `yaml:"from_name"`
	To       string `yaml:"to"`
}

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Validate validates the contact configuration.
func (c *ContactConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.From, validation.Required, is.EmailFormat),
		validation.Field(&c.To, validation.Required, is.EmailFormat),
		validation.Field(&c.SMTP, validation.By(func(any) error {
			return validation.ValidateStruct(&c.SMTP,
				validation.Field(&c.SMTP.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			)
		})),
	)
}

// Enabled reports whether contact delivery is configured.
func (c *ContactConfig) Enabled() bool {
	return c.SMTP.Host != ""
}

// Mailer returns the SMTP mailer settings.
func (c *ContactConfig) Mailer() mailer.Config {
	return mailer.Config{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		User:     c.SMTP.User,
		Pass:     c.SMTP.Pass,
		From:     c.From,
		FromName: c.FromName,
	}
}

// AuthConfig holds authentication configuration for admin routes.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			BaseURL: "http://localhost:8080",
		},
		Notion: NotionConfig{
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			PortfolioTTL:  time.Hour,
			PostTTL:       30 * time.Minute,
			PageTTL:       time.Hour,
			SweepInterval: time.Minute,
		},
		Comments: CommentsConfig{
			Provider: CommentsDisabled,
			SQLite:   SQLiteConfig{Path: "./folio.db"},
		},
		ImageProxy: ImageProxyConfig{
			Timeout:   10 * time.Second,
			UserAgent: "folio-image-proxy/1.0",
		},
		Contact: ContactConfig{
			SMTP:     SMTPConfig{Port: 587},
			FromName: "Folio",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
