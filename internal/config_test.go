package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/folio/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Comments.Enabled() || cfg.Contact.Enabled() {
		t.Error("comments and contact should be off by default")
	}
}

func TestCommentsConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CommentsConfig
		wantErr bool
	}{
		{"empty defaults to disabled", CommentsConfig{}, false},
		{"sqlite with path", CommentsConfig{Provider: "sqlite", SQLite: SQLiteConfig{Path: "c.db"}}, false},
		{"sqlite without path", CommentsConfig{Provider: "sqlite"}, true},
		{"mongo without database", CommentsConfig{Provider: "mongo", Mongo: MongoConfig{URI: "mongodb://localhost"}}, true},
		{"mongo complete", CommentsConfig{Provider: "mongo", Mongo: MongoConfig{URI: "mongodb://localhost", Database: "folio"}}, false},
		{"unknown provider", CommentsConfig{Provider: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContactConfig(t *testing.T) {
	cfg := ContactConfig{SMTP: SMTPConfig{Host: "smtp.example.com", Port: 587}, To: "me@example.com"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing from address should fail")
	}
	cfg.From = "site@example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete contact config should pass: %v", err)
	}
	if got := cfg.Mailer(); got.Host != "smtp.example.com" || got.From != "site@example.com" {
		t.Errorf("Mailer() = %+v", got)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestLoadYAMLWithEnv(t *testing.T) {
	t.Setenv("FOLIO_TEST_NOTION_TOKEN", "secret_abc")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `app:
  log_level: debug
  http:
    port: 9090
  base_url: https://example.com
notion:
  token: ${FOLIO_TEST_NOTION_TOKEN}
  blog_database_id: blog
cache:
  portfolio_ttl: 2h
  post_ttl: 15m
  page_ttl: 1h
  sweep_interval: 30s
comments:
  provider: sqlite
  sqlite:
    path: ./comments.db
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notion.Token != "secret_abc" {
		t.Errorf("token = %q", cfg.Notion.Token)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Cache.PortfolioTTL != 2*time.Hour || cfg.Cache.SweepInterval != 30*time.Second {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if !cfg.Comments.Enabled() {
		t.Error("sqlite comments should be enabled")
	}
	// Unset keys keep their defaults.
	if cfg.Notion.Concurrency != 4 {
		t.Errorf("concurrency = %d, want default 4", cfg.Notion.Concurrency)
	}
}
