package internal

import (
	"io"

	"github.com/starford/folio/internal/notion"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	source notion.Source
	output io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSource replaces the content source built from config.
func WithSource(src notion.Source) Option {
	return func(a *application) {
		a.source = src
	}
}

// WithOutput sets where generated documents are written (default stdout).
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.output = w
	}
}
