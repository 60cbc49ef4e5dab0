package internal

import (
	"io"

	"github.com/starford/recipebox/internal/recipeservice"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	notifier  recipeservice.Notifier
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sets where the JSON log is written. Defaults to stdout.
// The MCP command passes stderr because stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithNotifier sets the receiver of change events.
func WithNotifier(n recipeservice.Notifier) Option {
	return func(a *application) {
		a.notifier = n
	}
}
