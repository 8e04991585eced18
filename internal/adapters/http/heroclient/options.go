package heroclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/heroes/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds every backend call. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithHeroesPath sets the collection path relative to the base URL.
func WithHeroesPath(path string) Option {
	return func(cl *Client) {
		if p := strings.Trim(path, "/"); p != "" {
			cl.heroesPath = p
		}
	}
}

// WithMessageLogger sets where human-readable diagnostics go.
func WithMessageLogger(m MessageLogger) Option {
	return func(cl *Client) {
		if m != nil {
			cl.messages = m
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithErrorHook is called with the typed error of every failed operation,
// after it has been logged and before the fallback is returned.
func WithErrorHook(fn func(op string, err error)) Option {
	return func(cl *Client) {
		cl.onError = fn
	}
}
