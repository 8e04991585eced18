package ws

import (
	"time"

	"github.com/okian/heroes/pkg/logger"
)

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithDebounce sets the debounce window of each session's pipeline.
func WithDebounce(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.debounce = d
		}
	}
}

// WithIdleTimeout closes sessions that send nothing for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.idleTimeout = d
		}
	}
}

// WithOriginPatterns sets the origins allowed to open a session.
func WithOriginPatterns(patterns ...string) Option {
	return func(g *Gateway) {
		if len(patterns) > 0 {
			g.originPatterns = patterns
		}
	}
}

// WithLogger sets a custom logger for the gateway.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}
