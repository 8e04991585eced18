package search

import (
	"time"

	"github.com/okian/heroes/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithDebounce sets the quiet window a term must survive before it is
// searched. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.debounce = d
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBuffer sets how many submitted terms each subscription may hold
// before Submit waits for it.
func WithBuffer(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.buffer = n
		}
	}
}
