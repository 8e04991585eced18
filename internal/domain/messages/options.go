package messages

import (
	"time"

	"github.com/okian/heroes/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLimit caps the number of retained messages. Zero or less keeps everything.
func WithLimit(limit int) Option {
	return func(s *Service) {
		s.limit = limit
	}
}

// WithLogger mirrors every message to the structured logger at debug level.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
