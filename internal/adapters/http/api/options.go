package api

import (
	"strings"

	"golang.org/x/time/rate"

	"github.com/okian/heroes/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithHeroesPath mounts the hero collection somewhere other than api/heroes.
func WithHeroesPath(path string) Option {
	return func(s *Server) {
		if p := strings.Trim(path, "/"); p != "" {
			s.heroesPath = "/" + p
		}
	}
}

// WithMessages exposes a message log on /messages.
func WithMessages(m MessageLog) Option {
	return func(s *Server) {
		if m != nil {
			s.messages = m
		}
	}
}

// WithRateLimit applies a token bucket to the hero routes. A non-positive
// rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
