package service

import (
	"strings"
	"time"

	"github.com/okian/heroes/internal/adapters/repository"
	"github.com/okian/heroes/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a ready store; the driver settings are then ignored.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreDriver selects the memory or postgres store.
func WithStoreDriver(driver, databaseURL string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = strings.ToLower(driver)
		}
		s.databaseURL = databaseURL
	}
}

// WithSeedDefaults loads the classic roster into an empty store on start.
func WithSeedDefaults(seed bool) Option {
	return func(s *Service) {
		s.seedDefaults = seed
	}
}

// WithBaseURL sets where the search gateway's client reaches the backend.
func WithBaseURL(baseURL string) Option {
	return func(s *Service) {
		if baseURL != "" {
			s.baseURL = baseURL
		}
	}
}

// WithHeroesPath sets the collection path served and called.
func WithHeroesPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.heroesPath = path
		}
	}
}

// WithDebounce sets the search debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithClientTimeout bounds each backend call of the gateway's client.
func WithClientTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.clientTimeout = d
	}
}

// WithMessageLimit caps the message log.
func WithMessageLimit(limit int) Option {
	return func(s *Service) {
		s.messageLimit = limit
	}
}

// WithRateLimit throttles the hero routes.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Service) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
