package repository

import (
	"time"

	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithSeed preloads heroes. Heroes without a valid id are skipped.
func WithSeed(heroes []model.Hero) Option {
	return func(s *MemoryStore) {
		s.seed = append(s.seed, heroes...)
	}
}

// PostgresOption applies a configuration option to the PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresLogger sets a custom logger for the PostgresStore.
func WithPostgresLogger(l logger.Logger) PostgresOption {
	return func(s *PostgresStore) {
		if l != nil {
			s.logger = l
		}
	}
}
