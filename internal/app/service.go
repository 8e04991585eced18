// Package service wires the hero backend, the search gateway and the
// message log into one runnable unit.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/heroes/internal/adapters/http/api"
	"github.com/okian/heroes/internal/adapters/http/heroclient"
	"github.com/okian/heroes/internal/adapters/http/swagger"
	"github.com/okian/heroes/internal/adapters/http/ws"
	"github.com/okian/heroes/internal/adapters/repository"
	"github.com/okian/heroes/internal/domain/messages"
	"github.com/okian/heroes/internal/domain/search"
	"github.com/okian/heroes/pkg/logger"
)

const (
	defaultBaseURL  = "http://localhost:9080"
	searchRoute     = "/ws/search"
	gatewayShutdown = 10 * time.Second
)

// Service owns the long-lived components of the heroes server.
type Service struct {
	mu sync.RWMutex

	// Components
	store    repository.Store
	messages *messages.Service
	client   *heroclient.Client
	gateway  *ws.Gateway
	api      *api.Server

	// Configuration
	storeDriver   string
	databaseURL   string
	seedDefaults  bool
	baseURL       string
	heroesPath    string
	debounce      time.Duration
	clientTimeout time.Duration
	messageLimit  int
	rateRPS       float64
	rateBurst     int

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver:  repository.DriverMemory,
		seedDefaults: true,
		baseURL:      defaultBaseURL,
		heroesPath:   "api/heroes",
		debounce:     search.DefaultDebounce,
		messageLimit: 1000,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and builds the HTTP surface.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting heroes service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}

	s.messages = messages.New(
		messages.WithLimit(s.messageLimit),
		messages.WithLogger(s.logger.Named("messages")),
	)

	client, err := heroclient.New(s.baseURL,
		heroclient.WithHeroesPath(s.heroesPath),
		heroclient.WithTimeout(s.clientTimeout),
		heroclient.WithMessageLogger(s.messages),
		heroclient.WithLogger(s.logger.Named("heroclient")),
	)
	if err != nil {
		return fmt.Errorf("build hero client: %w", err)
	}
	s.client = client

	s.gateway = ws.New(client,
		ws.WithDebounce(s.debounce),
		ws.WithLogger(s.logger),
	)
	s.api = api.NewServer(s.store,
		api.WithHeroesPath(s.heroesPath),
		api.WithMessages(s.messages),
		api.WithRateLimit(s.rateRPS, s.rateBurst),
		api.WithLogger(s.logger.Named("api")),
	)

	s.started = true
	s.logger.Info(ctx, "heroes service started",
		logger.String("store", s.storeDriver),
		logger.Int("heroes", s.store.Count(ctx)),
		logger.String("base_url", s.baseURL),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	switch s.storeDriver {
	case repository.DriverMemory:
		var opts []repository.Option
		if s.seedDefaults {
			opts = append(opts, repository.WithSeed(repository.DefaultHeroes()))
		}
		return repository.NewMemoryStore(ctx, opts...), nil

	case repository.DriverPostgres:
		pg, err := repository.OpenPostgres(ctx, s.databaseURL, repository.WithPostgresLogger(s.logger.Named("postgres")))
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		if s.seedDefaults {
			if err := pg.SeedIfEmpty(ctx, repository.DefaultHeroes()); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		return pg, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, s.storeDriver)
	}
}

// Handler returns the backend routes, the API docs and the search gateway.
func (s *Service) Handler() (http.Handler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	mux := http.NewServeMux()
	s.api.Register(mux)
	swagger.Register(mux, s.heroesPath)
	mux.Handle(searchRoute, s.gateway)
	return mux, nil
}

// Stop closes search sessions and the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping heroes service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, gatewayShutdown)
	defer cancel()
	if err := s.gateway.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn(ctx, "search sessions did not close in time", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "heroes service stopped")
}

// Messages returns the message log shared by the gateway's client.
func (s *Service) Messages() *messages.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages
}

// Client returns the HeroClient the gateway searches through.
func (s *Service) Client() *heroclient.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started": s.started,
		"store":   s.storeDriver,
	}
	if s.started {
		stats["heroes"] = s.store.Count(context.Background())
		stats["messages"] = s.messages.Len()
	}
	return stats
}
