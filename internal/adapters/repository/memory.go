package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/metrics"
)

const firstGeneratedID = 11

// MemoryStore keeps heroes in a map guarded by a RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	heroes map[int]model.Hero
	seed   []model.Hero

	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
}

// NewMemoryStore creates an in-memory store and starts its metrics updater,
// which stops with ctx or Close.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		heroes:                make(map[int]model.Hero),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, h := range s.seed {
		if h.ID > 0 && h.Validate() == nil {
			s.heroes[h.ID] = h
		}
	}
	s.seed = nil

	s.updateMetrics()
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]model.Hero, error) {
	defer observe(DriverMemory, "list", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(model.Hero) bool { return true }), nil
}

func (s *MemoryStore) Get(_ context.Context, id int) (model.Hero, error) {
	defer observe(DriverMemory, "get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.heroes[id]
	if !ok {
		return model.Hero{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	return h, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) ([]model.Hero, error) {
	defer observe(DriverMemory, "find_by_id", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.heroes[id]; ok {
		return []model.Hero{h}, nil
	}
	return []model.Hero{}, nil
}

func (s *MemoryStore) SearchByName(_ context.Context, term string) ([]model.Hero, error) {
	defer observe(DriverMemory, "search", time.Now())
	needle := strings.ToLower(term)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(h model.Hero) bool {
		return strings.Contains(strings.ToLower(h.Name), needle)
	}), nil
}

func (s *MemoryStore) Create(_ context.Context, h model.Hero) (model.Hero, error) {
	defer observe(DriverMemory, "create", time.Now())
	if err := h.Validate(); err != nil {
		return model.Hero{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == 0 {
		h.ID = s.nextID()
	} else if _, ok := s.heroes[h.ID]; ok {
		return model.Hero{}, fmt.Errorf("%w: id=%d", ErrConflict, h.ID)
	}
	s.heroes[h.ID] = h
	return h, nil
}

func (s *MemoryStore) Update(_ context.Context, h model.Hero) (model.Hero, error) {
	defer observe(DriverMemory, "update", time.Now())
	if err := h.Validate(); err != nil {
		return model.Hero{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.heroes[h.ID]; !ok {
		return model.Hero{}, fmt.Errorf("%w: id=%d", ErrNotFound, h.ID)
	}
	s.heroes[h.ID] = h
	return h, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int) (model.Hero, error) {
	defer observe(DriverMemory, "delete", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.heroes[id]
	if !ok {
		return model.Hero{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	delete(s.heroes, id)
	return h, nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.heroes)
}

// nextID is one past the highest stored id. Caller holds the write lock.
func (s *MemoryStore) nextID() int {
	if len(s.heroes) == 0 {
		return firstGeneratedID
	}
	highest := 0
	for id := range s.heroes {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

// sorted returns matching heroes ordered by id. Caller holds a read lock.
func (s *MemoryStore) sorted(keep func(model.Hero) bool) []model.Hero {
	out := make([]model.Hero, 0, len(s.heroes))
	for _, h := range s.heroes {
		if keep(h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	metrics.UpdateStoredHeroes(s.Count(context.Background()))
}

func observe(driver, op string, start time.Time) {
	metrics.RecordStoreLatency(driver, op, float64(time.Since(start).Microseconds())/1000)
}
