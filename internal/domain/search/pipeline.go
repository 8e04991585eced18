// Package search turns a stream of typed search terms into a stream of hero
// lists. Terms are debounced, consecutive duplicates are dropped, and only
// the answer to the most recent term is ever delivered.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/heroes/internal/domain/dedupe"
	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
	"github.com/okian/heroes/pkg/metrics"
)

const (
	// DefaultDebounce is the quiet window between keystrokes.
	DefaultDebounce = 300 * time.Millisecond
	defaultBuffer   = 64
)

// Searcher answers a term with matching heroes. It must not fail; errors are
// the searcher's to swallow.
type Searcher interface {
	SearchHeroes(ctx context.Context, term string) []model.Hero
}

// Pipeline fans submitted terms out to every active subscription. Terms
// submitted before a subscription exists are not replayed to it.
type Pipeline struct {
	searcher Searcher
	debounce time.Duration
	buffer   int
	logger   logger.Logger

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
	done   chan struct{}
}

type subscription struct {
	in   chan string
	done chan struct{}
}

type fetchResult struct {
	gen    uint64
	term   string
	heroes []model.Hero
}

// New creates a pipeline searching through s.
func New(s Searcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher: s,
		debounce: DefaultDebounce,
		buffer:   defaultBuffer,
		logger:   logger.Nop(),
		subs:     make(map[*subscription]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit pushes a term into every subscription. It never blocks on a
// subscription that has been torn down.
func (p *Pipeline) Submit(term string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	metrics.RecordSearchTermSubmitted()
	for sub := range p.subs {
		select {
		case sub.in <- term:
		case <-sub.done:
		}
	}
	return nil
}

// Results subscribes to hero lists. The channel is closed when ctx is
// canceled or the pipeline is closed.
func (p *Pipeline) Results(ctx context.Context) <-chan []model.Hero {
	out := make(chan []model.Hero)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(out)
		return out
	}
	sub := &subscription{
		in:   make(chan string, p.buffer),
		done: make(chan struct{}),
	}
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	metrics.AddSearchSubscriptions(1)
	go p.run(ctx, sub, out)
	return out
}

// Close tears down every subscription and rejects further terms.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
}

// run owns all per-subscription state. Fetches report back tagged with the
// generation they were started in; anything older than the current
// generation is discarded.
func (p *Pipeline) run(ctx context.Context, sub *subscription, out chan<- []model.Hero) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		close(sub.done)
		p.mu.Lock()
		delete(p.subs, sub)
		p.mu.Unlock()
		close(out)
		metrics.AddSearchSubscriptions(-1)
	}()

	var (
		distinct = dedupe.NewConsecutive()
		timer    = time.NewTimer(time.Hour)
		timerC   <-chan time.Time
		pending  string
		waiting  bool

		gen     uint64
		fetched = make(chan fetchResult)

		latest []model.Hero
		outC   chan<- []model.Hero
	)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return

		case term := <-sub.in:
			if waiting {
				metrics.RecordSearchTermDebounced()
			}
			pending, waiting = term, true
			timer.Reset(p.debounce)
			timerC = timer.C

		case <-timerC:
			timerC, waiting = nil, false
			term := pending
			if distinct.SeenAndRecord(ctx, term) {
				metrics.RecordSearchTermDeduplicated()
				continue
			}
			gen++
			if outC != nil {
				metrics.RecordSearchResultSuperseded()
				latest, outC = nil, nil
			}
			if strings.TrimSpace(term) == "" {
				metrics.RecordSearchBlankTerm()
				latest, outC = []model.Hero{}, out
				continue
			}
			metrics.RecordSearchFetchStarted()
			p.logger.Debug(ctx, "searching heroes", logger.String("term", term), logger.Uint64("generation", gen))
			go p.fetch(ctx, gen, term, fetched)

		case res := <-fetched:
			if res.gen != gen {
				metrics.RecordSearchResultSuperseded()
				p.logger.Debug(ctx, "dropping superseded result", logger.String("term", res.term))
				continue
			}
			latest, outC = res.heroes, out

		case outC <- latest:
			metrics.RecordSearchResultDelivered()
			latest, outC = nil, nil
		}
	}
}

func (p *Pipeline) fetch(ctx context.Context, gen uint64, term string, results chan<- fetchResult) {
	heroes := p.searcher.SearchHeroes(ctx, term)
	if heroes == nil {
		heroes = []model.Hero{}
	}
	select {
	case results <- fetchResult{gen: gen, term: term, heroes: heroes}:
	case <-ctx.Done():
	}
}
