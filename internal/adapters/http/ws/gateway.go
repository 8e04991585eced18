// Package ws exposes the search pipeline to browsers over a websocket.
// Each text frame a client sends is a search term; each result the
// pipeline delivers is written back as a JSON array of heroes.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/okian/heroes/internal/domain/search"
	"github.com/okian/heroes/pkg/logger"
	"github.com/okian/heroes/pkg/metrics"
)

const (
	defaultIdleTimeout = 5 * time.Minute
	writeTimeout       = 10 * time.Second
	maxTermBytes       = 1 << 10
)

// Gateway upgrades requests and runs one pipeline per connection.
type Gateway struct {
	searcher       search.Searcher
	debounce       time.Duration
	idleTimeout    time.Duration
	originPatterns []string
	logger         logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// mu orders session registration against Shutdown so wg.Add never
	// races wg.Wait.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a gateway answering terms through s.
func New(s search.Searcher, opts ...Option) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gateway{
		searcher:    s,
		debounce:    search.DefaultDebounce,
		idleTimeout: defaultIdleTimeout,
		logger:      logger.Nop(),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ServeHTTP handles GET /ws/search.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.track() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer g.wg.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  g.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		g.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	conn.SetReadLimit(maxTermBytes)
	g.serve(conn)
}

// track registers a session unless the gateway is shutting down.
func (g *Gateway) track() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	return true
}

// Shutdown closes every session and waits for them to finish.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.cancel()
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) serve(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(g.ctx)
	defer cancel()

	id := uuid.New().String()
	log := g.logger.Named("ws").Named(id)
	metrics.AddWebsocketSessions(1)
	defer metrics.AddWebsocketSessions(-1)
	log.Debug(ctx, "search session opened")

	pipeline := search.New(g.searcher, search.WithDebounce(g.debounce), search.WithLogger(log))
	results := pipeline.Results(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		for heroes := range results {
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, heroes)
			wcancel()
			if err != nil {
				log.Debug(ctx, "search session write failed", logger.Error(err))
				return
			}
		}
	}()

	status, reason := g.readTerms(ctx, conn, pipeline, log)

	pipeline.Close()
	cancel()
	<-writerDone
	_ = conn.Close(status, reason)
	log.Debug(context.Background(), "search session closed")
}

// readTerms submits every text frame until the client leaves, goes idle or
// the gateway shuts down. It returns the close status to send.
func (g *Gateway) readTerms(ctx context.Context, conn *websocket.Conn, pipeline *search.Pipeline, log logger.Logger) (websocket.StatusCode, string) {
	for {
		rctx, rcancel := context.WithTimeout(ctx, g.idleTimeout)
		typ, data, err := conn.Read(rctx)
		rcancel()

		if err != nil {
			switch {
			case g.ctx.Err() != nil:
				return websocket.StatusGoingAway, "server shutting down"
			case errors.Is(err, context.DeadlineExceeded):
				return websocket.StatusPolicyViolation, "idle timeout"
			case websocket.CloseStatus(err) != -1:
				return websocket.StatusNormalClosure, ""
			default:
				log.Debug(ctx, "search session read failed", logger.Error(err))
				return websocket.StatusInternalError, "read failed"
			}
		}
		if typ != websocket.MessageText {
			continue
		}
		if err := pipeline.Submit(string(data)); err != nil {
			return websocket.StatusNormalClosure, ""
		}
	}
}
