// Package api serves the hero REST backend.
package api

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/heroes/internal/adapters/repository"
	"github.com/okian/heroes/pkg/logger"
)

const defaultHeroesPath = "/api/heroes"

// Server wires HTTP routes for the hero backend.
type Server struct {
	store      repository.Store
	heroesPath string
	messages   MessageLog
	limiter    *rate.Limiter
	logger     logger.Logger

	healthHandler   *HealthHandler
	heroesHandler   *HeroesHandler
	messagesHandler *MessagesHandler
}

// NewServer creates a new API server over store.
func NewServer(store repository.Store, opts ...Option) *Server {
	s := &Server{
		store:      store,
		heroesPath: defaultHeroesPath,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(store)
	s.heroesHandler = NewHeroesHandler(store, s.heroesPath, s.logger)
	if s.messages != nil {
		s.messagesHandler = NewMessagesHandler(s.messages)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)

	heroes := MetricsMiddleware(RateLimitMiddleware(s.heroesHandler.Handle, s.limiter), "heroes")
	mux.HandleFunc(s.heroesPath, heroes)
	mux.HandleFunc(s.heroesPath+"/", heroes)

	if s.messagesHandler != nil {
		mux.HandleFunc("/messages", MetricsMiddleware(s.messagesHandler.Handle, "messages"))
	}
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
