package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/heroes/internal/adapters/repository"
	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
)

const maxBodyBytes = 1 << 20

// HeroesHandler serves the hero collection and its items.
type HeroesHandler struct {
	store  repository.Store
	base   string
	logger logger.Logger
}

// NewHeroesHandler creates a handler for the collection mounted at base.
func NewHeroesHandler(store repository.Store, base string, l logger.Logger) *HeroesHandler {
	return &HeroesHandler{store: store, base: base, logger: l}
}

// Handle dispatches /api/heroes, /api/heroes/ and /api/heroes/{id}.
func (h *HeroesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, h.base), "/")
	if rest == "" {
		h.handleCollection(w, r)
		return
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid hero id %q", ErrBadRequest, rest))
		return
	}
	h.handleItem(w, r, id)
}

func (h *HeroesHandler) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		hero, ok := decodeHero(w, r)
		if !ok {
			return
		}
		created, err := h.store.Create(r.Context(), hero)
		if err != nil {
			h.storeError(r.Context(), w, "create", err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	case http.MethodPut:
		hero, ok := decodeHero(w, r)
		if !ok {
			return
		}
		h.update(w, r, hero)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodPut)
	}
}

func (h *HeroesHandler) handleItem(w http.ResponseWriter, r *http.Request, id int) {
	switch r.Method {
	case http.MethodGet:
		hero, err := h.store.Get(r.Context(), id)
		if err != nil {
			h.storeError(r.Context(), w, "get", err)
			return
		}
		writeJSON(w, http.StatusOK, hero)
	case http.MethodPut:
		hero, ok := decodeHero(w, r)
		if !ok {
			return
		}
		hero.ID = id
		h.update(w, r, hero)
	case http.MethodDelete:
		hero, err := h.store.Delete(r.Context(), id)
		if err != nil {
			h.storeError(r.Context(), w, "delete", err)
			return
		}
		writeJSON(w, http.StatusOK, hero)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// list honours the ?id= and ?name= filters, in that order of precedence.
func (h *HeroesHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		heroes []model.Hero
		err    error
	)
	switch {
	case q.Has("id"):
		id, convErr := strconv.Atoi(q.Get("id"))
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid id filter", ErrBadRequest))
			return
		}
		heroes, err = h.store.FindByID(r.Context(), id)
	case q.Has("name"):
		heroes, err = h.store.SearchByName(r.Context(), q.Get("name"))
	default:
		heroes, err = h.store.List(r.Context())
	}
	if err != nil {
		h.storeError(r.Context(), w, "list", err)
		return
	}
	if heroes == nil {
		heroes = []model.Hero{}
	}
	writeJSON(w, http.StatusOK, heroes)
}

func (h *HeroesHandler) update(w http.ResponseWriter, r *http.Request, hero model.Hero) {
	updated, err := h.store.Update(r.Context(), hero)
	if err != nil {
		h.storeError(r.Context(), w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HeroesHandler) storeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, repository.ErrInvalid):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		h.logger.Error(ctx, "store operation failed", logger.String("operation", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func decodeHero(w http.ResponseWriter, r *http.Request) (model.Hero, bool) {
	var hero model.Hero
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&hero); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return model.Hero{}, false
	}
	return hero, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethod)
}
