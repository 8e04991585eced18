package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/heroes/internal/adapters/http/api"
	"github.com/okian/heroes/internal/adapters/repository"
	"github.com/okian/heroes/internal/domain/messages"
	"github.com/okian/heroes/internal/domain/model"
)

// brokenStore fails every call the way a lost database connection would.
type brokenStore struct{ repository.Store }

var errDown = errors.New("connection refused")

func (brokenStore) List(context.Context) ([]model.Hero, error) { return nil, errDown }
func (brokenStore) Count(context.Context) int                  { return 0 }

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeHeroes(w *httptest.ResponseRecorder) []model.Hero {
	var heroes []model.Hero
	So(json.Unmarshal(w.Body.Bytes(), &heroes), ShouldBeNil)
	return heroes
}

func decodeHero(w *httptest.ResponseRecorder) model.Hero {
	var hero model.Hero
	So(json.Unmarshal(w.Body.Bytes(), &hero), ShouldBeNil)
	return hero
}

func TestHeroRoutes(t *testing.T) {
	Convey("Given a backend over the default roster", t, func() {
		store := repository.NewMemoryStore(context.Background(), repository.WithSeed(repository.DefaultHeroes()))
		defer store.Close()
		h := api.NewServer(store).Handler()

		Convey("When listing the collection", func() {
			w := do(h, http.MethodGet, "/api/heroes", "")

			Convey("Then every hero is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(decodeHeroes(w), ShouldHaveLength, 10)
			})
		})

		Convey("When filtering by name", func() {
			w := do(h, http.MethodGet, "/api/heroes/?name=mag", "")

			Convey("Then matches are case-insensitive substrings", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeHeroes(w), ShouldResemble, []model.Hero{{ID: 15, Name: "Magneta"}, {ID: 19, Name: "Magma"}})
			})
		})

		Convey("When filtering by id", func() {
			found := do(h, http.MethodGet, "/api/heroes/?id=12", "")
			missing := do(h, http.MethodGet, "/api/heroes/?id=99", "")
			bad := do(h, http.MethodGet, "/api/heroes/?id=x", "")

			Convey("Then a list of zero or one is returned without 404", func() {
				So(found.Code, ShouldEqual, http.StatusOK)
				So(decodeHeroes(found), ShouldResemble, []model.Hero{{ID: 12, Name: "Narco"}})
				So(missing.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(missing.Body.String()), ShouldEqual, "[]")
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When getting a single hero", func() {
			found := do(h, http.MethodGet, "/api/heroes/13", "")
			missing := do(h, http.MethodGet, "/api/heroes/99", "")
			bad := do(h, http.MethodGet, "/api/heroes/abc", "")

			Convey("Then a missing id is 404", func() {
				So(found.Code, ShouldEqual, http.StatusOK)
				So(decodeHero(found).Name, ShouldEqual, "Bombasto")
				So(missing.Code, ShouldEqual, http.StatusNotFound)
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When creating a hero", func() {
			w := do(h, http.MethodPost, "/api/heroes", `{"name":"Zed"}`)

			Convey("Then it is created with the next id", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decodeHero(w), ShouldResemble, model.Hero{ID: 21, Name: "Zed"})
				So(store.Count(context.Background()), ShouldEqual, 11)
			})
		})

		Convey("When creating invalid or conflicting heroes", func() {
			So(do(h, http.MethodPost, "/api/heroes", `{"name":""}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/api/heroes", `{not json`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/api/heroes", `{"id":11,"name":"Again"}`).Code, ShouldEqual, http.StatusConflict)
		})

		Convey("When updating through the collection", func() {
			w := do(h, http.MethodPut, "/api/heroes", `{"id":11,"name":"Dr. Nice"}`)

			Convey("Then the updated hero is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeHero(w).Name, ShouldEqual, "Dr. Nice")
				So(do(h, http.MethodPut, "/api/heroes", `{"id":99,"name":"Ghost"}`).Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When updating through an item", func() {
			w := do(h, http.MethodPut, "/api/heroes/12", `{"name":"Narcolepsy"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeHero(w), ShouldResemble, model.Hero{ID: 12, Name: "Narcolepsy"})
		})

		Convey("When deleting a hero", func() {
			w := do(h, http.MethodDelete, "/api/heroes/20", "")

			Convey("Then the deleted hero is returned and gone", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeHero(w).Name, ShouldEqual, "Tornado")
				So(do(h, http.MethodDelete, "/api/heroes/20", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When using an unsupported method", func() {
			w := do(h, http.MethodPatch, "/api/heroes", "")

			Convey("Then 405 lists the allowed methods", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldContainSubstring, http.MethodPost)
			})
		})

		Convey("When asking for health", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"heroes":10`)
		})

		Convey("When scraping metrics", func() {
			do(h, http.MethodGet, "/api/heroes", "")
			w := do(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "heroes_http_requests_total")
		})
	})

	Convey("Given a backend whose store is down", t, func() {
		h := api.NewServer(brokenStore{}).Handler()

		Convey("Then listing is a 500 without leaking the cause", func() {
			w := do(h, http.MethodGet, "/api/heroes", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldNotContainSubstring, errDown.Error())
		})
	})
}

func TestHeroesPathAndMessages(t *testing.T) {
	Convey("Given a backend on a custom path with a message log", t, func() {
		store := repository.NewMemoryStore(context.Background(), repository.WithSeed(repository.DefaultHeroes()))
		defer store.Close()
		log := messages.New()
		log.Add("HeroService: fetched heroes")
		h := api.NewServer(store, api.WithHeroesPath("/v2/heroes/"), api.WithMessages(log)).Handler()

		Convey("Then the collection is served on that path", func() {
			So(do(h, http.MethodGet, "/v2/heroes", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/api/heroes", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then messages can be read and cleared", func() {
			w := do(h, http.MethodGet, "/messages", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "HeroService: fetched heroes")

			So(do(h, http.MethodDelete, "/messages", "").Code, ShouldEqual, http.StatusNoContent)
			So(log.Len(), ShouldEqual, 0)
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a backend allowing a burst of two", t, func() {
		store := repository.NewMemoryStore(context.Background())
		defer store.Close()
		h := api.NewServer(store, api.WithRateLimit(0.001, 2)).Handler()

		codes := []int{
			do(h, http.MethodGet, "/api/heroes", "").Code,
			do(h, http.MethodGet, "/api/heroes", "").Code,
			do(h, http.MethodGet, "/api/heroes", "").Code,
		}

		Convey("Then the third request is rejected", func() {
			So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
		})

		Convey("Then health checks are not limited", func() {
			So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
		})
	})
}
