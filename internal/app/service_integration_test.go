package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/heroes/internal/adapters/http/heroclient"
	service "github.com/okian/heroes/internal/app"
	"github.com/okian/heroes/internal/domain/messages"
	"github.com/okian/heroes/internal/domain/model"
)

// startServer runs a service whose gateway client calls back into the same
// test server.
func startServer(opts ...service.Option) (*service.Service, *httptest.Server) {
	var (
		mu sync.RWMutex
		h  http.Handler = http.NotFoundHandler()
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		h.ServeHTTP(w, r)
	}))

	opts = append([]service.Option{service.WithBaseURL(srv.URL)}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)

	handler, err := svc.Handler()
	So(err, ShouldBeNil)
	mu.Lock()
	h = handler
	mu.Unlock()
	return svc, srv
}

func TestHeroClientAgainstBackend(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running heroes server", t, func() {
		svc, srv := startServer()
		defer srv.Close()
		defer svc.Stop()

		log := messages.New()
		client, err := heroclient.New(srv.URL, heroclient.WithMessageLogger(log))
		So(err, ShouldBeNil)

		Convey("When walking through the hero lifecycle", func() {
			all := client.ListHeroes(ctx)
			created := client.AddHero(ctx, model.Hero{Name: "Zed"})
			So(created, ShouldNotBeNil)
			updated := client.UpdateHero(ctx, model.Hero{ID: created.ID, Name: "Zed Prime"})
			strict := client.GetHero(ctx, created.ID)
			lenient := client.GetHeroLenient(ctx, created.ID)
			found := client.SearchHeroes(ctx, "prime")
			deleted := client.DeleteHero(ctx, model.ID(created.ID))
			gone := client.GetHero(ctx, created.ID)
			goneLenient := client.GetHeroLenient(ctx, created.ID)

			Convey("Then every step sees the previous one", func() {
				So(all, ShouldHaveLength, 10)
				So(created.ID, ShouldEqual, 21)
				So(updated, ShouldNotBeNil)
				So(updated.Name, ShouldEqual, "Zed Prime")
				So(strict, ShouldResemble, updated)
				So(lenient, ShouldResemble, updated)
				So(found, ShouldResemble, []model.Hero{*updated})
				So(deleted, ShouldResemble, updated)
				So(gone, ShouldBeNil)
				So(goneLenient, ShouldBeNil)
			})

			Convey("Then the message log tells the story with one failure", func() {
				texts := log.Texts()
				So(texts[0], ShouldEqual, "HeroService: fetched heroes")
				So(texts[1], ShouldEqual, "HeroService: added hero w/ id=21")
				So(texts, ShouldContain, "HeroService: updated hero id=21")
				So(texts, ShouldContain, `HeroService: found heroes matching "prime"`)
				So(texts, ShouldContain, "HeroService: deleted hero id=21")
				So(texts, ShouldContain, "HeroService: did not find hero id=21")

				var failed []string
				for _, tx := range texts {
					if strings.Contains(tx, "failed:") {
						failed = append(failed, tx)
					}
				}
				So(failed, ShouldHaveLength, 1)
				So(failed[0], ShouldStartWith, "HeroService: getHero id=21 failed: ")
			})
		})
	})
}

func TestSearchOverWebsocket(t *testing.T) {
	Convey("Given a running heroes server with a short debounce", t, func() {
		svc, srv := startServer(service.WithDebounce(20 * time.Millisecond))
		defer srv.Close()
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/search", nil)
		So(err, ShouldBeNil)
		defer conn.CloseNow()

		Convey("When typing a name", func() {
			for _, term := range []string{"m", "ma", "mag"} {
				So(conn.Write(ctx, websocket.MessageText, []byte(term)), ShouldBeNil)
			}
			var heroes []model.Hero
			So(wsjson.Read(ctx, conn, &heroes), ShouldBeNil)

			Convey("Then matching heroes come back and the search is logged", func() {
				So(heroes, ShouldResemble, []model.Hero{{ID: 15, Name: "Magneta"}, {ID: 19, Name: "Magma"}})
				So(svc.Messages().Texts(), ShouldResemble, []string{`HeroService: found heroes matching "mag"`})

				resp, err := http.Get(srv.URL + "/messages")
				So(err, ShouldBeNil)
				defer resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}
