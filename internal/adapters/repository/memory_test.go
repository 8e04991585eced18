package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/heroes/internal/domain/model"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store seeded with the default heroes", t, func() {
		store := NewMemoryStore(ctx, WithSeed(DefaultHeroes()))
		defer store.Close()

		Convey("When listing", func() {
			heroes, err := store.List(ctx)

			Convey("Then all ten are returned in id order", func() {
				So(err, ShouldBeNil)
				So(heroes, ShouldHaveLength, 10)
				So(heroes[0], ShouldResemble, model.Hero{ID: 11, Name: "Mr. Nice"})
				So(heroes[9], ShouldResemble, model.Hero{ID: 20, Name: "Tornado"})
				So(store.Count(ctx), ShouldEqual, 10)
			})
		})

		Convey("When searching by name", func() {
			heroes, err := store.SearchByName(ctx, "MA")

			Convey("Then matching is a case-insensitive substring match", func() {
				So(err, ShouldBeNil)
				So(heroes, ShouldResemble, []model.Hero{
					{ID: 15, Name: "Magneta"},
					{ID: 16, Name: "RubberMan"},
					{ID: 17, Name: "Dynama"},
					{ID: 19, Name: "Magma"},
				})
			})
		})

		Convey("When looking up by id", func() {
			h, err := store.Get(ctx, 13)
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "Bombasto")

			_, err = store.Get(ctx, 99)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			found, err := store.FindByID(ctx, 99)
			So(err, ShouldBeNil)
			So(found, ShouldNotBeNil)
			So(found, ShouldBeEmpty)

			found, err = store.FindByID(ctx, 14)
			So(err, ShouldBeNil)
			So(found, ShouldResemble, []model.Hero{{ID: 14, Name: "Celeritas"}})
		})

		Convey("When creating without an id", func() {
			h, err := store.Create(ctx, model.Hero{Name: "Zed"})

			Convey("Then the next id is one past the highest", func() {
				So(err, ShouldBeNil)
				So(h.ID, ShouldEqual, 21)
				So(store.Count(ctx), ShouldEqual, 11)
			})
		})

		Convey("When creating with a taken id", func() {
			_, err := store.Create(ctx, model.Hero{ID: 11, Name: "Impostor"})
			So(errors.Is(err, ErrConflict), ShouldBeTrue)
		})

		Convey("When creating a hero without a name", func() {
			_, err := store.Create(ctx, model.Hero{Name: "  "})
			So(errors.Is(err, ErrInvalid), ShouldBeTrue)
		})

		Convey("When updating", func() {
			h, err := store.Update(ctx, model.Hero{ID: 11, Name: "Dr. Nice"})
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "Dr. Nice")

			got, _ := store.Get(ctx, 11)
			So(got.Name, ShouldEqual, "Dr. Nice")

			_, err = store.Update(ctx, model.Hero{ID: 99, Name: "Nobody"})
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When deleting", func() {
			h, err := store.Delete(ctx, 20)
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "Tornado")

			_, err = store.Delete(ctx, 20)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			Convey("Then the next id reuses the freed maximum", func() {
				created, err := store.Create(ctx, model.Hero{Name: "Whirlwind"})
				So(err, ShouldBeNil)
				So(created.ID, ShouldEqual, 20)
			})
		})
	})

	Convey("Given an empty store", t, func() {
		store := NewMemoryStore(ctx)
		defer store.Close()

		Convey("Then generated ids start at 11", func() {
			h, err := store.Create(ctx, model.Hero{Name: "First"})
			So(err, ShouldBeNil)
			So(h.ID, ShouldEqual, 11)
		})

		Convey("Then concurrent creates get distinct ids", func() {
			var wg sync.WaitGroup
			ids := make(chan int, 50)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					h, err := store.Create(ctx, model.Hero{Name: "Clone"})
					if err == nil {
						ids <- h.ID
					}
				}()
			}
			wg.Wait()
			close(ids)

			seen := map[int]bool{}
			for id := range ids {
				So(seen[id], ShouldBeFalse)
				seen[id] = true
			}
			So(seen, ShouldHaveLength, 50)
		})
	})
}

func TestMemoryStoreClose(t *testing.T) {
	Convey("Given a running store", t, func() {
		store := NewMemoryStore(context.Background())

		Convey("Then Close is idempotent", func() {
			So(store.Close(), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
		})
	})
}
