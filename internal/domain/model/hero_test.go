package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/heroes/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHero(t *testing.T) {
	Convey("Given heroes and ids", t, func() {
		Convey("When resolving references", func() {
			refs := []model.Ref{model.Hero{ID: 12, Name: "Narco"}, model.ID(13)}

			Convey("Then both kinds yield their id", func() {
				So(refs[0].HeroID(), ShouldEqual, 12)
				So(refs[1].HeroID(), ShouldEqual, 13)
			})
		})

		Convey("When validating", func() {
			So(model.Hero{Name: "Bombasto"}.Validate(), ShouldBeNil)

			err := model.Hero{Name: "   "}.Validate()
			So(errors.Is(err, model.ErrInvalidHero), ShouldBeTrue)

			err = model.Hero{ID: -1, Name: "Celeritas"}.Validate()
			So(errors.Is(err, model.ErrInvalidHero), ShouldBeTrue)
		})

		Convey("When decoding the wire shape", func() {
			var h model.Hero
			So(json.Unmarshal([]byte(`{"id":15,"name":"Magneta"}`), &h), ShouldBeNil)

			Convey("Then id and name are set", func() {
				So(h, ShouldResemble, model.Hero{ID: 15, Name: "Magneta"})
				So(h.String(), ShouldEqual, "15:Magneta")
			})
		})
	})
}
