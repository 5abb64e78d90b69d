package indicators_test

import (
	"testing"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeCompetency(t *testing.T) {
	Convey("Given competency references written in different ways", t, func() {
		Convey("Then case, accents and surrounding space are folded", func() {
			So(indicators.NormalizeCompetency("  Comunicação "), ShouldEqual, "comunicacao")
			So(indicators.NormalizeCompetency("LIDERANÇA"), ShouldEqual, "lideranca")
		})

		Convey("Then punctuation collapses to single spaces", func() {
			So(indicators.NormalizeCompetency("Tomada-de_Decisão!"), ShouldEqual, "tomada de decisao")
		})

		Convey("Then level suffixes are stripped", func() {
			So(indicators.NormalizeCompetency("Liderança - Master"), ShouldEqual, "lideranca")
			So(indicators.NormalizeCompetency("Adaptabilidade Essencial"), ShouldEqual, "adaptabilidade")
			So(indicators.NormalizeCompetency("Negotiation - Essential"), ShouldEqual, "negotiation")
			So(indicators.NormalizeCompetency("Gestão Básica"), ShouldEqual, "gestao")
		})

		Convey("Then a lone suffix word is kept", func() {
			So(indicators.NormalizeCompetency("Master"), ShouldEqual, "master")
		})

		Convey("Then empty input stays empty", func() {
			So(indicators.NormalizeCompetency("   "), ShouldEqual, "")
		})
	})

	Convey("Given two references", t, func() {
		So(indicators.MatchCompetency("comp1", "COMP1"), ShouldBeTrue)
		So(indicators.MatchCompetency("Liderança - Master", "lideranca"), ShouldBeTrue)
		So(indicators.MatchCompetency("comp1", "comp2"), ShouldBeFalse)
		So(indicators.MatchCompetency("", ""), ShouldBeFalse)
	})
}
