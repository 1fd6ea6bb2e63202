package model_test

import (
	"testing"
	"time"

	model "github.com/gpluscb/instant-glicko-2/internal/domain/model"
	"github.com/gpluscb/instant-glicko-2/pkg/engine"
	"github.com/smartystreets/goconvey/convey"
)

func TestMatchEvent(t *testing.T) {
	convey.Convey("Given a MatchEvent struct", t, func() {
		convey.Convey("When creating a new match event", func() {
			ts := time.Now()
			event := model.MatchEvent{
				MatchID: "match-123",
				PlayerA: engine.PlayerID(1),
				PlayerB: engine.PlayerID(2),
				Outcome: engine.Win,
				TS:      ts,
			}

			convey.Convey("Then it should have the correct values", func() {
				convey.So(event.MatchID, convey.ShouldEqual, "match-123")
				convey.So(event.PlayerA, convey.ShouldEqual, engine.PlayerID(1))
				convey.So(event.PlayerB, convey.ShouldEqual, engine.PlayerID(2))
				convey.So(event.Outcome, convey.ShouldEqual, engine.Win)
				convey.So(event.TS, convey.ShouldEqual, ts)
			})
		})

		convey.Convey("When creating a match event with zero values", func() {
			event := model.MatchEvent{}

			convey.Convey("Then it should have default values", func() {
				convey.So(event.MatchID, convey.ShouldEqual, "")
				convey.So(event.PlayerA, convey.ShouldEqual, engine.PlayerID(0))
				convey.So(event.PlayerB, convey.ShouldEqual, engine.PlayerID(0))
				convey.So(event.Outcome, convey.ShouldEqual, engine.Win)
				convey.So(event.TS, convey.ShouldEqual, time.Time{})
			})
		})

		convey.Convey("When creating events for each outcome", func() {
			outcomes := []engine.Outcome{engine.Win, engine.Draw, engine.Loss}

			convey.Convey("Then all outcomes should round-trip", func() {
				for _, outcome := range outcomes {
					event := model.MatchEvent{
						MatchID: "match-" + outcome.String(),
						PlayerA: 1,
						PlayerB: 2,
						Outcome: outcome,
						TS:      time.Now(),
					}
					convey.So(event.Outcome.String(), convey.ShouldNotBeEmpty)
				}
			})
		})
	})
}
