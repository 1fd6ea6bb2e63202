package glicko_test

import (
	"testing"

	"github.com/gpluscb/instant-glicko-2/pkg/glicko"
	. "github.com/smartystreets/goconvey/convey"
)

// paperSettings are the settings used in the worked example of Glickman's
// paper: tau = 0.5, default tolerance.
func paperSettings() glicko.Settings {
	s, err := glicko.NewSettings(glicko.WithVolatilityChange(0.5))
	So(err, ShouldBeNil)
	return s
}

func TestUpdate_PaperExample(t *testing.T) {
	Convey("Given the example player and results from Glickman's paper", t, func() {
		settings := paperSettings()

		player := glicko.Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}
		results := []glicko.GameResult{
			glicko.NewGameResult(glicko.Rating{Rating: 1400, Deviation: 30, Volatility: 0.06}, 1.0),
			glicko.NewGameResult(glicko.Rating{Rating: 1550, Deviation: 100, Volatility: 0.06}, 0.0),
			glicko.NewGameResult(glicko.Rating{Rating: 1700, Deviation: 300, Volatility: 0.06}, 0.0),
		}

		Convey("When updating over one full rating period", func() {
			updated, err := glicko.UpdateRating(player, results, 1.0, settings)

			Convey("Then the result should match the paper's worked example", func() {
				So(err, ShouldBeNil)
				So(updated.Rating, ShouldAlmostEqual, 1464.06, 0.01)
				So(updated.Deviation, ShouldAlmostEqual, 151.52, 0.01)
				So(updated.Volatility, ShouldAlmostEqual, 0.05999, 0.0001)
			})
		})
	})
}

func TestUpdate_NoResults(t *testing.T) {
	Convey("Given a player with no results", t, func() {
		settings := glicko.DefaultSettings()
		player := glicko.Rating{Rating: 1550, Deviation: 80, Volatility: 0.05}.Internal()

		Convey("When no time has elapsed", func() {
			updated, err := glicko.Update(player, nil, 0, settings)

			Convey("Then the rating should be unchanged", func() {
				So(err, ShouldBeNil)
				So(updated.Mu, ShouldAlmostEqual, player.Mu)
				So(updated.Phi, ShouldAlmostEqual, player.Phi)
				So(updated.Sigma, ShouldAlmostEqual, player.Sigma)
			})
		})

		Convey("When time elapses", func() {
			quarter, err := glicko.Update(player, nil, 0.25, settings)
			So(err, ShouldBeNil)
			full, err := glicko.Update(player, nil, 1.0, settings)
			So(err, ShouldBeNil)
			double, err := glicko.Update(player, nil, 2.0, settings)
			So(err, ShouldBeNil)

			Convey("Then only the deviation should grow, monotonically", func() {
				So(quarter.Mu, ShouldAlmostEqual, player.Mu)
				So(quarter.Sigma, ShouldAlmostEqual, player.Sigma)

				So(quarter.Phi, ShouldBeGreaterThan, player.Phi)
				So(full.Phi, ShouldBeGreaterThan, quarter.Phi)
				So(double.Phi, ShouldBeGreaterThan, full.Phi)
			})

			Convey("And two consecutive decays should equal one combined decay", func() {
				half, err := glicko.Update(player, nil, 0.5, settings)
				So(err, ShouldBeNil)
				halfAgain, err := glicko.Update(half, nil, 0.5, settings)
				So(err, ShouldBeNil)

				So(halfAgain.Phi, ShouldAlmostEqual, full.Phi, 1e-12)
			})
		})

		Convey("When the elapsed time is negative", func() {
			updated, err := glicko.Update(player, nil, -3.0, settings)

			Convey("Then it should be clamped to zero", func() {
				So(err, ShouldBeNil)
				So(updated.Phi, ShouldAlmostEqual, player.Phi)
			})
		})
	})
}

func TestUpdate_Direction(t *testing.T) {
	Convey("Given two evenly matched players", t, func() {
		settings := glicko.DefaultSettings()
		a := settings.StartRating()
		b := settings.StartRating()

		Convey("When A beats B", func() {
			newA, err := glicko.UpdateRating(a, []glicko.GameResult{glicko.NewGameResult(b, 1.0)}, 0, settings)
			So(err, ShouldBeNil)
			newB, err := glicko.UpdateRating(b, []glicko.GameResult{glicko.NewGameResult(a, 0.0)}, 0, settings)
			So(err, ShouldBeNil)

			Convey("Then the winner should gain and the loser should lose", func() {
				So(newA.Rating, ShouldBeGreaterThan, a.Rating)
				So(newB.Rating, ShouldBeLessThan, b.Rating)
			})

			Convey("And the changes should mirror each other", func() {
				So(newA.Rating-a.Rating, ShouldAlmostEqual, b.Rating-newB.Rating, 1e-9)
				So(newA.Deviation, ShouldAlmostEqual, newB.Deviation, 1e-9)
			})

			Convey("And both deviations should shrink", func() {
				So(newA.Deviation, ShouldBeLessThan, a.Deviation)
				So(newB.Deviation, ShouldBeLessThan, b.Deviation)
			})
		})

		Convey("When A and B draw", func() {
			newA, err := glicko.UpdateRating(a, []glicko.GameResult{glicko.NewGameResult(b, 0.5)}, 0, settings)
			So(err, ShouldBeNil)

			Convey("Then the rating should not move", func() {
				So(newA.Rating, ShouldAlmostEqual, a.Rating, 1e-9)
				So(newA.Deviation, ShouldBeLessThan, a.Deviation)
			})
		})
	})

	Convey("Given an upset between unevenly matched players", t, func() {
		settings := glicko.DefaultSettings()
		underdog := glicko.Rating{Rating: 1300, Deviation: 100, Volatility: 0.06}
		favorite := glicko.Rating{Rating: 1700, Deviation: 100, Volatility: 0.06}

		Convey("When the underdog wins", func() {
			upset, err := glicko.UpdateRating(underdog,
				[]glicko.GameResult{glicko.NewGameResult(favorite, 1.0)}, 0, settings)
			So(err, ShouldBeNil)

			expected, err := glicko.UpdateRating(favorite,
				[]glicko.GameResult{glicko.NewGameResult(underdog, 1.0)}, 0, settings)
			So(err, ShouldBeNil)

			Convey("Then the upset should move the rating more than the expected win", func() {
				So(upset.Rating-underdog.Rating, ShouldBeGreaterThan, expected.Rating-favorite.Rating)
			})
		})
	})
}

func TestUpdate_MultipleResults(t *testing.T) {
	Convey("Given a player with several results in one update", t, func() {
		settings := glicko.DefaultSettings()
		player := settings.StartRating()
		opponent := glicko.Rating{Rating: 1500, Deviation: 150, Volatility: 0.06}

		Convey("When all results are wins", func() {
			results := []glicko.GameResult{
				glicko.NewGameResult(opponent, 1.0),
				glicko.NewGameResult(opponent, 1.0),
				glicko.NewGameResult(opponent, 1.0),
			}
			updated, err := glicko.UpdateRating(player, results, 0, settings)
			So(err, ShouldBeNil)

			oneWin, err := glicko.UpdateRating(player,
				[]glicko.GameResult{glicko.NewGameResult(opponent, 1.0)}, 0, settings)
			So(err, ShouldBeNil)

			Convey("Then three wins should beat one win", func() {
				So(updated.Rating, ShouldBeGreaterThan, oneWin.Rating)
			})

			Convey("And more games should mean a smaller deviation", func() {
				So(updated.Deviation, ShouldBeLessThan, oneWin.Deviation)
			})
		})
	})
}

func TestUpdate_VolatilityConvergence(t *testing.T) {
	Convey("Given extreme but finite inputs", t, func() {
		settings := paperSettings()

		Convey("When an extremely surprising result arrives", func() {
			player := glicko.Rating{Rating: 1500, Deviation: 50, Volatility: 0.06}
			monster := glicko.Rating{Rating: 3000, Deviation: 30, Volatility: 0.06}

			updated, err := glicko.UpdateRating(player,
				[]glicko.GameResult{glicko.NewGameResult(monster, 1.0)}, 0, settings)

			Convey("Then the update should still converge", func() {
				So(err, ShouldBeNil)
				So(updated.Volatility, ShouldBeGreaterThan, player.Volatility)
			})
		})

		Convey("When a high-volatility player meets a surprising result", func() {
			player := glicko.Rating{Rating: 1500, Deviation: 350, Volatility: 0.5}
			opponent := glicko.Rating{Rating: 1500, Deviation: 350, Volatility: 0.5}

			updated, err := glicko.UpdateRating(player,
				[]glicko.GameResult{glicko.NewGameResult(opponent, 1.0)}, 1.0, settings)

			Convey("Then the update should converge and stay finite", func() {
				So(err, ShouldBeNil)
				So(updated.Rating, ShouldBeGreaterThan, player.Rating)
				So(updated.Volatility, ShouldBeGreaterThan, 0)
			})
		})
	})
}
