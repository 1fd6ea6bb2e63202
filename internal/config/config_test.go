package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/gpluscb/instant-glicko-2/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.MatchQueueSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
		})

		convey.Convey("Then the rating defaults should match the standard parameters", func() {
			convey.So(cfg.StartRating, convey.ShouldEqual, 1500.0)
			convey.So(cfg.StartDeviation, convey.ShouldEqual, 350.0)
			convey.So(cfg.StartVolatility, convey.ShouldEqual, 0.06)
			convey.So(cfg.VolatilityChange, convey.ShouldEqual, 0.5)
			convey.So(cfg.ConvergenceTolerance, convey.ShouldEqual, 0.000_001)
		})

		convey.Convey("Then the rating period should parse", func() {
			convey.So(cfg.Period(), convey.ShouldEqual, 24*time.Hour)
		})
	})
}

func TestConfig_Period(t *testing.T) {
	convey.Convey("Given a config with a custom rating period", t, func() {
		cfg := config.New()
		cfg.RatingPeriod = "30m"

		convey.Convey("Then Period should parse it", func() {
			convey.So(cfg.Period(), convey.ShouldEqual, 30*time.Minute)
		})
	})

	convey.Convey("Given a config with an unparsable rating period", t, func() {
		cfg := config.New()
		cfg.RatingPeriod = "bogus"

		convey.Convey("Then Period should fall back to 24h", func() {
			convey.So(cfg.Period(), convey.ShouldEqual, 24*time.Hour)
		})
	})
}
