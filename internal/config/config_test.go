package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/gigmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.RecommendationThreshold, convey.ShouldEqual, 20)
			convey.So(cfg.DashboardThreshold, convey.ShouldEqual, 30)
			convey.So(cfg.DashboardTopN, convey.ShouldEqual, 6)
			convey.So(cfg.MaxLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break a constraint", t, func() {
		cases := map[string]func(*config.Config){
			"unknown store_driver":     func(c *config.Config) { c.StoreDriver = "sqlite" },
			"postgres_dsn is required": func(c *config.Config) { c.StoreDriver = config.DriverPostgres },
			"recommendation_threshold": func(c *config.Config) { c.RecommendationThreshold = 101 },
			"dashboard_threshold":      func(c *config.Config) { c.DashboardThreshold = -1 },
			"dashboard_top_n":          func(c *config.Config) { c.DashboardTopN = 0 },
			"max_limit":                func(c *config.Config) { c.MaxLimit = 0 },
		}

		for want, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, want)
		}
	})

	convey.Convey("Given a postgres config with a DSN", t, func() {
		cfg := config.New()
		cfg.StoreDriver = config.DriverPostgres
		cfg.PostgresDSN = "postgres://localhost/gigmatch"

		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
