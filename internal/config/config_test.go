package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/mentorpulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.ApprovalThreshold, convey.ShouldEqual, 7.0)
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one invalid setting each", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = " " },
			"negative threshold": func(c *config.Config) { c.ApprovalThreshold = -1 },
			"threshold above 10": func(c *config.Config) { c.ApprovalThreshold = 10.5 },
			"zero queue":         func(c *config.Config) { c.QueueSize = 0 },
			"zero dedupe":        func(c *config.Config) { c.DedupeSize = 0 },
			"zero limit":         func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			"negative ttl":       func(c *config.Config) { c.CacheTTLSeconds = -5 },
			"unknown level":      func(c *config.Config) { c.LogLevel = "loud" },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(name, convey.ShouldNotBeEmpty)
		}

		convey.Convey("And the threshold bounds themselves are accepted", func() {
			cfg := config.New()
			cfg.ApprovalThreshold = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			cfg.ApprovalThreshold = 10
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
