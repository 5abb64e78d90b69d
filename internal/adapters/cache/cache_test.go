package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/mentorpulse/internal/adapters/cache"
	"github.com/okian/mentorpulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func unreachable() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.MaxRetries = -1
	cfg.DialTimeout = 200 * time.Millisecond
	cfg.ReadTimeout = 200 * time.Millisecond
	cfg.WriteTimeout = 200 * time.Millisecond
	return cfg
}

func TestDashboardCacheKeys(t *testing.T) {
	Convey("Given a cache with the default namespace", t, func() {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
		defer client.Close()
		c := cache.NewWithClient(client, cache.DefaultConfig(), cache.WithLogger(logger.Nop()))

		Convey("Then keys carry namespace, prefix, epoch and version", func() {
			So(c.DashboardKey("e1", 7), ShouldEqual, "mentorpulse:dashboard:e1:7")
			So(c.OrganizationKey("Acme", "e1", 12), ShouldEqual, "mentorpulse:dashboard:organization:Acme:e1:12")
		})

		Convey("Then different versions or epochs never share a key", func() {
			So(c.DashboardKey("e1", 1), ShouldNotEqual, c.DashboardKey("e1", 2))
			So(c.DashboardKey("e1", 1), ShouldNotEqual, c.DashboardKey("e2", 1))
			So(c.OrganizationKey("Acme", "e1", 1), ShouldNotEqual, c.OrganizationKey("Acme", "e2", 1))
		})

		Convey("Then caching nil is rejected", func() {
			err := c.Set(context.Background(), c.DashboardKey("e1", 1), nil)
			So(errors.Is(err, cache.ErrCacheNilValue), ShouldBeTrue)
		})
	})
}

func TestDashboardCacheUnavailable(t *testing.T) {
	Convey("Given Redis is unreachable", t, func() {
		ctx := context.Background()

		Convey("When connecting", func() {
			c, err := cache.New(ctx, unreachable(), cache.WithLogger(logger.Nop()))

			Convey("Then a connection error is returned", func() {
				So(c, ShouldBeNil)
				So(errors.Is(err, cache.ErrCacheConnection), ShouldBeTrue)
			})
		})

		Convey("When reading through an unconnected client", func() {
			cfg := unreachable()
			client := redis.NewClient(&redis.Options{Addr: cfg.Addr, MaxRetries: -1, DialTimeout: cfg.DialTimeout})
			defer client.Close()
			c := cache.NewWithClient(client, cfg, cache.WithLogger(logger.Nop()))

			var out map[string]any
			err := c.Get(ctx, c.DashboardKey("e1", 1), &out)

			Convey("Then the failure is not reported as a miss", func() {
				So(errors.Is(err, cache.ErrCacheMiss), ShouldBeFalse)
				So(errors.Is(err, cache.ErrCacheConnection), ShouldBeTrue)
			})
		})
	})
}
