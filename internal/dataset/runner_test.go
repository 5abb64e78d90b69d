package dataset_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/mentorpulse/internal/adapters/http/api"
	service "github.com/okian/mentorpulse/internal/app"
	"github.com/okian/mentorpulse/internal/dataset"
	"github.com/okian/mentorpulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a running service behind the HTTP API", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1000), service.WithLogger(logger.Nop()))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Close() }()

		mux := http.NewServeMux()
		api.NewServer(svc, 100).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := dataset.NewClient(srv.URL, dataset.WithLogger(logger.Nop()))
		cfg := dataset.DefaultGenerateConfig()
		cfg.Students = 25
		ds, err := dataset.Generate(ctx, cfg)
		So(err, ShouldBeNil)

		Convey("When a generated dataset is submitted with verification", func() {
			report, err := dataset.Run(ctx, client, ds, dataset.RunOptions{
				BatchID: "run-1",
				Verify:  true,
				Top:     10,
				Wait:    5 * time.Second,
				Poll:    20 * time.Millisecond,
			})

			Convey("Then the service leaderboard matches the local computation", func() {
				So(err, ShouldBeNil)
				So(report.Ack.Status, ShouldEqual, "accepted")
				So(report.Ack.Students, ShouldEqual, 25)
				So(report.Verified, ShouldBeTrue)
				So(report.Leaderboard, ShouldHaveLength, 10)
			})

			Convey("And submitting the same batch again is a duplicate", func() {
				again, err := dataset.Run(ctx, client, ds, dataset.RunOptions{BatchID: "run-1"})
				So(err, ShouldBeNil)
				So(again.Ack.Duplicate, ShouldBeTrue)
				So(again.Verified, ShouldBeFalse)
			})
		})
	})
}
