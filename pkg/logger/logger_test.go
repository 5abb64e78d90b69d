package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, FormatJSON), ShouldBeNil)

		Convey("When logging with fields through a named logger", func() {
			Named("worker").Info(ctx, "job done", String("student_id", "s1"), Int("attempt", 2), Error(errors.New("boom")))

			Convey("Then the record carries the name, fields and caller", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "job done")
				So(line["logger"], ShouldEqual, "worker")
				So(line["student_id"], ShouldEqual, "s1")
				So(line["error"], ShouldEqual, "boom")
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden too")

			Convey("Then lower records are dropped", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the level string is unknown", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})

	Convey("Given an unknown format", t, func() {
		So(InitWith(&bytes.Buffer{}, Format("xml")), ShouldNotBeNil)
	})

	Convey("Given the no-op logger", t, func() {
		l := Nop()

		Convey("Then fatal does not exit", func() {
			So(func() { l.Named("x").Fatal(ctx, "ignored") }, ShouldNotPanic)
		})
	})

	Convey("Given the default initialization", t, func() {
		So(Init(), ShouldBeNil)
		So(Get(), ShouldNotBeNil)
		So(Sync(), ShouldBeNil)
	})
}
