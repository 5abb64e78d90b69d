package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/mentorpulse/internal/adapters/repository"
	model "github.com/okian/mentorpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryRecordStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty record store", t, func() {
		store := repository.NewMemoryRecordStore()

		Convey("When a batch is appended", func() {
			affected := store.Append(ctx, &model.Dataset{
				Mentoring: []model.MentoringRecord{{StudentID: "b"}, {StudentID: "a"}},
				Events:    []model.EventRecord{{StudentID: "c"}, {StudentID: "b"}},
				Cycles: map[string][]model.ExecutionCycle{
					"z": {{ID: "c1", Start: model.NewDate(2025, time.January, 1), End: model.NewDate(2025, time.March, 1)}},
				},
				Mandatory: map[string][]model.MandatoryCompetency{
					"a": {{Code: "comp1"}},
				},
			})

			Convey("Then affected ids follow discovery order and include plan-only students", func() {
				So(affected, ShouldResemble, []string{"b", "a", "c", "z"})
				So(store.StudentIDs(ctx), ShouldResemble, []string{"b", "a", "c", "z"})
				So(store.Len(ctx), ShouldEqual, 4)
			})

			Convey("Then a student's records can be read back", func() {
				data, err := store.Student(ctx, "b")
				So(err, ShouldBeNil)
				So(data.Mentoring, ShouldHaveLength, 1)
				So(data.Events, ShouldHaveLength, 1)

				plan, _ := store.Student(ctx, "a")
				So(plan.Mandatory, ShouldHaveLength, 1)
			})

			Convey("And a second batch appends records and replaces plans", func() {
				store.Append(ctx, &model.Dataset{
					Mentoring: []model.MentoringRecord{{StudentID: "a"}},
					Mandatory: map[string][]model.MandatoryCompetency{"a": {{Code: "x"}, {Code: "y"}}},
				})
				data, _ := store.Student(ctx, "a")
				So(data.Mentoring, ShouldHaveLength, 2)
				So(data.Mandatory, ShouldHaveLength, 2)
				So(store.StudentIDs(ctx), ShouldResemble, []string{"b", "a", "c", "z"})
			})

			Convey("And every write advances the revisions of the students it touches", func() {
				So(store.Revision(ctx), ShouldEqual, 1)
				store.Append(ctx, &model.Dataset{Events: []model.EventRecord{{StudentID: "a"}}})
				So(store.Revision(ctx), ShouldEqual, 2)

				a, _ := store.Student(ctx, "a")
				b, _ := store.Student(ctx, "b")
				So(a.Revision, ShouldEqual, 2)
				So(b.Revision, ShouldEqual, 1)

				store.Replace(ctx, &model.Dataset{Events: []model.EventRecord{{StudentID: "b"}}})
				b, _ = store.Student(ctx, "b")
				So(store.Revision(ctx), ShouldEqual, 3)
				So(b.Revision, ShouldEqual, 3)
			})

			Convey("And the snapshot holds everything", func() {
				ds := store.Snapshot(ctx)
				So(ds.Len(), ShouldEqual, 4)
				So(ds.Cycles, ShouldContainKey, "z")
				So(ds.Mandatory, ShouldContainKey, "a")
			})

			Convey("And replace swaps the whole content", func() {
				ids := store.Replace(ctx, &model.Dataset{Events: []model.EventRecord{{StudentID: "n"}}})
				So(ids, ShouldResemble, []string{"n"})
				So(store.Len(ctx), ShouldEqual, 1)
				_, err := store.Student(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When an unknown student is requested", func() {
			_, err := store.Student(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a nil batch is appended", func() {
			So(store.Append(ctx, nil), ShouldBeEmpty)
		})
	})
}
