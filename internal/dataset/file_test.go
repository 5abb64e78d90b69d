package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/mentorpulse/internal/adapters/repository"
	"github.com/okian/mentorpulse/internal/dataset"
	model "github.com/okian/mentorpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const sample = `
mentoring:
  - student_id: aluno1
    student_name: Joao
    organization: Acme
    cohort: Turma 1
    session: 1
    session_date: 2025-02-03
    attendance: present
    task: delivered
    engagement: 4.5
events:
  - student_id: aluno1
    event_title: Webinar
    attendance: absent
performance:
  - student_id: aluno1
    competency_id: comp-1
    competency_name: Liderança
    score: 8.5
cycles:
  aluno1:
    - id: ciclo-1
      name: Ciclo 1
      start: 2025-02-01
      end: 2025-02-28
      competency_ids: [comp-1]
mandatory:
  aluno1:
    - competency_id: comp-1
      code: LIDERANCA - Master
      current_grade: "8,5"
      target_grade: "7"
`

func TestDecode(t *testing.T) {
	Convey("Given a YAML dataset", t, func() {
		Convey("When it is decoded", func() {
			ds, err := dataset.Decode(strings.NewReader(sample))

			Convey("Then every record set is read", func() {
				So(err, ShouldBeNil)
				So(ds.Mentoring, ShouldHaveLength, 1)
				So(*ds.Mentoring[0].Engagement, ShouldEqual, 4.5)
				So(ds.Mentoring[0].SessionDate.String(), ShouldEqual, "2025-02-03")
				So(ds.Events[0].Attendance, ShouldEqual, model.AttendanceAbsent)
				So(*ds.Performance[0].Score, ShouldEqual, 8.5)
				So(ds.Cycles["aluno1"][0].End.String(), ShouldEqual, "2025-02-28")
				So(ds.Mandatory["aluno1"][0].CurrentGrade, ShouldEqual, "8,5")
			})
		})

		Convey("When it has an unknown key", func() {
			_, err := dataset.Decode(strings.NewReader("mentorship: []\n"))
			So(errors.Is(err, dataset.ErrInvalidDataset), ShouldBeTrue)
		})

		Convey("When it is empty", func() {
			ds, err := dataset.Decode(strings.NewReader(""))
			So(err, ShouldBeNil)
			So(ds.Len(), ShouldEqual, 0)
		})
	})
}

func TestSaveAndFileSource(t *testing.T) {
	Convey("Given a dataset saved to a nested path", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "data", "cohort.yaml")
		original, err := dataset.Decode(strings.NewReader(sample))
		So(err, ShouldBeNil)
		So(dataset.Save(path, original), ShouldBeNil)

		Convey("When a file source loads it", func() {
			ds, err := dataset.NewFileSource(path).Load(context.Background())

			Convey("Then the content survives", func() {
				So(err, ShouldBeNil)
				So(ds, ShouldResemble, original)
			})
		})

		Convey("When the file disappears", func() {
			So(os.Remove(path), ShouldBeNil)
			_, err := dataset.NewFileSource(path).Load(context.Background())

			Convey("Then the source reports itself unavailable", func() {
				So(errors.Is(err, repository.ErrSourceUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := dataset.NewFileSource(path).Load(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
