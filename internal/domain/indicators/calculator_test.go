package indicators_test

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const eps = 1e-9

func calculate(calc *indicators.Calculator, ds *model.Dataset, id string) indicators.StudentIndicators {
	return calc.CalculateStudent(id, ds.Mentoring, ds.Events, ds.Performance, ds.Cycles[id], ds.Mandatory[id])
}

func TestCalculateStudent(t *testing.T) {
	Convey("Given the sample dataset", t, func() {
		calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
		ds := sampleDataset()

		Convey("When computing a student with partial results", func() {
			s := calculate(calc, ds, "aluno1")

			Convey("Then identity comes from the first mentoring record", func() {
				So(s.StudentName, ShouldEqual, "Joao Silva")
				So(s.Organization, ShouldEqual, "Acme")
				So(s.Cohort, ShouldEqual, "Cohort A")
			})

			Convey("Then attendance counts present sessions", func() {
				So(s.TotalMentoring, ShouldEqual, 3)
				So(s.MentoringPresent, ShouldEqual, 2)
				So(s.MentoringAttendance, ShouldAlmostEqual, 200.0/3, eps)
			})

			Convey("Then the intake session is excluded from tasks", func() {
				So(s.TotalTasks, ShouldEqual, 2)
				So(s.TasksDelivered, ShouldEqual, 1)
				So(s.PracticalTasks, ShouldEqual, 50)
			})

			Convey("Then engagement averages its three components", func() {
				So(s.EngagementAverageRaw, ShouldAlmostEqual, 4, eps)
				So(s.EngagementComponents.MentorGrade, ShouldAlmostEqual, 80, eps)
				So(s.EngagementComponents.Attendance, ShouldAlmostEqual, s.MentoringAttendance, eps)
				So(s.EngagementComponents.Tasks, ShouldEqual, s.PracticalTasks)
				So(s.Engagement, ShouldAlmostEqual, (200.0/3+50+80)/3, eps)
			})

			Convey("Then the legacy path scores competencies", func() {
				So(s.TotalCompetencies, ShouldEqual, 2)
				So(s.ApprovedCompetencies, ShouldEqual, 1)
				So(s.CompetencyPerformance, ShouldEqual, 50)
				So(s.LearningPerformance, ShouldAlmostEqual, 70, eps)
				So(s.FinishedCycles, ShouldBeNil)
			})

			Convey("Then events and the overall grade follow", func() {
				So(s.EventParticipation, ShouldEqual, 50)
				So(s.FinalGrade, ShouldBeGreaterThan, 0)
				So(s.FinalGrade, ShouldBeLessThan, 10)
				So(s.FinalGrade, ShouldAlmostEqual, s.OverallPerformance/10, eps)
				So(s.Tier, ShouldEqual, indicators.Classify(s.FinalGrade))
			})
		})

		Convey("When computing a student with perfect results", func() {
			s := calculate(calc, ds, "aluno2")

			Convey("Then every indicator is 100 and the tier is Excellence", func() {
				So(s.MentoringAttendance, ShouldEqual, 100)
				So(s.PracticalTasks, ShouldEqual, 100)
				So(s.Engagement, ShouldEqual, 100)
				So(s.CompetencyPerformance, ShouldEqual, 100)
				So(s.LearningPerformance, ShouldEqual, 100)
				So(s.EventParticipation, ShouldEqual, 100)
				So(s.OverallPerformance, ShouldEqual, 100)
				So(s.FinalGrade, ShouldAlmostEqual, 10, eps)
				So(s.Tier, ShouldEqual, indicators.TierExcellence)
			})
		})

		Convey("When computing an unknown student", func() {
			s := calculate(calc, ds, "ghost")

			Convey("Then every value is zero and identity uses sentinels", func() {
				So(s.StudentName, ShouldEqual, indicators.UnknownName)
				So(s.Organization, ShouldEqual, indicators.UnknownOrganization)
				So(s.OverallPerformance, ShouldEqual, 0)
				So(s.Tier, ShouldEqual, indicators.TierInitial)
			})
		})

		Convey("When a student only has performance records", func() {
			only := &model.Dataset{Performance: []model.PerformanceRecord{
				{StudentID: "p1", CompetencyID: "c", CohortName: "Report Class", Score: floatp(9)},
			}}
			s := calculate(calc, only, "p1")

			Convey("Then the organization falls back to the report cohort name", func() {
				So(s.Organization, ShouldEqual, "Report Class")
				So(s.StudentName, ShouldEqual, indicators.UnknownName)
				So(s.Engagement, ShouldEqual, 0)
			})
		})
	})
}

func TestPracticalTasksPolicy(t *testing.T) {
	Convey("Given mentoring sessions", t, func() {
		Convey("When there is a single session", func() {
			one := []model.MentoringRecord{{Session: intp(1), Task: model.TaskDelivered}}

			Convey("Then it is kept", func() {
				So(indicators.DropIntakeSession(one), ShouldHaveLength, 1)
			})
		})

		Convey("When there are no sessions", func() {
			So(indicators.DropIntakeSession(nil), ShouldBeEmpty)
		})

		Convey("When sessions arrive out of order", func() {
			recs := []model.MentoringRecord{
				{StudentID: "b", Session: intp(3)},
				{StudentID: "a", Session: intp(1)},
				{StudentID: "c", Session: intp(2)},
			}
			kept := indicators.DropIntakeSession(indicators.SortSessions(recs))

			Convey("Then the lowest ordinal is dropped", func() {
				So(kept, ShouldHaveLength, 2)
				So(kept[0].StudentID, ShouldEqual, "c")
				So(kept[1].StudentID, ShouldEqual, "b")
				So(recs[0].StudentID, ShouldEqual, "b")
			})
		})

		Convey("When ordinals sit at the ends of the int range", func() {
			recs := []model.MentoringRecord{
				{StudentID: "max", Session: intp(math.MaxInt)},
				{StudentID: "min", Session: intp(math.MinInt)},
				{StudentID: "zero", Session: intp(0)},
			}
			sorted := indicators.SortSessions(recs)

			Convey("Then they are still ordered ascending", func() {
				So(sorted[0].StudentID, ShouldEqual, "min")
				So(sorted[1].StudentID, ShouldEqual, "zero")
				So(sorted[2].StudentID, ShouldEqual, "max")
			})
		})

		Convey("When only dates are available", func() {
			recs := []model.MentoringRecord{
				{StudentID: "late", SessionDate: datep(2025, time.March, 1)},
				{StudentID: "early", SessionDate: datep(2025, time.January, 1)},
			}
			sorted := indicators.SortSessions(recs)

			Convey("Then sessions are ordered by date", func() {
				So(sorted[0].StudentID, ShouldEqual, "early")
			})
		})

		Convey("When nothing can be compared", func() {
			recs := []model.MentoringRecord{{StudentID: "x"}, {StudentID: "y"}}
			sorted := indicators.SortSessions(recs)

			Convey("Then input order is kept", func() {
				So(sorted[0].StudentID, ShouldEqual, "x")
			})
		})

		Convey("When a lone session has a delivered task", func() {
			calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
			m := []model.MentoringRecord{session("a", "A", "E", "", 1, model.AttendancePresent, model.TaskDelivered, 5)}
			s := calc.CalculateStudent("a", m, nil, nil, nil, nil)

			Convey("Then it counts toward practical tasks", func() {
				So(s.TotalTasks, ShouldEqual, 1)
				So(s.PracticalTasks, ShouldEqual, 100)
			})
		})

		Convey("When later sessions carry no task", func() {
			calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
			m := []model.MentoringRecord{
				session("a", "A", "E", "", 1, model.AttendancePresent, model.TaskNone, 5),
				session("a", "A", "E", "", 2, model.AttendancePresent, model.TaskNone, 5),
				session("a", "A", "E", "", 3, model.AttendancePresent, model.TaskDelivered, 5),
			}
			s := calc.CalculateStudent("a", m, nil, nil, nil, nil)

			Convey("Then they are ignored", func() {
				So(s.TotalTasks, ShouldEqual, 1)
				So(s.PracticalTasks, ShouldEqual, 100)
			})
		})
	})
}

func TestCycleIndicators(t *testing.T) {
	Convey("Given a student with a cycle schedule", t, func() {
		calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
		performance := []model.PerformanceRecord{
			perf("s1", "comp1", "Leadership", 8, true),
			perf("s1", "comp2", "Communication", 6, false),
			perf("s1", "comp3", "Teamwork", 9, true),
		}
		cycles := []model.ExecutionCycle{
			{ID: "1", Name: "Cycle 1", Start: model.NewDate(2024, time.January, 1), End: model.NewDate(2024, time.March, 31), CompetencyIDs: []string{"comp1", "comp2"}},
			{ID: "2", Name: "Cycle 2", Start: model.NewDate(2025, time.January, 1), End: model.NewDate(2025, time.February, 28), CompetencyIDs: []string{"comp3", "comp4"}},
			{ID: "3", Name: "Cycle 3", Start: model.NewDate(2025, time.March, 1), End: model.NewDate(2025, time.April, 30), CompetencyIDs: []string{"comp5"}},
			{ID: "4", Name: "Future", Start: model.NewDate(2030, time.January, 1), End: model.NewDate(2030, time.June, 30), CompetencyIDs: []string{"comp1"}},
		}
		s := calc.CalculateStudent("s1", nil, nil, performance, cycles, nil)

		Convey("Then cycles are bucketed by status and future ones dropped", func() {
			So(s.FinishedCycles, ShouldHaveLength, 2)
			So(s.InProgressCycles, ShouldHaveLength, 1)
			So(s.InProgressCycles[0].Name, ShouldEqual, "Cycle 3")
		})

		Convey("Then indicator 4 averages completion of finished cycles", func() {
			So(s.CompetencyPerformance, ShouldAlmostEqual, (100.0+50.0)/2, eps)
		})

		Convey("Then indicator 5 averages scores of graded finished cycles", func() {
			So(s.LearningPerformance, ShouldAlmostEqual, (70.0+90.0)/2, eps)
		})

		Convey("Then counters sum over finished cycles", func() {
			So(s.TotalCompetencies, ShouldEqual, 4)
			So(s.ApprovedCompetencies, ShouldEqual, 2)
		})
	})

	Convey("Given only future cycles", t, func() {
		calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
		cycles := []model.ExecutionCycle{
			{ID: "f", Name: "Future", Start: model.NewDate(2030, time.January, 1), End: model.NewDate(2030, time.June, 30), CompetencyIDs: []string{"comp1"}},
		}
		s := calc.CalculateStudent("s1", nil, nil, []model.PerformanceRecord{perf("s1", "comp1", "L", 9, true)}, cycles, nil)

		Convey("Then both cycle indicators are zero", func() {
			So(s.FinishedCycles, ShouldBeEmpty)
			So(s.InProgressCycles, ShouldBeEmpty)
			So(s.CompetencyPerformance, ShouldEqual, 0)
			So(s.LearningPerformance, ShouldEqual, 0)
		})
	})
}

func TestCalculateCohort(t *testing.T) {
	Convey("Given the sample dataset", t, func() {
		calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
		ds := sampleDataset()
		ds.Events = append(ds.Events, event("aluno3", "Ana", "Acme", "Webinar 1", model.AttendancePresent))

		Convey("When computing the cohort", func() {
			out := calc.CalculateCohort(ds)

			Convey("Then students keep discovery order", func() {
				So(out, ShouldHaveLength, 3)
				So(out[0].StudentID, ShouldEqual, "aluno1")
				So(out[1].StudentID, ShouldEqual, "aluno2")
				So(out[2].StudentID, ShouldEqual, "aluno3")
			})

			Convey("Then each result matches the single-student computation", func() {
				So(out[0], ShouldResemble, calculate(calc, ds, "aluno1"))
			})
		})

		Convey("When computing the cohort in parallel", func() {
			out, err := calc.CalculateCohortParallel(context.Background(), ds, 2)

			Convey("Then the result equals the sequential one", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, calc.CalculateCohort(ds))
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			out, err := calc.CalculateCohortParallel(ctx, ds, 2)

			Convey("Then the context error is returned", func() {
				So(err, ShouldEqual, context.Canceled)
				So(out, ShouldBeNil)
			})
		})
	})
}

func TestIndicatorProperties(t *testing.T) {
	Convey("Given random record sets", t, func() {
		rng := rand.New(rand.NewSource(7))
		calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
		attendance := []model.Attendance{model.AttendancePresent, model.AttendanceAbsent}
		tasks := []model.TaskState{model.TaskDelivered, model.TaskNotDelivered, model.TaskNone, ""}

		for round := 0; round < 50; round++ {
			ds := &model.Dataset{
				Cycles:    map[string][]model.ExecutionCycle{},
				Mandatory: map[string][]model.MandatoryCompetency{},
			}
			students := 1 + rng.Intn(6)
			for i := 0; i < students; i++ {
				id := "s" + strconv.Itoa(i)
				for n := rng.Intn(6); n > 0; n-- {
					rec := model.MentoringRecord{
						StudentID:    id,
						Organization: "org" + strconv.Itoa(i%2),
						Session:      intp(rng.Intn(10)),
						Attendance:   attendance[rng.Intn(2)],
						Task:         tasks[rng.Intn(len(tasks))],
					}
					if rng.Intn(3) > 0 {
						rec.Engagement = floatp(rng.Float64() * 6)
					}
					ds.Mentoring = append(ds.Mentoring, rec)
				}
				for n := rng.Intn(4); n > 0; n-- {
					ds.Events = append(ds.Events, model.EventRecord{StudentID: id, Attendance: attendance[rng.Intn(2)]})
				}
				for n := rng.Intn(4); n > 0; n-- {
					ds.Performance = append(ds.Performance, perf(id, "comp"+strconv.Itoa(n), "", rng.Float64()*12-1, rng.Intn(2) == 0))
				}
				switch rng.Intn(3) {
				case 0:
					ds.Cycles[id] = []model.ExecutionCycle{{
						ID:            "c",
						Start:         model.NewDate(2024, time.January, 1),
						End:           model.NewDate(2024, time.June, 30),
						CompetencyIDs: []string{"comp1", "comp2", "comp3"},
					}}
				case 1:
					ds.Mandatory[id] = []model.MandatoryCompetency{
						{Code: "comp1", TargetGrade: "6"},
						{Code: "comp2", CurrentGrade: strconv.FormatFloat(rng.Float64()*10, 'f', 2, 64)},
					}
				}
			}

			for _, s := range calc.CalculateCohort(ds) {
				values := []float64{
					s.MentoringAttendance, s.PracticalTasks, s.Engagement,
					s.CompetencyPerformance, s.LearningPerformance, s.EventParticipation,
				}
				var sum float64
				for _, v := range values {
					So(math.IsNaN(v), ShouldBeFalse)
					So(v, ShouldBeBetweenOrEqual, 0, 100)
					sum += v
				}
				So(s.OverallPerformance, ShouldAlmostEqual, sum/6, eps)
				So(s.OverallPerformance, ShouldBeBetweenOrEqual, 0, 100)
				So(s.FinalGrade, ShouldBeBetweenOrEqual, 0, 10)
				So(s.Tier, ShouldEqual, indicators.Classify(s.FinalGrade))
			}
		}
	})
}
