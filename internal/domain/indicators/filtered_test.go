package indicators_test

import (
	"testing"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFilteredPerformance(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := indicators.NewCalculator(indicators.WithClock(fixedClock))

		Convey("When every plan entry has a current grade", func() {
			plan := []model.MandatoryCompetency{
				{CompetencyID: "1", Code: "comp1", CurrentGrade: "8.5", TargetGrade: "7.00"},
				{CompetencyID: "2", Code: "comp2", CurrentGrade: "5.0", TargetGrade: "7.00"},
				{CompetencyID: "3", Code: "comp3", CurrentGrade: "9.0", TargetGrade: "7.00"},
			}
			fp := calc.FilteredPerformance(plan, nil)

			Convey("Then approvals and the mean are computed", func() {
				So(fp.TotalMandatory, ShouldEqual, 3)
				So(fp.Approved, ShouldEqual, 2)
				So(fp.ApprovalPercent, ShouldAlmostEqual, 200.0/3, eps)
				So(fp.MeanGrade, ShouldAlmostEqual, 22.5/3, eps)
				So(fp.Details, ShouldHaveLength, 3)
				So(*fp.Details[0].CurrentGrade, ShouldEqual, 8.5)
				So(fp.Details[1].Approved, ShouldBeFalse)
			})
		})

		Convey("When grades must be looked up by code", func() {
			plan := []model.MandatoryCompetency{
				{Code: "Liderança - Master"},
				{Code: "COMP2", TargetGrade: "5"},
				{Code: "missing"},
			}
			records := []model.PerformanceRecord{
				perf("s", "x1", "Lideranca", 6.5, false),
				perf("s", "comp2", "Communication", 5, false),
			}
			fp := calc.FilteredPerformance(plan, records)

			Convey("Then names and ids match and the default target applies", func() {
				So(*fp.Details[0].CurrentGrade, ShouldEqual, 6.5)
				So(fp.Details[0].TargetGrade, ShouldEqual, indicators.DefaultApprovalThreshold)
				So(fp.Details[0].Approved, ShouldBeFalse)
				So(fp.Details[1].Approved, ShouldBeTrue)
				So(fp.Details[2].CurrentGrade, ShouldBeNil)
				So(fp.Approved, ShouldEqual, 1)
				So(fp.MeanGrade, ShouldAlmostEqual, 5.75, eps)
			})
		})

		Convey("When a current grade is malformed", func() {
			plan := []model.MandatoryCompetency{{Code: "nope", CurrentGrade: "abc"}}
			fp := calc.FilteredPerformance(plan, nil)

			Convey("Then it counts as no grade", func() {
				So(fp.Details[0].CurrentGrade, ShouldBeNil)
				So(fp.MeanGrade, ShouldEqual, 0)
				So(fp.ApprovalPercent, ShouldEqual, 0)
			})
		})

		Convey("When the plan is empty", func() {
			fp := calc.FilteredPerformance(nil, nil)
			So(fp.TotalMandatory, ShouldEqual, 0)
			So(fp.Details, ShouldBeEmpty)
		})
	})
}

func TestCalculateFiltered(t *testing.T) {
	Convey("Given the sample dataset and a plan for aluno1", t, func() {
		calc := indicators.NewCalculator(indicators.WithClock(fixedClock))
		ds := sampleDataset()
		plan := []model.MandatoryCompetency{
			{Code: "comp1", TargetGrade: "7.00"},
			{Code: "comp2", TargetGrade: "6.00"},
		}

		Convey("When computing the filtered variant", func() {
			res := calc.CalculateFiltered("aluno1", ds.Mentoring, ds.Events, ds.Performance, plan, nil)
			base := calculate(calc, ds, "aluno1")

			Convey("Then indicators 4 and 5 come from the plan", func() {
				So(res.Filtered.Approved, ShouldEqual, 2)
				So(res.CompetencyPerformance, ShouldEqual, 100)
				So(res.LearningPerformance, ShouldAlmostEqual, 70, eps)
				So(res.ApprovedCompetencies, ShouldEqual, 2)
			})

			Convey("Then the other indicators are unchanged", func() {
				So(res.MentoringAttendance, ShouldEqual, base.MentoringAttendance)
				So(res.Engagement, ShouldEqual, base.Engagement)
				So(res.EventParticipation, ShouldEqual, base.EventParticipation)
			})

			Convey("Then the consolidated values are recomputed", func() {
				sum := res.MentoringAttendance + res.PracticalTasks + res.Engagement +
					res.CompetencyPerformance + res.LearningPerformance + res.EventParticipation
				So(res.OverallPerformance, ShouldAlmostEqual, sum/6, eps)
				So(res.FinalGrade, ShouldAlmostEqual, res.OverallPerformance/10, eps)
				So(res.Tier, ShouldEqual, indicators.Classify(res.FinalGrade))
			})
		})

		Convey("When the plan is empty", func() {
			res := calc.CalculateFiltered("aluno1", ds.Mentoring, ds.Events, ds.Performance, nil, nil)

			Convey("Then the base result is kept", func() {
				So(res.StudentIndicators, ShouldResemble, calculate(calc, ds, "aluno1"))
				So(res.Filtered.TotalMandatory, ShouldEqual, 0)
			})
		})
	})
}
