package indicators

import (
	model "github.com/okian/mentorpulse/internal/domain/model"
)

// FilteredPerformance evaluates a mandatory plan. A plan entry's current
// grade wins; otherwise its code (or competency id) is matched against the
// performance records. Entries without a target use the approval threshold.
func (c *Calculator) FilteredPerformance(
	mandatory []model.MandatoryCompetency,
	performance []model.PerformanceRecord,
) FilteredPerformance {
	fp := FilteredPerformance{
		TotalMandatory: len(mandatory),
		Details:        make([]CompetencyDetail, 0, len(mandatory)),
	}
	if len(mandatory) == 0 {
		return fp
	}

	var sum float64
	var graded int
	for i := range mandatory {
		m := mandatory[i]
		target, ok := parseGrade(m.TargetGrade)
		if !ok {
			target = c.threshold
		}
		detail := CompetencyDetail{Code: m.Code, TargetGrade: target}
		if grade, ok := planGrade(m, performance); ok {
			detail.CurrentGrade = &grade
			detail.Approved = grade >= target
			sum += grade
			graded++
			if detail.Approved {
				fp.Approved++
			}
		}
		fp.Details = append(fp.Details, detail)
	}

	fp.ApprovalPercent = percent(fp.Approved, fp.TotalMandatory)
	if graded > 0 {
		fp.MeanGrade = sum / float64(graded)
	}
	return fp
}

func planGrade(m model.MandatoryCompetency, performance []model.PerformanceRecord) (float64, bool) {
	if g, ok := parseGrade(m.CurrentGrade); ok {
		return g, true
	}
	for _, ref := range []string{m.Code, m.CompetencyID} {
		if ref == "" {
			continue
		}
		if p, ok := findPerformance(ref, performance); ok {
			return scoreOf(p)
		}
	}
	return 0, false
}

// CalculateFiltered computes a student's indicators and then replaces the
// competency and learning indicators with the mandatory plan's approval
// percentage and mean grade. With an empty plan the base result is kept.
func (c *Calculator) CalculateFiltered(
	studentID string,
	mentoring []model.MentoringRecord,
	events []model.EventRecord,
	performance []model.PerformanceRecord,
	mandatory []model.MandatoryCompetency,
	cycles []model.ExecutionCycle,
) FilteredStudentIndicators {
	rec := filterStudent(studentID, mentoring, events, performance)
	out := FilteredStudentIndicators{
		StudentIndicators: c.compute(studentID, rec, cycles, mandatory),
		Filtered:          c.FilteredPerformance(mandatory, rec.performance),
	}
	if len(mandatory) == 0 {
		return out
	}
	out.TotalCompetencies = out.Filtered.TotalMandatory
	out.ApprovedCompetencies = out.Filtered.Approved
	out.CompetencyPerformance = out.Filtered.ApprovalPercent
	out.LearningPerformance = out.Filtered.MeanGrade / gradeScale * percentScale
	finalize(&out.StudentIndicators)
	return out
}
