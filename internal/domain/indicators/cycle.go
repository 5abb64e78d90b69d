package indicators

import (
	model "github.com/okian/mentorpulse/internal/domain/model"
)

// EvaluateCycle computes completion and average score for one cycle. Plan
// overrides with a parseable current grade win over performance records.
func (c *Calculator) EvaluateCycle(
	cycle model.ExecutionCycle,
	performance []model.PerformanceRecord,
	mandatory []model.MandatoryCompetency,
) CycleResult {
	res := CycleResult{
		CycleID: cycle.ID,
		Name:    cycle.Name,
		Status:  ResolveCycleStatus(cycle.Start, cycle.End, c.now()),
		Start:   cycle.Start,
		End:     cycle.End,
		Total:   len(cycle.CompetencyIDs),
	}

	var sum float64
	for _, id := range cycle.CompetencyIDs {
		grade, ok := cycleGrade(id, performance, mandatory)
		if !ok {
			continue
		}
		res.Graded++
		sum += grade
		if grade > 0 {
			res.Completed++
		}
		if grade >= c.threshold {
			res.Approved++
		}
	}

	res.CompletionPercent = percent(res.Completed, res.Total)
	res.AverageScorePercent = gradePercent(sum, res.Graded)
	return res
}

func cycleGrade(
	competencyID string,
	performance []model.PerformanceRecord,
	mandatory []model.MandatoryCompetency,
) (float64, bool) {
	for i := range mandatory {
		m := mandatory[i]
		if m.CurrentGrade == "" {
			continue
		}
		if !MatchCompetency(competencyID, m.CompetencyID) && !MatchCompetency(competencyID, m.Code) {
			continue
		}
		if g, ok := parseGrade(m.CurrentGrade); ok {
			return g, true
		}
	}
	if p, ok := findPerformance(competencyID, performance); ok {
		return scoreOf(p)
	}
	return 0, false
}
