package indicators

import (
	"slices"
)

// Aggregate averages students at the given level. For organization and
// cohort levels a non-empty filter restricts the set to matching students.
// An empty set yields zero means and an empty distribution.
func Aggregate(students []StudentIndicators, level Level, filter string) AggregatedIndicators {
	subset := students
	identifier := globalIdentifier
	if level != LevelGlobal && filter != "" {
		identifier = filter
		subset = make([]StudentIndicators, 0, len(students))
		for i := range students {
			if belongs(students[i], level, filter) {
				subset = append(subset, students[i])
			}
		}
	}

	agg := AggregatedIndicators{
		Level:         level,
		Identifier:    identifier,
		TotalStudents: len(subset),
		Distribution:  []TierCount{},
	}
	if len(subset) == 0 {
		return agg
	}

	for i := range subset {
		s := subset[i]
		agg.MeanMentoringAttendance += s.MentoringAttendance
		agg.MeanPracticalTasks += s.PracticalTasks
		agg.MeanEngagement += s.Engagement
		agg.MeanCompetencyPerformance += s.CompetencyPerformance
		agg.MeanLearningPerformance += s.LearningPerformance
		agg.MeanEventParticipation += s.EventParticipation
		agg.MeanOverallPerformance += s.OverallPerformance
		agg.MeanFinalGrade += s.FinalGrade
		switch s.Tier {
		case TierExcellence:
			agg.Excellence++
		case TierAdvanced:
			agg.Advanced++
		case TierIntermediate:
			agg.Intermediate++
		case TierBasic:
			agg.Basic++
		default:
			agg.Initial++
		}
	}

	n := float64(len(subset))
	agg.MeanMentoringAttendance /= n
	agg.MeanPracticalTasks /= n
	agg.MeanEngagement /= n
	agg.MeanCompetencyPerformance /= n
	agg.MeanLearningPerformance /= n
	agg.MeanEventParticipation /= n
	agg.MeanOverallPerformance /= n
	agg.MeanFinalGrade /= n

	counts := []int{agg.Excellence, agg.Advanced, agg.Intermediate, agg.Basic, agg.Initial}
	for i, name := range Tiers {
		agg.Distribution = append(agg.Distribution, TierCount{
			Name:    name,
			Count:   counts[i],
			Percent: percent(counts[i], len(subset)),
		})
	}
	return agg
}

func belongs(s StudentIndicators, level Level, filter string) bool {
	switch level {
	case LevelOrganization:
		return s.Organization == filter
	case LevelCohort:
		return s.Cohort == filter
	default:
		return true
	}
}

// ListOrganizations returns the distinct organizations, sorted.
func ListOrganizations(students []StudentIndicators) []string {
	out := make([]string, 0)
	for i := range students {
		out = append(out, students[i].Organization)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ListCohorts returns the distinct non-empty cohorts, sorted. A non-empty
// organization restricts the result to that organization's students.
func ListCohorts(students []StudentIndicators, organization string) []string {
	out := make([]string, 0)
	for i := range students {
		s := students[i]
		if s.Cohort == "" || (organization != "" && s.Organization != organization) {
			continue
		}
		out = append(out, s.Cohort)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
