package api

import (
	"math"
	"slices"

	service "github.com/okian/mentorpulse/internal/app"
	"github.com/okian/mentorpulse/internal/domain/indicators"
	"github.com/okian/mentorpulse/internal/domain/types"
)

// Responses round percentages and grades to two decimals. The engine keeps
// full precision; rounding happens only here.

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func presentStudent(s indicators.StudentIndicators) indicators.StudentIndicators {
	s.MentoringAttendance = round2(s.MentoringAttendance)
	s.PracticalTasks = round2(s.PracticalTasks)
	s.Engagement = round2(s.Engagement)
	s.CompetencyPerformance = round2(s.CompetencyPerformance)
	s.LearningPerformance = round2(s.LearningPerformance)
	s.EventParticipation = round2(s.EventParticipation)
	s.OverallPerformance = round2(s.OverallPerformance)
	s.FinalGrade = round2(s.FinalGrade)
	s.EngagementAverageRaw = round2(s.EngagementAverageRaw)
	s.EngagementComponents = indicators.EngagementComponents{
		Attendance:  round2(s.EngagementComponents.Attendance),
		Tasks:       round2(s.EngagementComponents.Tasks),
		MentorGrade: round2(s.EngagementComponents.MentorGrade),
	}
	s.FinishedCycles = presentCycles(s.FinishedCycles)
	s.InProgressCycles = presentCycles(s.InProgressCycles)
	return s
}

func presentCycles(cycles []indicators.CycleResult) []indicators.CycleResult {
	if cycles == nil {
		return []indicators.CycleResult{}
	}
	out := slices.Clone(cycles)
	for i := range out {
		out[i].CompletionPercent = round2(out[i].CompletionPercent)
		out[i].AverageScorePercent = round2(out[i].AverageScorePercent)
	}
	return out
}

func presentStudents(students []indicators.StudentIndicators) []indicators.StudentIndicators {
	out := make([]indicators.StudentIndicators, 0, len(students))
	for i := range students {
		out = append(out, presentStudent(students[i]))
	}
	return out
}

func presentAggregate(a indicators.AggregatedIndicators) indicators.AggregatedIndicators {
	a.MeanMentoringAttendance = round2(a.MeanMentoringAttendance)
	a.MeanPracticalTasks = round2(a.MeanPracticalTasks)
	a.MeanEngagement = round2(a.MeanEngagement)
	a.MeanCompetencyPerformance = round2(a.MeanCompetencyPerformance)
	a.MeanLearningPerformance = round2(a.MeanLearningPerformance)
	a.MeanEventParticipation = round2(a.MeanEventParticipation)
	a.MeanOverallPerformance = round2(a.MeanOverallPerformance)
	a.MeanFinalGrade = round2(a.MeanFinalGrade)
	dist := make([]indicators.TierCount, 0, len(a.Distribution))
	for _, row := range a.Distribution {
		row.Percent = round2(row.Percent)
		dist = append(dist, row)
	}
	a.Distribution = dist
	return a
}

func presentAggregates(list []indicators.AggregatedIndicators) []indicators.AggregatedIndicators {
	out := make([]indicators.AggregatedIndicators, 0, len(list))
	for i := range list {
		out = append(out, presentAggregate(list[i]))
	}
	return out
}

func presentGlobal(d indicators.GlobalDashboard) indicators.GlobalDashboard {
	return indicators.GlobalDashboard{
		Overview:          presentAggregate(d.Overview),
		ByOrganization:    presentAggregates(d.ByOrganization),
		TopStudents:       presentStudents(d.TopStudents),
		AttentionStudents: presentStudents(d.AttentionStudents),
	}
}

func presentOrganization(d indicators.OrganizationDashboard) indicators.OrganizationDashboard {
	return indicators.OrganizationDashboard{
		Overview: presentAggregate(d.Overview),
		ByCohort: presentAggregates(d.ByCohort),
		Students: presentStudents(d.Students),
	}
}

// planResponse is the JSON shape of GET /students/{id}/plan.
type planResponse struct {
	indicators.FilteredStudentIndicators
	Position int `json:"position"`
	Peers    int `json:"peers"`
}

func presentPlan(p service.Plan) planResponse {
	f := p.Filtered
	f.ApprovalPercent = round2(f.ApprovalPercent)
	f.MeanGrade = round2(f.MeanGrade)
	details := make([]indicators.CompetencyDetail, 0, len(f.Details))
	for _, d := range f.Details {
		if d.CurrentGrade != nil {
			g := round2(*d.CurrentGrade)
			d.CurrentGrade = &g
		}
		d.TargetGrade = round2(d.TargetGrade)
		details = append(details, d)
	}
	f.Details = details

	return planResponse{
		FilteredStudentIndicators: indicators.FilteredStudentIndicators{
			StudentIndicators: presentStudent(p.StudentIndicators),
			Filtered:          f,
		},
		Position: p.Position,
		Peers:    p.Peers,
	}
}

func presentEntry(e types.RankEntry) types.RankEntry {
	e.FinalGrade = round2(e.FinalGrade)
	return e
}

func presentEntries(entries []types.RankEntry) []types.RankEntry {
	out := make([]types.RankEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, presentEntry(e))
	}
	return out
}
