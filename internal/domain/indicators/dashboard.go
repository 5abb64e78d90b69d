package indicators

import (
	"cmp"
	"slices"
)

const (
	dashboardListSize = 10
	attentionGrade    = 5.0
)

// ComposeGlobalDashboard builds the program-wide dashboard: the global
// aggregate, one aggregate per organization, the ten best students by final
// grade and up to ten students below the attention grade, worst first.
// Ties keep input order.
func ComposeGlobalDashboard(students []StudentIndicators) GlobalDashboard {
	orgs := ListOrganizations(students)
	byOrg := make([]AggregatedIndicators, 0, len(orgs))
	for _, org := range orgs {
		byOrg = append(byOrg, Aggregate(students, LevelOrganization, org))
	}

	top := slices.Clone(students)
	slices.SortStableFunc(top, byGradeDesc)
	if len(top) > dashboardListSize {
		top = top[:dashboardListSize]
	}

	attention := make([]StudentIndicators, 0)
	for i := range students {
		if students[i].FinalGrade < attentionGrade {
			attention = append(attention, students[i])
		}
	}
	slices.SortStableFunc(attention, func(a, b StudentIndicators) int {
		return cmp.Compare(a.FinalGrade, b.FinalGrade)
	})
	if len(attention) > dashboardListSize {
		attention = attention[:dashboardListSize]
	}

	if top == nil {
		top = []StudentIndicators{}
	}
	return GlobalDashboard{
		Overview:          Aggregate(students, LevelGlobal, ""),
		ByOrganization:    byOrg,
		TopStudents:       top,
		AttentionStudents: attention,
	}
}

// ComposeOrganizationDashboard builds the dashboard of one organization: its
// aggregate, one aggregate per cohort and its students by descending final
// grade.
func ComposeOrganizationDashboard(students []StudentIndicators, organization string) OrganizationDashboard {
	members := make([]StudentIndicators, 0)
	for i := range students {
		if students[i].Organization == organization {
			members = append(members, students[i])
		}
	}

	// Cohort names are not unique across organizations.
	cohorts := ListCohorts(members, organization)
	byCohort := make([]AggregatedIndicators, 0, len(cohorts))
	for _, cohort := range cohorts {
		byCohort = append(byCohort, Aggregate(members, LevelCohort, cohort))
	}

	overview := Aggregate(members, LevelOrganization, organization)
	slices.SortStableFunc(members, byGradeDesc)

	return OrganizationDashboard{
		Overview: overview,
		ByCohort: byCohort,
		Students: members,
	}
}

// RankWithinOrganization returns the 1-based position of studentID among
// the students of its organization and the number of peers, ordered by
// CompareRank. ok is false when the student is absent.
func RankWithinOrganization(students []StudentIndicators, studentID string) (position, peers int, ok bool) {
	idx := slices.IndexFunc(students, func(s StudentIndicators) bool { return s.StudentID == studentID })
	if idx < 0 {
		return 0, 0, false
	}
	target := students[idx]
	position = 1
	for i := range students {
		s := students[i]
		if s.Organization != target.Organization {
			continue
		}
		peers++
		if CompareRank(s, target) < 0 {
			position++
		}
	}
	return position, peers, true
}

func byGradeDesc(a, b StudentIndicators) int {
	return cmp.Compare(b.FinalGrade, a.FinalGrade)
}
