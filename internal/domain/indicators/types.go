// Package indicators computes the seven student indicators, tier
// classification, and cohort/organization/global aggregates from raw
// mentoring, event and performance records.
//
// Every function in this package is pure: no I/O, no shared mutable state,
// and no error returns. Missing or malformed data degrades to zero values.
package indicators

import (
	model "github.com/okian/mentorpulse/internal/domain/model"
)

// CycleStatus is the position of a cycle relative to a reference time.
type CycleStatus string

// Cycle statuses.
const (
	StatusFinished   CycleStatus = "finished"
	StatusInProgress CycleStatus = "in_progress"
	StatusFuture     CycleStatus = "future"
)

// Level is the granularity of an aggregate.
type Level string

// Aggregation levels.
const (
	LevelGlobal       Level = "global"
	LevelOrganization Level = "organization"
	LevelCohort       Level = "cohort"
)

// ParseLevel maps a query value to a Level. Unknown values are rejected.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelGlobal, LevelOrganization, LevelCohort:
		return Level(s), true
	case "":
		return LevelGlobal, true
	default:
		return "", false
	}
}

// Identity sentinels used when no record carries the value.
const (
	UnknownName         = "Unknown"
	UnknownOrganization = "Unknown"
	globalIdentifier    = "Global"
)

// CycleResult summarises one execution cycle for one student.
type CycleResult struct {
	CycleID   string      `json:"cycle_id"`
	Name      string      `json:"name"`
	Status    CycleStatus `json:"status"`
	Start     model.Date  `json:"start"`
	End       model.Date  `json:"end"`
	Total     int         `json:"total_competencies"`
	Completed int         `json:"completed_competencies"`
	Graded    int         `json:"graded_competencies"`
	Approved  int         `json:"approved_competencies"`
	// CompletionPercent is completed / total on the 0-100 scale.
	CompletionPercent float64 `json:"completion_percent"`
	// AverageScorePercent is the mean raw grade converted to 0-100.
	AverageScorePercent float64 `json:"average_score_percent"`
}

// EngagementComponents is the decomposition of the engagement indicator.
type EngagementComponents struct {
	Attendance  float64 `json:"attendance"`
	Tasks       float64 `json:"tasks"`
	MentorGrade float64 `json:"mentor_grade"`
}

// StudentIndicators is the computed output for one student.
type StudentIndicators struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	Organization string `json:"organization"`
	Cohort       string `json:"cohort,omitempty"`
	Track        string `json:"track,omitempty"`

	MentoringAttendance   float64 `json:"mentoring_attendance"`
	PracticalTasks        float64 `json:"practical_tasks"`
	Engagement            float64 `json:"engagement"`
	CompetencyPerformance float64 `json:"competency_performance"`
	LearningPerformance   float64 `json:"learning_performance"`
	EventParticipation    float64 `json:"event_participation"`
	OverallPerformance    float64 `json:"overall_performance"`

	// FinalGrade is OverallPerformance on the 0-10 scale.
	FinalGrade float64 `json:"final_grade"`
	Tier       string  `json:"tier"`

	TotalMentoring       int                  `json:"total_mentoring"`
	MentoringPresent     int                  `json:"mentoring_present"`
	TotalTasks           int                  `json:"total_tasks"`
	TasksDelivered       int                  `json:"tasks_delivered"`
	TotalEvents          int                  `json:"total_events"`
	EventsPresent        int                  `json:"events_present"`
	TotalCompetencies    int                  `json:"total_competencies"`
	ApprovedCompetencies int                  `json:"approved_competencies"`
	EngagementAverageRaw float64              `json:"engagement_average_raw"`
	EngagementComponents EngagementComponents `json:"engagement_components"`

	FinishedCycles   []CycleResult `json:"finished_cycles"`
	InProgressCycles []CycleResult `json:"in_progress_cycles"`
}

// TierCount is one row of a tier distribution table.
type TierCount struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// AggregatedIndicators summarises a set of students at one level.
type AggregatedIndicators struct {
	Level      Level  `json:"level"`
	Identifier string `json:"identifier"`

	MeanMentoringAttendance   float64 `json:"mean_mentoring_attendance"`
	MeanPracticalTasks        float64 `json:"mean_practical_tasks"`
	MeanEngagement            float64 `json:"mean_engagement"`
	MeanCompetencyPerformance float64 `json:"mean_competency_performance"`
	MeanLearningPerformance   float64 `json:"mean_learning_performance"`
	MeanEventParticipation    float64 `json:"mean_event_participation"`
	MeanOverallPerformance    float64 `json:"mean_overall_performance"`
	MeanFinalGrade            float64 `json:"mean_final_grade"`

	TotalStudents int `json:"total_students"`
	Excellence    int `json:"excellence"`
	Advanced      int `json:"advanced"`
	Intermediate  int `json:"intermediate"`
	Basic         int `json:"basic"`
	Initial       int `json:"initial"`

	Distribution []TierCount `json:"distribution"`
}

// GlobalDashboard is the program-wide dashboard.
type GlobalDashboard struct {
	Overview          AggregatedIndicators   `json:"overview"`
	ByOrganization    []AggregatedIndicators `json:"by_organization"`
	TopStudents       []StudentIndicators    `json:"top_students"`
	AttentionStudents []StudentIndicators    `json:"attention_students"`
}

// OrganizationDashboard is the dashboard of one organization.
type OrganizationDashboard struct {
	Overview AggregatedIndicators   `json:"overview"`
	ByCohort []AggregatedIndicators `json:"by_cohort"`
	Students []StudentIndicators    `json:"students"`
}

// CompetencyDetail is one row of a plan view.
type CompetencyDetail struct {
	Code         string   `json:"code"`
	CurrentGrade *float64 `json:"current_grade"`
	TargetGrade  float64  `json:"target_grade"`
	Approved     bool     `json:"approved"`
}

// FilteredPerformance is the performance restricted to a mandatory plan.
type FilteredPerformance struct {
	TotalMandatory  int                `json:"total_mandatory"`
	Approved        int                `json:"approved"`
	ApprovalPercent float64            `json:"approval_percent"`
	MeanGrade       float64            `json:"mean_grade"`
	Details         []CompetencyDetail `json:"details"`
}

// FilteredStudentIndicators is a student result whose competency indicators
// were recomputed against the student's mandatory plan.
type FilteredStudentIndicators struct {
	StudentIndicators
	Filtered FilteredPerformance `json:"filtered_performance"`
}
