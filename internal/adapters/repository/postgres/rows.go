package postgres

import (
	"time"

	model "github.com/okian/mentorpulse/internal/domain/model"
)

// Row shapes mirror the SELECT column order in queries.go and are scanned
// with pgx.RowToStructByPos.

type mentoringRow struct {
	StudentID    string
	StudentName  string
	Organization string
	Cohort       string
	Track        string
	Cycle        string
	Session      *int32
	SessionDate  *time.Time
	Attendance   string
	Task         string
	Engagement   *float64
}

func (r mentoringRow) record() model.MentoringRecord {
	rec := model.MentoringRecord{
		StudentID:    r.StudentID,
		StudentName:  r.StudentName,
		Organization: r.Organization,
		Cohort:       r.Cohort,
		Track:        r.Track,
		Cycle:        r.Cycle,
		Attendance:   model.Attendance(r.Attendance),
		Task:         model.TaskState(r.Task),
		Engagement:   r.Engagement,
	}
	if r.Session != nil {
		n := int(*r.Session)
		rec.Session = &n
	}
	if r.SessionDate != nil {
		d := dateOf(*r.SessionDate)
		rec.SessionDate = &d
	}
	return rec
}

type eventRow struct {
	StudentID    string
	StudentName  string
	Organization string
	Cohort       string
	Track        string
	EventTitle   string
	Attendance   string
}

func (r eventRow) record() model.EventRecord {
	return model.EventRecord{
		StudentID:    r.StudentID,
		StudentName:  r.StudentName,
		Organization: r.Organization,
		Cohort:       r.Cohort,
		Track:        r.Track,
		EventTitle:   r.EventTitle,
		Attendance:   model.Attendance(r.Attendance),
	}
}

type performanceRow struct {
	StudentID      string
	CompetencyID   string
	CompetencyName string
	CohortName     string
	Score          *float64
	Passed         *bool
}

func (r performanceRow) record() model.PerformanceRecord {
	return model.PerformanceRecord{
		StudentID:      r.StudentID,
		CompetencyID:   r.CompetencyID,
		CompetencyName: r.CompetencyName,
		CohortName:     r.CohortName,
		Score:          r.Score,
		Passed:         r.Passed,
	}
}

type cycleRow struct {
	StudentID     string
	CycleID       string
	Name          string
	Start         time.Time
	End           time.Time
	CompetencyIDs []string
}

func (r cycleRow) record() model.ExecutionCycle {
	ids := r.CompetencyIDs
	if ids == nil {
		ids = []string{}
	}
	return model.ExecutionCycle{
		ID:            r.CycleID,
		Name:          r.Name,
		Start:         dateOf(r.Start),
		End:           dateOf(r.End),
		CompetencyIDs: ids,
	}
}

type mandatoryRow struct {
	StudentID    string
	CompetencyID string
	Code         string
	CurrentGrade string
	TargetGrade  string
	Status       string
}

func (r mandatoryRow) record() model.MandatoryCompetency {
	return model.MandatoryCompetency{
		CompetencyID: r.CompetencyID,
		Code:         r.Code,
		CurrentGrade: r.CurrentGrade,
		TargetGrade:  r.TargetGrade,
		Status:       r.Status,
	}
}

// dateOf keeps the calendar date of a DATE column. pgx returns DATE values
// at midnight UTC.
func dateOf(t time.Time) model.Date {
	return model.NewDate(t.Year(), t.Month(), t.Day())
}

func assemble(
	mentoring []mentoringRow,
	events []eventRow,
	performance []performanceRow,
	cycles []cycleRow,
	mandatory []mandatoryRow,
) *model.Dataset {
	ds := &model.Dataset{
		Mentoring:   make([]model.MentoringRecord, 0, len(mentoring)),
		Events:      make([]model.EventRecord, 0, len(events)),
		Performance: make([]model.PerformanceRecord, 0, len(performance)),
		Cycles:      make(map[string][]model.ExecutionCycle),
		Mandatory:   make(map[string][]model.MandatoryCompetency),
	}
	for _, r := range mentoring {
		ds.Mentoring = append(ds.Mentoring, r.record())
	}
	for _, r := range events {
		ds.Events = append(ds.Events, r.record())
	}
	for _, r := range performance {
		ds.Performance = append(ds.Performance, r.record())
	}
	for _, r := range cycles {
		ds.Cycles[r.StudentID] = append(ds.Cycles[r.StudentID], r.record())
	}
	for _, r := range mandatory {
		ds.Mandatory[r.StudentID] = append(ds.Mandatory[r.StudentID], r.record())
	}
	return ds
}
