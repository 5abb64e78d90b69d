package indicators_test

import (
	"time"

	model "github.com/okian/mentorpulse/internal/domain/model"
)

var refNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return refNow }

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool { return &v }
func datep(y int, m time.Month, d int) *model.Date {
	dt := model.NewDate(y, m, d)
	return &dt
}

func session(id, name, org, cohort string, n int, att model.Attendance, task model.TaskState, eng float64) model.MentoringRecord {
	return model.MentoringRecord{
		StudentID:    id,
		StudentName:  name,
		Organization: org,
		Cohort:       cohort,
		Session:      intp(n),
		Attendance:   att,
		Task:         task,
		Engagement:   floatp(eng),
	}
}

func event(id, name, org, title string, att model.Attendance) model.EventRecord {
	return model.EventRecord{StudentID: id, StudentName: name, Organization: org, EventTitle: title, Attendance: att}
}

func perf(id, compID, compName string, score float64, passed bool) model.PerformanceRecord {
	return model.PerformanceRecord{
		StudentID:      id,
		CompetencyID:   compID,
		CompetencyName: compName,
		Score:          floatp(score),
		Passed:         boolp(passed),
	}
}

// sampleDataset holds two students: aluno1 with partial results and aluno2
// with perfect results.
func sampleDataset() *model.Dataset {
	return &model.Dataset{
		Mentoring: []model.MentoringRecord{
			session("aluno1", "Joao Silva", "Acme", "Cohort A", 1, model.AttendancePresent, model.TaskNone, 5),
			session("aluno1", "Joao Silva", "Acme", "Cohort A", 2, model.AttendancePresent, model.TaskDelivered, 4),
			session("aluno1", "Joao Silva", "Acme", "Cohort A", 3, model.AttendanceAbsent, model.TaskNotDelivered, 3),
			session("aluno2", "Maria Santos", "Globex", "Cohort B", 1, model.AttendancePresent, model.TaskNone, 5),
			session("aluno2", "Maria Santos", "Globex", "Cohort B", 2, model.AttendancePresent, model.TaskDelivered, 5),
		},
		Events: []model.EventRecord{
			event("aluno1", "Joao Silva", "Acme", "Webinar 1", model.AttendancePresent),
			event("aluno1", "Joao Silva", "Acme", "Webinar 2", model.AttendanceAbsent),
			event("aluno2", "Maria Santos", "Globex", "Webinar 1", model.AttendancePresent),
			event("aluno2", "Maria Santos", "Globex", "Webinar 2", model.AttendancePresent),
		},
		Performance: []model.PerformanceRecord{
			perf("aluno1", "comp1", "Leadership", 8, true),
			perf("aluno1", "comp2", "Communication", 6, false),
			perf("aluno2", "comp1", "Leadership", 10, true),
			perf("aluno2", "comp2", "Communication", 10, true),
		},
	}
}
