// Package model contains domain models passed between layers.
package model

// Attendance is the presence state of a student in a session or event.
type Attendance string

// Attendance states.
const (
	AttendancePresent Attendance = "present"
	AttendanceAbsent  Attendance = "absent"
)

// TaskState is the delivery state of the practical task attached to a mentoring session.
type TaskState string

// Task delivery states. An empty TaskState is treated as "task expected, not delivered".
const (
	TaskDelivered    TaskState = "delivered"
	TaskNotDelivered TaskState = "not_delivered"
	TaskNone         TaskState = "no_task"
)

// MentoringRecord is the outcome of one mentoring session for one student.
type MentoringRecord struct {
	StudentID    string     `json:"student_id" yaml:"student_id"`
	StudentName  string     `json:"student_name" yaml:"student_name"`
	Organization string     `json:"organization" yaml:"organization"`
	Cohort       string     `json:"cohort,omitempty" yaml:"cohort,omitempty"`
	Track        string     `json:"track,omitempty" yaml:"track,omitempty"`
	Cycle        string     `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	Session      *int       `json:"session,omitempty" yaml:"session,omitempty"`
	SessionDate  *Date      `json:"session_date,omitempty" yaml:"session_date,omitempty"`
	Attendance   Attendance `json:"attendance" yaml:"attendance"`
	Task         TaskState  `json:"task,omitempty" yaml:"task,omitempty"`
	// Engagement is the mentor's 0-5 engagement score, when one was given.
	Engagement *float64 `json:"engagement,omitempty" yaml:"engagement,omitempty"`
}

// EventRecord is one webinar or workshop participation.
type EventRecord struct {
	StudentID    string     `json:"student_id" yaml:"student_id"`
	StudentName  string     `json:"student_name" yaml:"student_name"`
	Organization string     `json:"organization" yaml:"organization"`
	Cohort       string     `json:"cohort,omitempty" yaml:"cohort,omitempty"`
	Track        string     `json:"track,omitempty" yaml:"track,omitempty"`
	EventTitle   string     `json:"event_title" yaml:"event_title"`
	Attendance   Attendance `json:"attendance" yaml:"attendance"`
}

// PerformanceRecord is one externally measured competency score.
type PerformanceRecord struct {
	StudentID      string `json:"student_id" yaml:"student_id"`
	CompetencyID   string `json:"competency_id" yaml:"competency_id"`
	CompetencyName string `json:"competency_name" yaml:"competency_name"`
	// CohortName is the class label printed on the performance report.
	CohortName string `json:"cohort_name,omitempty" yaml:"cohort_name,omitempty"`
	// Score is on the 0-10 scale.
	Score  *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Passed *bool    `json:"passed,omitempty" yaml:"passed,omitempty"`
}

// ExecutionCycle is a scheduled block of a track with a fixed list of competencies.
// Start and End are inclusive calendar dates.
type ExecutionCycle struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Start         Date     `json:"start" yaml:"start"`
	End           Date     `json:"end" yaml:"end"`
	CompetencyIDs []string `json:"competency_ids" yaml:"competency_ids"`
}

// MandatoryCompetency is a competency assigned to a student's individual plan.
// Empty Code, CurrentGrade or TargetGrade mean the value is absent.
type MandatoryCompetency struct {
	CompetencyID string `json:"competency_id" yaml:"competency_id"`
	Code         string `json:"code,omitempty" yaml:"code,omitempty"`
	CurrentGrade string `json:"current_grade,omitempty" yaml:"current_grade,omitempty"`
	TargetGrade  string `json:"target_grade,omitempty" yaml:"target_grade,omitempty"`
	Status       string `json:"status,omitempty" yaml:"status,omitempty"`
}
