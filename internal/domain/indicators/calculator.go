package indicators

import (
	"cmp"
	"context"
	"slices"
	"time"

	model "github.com/okian/mentorpulse/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// Calculator computes student indicators. It holds only configuration and
// is safe for concurrent use.
type Calculator struct {
	threshold float64
	clock     func() time.Time
}

// NewCalculator creates a Calculator with the default approval threshold
// and the wall clock.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		threshold: DefaultApprovalThreshold,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApprovalThreshold returns the configured approval grade.
func (c *Calculator) ApprovalThreshold() float64 { return c.threshold }

func (c *Calculator) now() time.Time { return c.clock() }

// studentRecords holds the records of a single student.
type studentRecords struct {
	mentoring   []model.MentoringRecord
	events      []model.EventRecord
	performance []model.PerformanceRecord
}

func filterStudent(
	studentID string,
	mentoring []model.MentoringRecord,
	events []model.EventRecord,
	performance []model.PerformanceRecord,
) studentRecords {
	var r studentRecords
	for i := range mentoring {
		if mentoring[i].StudentID == studentID {
			r.mentoring = append(r.mentoring, mentoring[i])
		}
	}
	for i := range events {
		if events[i].StudentID == studentID {
			r.events = append(r.events, events[i])
		}
	}
	for i := range performance {
		if performance[i].StudentID == studentID {
			r.performance = append(r.performance, performance[i])
		}
	}
	return r
}

func groupByStudent(ds *model.Dataset) map[string]*studentRecords {
	groups := make(map[string]*studentRecords)
	get := func(id string) *studentRecords {
		g, ok := groups[id]
		if !ok {
			g = &studentRecords{}
			groups[id] = g
		}
		return g
	}
	for i := range ds.Mentoring {
		g := get(ds.Mentoring[i].StudentID)
		g.mentoring = append(g.mentoring, ds.Mentoring[i])
	}
	for i := range ds.Events {
		g := get(ds.Events[i].StudentID)
		g.events = append(g.events, ds.Events[i])
	}
	for i := range ds.Performance {
		g := get(ds.Performance[i].StudentID)
		g.performance = append(g.performance, ds.Performance[i])
	}
	return groups
}

// CalculateStudent computes the indicators of one student. Only records
// whose student id equals studentID are used. cycles and mandatory may be nil.
func (c *Calculator) CalculateStudent(
	studentID string,
	mentoring []model.MentoringRecord,
	events []model.EventRecord,
	performance []model.PerformanceRecord,
	cycles []model.ExecutionCycle,
	mandatory []model.MandatoryCompetency,
) StudentIndicators {
	return c.compute(studentID, filterStudent(studentID, mentoring, events, performance), cycles, mandatory)
}

// CalculateCohort computes indicators for every student in ds, in order of
// first appearance.
func (c *Calculator) CalculateCohort(ds *model.Dataset) []StudentIndicators {
	ids := ds.StudentIDs()
	groups := groupByStudent(ds)
	out := make([]StudentIndicators, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.compute(id, *groups[id], ds.Cycles[id], ds.Mandatory[id]))
	}
	return out
}

// CalculateCohortParallel returns the same result as CalculateCohort using
// at most workers goroutines. It stops early when ctx is cancelled.
func (c *Calculator) CalculateCohortParallel(ctx context.Context, ds *model.Dataset, workers int) ([]StudentIndicators, error) {
	ids := ds.StudentIDs()
	groups := groupByStudent(ds)
	out := make([]StudentIndicators, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, id := range ids {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = c.compute(id, *groups[id], ds.Cycles[id], ds.Mandatory[id])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Calculator) compute(
	studentID string,
	rec studentRecords,
	cycles []model.ExecutionCycle,
	mandatory []model.MandatoryCompetency,
) StudentIndicators {
	s := StudentIndicators{StudentID: studentID}
	resolveIdentity(&s, rec)

	// 1. mentoring attendance
	s.TotalMentoring = len(rec.mentoring)
	for i := range rec.mentoring {
		if rec.mentoring[i].Attendance == model.AttendancePresent {
			s.MentoringPresent++
		}
	}
	s.MentoringAttendance = percent(s.MentoringPresent, s.TotalMentoring)

	// 2. practical tasks
	for _, m := range dropIntakeSession(sortSessions(rec.mentoring)) {
		if m.Task == model.TaskNone {
			continue
		}
		s.TotalTasks++
		if m.Task == model.TaskDelivered {
			s.TasksDelivered++
		}
	}
	s.PracticalTasks = percent(s.TasksDelivered, s.TotalTasks)

	// 3. engagement
	s.EngagementAverageRaw = engagementAverage(rec.mentoring)
	s.EngagementComponents = EngagementComponents{
		Attendance:  s.MentoringAttendance,
		Tasks:       s.PracticalTasks,
		MentorGrade: mentorGradePercent(s.EngagementAverageRaw),
	}
	s.Engagement = (s.EngagementComponents.Attendance +
		s.EngagementComponents.Tasks +
		s.EngagementComponents.MentorGrade) / 3

	// 4 and 5. competency and learning performance
	if len(cycles) > 0 {
		c.applyCycles(&s, cycles, rec.performance, mandatory)
	} else {
		c.applyLegacy(&s, rec.performance, mandatory)
	}

	// 6. event participation
	s.TotalEvents = len(rec.events)
	for i := range rec.events {
		if rec.events[i].Attendance == model.AttendancePresent {
			s.EventsPresent++
		}
	}
	s.EventParticipation = percent(s.EventsPresent, s.TotalEvents)

	finalize(&s)
	return s
}

// finalize derives indicator 7, the final grade and the tier from the six
// base indicators.
func finalize(s *StudentIndicators) {
	s.OverallPerformance = (s.MentoringAttendance +
		s.PracticalTasks +
		s.Engagement +
		s.CompetencyPerformance +
		s.LearningPerformance +
		s.EventParticipation) / indicatorCount
	s.FinalGrade = s.OverallPerformance / gradeScale
	s.Tier = Classify(s.FinalGrade)
}

func resolveIdentity(s *StudentIndicators, rec studentRecords) {
	var name, org string
	switch {
	case len(rec.mentoring) > 0:
		name, org = rec.mentoring[0].StudentName, rec.mentoring[0].Organization
	case len(rec.events) > 0:
		name, org = rec.events[0].StudentName, rec.events[0].Organization
	}
	if org == "" && len(rec.performance) > 0 {
		org = rec.performance[0].CohortName
	}
	if name == "" {
		name = UnknownName
	}
	if org == "" {
		org = UnknownOrganization
	}
	s.StudentName, s.Organization = name, org

	if len(rec.mentoring) > 0 {
		s.Cohort, s.Track = rec.mentoring[0].Cohort, rec.mentoring[0].Track
	}
	if len(rec.events) > 0 {
		if s.Cohort == "" {
			s.Cohort = rec.events[0].Cohort
		}
		if s.Track == "" {
			s.Track = rec.events[0].Track
		}
	}
}

// sortSessions returns a copy of records ordered by session ordinal when
// both sides have one, else by session date when both have one. Other pairs
// keep their input order.
func sortSessions(records []model.MentoringRecord) []model.MentoringRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b model.MentoringRecord) int {
		switch {
		case a.Session != nil && b.Session != nil:
			return cmp.Compare(*a.Session, *b.Session)
		case a.SessionDate != nil && b.SessionDate != nil:
			return a.SessionDate.Compare(b.SessionDate.Time)
		default:
			return 0
		}
	})
	return sorted
}

// dropIntakeSession removes the first session of a sorted sequence. The
// first session is an intake assessment with no gradable task. A lone
// session is kept.
func dropIntakeSession(sorted []model.MentoringRecord) []model.MentoringRecord {
	if len(sorted) <= 1 {
		return sorted
	}
	return sorted[1:]
}

func engagementAverage(mentoring []model.MentoringRecord) float64 {
	var sum float64
	var n int
	for i := range mentoring {
		if e := mentoring[i].Engagement; e != nil {
			sum += *e
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func mentorGradePercent(avg float64) float64 {
	p := avg / engagementScale * percentScale
	if p > percentScale {
		return percentScale
	}
	if p < 0 {
		return 0
	}
	return p
}

func (c *Calculator) applyCycles(
	s *StudentIndicators,
	cycles []model.ExecutionCycle,
	performance []model.PerformanceRecord,
	mandatory []model.MandatoryCompetency,
) {
	s.FinishedCycles = []CycleResult{}
	s.InProgressCycles = []CycleResult{}
	var completion, average float64
	var scored int
	for i := range cycles {
		r := c.EvaluateCycle(cycles[i], performance, mandatory)
		switch r.Status {
		case StatusFinished:
			s.FinishedCycles = append(s.FinishedCycles, r)
			s.TotalCompetencies += r.Total
			s.ApprovedCompetencies += r.Approved
			completion += r.CompletionPercent
			if r.Graded > 0 {
				average += r.AverageScorePercent
				scored++
			}
		case StatusInProgress:
			s.InProgressCycles = append(s.InProgressCycles, r)
		}
	}
	if n := len(s.FinishedCycles); n > 0 {
		s.CompetencyPerformance = completion / float64(n)
	}
	if scored > 0 {
		s.LearningPerformance = average / float64(scored)
	}
}

func (c *Calculator) applyLegacy(
	s *StudentIndicators,
	performance []model.PerformanceRecord,
	mandatory []model.MandatoryCompetency,
) {
	if len(mandatory) > 0 {
		fp := c.FilteredPerformance(mandatory, performance)
		s.TotalCompetencies = fp.TotalMandatory
		s.ApprovedCompetencies = fp.Approved
		s.CompetencyPerformance = fp.ApprovalPercent
		s.LearningPerformance = fp.MeanGrade / gradeScale * percentScale
		return
	}

	s.TotalCompetencies = len(performance)
	var sum float64
	var scored int
	for i := range performance {
		p := performance[i]
		if p.Passed != nil && *p.Passed {
			s.ApprovedCompetencies++
		}
		if g, ok := scoreOf(p); ok && g > 0 {
			sum += g
			scored++
		}
	}
	s.CompetencyPerformance = percent(s.ApprovedCompetencies, s.TotalCompetencies)
	s.LearningPerformance = gradePercent(sum, scored)
}
