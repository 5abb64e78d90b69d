package postgres

import (
	"time"

	model "github.com/okian/mentorpulse/internal/domain/model"
)

// AssembleForTest exposes row assembly with one row of each kind.
func AssembleForTest(session int32, date time.Time, cycleIDs []string) *model.Dataset {
	score, passed, eng := 8.5, true, 4.0
	return assemble(
		[]mentoringRow{{StudentID: "s1", StudentName: "Ana", Organization: "Acme", Session: &session, SessionDate: &date, Attendance: "present", Task: "delivered", Engagement: &eng}},
		[]eventRow{{StudentID: "s2", EventTitle: "Webinar", Attendance: "absent"}},
		[]performanceRow{{StudentID: "s1", CompetencyID: "c1", Score: &score, Passed: &passed}},
		[]cycleRow{{StudentID: "s1", CycleID: "cy1", Start: date, End: date.AddDate(0, 1, 0), CompetencyIDs: cycleIDs}},
		[]mandatoryRow{{StudentID: "s1", Code: "c1", TargetGrade: "7"}, {StudentID: "s1", Code: "c2"}},
	)
}
