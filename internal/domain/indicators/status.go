package indicators

import (
	"time"

	model "github.com/okian/mentorpulse/internal/domain/model"
)

// ResolveCycleStatus classifies a cycle window relative to now. The window
// runs from the start of the start day to the end of the end day, both in
// now's location. A zero now means the current time.
//
// A cycle whose start is after its end never becomes active and is always
// reported as future.
func ResolveCycleStatus(start, end model.Date, now time.Time) CycleStatus {
	if now.IsZero() {
		now = time.Now()
	}
	loc := now.Location()
	from := start.In(loc)
	until := end.In(loc).AddDate(0, 0, 1)
	if from.After(end.In(loc)) {
		return StatusFuture
	}
	switch {
	case now.Before(from):
		return StatusFuture
	case now.Before(until):
		return StatusInProgress
	default:
		return StatusFinished
	}
}
