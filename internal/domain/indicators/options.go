package indicators

import "time"

// Option configures a Calculator.
type Option func(*Calculator)

// WithApprovalThreshold sets the grade at which a competency counts as
// approved when no plan target applies. Values outside 0-10 are ignored.
func WithApprovalThreshold(threshold float64) Option {
	return func(c *Calculator) {
		if threshold >= 0 && threshold <= gradeScale {
			c.threshold = threshold
		}
	}
}

// WithClock sets the reference time source used for cycle status.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.clock = now
		}
	}
}
