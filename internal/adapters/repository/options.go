package repository

import "time"

// Option applies a configuration option to the TreapTable.
type Option func(*TreapTable)

// WithMetricsUpdateInterval sets the interval of the background gauge refresh.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(t *TreapTable) {
		if interval > 0 {
			t.metricsUpdateInterval = interval
		}
	}
}
