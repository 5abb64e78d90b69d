package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrClosed       = errors.New("queue closed")
	ErrBackpressure = errors.New("queue full")
)
