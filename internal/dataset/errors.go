package dataset

import "errors"

// Sentinel errors for dataset tooling.
var (
	ErrInvalidDataset   = errors.New("invalid dataset")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMismatch         = errors.New("leaderboard mismatch")
)
