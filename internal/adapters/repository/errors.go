package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for repository errors.
var (
	// ErrNotFound is the kind shared by every lookup miss.
	ErrNotFound          = errors.New("not found")
	ErrStudentNotFound   = fmt.Errorf("student %w", ErrNotFound)
	ErrInvalidLimit      = errors.New("invalid leaderboard limit")
	ErrEmptyStudentID    = errors.New("empty student id")
	ErrSourceUnavailable = errors.New("record source unavailable")
)
