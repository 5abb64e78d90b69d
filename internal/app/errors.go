package service

import (
	"errors"
	"fmt"

	"github.com/okian/mentorpulse/internal/adapters/mq/queue"
	"github.com/okian/mentorpulse/internal/adapters/repository"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrNotFound             = repository.ErrNotFound
	ErrStudentNotFound      = repository.ErrStudentNotFound
	ErrOrganizationNotFound = fmt.Errorf("organization %w", repository.ErrNotFound)
	ErrBackpressure         = queue.ErrBackpressure
	ErrNotStarted           = fmt.Errorf("service not started: %w", queue.ErrClosed)
	ErrNoSource             = fmt.Errorf("%w: no record source configured", repository.ErrSourceUnavailable)
	ErrEmptyBatch           = errors.New("batch has no records")
)
