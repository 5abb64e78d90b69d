// Package repository holds the in-memory record store, the indicator table
// and the record sources the service loads datasets from.
package repository

import (
	"context"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/internal/domain/types"
)

// IndicatorTable keeps the latest indicators of every student, ranked by
// final grade descending and then student id ascending.
type IndicatorTable interface {
	// Upsert stores or replaces a student's indicators.
	Upsert(ctx context.Context, s indicators.StudentIndicators) error
	// UpsertAt stores s only when revision is newer than the revision the
	// student was last stored at and not below the floor of the last Reset.
	// It reports whether s was stored.
	UpsertAt(ctx context.Context, s indicators.StudentIndicators, revision uint64) (bool, error)
	// Get returns a student's indicators or ErrNotFound.
	Get(ctx context.Context, studentID string) (indicators.StudentIndicators, error)
	// Rank returns a student's 1-based position or ErrNotFound.
	Rank(ctx context.Context, studentID string) (types.RankEntry, error)
	// TopN returns the first n rank entries.
	TopN(ctx context.Context, n int) ([]types.RankEntry, error)
	// Many returns the stored students among ids, in the order of ids.
	Many(ctx context.Context, ids []string) []indicators.StudentIndicators
	// Count returns the number of students.
	Count(ctx context.Context) int
	// Version changes whenever the table content changes.
	Version() int64
	// Stamp returns an epoch that changes on Reset and on every new table,
	// paired with the current version.
	Stamp() (epoch string, version int64)
	// Reset removes every student. Later UpsertAt calls below floor are
	// ignored.
	Reset(ctx context.Context, floor uint64)
}

// StudentData is everything recorded for one student.
type StudentData struct {
	Mentoring   []model.MentoringRecord
	Events      []model.EventRecord
	Performance []model.PerformanceRecord
	Cycles      []model.ExecutionCycle
	Mandatory   []model.MandatoryCompetency
	// Revision is the store revision of the last write touching the student.
	Revision uint64
}

// RecordStore keeps raw records grouped by student.
type RecordStore interface {
	// Append adds a batch and returns the affected student ids in order of
	// first appearance within the batch.
	Append(ctx context.Context, batch *model.Dataset) []string
	// Replace swaps the whole content for ds and returns every student id.
	Replace(ctx context.Context, ds *model.Dataset) []string
	// Student returns a copy of one student's records or ErrNotFound.
	Student(ctx context.Context, studentID string) (StudentData, error)
	// Snapshot returns a copy of the full dataset.
	Snapshot(ctx context.Context) *model.Dataset
	// StudentIDs returns every student id in order of first appearance.
	StudentIDs(ctx context.Context) []string
	// Len returns the number of raw records.
	Len(ctx context.Context) int
	// Revision returns the revision of the latest write. Every Append and
	// Replace increases it.
	Revision(ctx context.Context) uint64
}

// Source loads a complete dataset from an external system.
type Source interface {
	Load(ctx context.Context) (*model.Dataset, error)
}
