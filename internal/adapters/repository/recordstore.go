package repository

import (
	"context"
	"slices"
	"sync"

	model "github.com/okian/mentorpulse/internal/domain/model"
)

type studentIndex struct {
	mentoring   []int
	events      []int
	performance []int
	cycles      []model.ExecutionCycle
	mandatory   []model.MandatoryCompetency
	revision    uint64
}

// MemoryRecordStore is an append-only in-memory RecordStore. Cycle
// schedules and mandatory plans are replaced per student on every append.
type MemoryRecordStore struct {
	mu          sync.RWMutex
	mentoring   []model.MentoringRecord
	events      []model.EventRecord
	performance []model.PerformanceRecord
	students    map[string]*studentIndex
	order       []string
	revision    uint64
}

// NewMemoryRecordStore creates an empty record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{students: make(map[string]*studentIndex)}
}

func (s *MemoryRecordStore) Append(_ context.Context, batch *model.Dataset) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(batch)
}

func (s *MemoryRecordStore) Replace(_ context.Context, ds *model.Dataset) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mentoring, s.events, s.performance = nil, nil, nil
	s.students = make(map[string]*studentIndex)
	s.order = nil
	return s.appendLocked(ds)
}

func (s *MemoryRecordStore) appendLocked(batch *model.Dataset) []string {
	if batch == nil {
		return nil
	}
	s.revision++
	affected := batch.StudentIDs()
	for i := range batch.Mentoring {
		r := batch.Mentoring[i]
		s.index(r.StudentID).mentoring = append(s.index(r.StudentID).mentoring, len(s.mentoring))
		s.mentoring = append(s.mentoring, r)
	}
	for i := range batch.Events {
		r := batch.Events[i]
		s.index(r.StudentID).events = append(s.index(r.StudentID).events, len(s.events))
		s.events = append(s.events, r)
	}
	for i := range batch.Performance {
		r := batch.Performance[i]
		s.index(r.StudentID).performance = append(s.index(r.StudentID).performance, len(s.performance))
		s.performance = append(s.performance, r)
	}

	// Plans and schedules may arrive for students without records in this batch.
	extra := make([]string, 0)
	for _, id := range sortedKeys(batch.Cycles) {
		s.index(id).cycles = slices.Clone(batch.Cycles[id])
		if !slices.Contains(affected, id) && !slices.Contains(extra, id) {
			extra = append(extra, id)
		}
	}
	for _, id := range sortedKeys(batch.Mandatory) {
		s.index(id).mandatory = slices.Clone(batch.Mandatory[id])
		if !slices.Contains(affected, id) && !slices.Contains(extra, id) {
			extra = append(extra, id)
		}
	}
	return append(affected, extra...)
}

// index returns the index of id, registering it on first sight, and stamps
// it with the current revision. Must be called with the write lock held.
func (s *MemoryRecordStore) index(id string) *studentIndex {
	idx, ok := s.students[id]
	if !ok {
		idx = &studentIndex{}
		s.students[id] = idx
		s.order = append(s.order, id)
	}
	idx.revision = s.revision
	return idx
}

func (s *MemoryRecordStore) Student(_ context.Context, studentID string) (StudentData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.students[studentID]
	if !ok {
		return StudentData{}, ErrStudentNotFound
	}
	out := StudentData{
		Mentoring:   make([]model.MentoringRecord, 0, len(idx.mentoring)),
		Events:      make([]model.EventRecord, 0, len(idx.events)),
		Performance: make([]model.PerformanceRecord, 0, len(idx.performance)),
		Cycles:      slices.Clone(idx.cycles),
		Mandatory:   slices.Clone(idx.mandatory),
		Revision:    idx.revision,
	}
	for _, i := range idx.mentoring {
		out.Mentoring = append(out.Mentoring, s.mentoring[i])
	}
	for _, i := range idx.events {
		out.Events = append(out.Events, s.events[i])
	}
	for _, i := range idx.performance {
		out.Performance = append(out.Performance, s.performance[i])
	}
	return out, nil
}

func (s *MemoryRecordStore) Snapshot(_ context.Context) *model.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds := &model.Dataset{
		Mentoring:   slices.Clone(s.mentoring),
		Events:      slices.Clone(s.events),
		Performance: slices.Clone(s.performance),
		Cycles:      make(map[string][]model.ExecutionCycle),
		Mandatory:   make(map[string][]model.MandatoryCompetency),
	}
	for id, idx := range s.students {
		if len(idx.cycles) > 0 {
			ds.Cycles[id] = slices.Clone(idx.cycles)
		}
		if len(idx.mandatory) > 0 {
			ds.Mandatory[id] = slices.Clone(idx.mandatory)
		}
	}
	return ds
}

func (s *MemoryRecordStore) StudentIDs(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

func (s *MemoryRecordStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mentoring) + len(s.events) + len(s.performance)
}

func (s *MemoryRecordStore) Revision(_ context.Context) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
