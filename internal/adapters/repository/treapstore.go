package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	"github.com/okian/mentorpulse/internal/domain/types"
	"github.com/okian/mentorpulse/pkg/metrics"
)

// Treap-based in-memory IndicatorTable.
//
// Ordering: indicators.RankKey of the final grade DESC, then student id ASC,
// the order of indicators.CompareRank. "less" means ranks
// earlier, so an in-order traversal yields the ranking from best to worst.

const defaultMetricsUpdateInterval = 5 * time.Second

// gradeFP is a final grade as its fixed-point ranking key.
type gradeFP int64

func toFixedPoint(x float64) gradeFP {
	return gradeFP(indicators.RankKey(x))
}

type node struct {
	id    string
	grade gradeFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aGrade gradeFP, aID string, bGrade gradeFP, bID string) bool {
	if aGrade != bGrade {
		return aGrade > bGrade
	}
	return aID < bID
}

// priorityOf derives a stable heap priority from the student id.
func priorityOf(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, grade gradeFP) *node {
	if n == nil {
		return &node{id: id, grade: grade, prio: priorityOf(id), size: 1}
	}
	if less(grade, id, n.grade, n.id) {
		n.left = insert(n.left, id, grade)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, grade)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, grade gradeFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case grade == n.grade && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, grade)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, grade)
		}
	case less(grade, id, n.grade, n.id):
		n.left = deleteNode(n.left, id, grade)
	default:
		n.right = deleteNode(n.right, id, grade)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of (grade, id), or 0.
func position(n *node, id string, grade gradeFP) int {
	pos := 0
	for n != nil {
		if n.id == id && n.grade == grade {
			return pos + nsize(n.left) + 1
		}
		if less(grade, id, n.grade, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	collectTopN(n.right, limit, out)
}

// TreapTable implements IndicatorTable.
type TreapTable struct {
	mu   sync.RWMutex
	root *node
	byID map[string]indicators.StudentIndicators

	// revisions holds the record revision each student was stored at by
	// UpsertAt; floor is the revision passed to the last Reset.
	revisions map[string]uint64
	floor     uint64

	// epoch identifies this table's content lineage; versions are only
	// comparable within one epoch.
	epoch   string
	version atomic.Int64

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewTreapTable constructs the table and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewTreapTable(ctx context.Context, opts ...Option) *TreapTable {
	t := &TreapTable{
		byID:                  make(map[string]indicators.StudentIndicators),
		revisions:             make(map[string]uint64),
		epoch:                 uuid.NewString(),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.startMetricsUpdater(ctx)
	return t
}

// Close stops the background goroutine.
func (t *TreapTable) Close() error {
	t.stopOnce.Do(func() { close(t.stopChan) })
	t.wg.Wait()
	return nil
}

func (t *TreapTable) Upsert(_ context.Context, s indicators.StudentIndicators) error {
	if s.StudentID == "" {
		return ErrEmptyStudentID
	}
	start := time.Now()
	defer func() {
		metrics.RecordTableUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	t.mu.Lock()
	t.upsertLocked(s)
	t.mu.Unlock()

	t.version.Add(1)
	return nil
}

func (t *TreapTable) UpsertAt(_ context.Context, s indicators.StudentIndicators, revision uint64) (bool, error) {
	if s.StudentID == "" {
		return false, ErrEmptyStudentID
	}
	start := time.Now()
	defer func() {
		metrics.RecordTableUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	t.mu.Lock()
	last, seen := t.revisions[s.StudentID]
	if revision < t.floor || (seen && revision <= last) {
		t.mu.Unlock()
		return false, nil
	}
	t.revisions[s.StudentID] = revision
	t.upsertLocked(s)
	t.mu.Unlock()

	t.version.Add(1)
	return true, nil
}

func (t *TreapTable) upsertLocked(s indicators.StudentIndicators) {
	if old, ok := t.byID[s.StudentID]; ok {
		t.root = deleteNode(t.root, s.StudentID, toFixedPoint(old.FinalGrade))
	}
	t.byID[s.StudentID] = s
	t.root = insert(t.root, s.StudentID, toFixedPoint(s.FinalGrade))
}

func (t *TreapTable) Get(_ context.Context, studentID string) (indicators.StudentIndicators, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byID[studentID]
	if !ok {
		return indicators.StudentIndicators{}, ErrStudentNotFound
	}
	return s, nil
}

func (t *TreapTable) Rank(_ context.Context, studentID string) (types.RankEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordTableQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byID[studentID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.RankEntry{}, ErrStudentNotFound
	}
	return entryOf(s, position(t.root, studentID, toFixedPoint(s.FinalGrade))), nil
}

func (t *TreapTable) TopN(_ context.Context, n int) ([]types.RankEntry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordTableQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, min(n, len(t.byID)))
	collectTopN(t.root, n, &ids)
	out := make([]types.RankEntry, 0, len(ids))
	for i, id := range ids {
		out = append(out, entryOf(t.byID[id], i+1))
	}
	return out, nil
}

func (t *TreapTable) Many(_ context.Context, ids []string) []indicators.StudentIndicators {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]indicators.StudentIndicators, 0, len(ids))
	for _, id := range ids {
		if s, ok := t.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (t *TreapTable) Count(_ context.Context) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

func (t *TreapTable) Version() int64 { return t.version.Load() }

// Stamp returns the table epoch and version. The pair is unique across
// processes and resets, so it can key shared caches.
func (t *TreapTable) Stamp() (string, int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.epoch, t.version.Load()
}

// Reset empties the table and starts a new epoch.
func (t *TreapTable) Reset(_ context.Context, floor uint64) {
	t.mu.Lock()
	t.root = nil
	t.byID = make(map[string]indicators.StudentIndicators)
	t.revisions = make(map[string]uint64)
	t.floor = floor
	t.epoch = uuid.NewString()
	t.mu.Unlock()
	t.version.Add(1)
}

func entryOf(s indicators.StudentIndicators, rank int) types.RankEntry {
	return types.RankEntry{
		Rank:         rank,
		StudentID:    s.StudentID,
		StudentName:  s.StudentName,
		Organization: s.Organization,
		FinalGrade:   s.FinalGrade,
		Tier:         s.Tier,
	}
}

func (t *TreapTable) startMetricsUpdater(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopChan:
				return
			case <-ticker.C:
				t.updateMetrics()
			}
		}
	}()
}

func (t *TreapTable) updateMetrics() {
	t.mu.RLock()
	counts := make(map[string]int, len(indicators.Tiers))
	for _, tier := range indicators.Tiers {
		counts[tier] = 0
	}
	for _, s := range t.byID {
		counts[s.Tier]++
	}
	total := len(t.byID)
	t.mu.RUnlock()

	metrics.UpdateStudentsTracked(total)
	metrics.UpdateTierDistribution(counts)
}
