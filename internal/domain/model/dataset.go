package model

// Dataset is a fully materialised set of records for one computation.
// Cycles and Mandatory are keyed by student id.
type Dataset struct {
	Mentoring   []MentoringRecord                `json:"mentoring" yaml:"mentoring"`
	Events      []EventRecord                    `json:"events" yaml:"events"`
	Performance []PerformanceRecord              `json:"performance" yaml:"performance"`
	Cycles      map[string][]ExecutionCycle      `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	Mandatory   map[string][]MandatoryCompetency `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
}

// StudentIDs returns the distinct student ids in order of first appearance
// across mentoring, then event, then performance records.
func (d *Dataset) StudentIDs() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for i := range d.Mentoring {
		add(d.Mentoring[i].StudentID)
	}
	for i := range d.Events {
		add(d.Events[i].StudentID)
	}
	for i := range d.Performance {
		add(d.Performance[i].StudentID)
	}
	return ids
}

// Len returns the total number of raw records.
func (d *Dataset) Len() int {
	return len(d.Mentoring) + len(d.Events) + len(d.Performance)
}
