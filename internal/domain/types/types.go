// Package types contains read shapes shared between the repository and the API.
package types

// RankEntry is one row of the program-wide ranking.
type RankEntry struct {
	Rank         int     `json:"rank"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	Organization string  `json:"organization"`
	FinalGrade   float64 `json:"final_grade"`
	Tier         string  `json:"tier"`
}

// Stats describes the state of the indicator pipeline.
type Stats struct {
	Started       bool  `json:"started"`
	Students      int   `json:"students"`
	Records       int   `json:"records"`
	QueueDepth    int   `json:"queue_depth"`
	QueueCapacity int   `json:"queue_capacity"`
	Workers       int   `json:"workers"`
	Recomputed    int64 `json:"recomputed"`
	BatchesSeen   int64 `json:"batches_seen"`
	Version       int64 `json:"version"`
}
