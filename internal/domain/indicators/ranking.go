package indicators

import (
	"cmp"
	"math"
)

// rankScale is the fixed-point resolution of ranking keys. Final grades
// that round to the same key rank as ties and fall back to the student id.
const rankScale = 1_000_000_000_000

// RankKey maps a final grade to its fixed-point ranking key. Grades are
// clamped to the 0-10 scale; NaN ranks as 0.
func RankKey(grade float64) int64 {
	if math.IsNaN(grade) || grade < 0 {
		return 0
	}
	if grade > gradeScale {
		grade = gradeScale
	}
	return int64(math.Round(grade * rankScale))
}

// CompareRank orders students the way rankings do: higher ranking key
// first, then student id ascending. It returns a negative number when a
// ranks before b.
func CompareRank(a, b StudentIndicators) int {
	if c := cmp.Compare(RankKey(b.FinalGrade), RankKey(a.FinalGrade)); c != 0 {
		return c
	}
	return cmp.Compare(a.StudentID, b.StudentID)
}
