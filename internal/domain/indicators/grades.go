package indicators

import (
	"math"
	"strconv"
	"strings"

	model "github.com/okian/mentorpulse/internal/domain/model"
)

// Scale constants.
const (
	gradeScale      = 10.0
	percentScale    = 100.0
	engagementScale = 5.0
	indicatorCount  = 6
)

// DefaultApprovalThreshold is the approval grade used when a plan entry has
// no explicit target and for cycle approvals.
const DefaultApprovalThreshold = 7.0

// parseGrade reads a grade string such as "8.5" or "8,50". It reports false
// for empty, malformed or non-finite input. Parsed values are clamped to the
// 0-10 scale.
func parseGrade(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return clampGrade(v), true
}

func clampGrade(v float64) float64 {
	return math.Max(0, math.Min(v, gradeScale))
}

// percent returns part / total on the 0-100 scale, or 0 when total is 0.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * percentScale
}

// gradePercent converts a mean over n grades on the 0-10 scale to 0-100.
func gradePercent(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n) / gradeScale * percentScale
}

// findPerformance returns the first record whose competency id or name
// matches ref.
func findPerformance(ref string, performance []model.PerformanceRecord) (model.PerformanceRecord, bool) {
	for i := range performance {
		p := performance[i]
		if MatchCompetency(ref, p.CompetencyID) || MatchCompetency(ref, p.CompetencyName) {
			return p, true
		}
	}
	return model.PerformanceRecord{}, false
}

// scoreOf returns the clamped score of a record, if it has one.
func scoreOf(p model.PerformanceRecord) (float64, bool) {
	if p.Score == nil || math.IsNaN(*p.Score) || math.IsInf(*p.Score, 0) {
		return 0, false
	}
	return clampGrade(*p.Score), true
}
