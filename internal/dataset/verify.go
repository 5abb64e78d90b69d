package dataset

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/mentorpulse/internal/domain/indicators"
	"github.com/okian/mentorpulse/internal/domain/types"
)

// gradeTolerance absorbs the two-decimal rounding of API responses.
const gradeTolerance = 0.006

// Expected orders locally computed results with the ranking key the service
// leaderboard uses.
func Expected(students []indicators.StudentIndicators) []indicators.StudentIndicators {
	out := slices.Clone(students)
	slices.SortFunc(out, indicators.CompareRank)
	return out
}

// VerifyLeaderboard checks that a leaderboard fetched from the service is a
// prefix of the expected ranking. expected must already be ordered by
// Expected.
func VerifyLeaderboard(expected []indicators.StudentIndicators, leaderboard []types.RankEntry) error {
	if len(leaderboard) == 0 {
		if len(expected) == 0 {
			return nil
		}
		return fmt.Errorf("%w: empty leaderboard, expected %d entries", ErrMismatch, len(expected))
	}
	if len(leaderboard) > len(expected) {
		return fmt.Errorf("%w: %d entries, only %d students expected", ErrMismatch, len(leaderboard), len(expected))
	}
	for i, got := range leaderboard {
		want := expected[i]
		if got.StudentID != want.StudentID {
			return fmt.Errorf("%w: position %d is %s, expected %s", ErrMismatch, i+1, got.StudentID, want.StudentID)
		}
		if math.Abs(got.FinalGrade-want.FinalGrade) > gradeTolerance {
			return fmt.Errorf("%w: %s has grade %.2f, expected %.2f", ErrMismatch, got.StudentID, got.FinalGrade, want.FinalGrade)
		}
		if got.Tier != want.Tier {
			return fmt.Errorf("%w: %s has tier %s, expected %s", ErrMismatch, got.StudentID, got.Tier, want.Tier)
		}
	}
	return nil
}
