package indicators

// Tier labels, from highest to lowest.
const (
	TierExcellence   = "Excellence"
	TierAdvanced     = "Advanced"
	TierIntermediate = "Intermediate"
	TierBasic        = "Basic"
	TierInitial      = "Initial"
)

// Tiers lists every tier label in descending order.
var Tiers = []string{TierExcellence, TierAdvanced, TierIntermediate, TierBasic, TierInitial}

// Lower band edges on the 0-10 scale, inclusive.
const (
	excellenceGrade   = 9
	advancedGrade     = 7
	intermediateGrade = 5
	basicGrade        = 3
)

// Classify maps a grade on the 0-10 scale to a tier.
func Classify(grade float64) string {
	switch {
	case grade >= excellenceGrade:
		return TierExcellence
	case grade >= advancedGrade:
		return TierAdvanced
	case grade >= intermediateGrade:
		return TierIntermediate
	case grade >= basicGrade:
		return TierBasic
	default:
		return TierInitial
	}
}

// ClassifyPercentage maps a value on the 0-100 scale to a tier using the
// same bands as Classify.
func ClassifyPercentage(p float64) string {
	return Classify(p / percentScale * gradeScale)
}
