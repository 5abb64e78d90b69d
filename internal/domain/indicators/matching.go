package indicators

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// levelSuffixes are trailing words that name a competency level rather
// than the competency itself ("Leadership - Master", "Comunicação Essencial").
var levelSuffixes = map[string]struct{}{
	"master":    {},
	"essential": {},
	"essencial": {},
	"basic":     {},
	"basica":    {},
	"basico":    {},
}

// NormalizeCompetency returns the comparison key of a competency id, name or
// code: lower-cased, accents removed, punctuation collapsed to single spaces,
// and trailing level suffixes stripped.
func NormalizeCompetency(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	// transform chains keep state, so one is built per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(fold, s); err == nil {
		s = out
	}
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for len(words) > 1 {
		if _, ok := levelSuffixes[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// MatchCompetency reports whether two competency references name the same
// competency. Empty references never match.
func MatchCompetency(a, b string) bool {
	na := NormalizeCompetency(a)
	return na != "" && na == NormalizeCompetency(b)
}
