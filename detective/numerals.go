package detective

import (
	"regexp"
	"strconv"
)

var numeralPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ExtractNumerals returns the numeric value of every integer or decimal token
// in s, in order of appearance. Tokens that overflow float64 parsing are
// dropped.
func ExtractNumerals(s string) []float64 {
	matches := numeralPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// NumeralSet holds numeral tokens compared by numeric value, so "90", "90.0"
// and "090" all land on the same element.
type NumeralSet map[float64]struct{}

// NumeralSetOf extracts the numerals of every given text into one set.
func NumeralSetOf(texts ...string) NumeralSet {
	set := NumeralSet{}
	for _, t := range texts {
		for _, v := range ExtractNumerals(t) {
			set[v] = struct{}{}
		}
	}
	return set
}

// ContainsAny reports whether any of vals is in the set.
func (s NumeralSet) ContainsAny(vals []float64) bool {
	for _, v := range vals {
		if _, ok := s[v]; ok {
			return true
		}
	}
	return false
}
