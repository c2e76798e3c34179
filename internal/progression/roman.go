package progression

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/analysis"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
)

var romanDegrees = []string{"vii", "vi", "iv", "v", "iii", "ii", "i"}

var degreeIndex = map[string]int{"i": 0, "ii": 1, "iii": 2, "iv": 3, "v": 4, "vi": 5, "vii": 6}

var (
	majorSteps = []int{0, 2, 4, 5, 7, 9, 11}
	minorSteps = []int{0, 2, 3, 5, 7, 8, 10}
)

// ParseRoman resolves a Roman numeral against key.
//
// Upper case is a major triad and lower case a minor one. A leading b or #
// lowers or raises the degree, and suffixes are 7 (dominant on upper case,
// minor seventh on lower case), maj7, °/o/dim (diminished, °7 fully
// diminished), ø (half diminished) and + (augmented). Degrees follow the
// natural minor scale in minor keys.
func ParseRoman(numeral string, key analysis.Key) (harmony.ChordSpec, error) {
	s := strings.TrimSpace(numeral)
	if s == "" {
		return harmony.ChordSpec{}, fmt.Errorf("empty roman numeral")
	}

	shift := 0
	for len(s) > 0 && (s[0] == 'b' || s[0] == '#') {
		if s[0] == 'b' {
			shift--
		} else {
			shift++
		}
		s = s[1:]
	}

	lower := strings.ToLower(s)
	var degree string
	for _, d := range romanDegrees {
		if strings.HasPrefix(lower, d) {
			degree = d
			break
		}
	}
	if degree == "" {
		return harmony.ChordSpec{}, fmt.Errorf("invalid roman numeral: %q", numeral)
	}
	upper := s[:len(degree)] == strings.ToUpper(degree)
	if !upper && s[:len(degree)] != degree {
		return harmony.ChordSpec{}, fmt.Errorf("mixed case roman numeral: %q", numeral)
	}
	suffix := s[len(degree):]

	steps := majorSteps
	if key.Mode == analysis.ModeMinor {
		steps = minorSteps
	}
	root := key.Tonic.Transpose(steps[degreeIndex[degree]] + shift)

	intervals := []int{0, 3, 7}
	if upper {
		intervals = []int{0, 4, 7}
	}

	switch suffix {
	case "":
	case "7":
		intervals = append(intervals, 10)
	case "maj7":
		intervals = append(intervals, 11)
	case "°", "o", "dim":
		intervals = []int{0, 3, 6}
	case "°7", "o7", "dim7":
		intervals = []int{0, 3, 6, 9}
	case "ø", "ø7":
		intervals = []int{0, 3, 6, 10}
	case "+":
		intervals = []int{0, 4, 8}
	default:
		return harmony.ChordSpec{}, fmt.Errorf("unsupported roman numeral suffix %q in %q", suffix, numeral)
	}

	return specFromIntervals(root, intervals, strings.TrimSpace(numeral)), nil
}

// Tonic returns the tonic numeral for a mode
func Tonic(mode analysis.Mode) string {
	if mode == analysis.ModeMinor {
		return "i"
	}
	return "I"
}
