package progression

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/analysis"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
)

// ParseChordSymbol converts a chord symbol to a ChordSpec.
// Supports: C, Em, G7, Cmaj7, Am7, Bdim, Caug, Fsus4, Dm7b5, C9, Am9, C6, C13, Emin/G.
// A slash bass is accepted but ignored; the root is always voiced at the bottom.
func ParseChordSymbol(symbol string) (harmony.ChordSpec, error) {
	base := strings.TrimSpace(symbol)
	if i := strings.IndexByte(base, '/'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if base == "" {
		return harmony.ChordSpec{}, fmt.Errorf("empty chord symbol")
	}

	rootLen := 1
	if len(base) > 1 && (base[1] == '#' || base[1] == 'b') {
		rootLen = 2
	}
	root, ok := analysis.ParsePitchClass(base[:rootLen])
	if !ok || base[0] < 'A' || base[0] > 'G' {
		return harmony.ChordSpec{}, fmt.Errorf("invalid chord root: %s", base[:rootLen])
	}

	intervals, err := symbolIntervals(base[rootLen:])
	if err != nil {
		return harmony.ChordSpec{}, fmt.Errorf("invalid chord %q: %w", symbol, err)
	}
	return specFromIntervals(root, intervals, ""), nil
}

// symbolIntervals returns the semitone offsets named by a chord suffix
func symbolIntervals(suffix string) ([]int, error) {
	s := suffix
	var intervals []int

	// triad, checked longest first so "maj7" is not read as minor
	switch {
	case strings.HasPrefix(s, "maj"):
		intervals = []int{0, 4, 7}
	case strings.HasPrefix(s, "min"):
		intervals = []int{0, 3, 7}
		s = s[3:]
	case strings.HasPrefix(s, "dim"), strings.HasPrefix(s, "°"):
		intervals = []int{0, 3, 6}
		s = strings.TrimPrefix(strings.TrimPrefix(s, "dim"), "°")
	case strings.HasPrefix(s, "aug"), strings.HasPrefix(s, "+"):
		intervals = []int{0, 4, 8}
		s = strings.TrimPrefix(strings.TrimPrefix(s, "aug"), "+")
	case strings.HasPrefix(s, "m"):
		intervals = []int{0, 3, 7}
		s = s[1:]
	default:
		intervals = []int{0, 4, 7}
	}

	majorSeventh := false
	for s != "" {
		switch {
		case strings.HasPrefix(s, "maj"):
			majorSeventh = true
			s = s[3:]
		case strings.HasPrefix(s, "sus2"):
			intervals = replaceThird(intervals, 2)
			s = s[4:]
		case strings.HasPrefix(s, "sus4"):
			intervals = replaceThird(intervals, 5)
			s = s[4:]
		case strings.HasPrefix(s, "sus"):
			intervals = replaceThird(intervals, 5)
			s = s[3:]
		case strings.HasPrefix(s, "b5"):
			intervals = replaceFifth(intervals, 6)
			s = s[2:]
		case strings.HasPrefix(s, "add"):
			n, rest := leadingNumber(s[3:])
			iv, ok := degreeInterval(n)
			if !ok {
				return nil, fmt.Errorf("unsupported added tone: add%d", n)
			}
			intervals = append(intervals, iv)
			s = rest
		default:
			n, rest := leadingNumber(s)
			if rest == s {
				return nil, fmt.Errorf("unrecognised suffix: %s", s)
			}
			switch n {
			case 6:
				intervals = append(intervals, 9)
			case 7:
				intervals = append(intervals, seventh(intervals, majorSeventh))
			case 9, 11, 13:
				// tall chords imply the seventh below them
				intervals = append(intervals, seventh(intervals, majorSeventh))
				for d := 9; d <= n; d += 2 {
					iv, _ := degreeInterval(d)
					intervals = append(intervals, iv)
				}
			default:
				return nil, fmt.Errorf("unsupported extension: %d", n)
			}
			s = rest
		}
	}
	return intervals, nil
}

// seventh returns the seventh for a triad: major after "maj", diminished on a
// diminished triad, minor otherwise
func seventh(triad []int, major bool) int {
	switch {
	case major:
		return 11
	case slices.Equal(triad, []int{0, 3, 6}):
		return 9
	}
	return 10
}

func replaceThird(intervals []int, iv int) []int {
	out := slices.Clone(intervals)
	for i, v := range out {
		if v == 3 || v == 4 {
			out[i] = iv
		}
	}
	return out
}

func replaceFifth(intervals []int, iv int) []int {
	out := slices.Clone(intervals)
	for i, v := range out {
		if v == 7 {
			out[i] = iv
		}
	}
	return out
}

func degreeInterval(degree int) (int, bool) {
	switch degree {
	case 2, 9:
		return 14, true
	case 4, 11:
		return 17, true
	case 6, 13:
		return 21, true
	}
	return 0, false
}

func leadingNumber(s string) (int, string) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, s
	}
	n, _ := strconv.Atoi(s[:end])
	return n, s[end:]
}

var extensionSubsets = func() [][]harmony.Extension {
	all := []harmony.Extension{harmony.Ext7, harmony.Ext9, harmony.Ext11, harmony.Ext13}
	var out [][]harmony.Extension
	for mask := 0; mask < 1<<len(all); mask++ {
		var sub []harmony.Extension
		for i, e := range all {
			if mask&(1<<i) != 0 {
				sub = append(sub, e)
			}
		}
		out = append(out, sub)
	}
	slices.SortStableFunc(out, func(a, b []harmony.Extension) int { return len(a) - len(b) })
	return out
}()

// specFromIntervals picks the simplest quality plus extensions whose resolved
// pitch classes equal the interval set, falling back to QualityOther with the
// intervals spelled out
func specFromIntervals(root harmony.PitchClass, intervals []int, degree string) harmony.ChordSpec {
	var target harmony.PitchClassSet
	for _, iv := range intervals {
		target = target.Add(root.Transpose(iv))
	}

	for _, q := range []harmony.ChordQuality{harmony.QualityDominant, harmony.QualityMajor, harmony.QualityMinor} {
		for _, exts := range extensionSubsets {
			spec := harmony.ChordSpec{Root: root, Quality: q, Extensions: slices.Clone(exts), Degree: degree}
			// classical adds nothing of its own, so this resolves the spec alone
			if harmony.Resolve(spec, harmony.StyleClassical) == target {
				return spec
			}
		}
	}

	normalized := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		iv = ((iv % 12) + 12) % 12
		if !slices.Contains(normalized, iv) {
			normalized = append(normalized, iv)
		}
	}
	slices.Sort(normalized)
	return harmony.ChordSpec{Root: root, Quality: harmony.QualityOther, Intervals: normalized, Degree: degree}
}

var otherSuffixes = map[string]string{
	"0,3,6":    "dim",
	"0,3,6,9":  "dim7",
	"0,3,6,10": "m7b5",
	"0,4,8":    "aug",
	"0,2,7":    "sus2",
	"0,5,7":    "sus4",
	"0,5,7,10": "7sus4",
	"0,3,7,10": "m7",
	"0,2,4,7":  "add9",
	"0,2,3,7":  "madd9",
	"0,3,7,9":  "m6",
}

// ChordSymbol renders a spec as a chord symbol for display
func ChordSymbol(spec harmony.ChordSpec) string {
	if !spec.Root.Valid() {
		return "N.C."
	}
	var b strings.Builder
	b.WriteString(spec.Root.String())

	switch spec.Quality {
	case harmony.QualityMajor:
	case harmony.QualityMinor:
		b.WriteString("m")
	case harmony.QualityDominant:
		b.WriteString("7")
	case harmony.QualityOther:
		key := make([]string, len(spec.Intervals))
		for i, iv := range spec.Intervals {
			key[i] = strconv.Itoa(iv)
		}
		if suffix, ok := otherSuffixes[strings.Join(key, ",")]; ok {
			b.WriteString(suffix)
		} else if len(key) > 0 {
			b.WriteString("(" + strings.Join(key, ",") + ")")
		}
	}

	var ext []string
	for _, e := range spec.Extensions {
		switch {
		case e == harmony.Ext7 && spec.Quality == harmony.QualityDominant:
		case e == harmony.Ext7:
			b.WriteString("maj7")
		case e == harmony.Ext9 && spec.Quality != harmony.QualityDominant:
			ext = append(ext, "b9")
		default:
			ext = append(ext, strconv.Itoa(int(e)))
		}
	}
	if len(ext) > 0 {
		b.WriteString("(" + strings.Join(ext, ",") + ")")
	}
	return b.String()
}
