// Package progression turns a melody analysis into one chord per measure,
// chosen from per-style Roman-numeral tables.
package progression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/analysis"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
)

// Complexity controls how much the progression adapts to the melody
type Complexity int

const (
	// ComplexitySimple uses the style's first progression as is
	ComplexitySimple Complexity = iota
	// ComplexityMedium adds a seventh to triads that clash with the melody by a step
	ComplexityMedium
	// ComplexityComplex also picks the progression that fits the melody best
	ComplexityComplex
)

// DefaultComplexity is used when none is requested
const DefaultComplexity = ComplexityMedium

// ErrUnknownComplexity is returned by ParseComplexity
var ErrUnknownComplexity = errors.New("unknown complexity")

func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "simple"
	case ComplexityMedium:
		return "medium"
	case ComplexityComplex:
		return "complex"
	}
	return fmt.Sprintf("Complexity(%d)", int(c))
}

// ParseComplexity maps a name to a Complexity; empty means DefaultComplexity
func ParseComplexity(name string) (Complexity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultComplexity, nil
	case "simple":
		return ComplexitySimple, nil
	case "medium":
		return ComplexityMedium, nil
	case "complex":
		return ComplexityComplex, nil
	}
	return DefaultComplexity, fmt.Errorf("%w: %q", ErrUnknownComplexity, name)
}

// Plan is the chord sequence chosen for a melody, with the melody pitch that
// must stay on top of each chord
type Plan struct {
	Key             analysis.Key
	Style           harmony.Style
	Complexity      Complexity
	Numerals        []string
	Chords          []harmony.ChordSpec
	Melody          []harmony.MelodyConstraint
	BeatsPerMeasure float64
}

// Symbols returns the chord symbols of the plan
func (p Plan) Symbols() []string {
	out := make([]string, len(p.Chords))
	for i, c := range p.Chords {
		out[i] = ChordSymbol(c)
	}
	return out
}

// Build assigns one chord per measure of the analysed melody. The table
// progression repeats across measures and the last measure always resolves
// to the tonic.
func Build(a analysis.MelodyAnalysis, style harmony.Style, complexity Complexity) (Plan, error) {
	plan := Plan{
		Key:             a.Key,
		Style:           style,
		Complexity:      complexity,
		BeatsPerMeasure: a.TimeSignature.BeatsPerMeasure(),
		Melody:          MeasureMelody(a),
	}
	if a.Measures == 0 {
		return plan, nil
	}

	tables := Progressions(style, a.Key.Mode)
	best := -1
	for _, numerals := range tables {
		chords, err := chordsFor(numerals, a.Key, a.Measures)
		if err != nil {
			return Plan{}, fmt.Errorf("%s progression %v: %w", style, numerals, err)
		}
		score := fit(chords, plan.Melody)
		if best < 0 || score > best {
			best = score
			plan.Numerals = numerals
			plan.Chords = chords
		}
		if complexity != ComplexityComplex {
			break
		}
	}

	if complexity >= ComplexityMedium {
		for i, c := range plan.Chords {
			plan.Chords[i] = upgradeForMelody(c, plan.Melody[i])
		}
	}
	return plan, nil
}

// MeasureMelody returns, per measure, the first note sounding in it; a measure
// of rests has no constraint
func MeasureMelody(a analysis.MelodyAnalysis) []harmony.MelodyConstraint {
	const eps = 1e-6
	bpm := a.TimeSignature.BeatsPerMeasure()
	out := make([]harmony.MelodyConstraint, a.Measures)
	for m := range out {
		start := float64(m) * bpm
		end := start + bpm
		for _, n := range a.Timeline {
			if n.Rest {
				continue
			}
			if n.StartBeats < end-eps && n.EndBeats() > start+eps {
				out[m] = harmony.Melody(harmony.Pitch(n.Pitch))
				break
			}
		}
	}
	return out
}

func chordsFor(numerals []string, key analysis.Key, measures int) ([]harmony.ChordSpec, error) {
	chords := make([]harmony.ChordSpec, measures)
	for m := range chords {
		numeral := numerals[m%len(numerals)]
		if m == measures-1 {
			numeral = Tonic(key.Mode)
		}
		spec, err := ParseRoman(numeral, key)
		if err != nil {
			return nil, err
		}
		chords[m] = spec
	}
	return chords, nil
}

// fit counts measures whose melody pitch is a chord tone
func fit(chords []harmony.ChordSpec, melody []harmony.MelodyConstraint) int {
	score := 0
	for i, c := range chords {
		if i < len(melody) && melody[i].Set && c.Base().Has(melody[i].Pitch.Class()) {
			score++
		}
	}
	return score
}

// upgradeForMelody adds a minor seventh to a major or minor triad whose tones
// miss the melody pitch but lie within a whole step of it
func upgradeForMelody(spec harmony.ChordSpec, melody harmony.MelodyConstraint) harmony.ChordSpec {
	if !melody.Set {
		return spec
	}
	if (spec.Quality != harmony.QualityMajor && spec.Quality != harmony.QualityMinor) || len(spec.Extensions) > 0 {
		return spec
	}
	base := spec.Base()
	pc := melody.Pitch.Class()
	if base.Has(pc) {
		return spec
	}

	near := false
	for _, tone := range base.Classes() {
		d := int(pc - tone)
		d = ((d % 12) + 12) % 12
		if d <= 2 || d >= 10 {
			near = true
			break
		}
	}
	if !near {
		return spec
	}

	intervals := []int{0, 4, 7, 10}
	if spec.Quality == harmony.QualityMinor {
		intervals = []int{0, 3, 7, 10}
	}
	degree := spec.Degree
	if degree != "" {
		degree += "7"
	}
	return specFromIntervals(spec.Root, intervals, degree)
}
