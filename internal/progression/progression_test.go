package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/analysis"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

var (
	cMajor = analysis.Key{Tonic: 0, Mode: analysis.ModeMajor}
	aMinor = analysis.Key{Tonic: 9, Mode: analysis.ModeMinor}
)

func TestParseChordSymbol(t *testing.T) {
	tests := []struct {
		symbol   string
		root     harmony.PitchClass
		quality  harmony.ChordQuality
		classes  []harmony.PitchClass
		rendered string
	}{
		{"C", 0, harmony.QualityMajor, []harmony.PitchClass{0, 4, 7}, "C"},
		{"Em", 4, harmony.QualityMinor, []harmony.PitchClass{4, 7, 11}, "Em"},
		{"Emin/G", 4, harmony.QualityMinor, []harmony.PitchClass{4, 7, 11}, "Em"},
		{"G7", 7, harmony.QualityDominant, []harmony.PitchClass{2, 5, 7, 11}, "G7"},
		{"Cmaj7", 0, harmony.QualityMajor, []harmony.PitchClass{0, 4, 7, 11}, "Cmaj7"},
		{"Am7", 9, harmony.QualityOther, []harmony.PitchClass{0, 4, 7, 9}, "Am7"},
		{"Bdim", 11, harmony.QualityOther, []harmony.PitchClass{2, 5, 11}, "Bdim"},
		{"Bdim7", 11, harmony.QualityOther, []harmony.PitchClass{2, 5, 8, 11}, "Bdim7"},
		{"Bm7b5", 11, harmony.QualityOther, []harmony.PitchClass{2, 5, 9, 11}, "Bm7b5"},
		{"Caug", 0, harmony.QualityOther, []harmony.PitchClass{0, 4, 8}, "Caug"},
		{"Fsus4", 5, harmony.QualityOther, []harmony.PitchClass{0, 5, 10}, "Fsus4"},
		{"Dsus2", 2, harmony.QualityOther, []harmony.PitchClass{2, 4, 9}, "Dsus2"},
		{"G9", 7, harmony.QualityDominant, []harmony.PitchClass{2, 5, 7, 9, 11}, "G7(9)"},
		{"C6", 0, harmony.QualityMajor, []harmony.PitchClass{0, 4, 7, 9}, "C(13)"},
		{"Cadd9", 0, harmony.QualityOther, []harmony.PitchClass{0, 2, 4, 7}, "Cadd9"},
		{"Bb", 10, harmony.QualityMajor, []harmony.PitchClass{2, 5, 10}, "Bb"},
		{"F#m", 6, harmony.QualityMinor, []harmony.PitchClass{1, 6, 9}, "F#m"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			spec, err := ParseChordSymbol(tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.root, spec.Root)
			assert.Equal(t, tt.quality, spec.Quality)
			assert.Equal(t, tt.classes, harmony.Resolve(spec, harmony.StyleClassical).Classes())
			assert.Equal(t, tt.rendered, ChordSymbol(spec))
		})
	}
}

func TestParseChordSymbolErrors(t *testing.T) {
	for _, symbol := range []string{"", "H", "cm", "C7x", "Cadd5", "C8"} {
		t.Run(symbol, func(t *testing.T) {
			_, err := ParseChordSymbol(symbol)
			assert.Error(t, err)
		})
	}
}

func TestParseRoman(t *testing.T) {
	tests := []struct {
		numeral string
		key     analysis.Key
		root    harmony.PitchClass
		quality harmony.ChordQuality
		classes []harmony.PitchClass
	}{
		{"I", cMajor, 0, harmony.QualityMajor, []harmony.PitchClass{0, 4, 7}},
		{"vi", cMajor, 9, harmony.QualityMinor, []harmony.PitchClass{0, 4, 9}},
		{"V7", cMajor, 7, harmony.QualityDominant, []harmony.PitchClass{2, 5, 7, 11}},
		{"ii7", cMajor, 2, harmony.QualityOther, []harmony.PitchClass{0, 2, 5, 9}},
		{"Imaj7", cMajor, 0, harmony.QualityMajor, []harmony.PitchClass{0, 4, 7, 11}},
		{"bVII", cMajor, 10, harmony.QualityMajor, []harmony.PitchClass{2, 5, 10}},
		{"vii°", cMajor, 11, harmony.QualityOther, []harmony.PitchClass{2, 5, 11}},
		{"i", aMinor, 9, harmony.QualityMinor, []harmony.PitchClass{0, 4, 9}},
		{"V", aMinor, 4, harmony.QualityMajor, []harmony.PitchClass{4, 8, 11}},
		{"VI", aMinor, 5, harmony.QualityMajor, []harmony.PitchClass{0, 5, 9}},
		{"III", aMinor, 0, harmony.QualityMajor, []harmony.PitchClass{0, 4, 7}},
		{"iiø7", aMinor, 11, harmony.QualityOther, []harmony.PitchClass{2, 5, 9, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.numeral+" in "+tt.key.String(), func(t *testing.T) {
			spec, err := ParseRoman(tt.numeral, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.root, spec.Root)
			assert.Equal(t, tt.quality, spec.Quality)
			assert.Equal(t, tt.classes, harmony.Resolve(spec, harmony.StyleClassical).Classes())
			assert.Equal(t, tt.numeral, spec.Degree)
		})
	}

	for _, bad := range []string{"", "X", "Iv", "V9"} {
		_, err := ParseRoman(bad, cMajor)
		assert.Error(t, err, bad)
	}
}

func TestEveryTableParses(t *testing.T) {
	for _, style := range harmony.Styles {
		for _, key := range []analysis.Key{cMajor, aMinor} {
			tables := Progressions(style, key.Mode)
			require.NotEmpty(t, tables, "%s %s", style, key)
			for _, numerals := range tables {
				for _, n := range numerals {
					_, err := ParseRoman(n, key)
					assert.NoError(t, err, "%s %s %s", style, key, n)
				}
			}
		}
	}
}

// melody builds one whole-note per measure in 4/4
func melody(pitches ...int) analysis.MelodyAnalysis {
	notes := make([]models.Note, len(pitches))
	for i, p := range pitches {
		notes[i] = models.Note{Pitch: p, StartBeats: float64(i * 4), DurationBeats: 4}
	}
	return analysis.Analyze(notes, models.DefaultTimeSignature)
}

func TestBuildSimple(t *testing.T) {
	a := melody(60, 65, 67, 64, 62)
	a.Key = cMajor

	plan, err := Build(a, harmony.StylePop, ComplexitySimple)
	require.NoError(t, err)

	assert.Equal(t, []string{"I", "IV", "V", "I"}, plan.Numerals)
	// five measures: the table wraps and the last measure is forced to the tonic
	assert.Equal(t, []string{"C", "F", "G", "C", "C"}, plan.Symbols())
	require.Len(t, plan.Melody, 5)
	assert.Equal(t, harmony.Melody(62), plan.Melody[4])
	assert.Equal(t, 4.0, plan.BeatsPerMeasure)
}

func TestBuildMediumAddsSevenths(t *testing.T) {
	a := melody(62, 65, 67, 60)
	a.Key = cMajor

	plan, err := Build(a, harmony.StylePop, ComplexityMedium)
	require.NoError(t, err)

	// D over C becomes C7; the other measures already hold the melody
	assert.Equal(t, []string{"C7", "F", "G", "C"}, plan.Symbols())
	assert.Equal(t, "I7", plan.Chords[0].Degree)
}

func TestBuildComplexPicksBestFit(t *testing.T) {
	a := melody(60, 69, 65, 67)
	a.Key = cMajor

	simple, err := Build(a, harmony.StylePop, ComplexitySimple)
	require.NoError(t, err)
	best, err := Build(a, harmony.StylePop, ComplexityComplex)
	require.NoError(t, err)

	assert.Equal(t, []string{"I", "IV", "V", "I"}, simple.Numerals)
	assert.Equal(t, []string{"I", "vi", "IV", "V"}, best.Numerals)
	assert.Equal(t, []string{"C", "Am", "F", "C"}, best.Symbols())
}

func TestBuildMinorKey(t *testing.T) {
	a := melody(69, 74, 76, 69)
	a.Key = aMinor

	plan, err := Build(a, harmony.StyleClassical, ComplexitySimple)
	require.NoError(t, err)
	assert.Equal(t, []string{"Am", "Dm", "E", "Am"}, plan.Symbols())
}

func TestMeasureMelodyRestsAndTies(t *testing.T) {
	notes := []models.Note{
		{Pitch: 64, StartBeats: 2, DurationBeats: 4}, // tied over the barline
		{Pitch: 67, StartBeats: 6, DurationBeats: 1},
		{Pitch: 72, StartBeats: 12, DurationBeats: 4},
	}
	a := analysis.Analyze(notes, models.DefaultTimeSignature)

	m := MeasureMelody(a)
	require.Len(t, m, 4)
	assert.Equal(t, harmony.Melody(64), m[0])
	assert.Equal(t, harmony.Melody(64), m[1])
	assert.False(t, m[2].Set)
	assert.Equal(t, harmony.Melody(72), m[3])
}

func TestBuildEmpty(t *testing.T) {
	plan, err := Build(analysis.Analyze(nil, models.DefaultTimeSignature), harmony.StyleJazz, ComplexityComplex)
	require.NoError(t, err)
	assert.Empty(t, plan.Chords)
}

func TestParseComplexity(t *testing.T) {
	c, err := ParseComplexity("")
	require.NoError(t, err)
	assert.Equal(t, ComplexityMedium, c)

	c, err = ParseComplexity("Complex")
	require.NoError(t, err)
	assert.Equal(t, ComplexityComplex, c)

	_, err = ParseComplexity("baroque")
	assert.ErrorIs(t, err, ErrUnknownComplexity)
}
