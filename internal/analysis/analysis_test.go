package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

// line builds back-to-back notes from (pitch, duration) pairs
func line(pairs ...float64) []models.Note {
	notes := make([]models.Note, 0, len(pairs)/2)
	beat := 0.0
	for i := 0; i+1 < len(pairs); i += 2 {
		notes = append(notes, models.Note{Pitch: int(pairs[i]), StartBeats: beat, DurationBeats: pairs[i+1]})
		beat += pairs[i+1]
	}
	return notes
}

func TestDetectKey(t *testing.T) {
	tests := []struct {
		name     string
		notes    []models.Note
		expected Key
	}{
		{
			name:     "C major arpeggio",
			notes:    line(60, 3, 64, 1, 67, 2),
			expected: Key{Tonic: 0, Mode: ModeMajor},
		},
		{
			name:     "A minor arpeggio",
			notes:    line(69, 3, 72, 1, 76, 2),
			expected: Key{Tonic: 9, Mode: ModeMinor},
		},
		{
			name:     "transposed to G major",
			notes:    line(67, 3, 71, 1, 74, 2),
			expected: Key{Tonic: 7, Mode: ModeMajor},
		},
		{
			name:     "no notes",
			notes:    []models.Note{{Rest: true, DurationBeats: 4}},
			expected: DefaultKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectKey(tt.notes)
			assert.Equal(t, tt.expected.Tonic, got.Tonic)
			assert.Equal(t, tt.expected.Mode, got.Mode)
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		input   string
		tonic   harmony.PitchClass
		mode    Mode
		wantErr bool
	}{
		{"C major", 0, ModeMajor, false},
		{"F# minor", 6, ModeMinor, false},
		{"Bbm", 10, ModeMinor, false},
		{"Eb", 3, ModeMajor, false},
		{"a min", 9, ModeMinor, false},
		{"H major", 0, 0, true},
		{"C lydian", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			k, err := ParseKey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tonic, k.Tonic)
			assert.Equal(t, tt.mode, k.Mode)
		})
	}
}

func TestKeyHelpers(t *testing.T) {
	c := Key{Tonic: 0, Mode: ModeMajor}
	assert.Equal(t, "C major", c.String())
	assert.Equal(t, harmony.PitchClass(7), c.Dominant())
	assert.Equal(t, harmony.PitchClass(9), c.RelativeMinorTonic())
	assert.Equal(t, []harmony.PitchClass{0, 2, 4, 5, 7, 9, 11}, c.Scale().Classes())

	a := Key{Tonic: 9, Mode: ModeMinor}
	assert.Equal(t, harmony.PitchClass(9), a.RelativeMinorTonic())
	assert.Equal(t, c.Scale(), a.Scale())
}

func TestTimelineInsertsRests(t *testing.T) {
	notes := []models.Note{
		{Pitch: 64, StartBeats: 3, DurationBeats: 1},
		{Pitch: 60, StartBeats: 1, DurationBeats: 1},
	}

	timeline := Timeline(notes)
	require.Len(t, timeline, 4)

	assert.True(t, timeline[0].Rest)
	assert.Equal(t, 1.0, timeline[0].DurationBeats)
	assert.Equal(t, 60, timeline[1].Pitch)
	assert.True(t, timeline[2].Rest)
	assert.Equal(t, 2.0, timeline[2].StartBeats)
	assert.Equal(t, 64, timeline[3].Pitch)

	// input order untouched
	assert.Equal(t, 64, notes[0].Pitch)
}

func TestDetectPhrases(t *testing.T) {
	tests := []struct {
		name     string
		notes    []models.Note
		expected []Phrase
	}{
		{
			name: "rest separates phrases",
			notes: []models.Note{
				{Pitch: 60, StartBeats: 0, DurationBeats: 1},
				{Pitch: 62, StartBeats: 1, DurationBeats: 1},
				{Pitch: 64, StartBeats: 3, DurationBeats: 1},
				{Pitch: 65, StartBeats: 4, DurationBeats: 1},
			},
			expected: []Phrase{{0, 1}, {2, 2}, {3, 4}},
		},
		{
			name:     "long note followed by a short one",
			notes:    line(60, 3, 62, 1, 64, 1),
			expected: []Phrase{{0, 0}, {1, 2}},
		},
		{
			name:     "descending leap wider than a fifth",
			notes:    line(72, 1, 71, 1, 62, 1, 64, 1),
			expected: []Phrase{{0, 1}, {2, 3}},
		},
		{
			name:     "cadential rhythm closes the phrase",
			notes:    line(60, 1, 62, 1, 64, 2, 65, 1, 67, 1),
			expected: []Phrase{{0, 2}, {3, 4}},
		},
		{
			name:     "long phrases are capped",
			notes:    line(60, 1, 61, 1, 62, 1, 63, 1, 64, 1, 65, 1, 66, 1, 67, 1, 68, 1, 69, 1, 70, 1, 71, 1),
			expected: []Phrase{{0, 8}, {9, 11}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectPhrases(Timeline(tt.notes)))
		})
	}
}

func TestContourAndPeaks(t *testing.T) {
	timeline := Timeline(line(60, 1, 64, 1, 64, 1, 67, 1, 62, 1, 65, 1, 60, 1))

	assert.Equal(t, []int{1, 0, 1, -1, 1, -1}, contour(timeline))
	assert.Equal(t, []int{3, 5}, peakNotes(timeline))
	assert.Empty(t, contour(Timeline(line(60, 1))))
}

func TestDetectCadences(t *testing.T) {
	c := Key{Tonic: 0, Mode: ModeMajor}

	tests := []struct {
		name     string
		notes    []models.Note
		expected []Cadence
	}{
		{"dominant to tonic", line(67, 1, 60, 1), []Cadence{{Note: 1, Type: CadencePerfectAuthentic}}},
		{"arrival on the dominant", line(62, 1, 67, 1), []Cadence{{Note: 1, Type: CadenceHalf}}},
		{"dominant to submediant", line(67, 1, 69, 1), []Cadence{{Note: 1, Type: CadenceDeceptive}}},
		{"mediant to tonic is not a cadence", line(64, 1, 60, 1), []Cadence{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectCadences(Timeline(tt.notes), c))
		})
	}
}

func TestTension(t *testing.T) {
	c := Key{Tonic: 0, Mode: ModeMajor}
	points := tension(Timeline(line(60, 1, 62, 1, 48, 1, 61, 1, 36, 1)), c)
	require.Len(t, points, 5)

	assert.InDelta(t, 0.0, points[0].Value, 1e-9)
	assert.InDelta(t, 0.25, points[1].Value, 1e-9)       // 2/12 + 2/24
	assert.InDelta(t, 14.0/12-0.5, points[2].Value, 1e-9) // leap down to C3
	assert.InDelta(t, 1.0, points[3].Value, 1e-9)         // clamped
	assert.InDelta(t, 1.0, points[4].Value, 1e-9)         // 25/12 - 1 = 1.08 clamped
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 1.0)
	}

	low := tension(Timeline(line(36, 1)), c)
	assert.InDelta(t, 0.0, low[0].Value, 1e-9)
}

func TestAnalyze(t *testing.T) {
	// | C E G E | F A G - | G B D B | C . . . |
	notes := line(
		60, 1, 64, 1, 67, 1, 64, 1,
		65, 1, 69, 1, 67, 2,
		67, 1, 71, 1, 74, 1, 71, 1,
		72, 4,
	)
	a := Analyze(notes, models.TimeSignature{})

	assert.Equal(t, models.DefaultTimeSignature, a.TimeSignature)
	assert.Equal(t, harmony.PitchClass(0), a.Key.Tonic)
	assert.Equal(t, ModeMajor, a.Key.Mode)
	assert.Equal(t, 4, a.Measures)
	require.Len(t, a.RhythmPatterns, 4)
	assert.Equal(t, []float64{1, 1, 2}, a.RhythmPatterns[1])
	assert.Len(t, a.Tension, len(notes))
	assert.Contains(t, a.StyleFeatures, "rhythmic_complexity")
	assert.InDelta(t, 14.0/24, a.StyleFeatures["pitch_range"], 1e-9)
	assert.InDelta(t, 0.0, a.StyleFeatures["syncopation"], 1e-9)
	assert.InDelta(t, 0.3, a.StyleFeatures["rhythmic_complexity"], 1e-9)

	s := a.Summary()
	assert.Equal(t, "C major", s.Key)
	assert.Len(t, s.Phrases, len(a.Phrases))
	assert.Len(t, s.Tension, len(notes))
}

func TestStyleFeaturesSyncopation(t *testing.T) {
	notes := []models.Note{
		{Pitch: 60, StartBeats: 0, DurationBeats: 0.5},
		{Pitch: 62, StartBeats: 0.5, DurationBeats: 1.5},
	}
	a := Analyze(notes, models.DefaultTimeSignature)
	assert.InDelta(t, 0.5, a.StyleFeatures["syncopation"], 1e-9)
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil, models.DefaultTimeSignature)
	assert.Equal(t, DefaultKey, a.Key)
	assert.Equal(t, 0, a.Measures)
	assert.Empty(t, a.Phrases)
	assert.Equal(t, 0.0, a.StyleFeatures["pitch_range"])
}
