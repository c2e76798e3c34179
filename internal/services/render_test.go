package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

func TestNoteNameToMIDI(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"C4", 60},
		{"c4", 60},
		{"A4", 69},
		{"F#3", 54},
		{"Bb2", 46},
		{"E1", 28},
		{"C-1", 0},
		{"G9", 127},
		{"Cb4", 59},
		{"C##4", 62},
		{" D5 ", 74},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NoteNameToMIDI(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "C", "H4", "C#", "Cx4", "G#9", "Cb-1"} {
		_, err := NoteNameToMIDI(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveNotes(t *testing.T) {
	in := []models.Note{
		{Name: "E4", StartBeats: 0, DurationBeats: 1},
		{Rest: true, StartBeats: 1, DurationBeats: 1},
		{Pitch: 67, StartBeats: 2, DurationBeats: 2, Velocity: 90},
	}
	notes, err := resolveNotes(in, 16)
	require.NoError(t, err)
	assert.Equal(t, 64, notes[0].Pitch)
	assert.Equal(t, 0, in[0].Pitch, "input must not be modified")
	assert.Equal(t, 67, notes[2].Pitch)

	_, err = resolveNotes([]models.Note{{Rest: true, DurationBeats: 4}}, 16)
	assert.ErrorIs(t, err, ErrEmptyMelody)

	_, err = resolveNotes(nil, 16)
	assert.ErrorIs(t, err, ErrEmptyMelody)

	for _, bad := range [][]models.Note{
		{{Pitch: 60, DurationBeats: 0}},
		{{Pitch: 60, StartBeats: -1, DurationBeats: 1}},
		{{Pitch: 128, DurationBeats: 1}},
		{{Name: "Q4", DurationBeats: 1}},
		{{Pitch: 60, DurationBeats: 1, Velocity: 200}},
	} {
		_, err := resolveNotes(bad, 16)
		assert.Error(t, err)
	}

	for _, late := range [][]models.Note{
		{{Pitch: 60, StartBeats: 1e15, DurationBeats: 1}},
		{{Pitch: 60, DurationBeats: 1}, {Rest: true, StartBeats: 15, DurationBeats: 2}},
		{{Pitch: 60, DurationBeats: 1e300}},
	} {
		_, err := resolveNotes(late, 16)
		assert.ErrorIs(t, err, ErrTooManyChords)
	}

	// ending exactly on the limit is fine
	_, err = resolveNotes([]models.Note{{Pitch: 60, StartBeats: 12, DurationBeats: 4}}, 16)
	assert.NoError(t, err)
}

func TestRhythmTemplatesAreWellFormed(t *testing.T) {
	for _, name := range RhythmTemplateNames() {
		tmpl, ok := GetRhythmTemplate(name)
		require.True(t, ok)
		assert.Equal(t, name, tmpl.Name)
		assert.Len(t, tmpl.Accents, len(tmpl.Offsets), name)
		assert.IsIncreasing(t, tmpl.Offsets, name)
	}
	for _, style := range harmony.Styles {
		for _, ts := range []models.TimeSignature{
			{Numerator: 4, Denominator: 4},
			{Numerator: 3, Denominator: 4},
			{Numerator: 6, Denominator: 8},
		} {
			_, ok := GetRhythmTemplate(DefaultRhythm(style, ts))
			assert.True(t, ok, "%s %v", style, ts)
		}
	}
}

func TestDefaultRhythm(t *testing.T) {
	assert.Equal(t, "half", DefaultRhythm(harmony.StylePop, models.DefaultTimeSignature))
	assert.Equal(t, "swing", DefaultRhythm(harmony.StyleJazz, models.DefaultTimeSignature))
	assert.Equal(t, "bossa", DefaultRhythm(harmony.StyleLatin, models.DefaultTimeSignature))
	assert.Equal(t, "waltz", DefaultRhythm(harmony.StyleJazz, models.TimeSignature{Numerator: 3, Denominator: 4}))
	assert.Equal(t, "6/8", DefaultRhythm(harmony.StylePop, models.TimeSignature{Numerator: 6, Denominator: 8}))
}

func TestApplyRhythmTemplateToChord(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		measure   int
		length    float64
		starts    []float64
		durations []float64
		velocity  []int
	}{
		{
			name:      "half notes",
			template:  "half",
			length:    4,
			starts:    []float64{10, 12},
			durations: []float64{2, 2},
			velocity:  []int{80, 72},
		},
		{
			name:      "staccato quarters",
			template:  "staccato",
			length:    4,
			starts:    []float64{10, 11, 12, 13},
			durations: []float64{0.4, 0.4, 0.4, 0.4},
			velocity:  []int{80, 72, 76, 72},
		},
		{
			name:      "legato clipped at next hit",
			template:  "legato",
			length:    4,
			starts:    []float64{10, 11, 12, 13},
			durations: []float64{1, 1, 1, 1},
			velocity:  []int{72, 68, 72, 68},
		},
		{
			name:      "waltz in three",
			template:  "waltz",
			length:    3,
			starts:    []float64{10, 11, 12},
			durations: []float64{0.9, 0.9, 0.9},
			velocity:  []int{80, 56, 60},
		},
		{
			name:      "bossa first bar",
			template:  "bossa",
			measure:   0,
			length:    4,
			starts:    []float64{10, 11.5, 13},
			durations: []float64{1.2, 1.2, 1},
			velocity:  []int{80, 64, 72},
		},
		{
			name:      "bossa second bar",
			template:  "bossa",
			measure:   1,
			length:    4,
			starts:    []float64{10.5, 12, 13.5},
			durations: []float64{1.2, 1.2, 0.5},
			velocity:  []int{64, 80, 64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, ok := GetRhythmTemplate(tt.template)
			require.True(t, ok)

			events := applyRhythmTemplateToChord([]int{60}, 80, 10, tt.length, tt.measure, tmpl)
			require.Len(t, events, len(tt.starts))
			for i, e := range events {
				assert.Equal(t, 60, e.MidiNoteNumber)
				assert.InDelta(t, tt.starts[i], e.StartBeats, 1e-9, "start %d", i)
				assert.InDelta(t, tt.durations[i], e.DurationBeats, 1e-9, "duration %d", i)
				assert.Equal(t, tt.velocity[i], e.Velocity, "velocity %d", i)
			}
		})
	}
}

func TestApplyRhythmTemplateStrikesEveryVoice(t *testing.T) {
	tmpl, _ := GetRhythmTemplate("quarters")
	events := applyRhythmTemplateToChord([]int{55, 62, 71}, 100, 0, 4, 0, tmpl)
	require.Len(t, events, 12)
	assert.Equal(t, []int{55, 62, 71}, []int{events[3].MidiNoteNumber, events[4].MidiNoteNumber, events[5].MidiNoteNumber})
	assert.Equal(t, 1.0, events[3].StartBeats)
}

func TestBassPitch(t *testing.T) {
	r := harmony.Range{Low: 36, High: 48}
	assert.Equal(t, harmony.Pitch(36), bassPitch(0, r))
	assert.Equal(t, harmony.Pitch(43), bassPitch(7, r))
	assert.Equal(t, harmony.Pitch(47), bassPitch(11, r))
	assert.Equal(t, harmony.Pitch(41), bassPitch(5, harmony.Range{Low: 40, High: 52}))
}

func TestRenderSkipsFailedChords(t *testing.T) {
	voicings := []models.ChordVoicing{
		{Measure: 0, Chord: harmony.ChordSpec{Root: 0}, Voicing: harmony.NewVoicing(60, 64, 67), StartBeats: 0, DurationBeats: 4},
		{Measure: 1, Chord: harmony.ChordSpec{Root: 12}, Error: "chord resolves to no pitch classes", StartBeats: 4, DurationBeats: 4},
	}
	tmpl, _ := GetRhythmTemplate("whole")

	harm := renderHarmony(voicings, tmpl)
	require.Len(t, harm, 3)
	for _, e := range harm {
		assert.Equal(t, 0.0, e.StartBeats)
		assert.Equal(t, 4.0, e.DurationBeats)
	}

	bass := renderBass(voicings, harmony.Range{Low: 36, High: 48})
	require.Len(t, bass, 1)
	assert.Equal(t, 36, bass[0].MidiNoteNumber)
}

func TestRenderMelody(t *testing.T) {
	events := renderMelody([]models.Note{
		{Pitch: 60, DurationBeats: 1},
		{Rest: true, StartBeats: 1, DurationBeats: 1},
		{Pitch: 62, StartBeats: 2, DurationBeats: 2, Velocity: 70},
	})
	require.Len(t, events, 2)
	assert.Equal(t, defaultMelodyVelocity, events[0].Velocity)
	assert.Equal(t, 70, events[1].Velocity)
	assert.Equal(t, 2.0, events[1].StartBeats)
}
