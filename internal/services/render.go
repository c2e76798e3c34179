package services

import (
	"math"
	"sort"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

// RhythmTemplate defines timing and accent patterns for striking a voicing
type RhythmTemplate struct {
	Name string
	// Offsets within the pattern, in beats of a BarBeats-long bar
	Offsets []float64
	// Velocity multipliers for accents (1.0 = normal)
	Accents []float64
	// Duration multiplier (affects note length, 0.0-1.0)
	Articulation float64
	// BarBeats is the bar length the offsets are written for, 4 when zero
	BarBeats float64
	// Bars is the number of bars before the pattern repeats, 1 when zero
	Bars int
}

// Rhythm template constants
const (
	articulationHigh    = 0.9
	articulationMedium  = 0.8
	articulationMidHigh = 0.85
	articulationShort   = 0.4
	articulationOverlap = 1.1

	defaultHarmonyVelocity = 80
	defaultMelodyVelocity  = 100
	defaultBassVelocity    = 90
)

var rhythmTemplates = map[string]RhythmTemplate{
	// Basic subdivisions
	"whole": {
		Name:         "whole",
		Offsets:      []float64{0},
		Accents:      []float64{1.0},
		Articulation: 1.0,
	},
	"half": {
		Name:         "half",
		Offsets:      []float64{0, 2},
		Accents:      []float64{1.0, 0.9},
		Articulation: 1.0,
	},
	"quarters": {
		Name:         "quarters",
		Offsets:      []float64{0, 1, 2, 3},
		Accents:      []float64{1.0, 0.8, 0.9, 0.8},
		Articulation: articulationHigh,
	},
	"8ths": {
		Name:         "8ths",
		Offsets:      []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5},
		Accents:      []float64{1.0, 0.7, 0.9, 0.7, 0.95, 0.7, 0.9, 0.7},
		Articulation: articulationMidHigh,
	},
	// Swing patterns
	"swing": {
		Name:         "swing",
		Offsets:      []float64{0, 0.67, 1, 1.67, 2, 2.67, 3, 3.67}, // Triplet feel
		Accents:      []float64{1.0, 0.7, 0.9, 0.7, 0.95, 0.7, 0.9, 0.7},
		Articulation: articulationMidHigh,
	},
	"shuffle": {
		Name:         "shuffle",
		Offsets:      []float64{0, 0.67, 1, 1.67, 2, 2.67, 3, 3.67},
		Accents:      []float64{1.0, 0.8, 0.9, 0.8, 1.0, 0.8, 0.9, 0.8},
		Articulation: articulationHigh,
	},
	// Latin patterns
	"bossa": {
		Name:         "bossa",
		Offsets:      []float64{0, 1.5, 3, 4.5, 6, 7.5}, // Characteristic bossa pattern over 2 bars
		Accents:      []float64{1.0, 0.8, 0.9, 0.8, 1.0, 0.8},
		Articulation: articulationHigh,
		Bars:         2,
	},
	"tresillo": {
		Name:         "tresillo",
		Offsets:      []float64{0, 1.5, 3}, // 3+3+2 pattern
		Accents:      []float64{1.0, 0.9, 0.95},
		Articulation: articulationHigh,
	},
	// Waltz and compound time
	"waltz": {
		Name:         "waltz",
		Offsets:      []float64{0, 1, 2},
		Accents:      []float64{1.0, 0.7, 0.75},
		Articulation: articulationHigh,
		BarBeats:     3,
	},
	"6/8": {
		Name:         "6/8",
		Offsets:      []float64{0, 0.5, 1, 1.5, 2, 2.5},
		Accents:      []float64{1.0, 0.6, 0.7, 0.9, 0.6, 0.7},
		Articulation: articulationMidHigh,
		BarBeats:     3,
	},
	// Syncopated patterns
	"offbeat": {
		Name:         "offbeat",
		Offsets:      []float64{0.5, 1.5, 2.5, 3.5},
		Accents:      []float64{0.9, 0.85, 0.9, 0.85},
		Articulation: articulationMidHigh,
	},
	"syncopated": {
		Name:         "syncopated",
		Offsets:      []float64{0, 0.5, 1.5, 2, 3, 3.5},
		Accents:      []float64{1.0, 0.8, 0.9, 0.85, 0.95, 0.8},
		Articulation: articulationMidHigh,
	},
	"anticipation": {
		Name:         "anticipation",
		Offsets:      []float64{0, 1, 1.75, 3, 3.75}, // Push before beats 2 and 4
		Accents:      []float64{1.0, 0.8, 0.9, 0.85, 0.9},
		Articulation: articulationMidHigh,
	},
	// Special
	"staccato": {
		Name:         "staccato",
		Offsets:      []float64{0, 1, 2, 3},
		Accents:      []float64{1.0, 0.9, 0.95, 0.9},
		Articulation: articulationShort,
	},
	"legato": {
		Name:         "legato",
		Offsets:      []float64{0, 1, 2, 3},
		Accents:      []float64{0.9, 0.85, 0.9, 0.85},
		Articulation: articulationOverlap, // clipped at the next hit
	},
}

// GetRhythmTemplate returns a rhythm template by name
func GetRhythmTemplate(name string) (RhythmTemplate, bool) {
	tmpl, ok := rhythmTemplates[name]
	return tmpl, ok
}

// RhythmTemplateNames lists the available templates in name order
func RhythmTemplateNames() []string {
	names := make([]string, 0, len(rhythmTemplates))
	for name := range rhythmTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRhythm is the comping pattern a style uses when the request names none
func DefaultRhythm(style harmony.Style, ts models.TimeSignature) string {
	if ts.BeatsPerMeasure() == 3 {
		if ts.Denominator == 8 {
			return "6/8"
		}
		return "waltz"
	}
	switch style {
	case harmony.StyleJazz:
		return "swing"
	case harmony.StyleRock:
		return "8ths"
	case harmony.StyleClassical:
		return "whole"
	case harmony.StyleBlues:
		return "shuffle"
	case harmony.StyleCountry:
		return "quarters"
	case harmony.StyleLatin:
		return "bossa"
	case harmony.StyleHipHop:
		return "syncopated"
	}
	return "half"
}

type hit struct {
	offset   float64
	duration float64
	accent   float64
}

// hits returns the strikes of the pattern for one measure of length beats.
// Multi-bar patterns pick the bar matching the measure index.
func (t RhythmTemplate) hits(measure int, length float64) []hit {
	const eps = 1e-9
	bar := t.BarBeats
	if bar <= 0 {
		bar = 4
	}
	bars := max(t.Bars, 1)
	lo := float64(measure%bars) * bar
	hi := lo + bar
	scale := length / bar

	var idx []int
	for i, o := range t.Offsets {
		if o >= lo-eps && o < hi-eps {
			idx = append(idx, i)
		}
	}

	out := make([]hit, 0, len(idx))
	for k, i := range idx {
		pos := (t.Offsets[i] - lo) * scale

		// Ensure note doesn't extend beyond next hit or measure end
		duration := length / float64(len(idx)) * t.Articulation
		next := length
		if k+1 < len(idx) {
			next = (t.Offsets[idx[k+1]] - lo) * scale
		}
		if duration > next-pos {
			duration = next - pos
		}

		accent := 1.0
		if i < len(t.Accents) {
			accent = t.Accents[i]
		}
		out = append(out, hit{offset: pos, duration: duration, accent: accent})
	}
	return out
}

// applyRhythmTemplateToChord strikes every chord note on each hit of the template
func applyRhythmTemplateToChord(chordNotes []int, velocity int, startBeat, length float64, measure int, tmpl RhythmTemplate) []models.NoteEvent {
	var noteEvents []models.NoteEvent
	for _, h := range tmpl.hits(measure, length) {
		accent := int(math.Round(float64(velocity) * h.accent))
		for _, midiNote := range chordNotes {
			noteEvents = append(noteEvents, models.NoteEvent{
				MidiNoteNumber: midiNote,
				Velocity:       accent,
				StartBeats:     startBeat + h.offset,
				DurationBeats:  h.duration,
			})
		}
	}
	return noteEvents
}

// renderMelody turns the sounding notes of a timeline into note events
func renderMelody(timeline []models.Note) []models.NoteEvent {
	events := make([]models.NoteEvent, 0, len(timeline))
	for _, n := range timeline {
		if n.Rest {
			continue
		}
		velocity := n.Velocity
		if velocity <= 0 {
			velocity = defaultMelodyVelocity
		}
		events = append(events, models.NoteEvent{
			MidiNoteNumber: n.Pitch,
			Velocity:       velocity,
			StartBeats:     n.StartBeats,
			DurationBeats:  n.DurationBeats,
		})
	}
	return events
}

// renderHarmony strikes each voiced chord over its measure. Chords that could
// not be voiced leave their measure silent.
func renderHarmony(voicings []models.ChordVoicing, tmpl RhythmTemplate) []models.NoteEvent {
	var events []models.NoteEvent
	for _, cv := range voicings {
		if cv.Voicing.Len() == 0 {
			continue
		}
		events = append(events, applyRhythmTemplateToChord(
			cv.Voicing.Ints(), defaultHarmonyVelocity, cv.StartBeats, cv.DurationBeats, cv.Measure, tmpl)...)
	}
	return events
}

// renderBass doubles each chord root once per measure inside the bass range
func renderBass(voicings []models.ChordVoicing, bassRange harmony.Range) []models.NoteEvent {
	var events []models.NoteEvent
	for _, cv := range voicings {
		if cv.Voicing.Len() == 0 || !cv.Chord.Root.Valid() {
			continue
		}
		events = append(events, models.NoteEvent{
			MidiNoteNumber: int(bassPitch(cv.Chord.Root, bassRange)),
			Velocity:       defaultBassVelocity,
			StartBeats:     cv.StartBeats,
			DurationBeats:  cv.DurationBeats,
		})
	}
	return events
}

// bassPitch is the lowest pitch of class pc at or above the bottom of r
func bassPitch(pc harmony.PitchClass, r harmony.Range) harmony.Pitch {
	return r.Low + harmony.Pitch((int(pc)-int(r.Low.Class())+12)%12)
}
