package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

var noteOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// NoteNameToMIDI converts a note name like "E1", "C4", "F#3", "Bb2" to MIDI note number
// Format: <note><accidentals?><octave> where:
//   - note: A-G (case insensitive)
//   - accidentals: any number of # (sharp) or b (flat)
//   - octave: -1 to 9 (C4 = 60 = middle C)
func NoteNameToMIDI(noteName string) (int, error) {
	name := strings.TrimSpace(noteName)
	if len(name) < 2 {
		return 0, fmt.Errorf("note name too short: %q", noteName)
	}

	semitone, ok := noteOffsets[strings.ToUpper(name[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note letter: %q", name[:1])
	}

	idx := 1
	for idx < len(name) && (name[idx] == '#' || name[idx] == 'b') {
		if name[idx] == '#' {
			semitone++
		} else {
			semitone--
		}
		idx++
	}

	if idx >= len(name) {
		return 0, fmt.Errorf("missing octave in note name: %q", noteName)
	}
	octave, err := strconv.Atoi(name[idx:])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note name %q: %w", noteName, err)
	}

	// C-1 = 0, C0 = 12, C4 = 60
	midiNote := (octave+1)*12 + semitone
	if midiNote < 0 || midiNote > 127 {
		return 0, fmt.Errorf("note %q is outside the MIDI range", noteName)
	}
	return midiNote, nil
}

// resolveNotes validates a request melody, filling Pitch from Name where given.
// Every note, rests included, must end by maxBeats. The input slice is not modified.
func resolveNotes(melody []models.Note, maxBeats float64) ([]models.Note, error) {
	notes := make([]models.Note, len(melody))
	sounding := 0
	for i, n := range melody {
		if n.DurationBeats <= 0 {
			return nil, fmt.Errorf("note %d: duration must be positive, got %.3f", i, n.DurationBeats)
		}
		if n.StartBeats < 0 {
			return nil, fmt.Errorf("note %d: negative start %.3f", i, n.StartBeats)
		}
		if end := n.StartBeats + n.DurationBeats; !(end <= maxBeats) {
			return nil, fmt.Errorf("%w: note %d ends at beat %g, limit is beat %g", ErrTooManyChords, i, end, maxBeats)
		}
		if !n.Rest {
			if n.Name != "" {
				p, err := NoteNameToMIDI(n.Name)
				if err != nil {
					return nil, fmt.Errorf("note %d: %w", i, err)
				}
				n.Pitch = p
			}
			if n.Pitch < 0 || n.Pitch > 127 {
				return nil, fmt.Errorf("note %d: pitch %d outside the MIDI range", i, n.Pitch)
			}
			if n.Velocity < 0 || n.Velocity > 127 {
				return nil, fmt.Errorf("note %d: velocity %d outside the MIDI range", i, n.Velocity)
			}
			sounding++
		}
		notes[i] = n
	}
	if sounding == 0 {
		return nil, ErrEmptyMelody
	}
	return notes, nil
}
