package models

import "sort"

// Note is one monophonic melody event. Rests are either explicit (Rest=true)
// or implied by gaps between notes.
type Note struct {
	// Pitch is the MIDI note number; Name ("C4", "F#3") is accepted instead on input
	Pitch         int     `json:"pitch,omitempty"`
	Name          string  `json:"name,omitempty"`
	Rest          bool    `json:"rest,omitempty"`
	StartBeats    float64 `json:"startBeats"`
	DurationBeats float64 `json:"durationBeats"`
	Velocity      int     `json:"velocity,omitempty"`
}

// EndBeats returns the beat at which the note stops sounding
func (n Note) EndBeats() float64 {
	return n.StartBeats + n.DurationBeats
}

// SortNotes orders notes by start time, keeping input order for ties
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].StartBeats < notes[j].StartBeats
	})
}

// TimeSignature is a meter such as 3/4; beats are always quarter notes
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// DefaultTimeSignature is used when the input carries no meter
var DefaultTimeSignature = TimeSignature{Numerator: 4, Denominator: 4}

// BeatsPerMeasure returns the measure length in quarter-note beats
func (ts TimeSignature) BeatsPerMeasure() float64 {
	if ts.Numerator <= 0 || ts.Denominator <= 0 {
		return DefaultTimeSignature.BeatsPerMeasure()
	}
	return float64(ts.Numerator) * 4 / float64(ts.Denominator)
}

// Valid reports whether ts has a positive numerator and a power-of-two denominator
func (ts TimeSignature) Valid() bool {
	d := ts.Denominator
	return ts.Numerator > 0 && d > 0 && d&(d-1) == 0
}

// NoteEvent represents a single musical note with timing and pitch information
type NoteEvent struct {
	MidiNoteNumber int     `json:"midiNoteNumber"`
	Velocity       int     `json:"velocity"`
	StartBeats     float64 `json:"startBeats"`
	DurationBeats  float64 `json:"durationBeats"`
}

// ChordEvent represents a chord with timing information
type ChordEvent struct {
	ChordSymbol   string  `json:"chordSymbol"`
	Degree        string  `json:"degree,omitempty"`
	StartBeats    float64 `json:"startBeats"`
	DurationBeats float64 `json:"durationBeats"`
}
