package harmony

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// PitchClass is a note name modulo the octave (C=0 ... B=11)
type PitchClass int

// Pitch is an absolute MIDI note number (C4 = 60)
type Pitch int

const semitonesPerOctave = 12

var pitchClassNames = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}

// Valid reports whether pc is in 0-11
func (pc PitchClass) Valid() bool {
	return pc >= 0 && pc < semitonesPerOctave
}

func (pc PitchClass) String() string {
	if !pc.Valid() {
		return fmt.Sprintf("PitchClass(%d)", int(pc))
	}
	return pitchClassNames[pc]
}

// Transpose returns pc moved by n semitones, wrapped into 0-11
func (pc PitchClass) Transpose(n int) PitchClass {
	return PitchClass(mod12(int(pc) + n))
}

// Class returns the pitch class of p
func (p Pitch) Class() PitchClass {
	return PitchClass(mod12(int(p)))
}

// Octave returns the octave number, so that C4 = 60 has octave 4
func (p Pitch) Octave() int {
	return floorDiv(int(p), semitonesPerOctave) - 1
}

func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Class(), p.Octave())
}

// InOctave returns the pitch of class pc in the given octave
func InOctave(pc PitchClass, octave int) Pitch {
	return Pitch((octave+1)*semitonesPerOctave + int(pc))
}

// ChordQuality selects the base interval set of a chord
type ChordQuality int

const (
	QualityMajor ChordQuality = iota
	QualityMinor
	QualityDominant
	QualityOther
)

func (q ChordQuality) String() string {
	switch q {
	case QualityMajor:
		return "major"
	case QualityMinor:
		return "minor"
	case QualityDominant:
		return "dominant"
	case QualityOther:
		return "other"
	}
	return fmt.Sprintf("ChordQuality(%d)", int(q))
}

// MarshalText encodes the quality by name
func (q ChordQuality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText decodes a quality name
func (q *ChordQuality) UnmarshalText(text []byte) error {
	parsed, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuality maps a quality name back to its value
func ParseQuality(name string) (ChordQuality, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "major", "maj", "":
		return QualityMajor, nil
	case "minor", "min", "m":
		return QualityMinor, nil
	case "dominant", "dom", "7":
		return QualityDominant, nil
	case "other":
		return QualityOther, nil
	}
	return QualityOther, fmt.Errorf("unknown chord quality: %s", name)
}

// baseIntervals returns the semitone offsets from the root for the quality.
// Other has no fixed set; callers supply ChordSpec.Intervals instead.
func (q ChordQuality) baseIntervals() []int {
	switch q {
	case QualityMajor:
		return []int{0, 4, 7}
	case QualityMinor:
		return []int{0, 3, 7}
	case QualityDominant:
		return []int{0, 4, 7, 10}
	case QualityOther:
		return []int{0}
	}
	return nil
}

// Extension is a chord extension named by its scale degree
type Extension int

const (
	Ext7  Extension = 7
	Ext9  Extension = 9
	Ext11 Extension = 11
	Ext13 Extension = 13
)

// ChordSpec is an abstract chord as produced by progression selection.
// It is treated as immutable once built.
type ChordSpec struct {
	Root       PitchClass   `json:"root"`
	Quality    ChordQuality `json:"quality"`
	Extensions []Extension  `json:"extensions,omitempty"`
	// Intervals overrides the base intervals for QualityOther (diminished, sus4, ...)
	Intervals []int `json:"intervals,omitempty"`
	// Degree is the scale-degree role ("V7", "ii"), informational only
	Degree string `json:"degree,omitempty"`
}

// Base returns the pitch classes implied by root and quality, before extensions
func (c ChordSpec) Base() PitchClassSet {
	var set PitchClassSet
	if !c.Root.Valid() {
		return set
	}
	intervals := c.Quality.baseIntervals()
	if c.Quality == QualityOther && len(c.Intervals) > 0 {
		intervals = c.Intervals
	}
	for _, iv := range intervals {
		set = set.Add(c.Root.Transpose(iv))
	}
	return set
}

// WithExtensions returns a copy of c with exts appended
func (c ChordSpec) WithExtensions(exts ...Extension) ChordSpec {
	out := c
	out.Extensions = append(slices.Clone(c.Extensions), exts...)
	out.Intervals = slices.Clone(c.Intervals)
	return out
}

func (c ChordSpec) String() string {
	if c.Degree != "" {
		return fmt.Sprintf("%s %s (%s)", c.Root, c.Quality, c.Degree)
	}
	return fmt.Sprintf("%s %s", c.Root, c.Quality)
}

// PitchClassSet is an unordered set of pitch classes stored as a 12-bit mask
type PitchClassSet uint16

// NewPitchClassSet builds a set from the given classes, ignoring invalid ones
func NewPitchClassSet(pcs ...PitchClass) PitchClassSet {
	var s PitchClassSet
	for _, pc := range pcs {
		s = s.Add(pc)
	}
	return s
}

// Add returns s with pc included
func (s PitchClassSet) Add(pc PitchClass) PitchClassSet {
	if !pc.Valid() {
		return s
	}
	return s | 1<<uint(pc)
}

// Has reports whether pc is in s
func (s PitchClassSet) Has(pc PitchClass) bool {
	return pc.Valid() && s&(1<<uint(pc)) != 0
}

// Len returns the number of classes in s
func (s PitchClassSet) Len() int {
	n := 0
	for pc := PitchClass(0); pc < semitonesPerOctave; pc++ {
		if s.Has(pc) {
			n++
		}
	}
	return n
}

// Classes returns the members of s in ascending order
func (s PitchClassSet) Classes() []PitchClass {
	out := make([]PitchClass, 0, semitonesPerOctave)
	for pc := PitchClass(0); pc < semitonesPerOctave; pc++ {
		if s.Has(pc) {
			out = append(out, pc)
		}
	}
	return out
}

func (s PitchClassSet) String() string {
	names := make([]string, 0, semitonesPerOctave)
	for _, pc := range s.Classes() {
		names = append(names, pc.String())
	}
	return "{" + strings.Join(names, " ") + "}"
}

// Voicing is an ordered set of absolute pitches, voice 0 = bass, last = top voice.
// It is never mutated after construction; Pitches returns a copy.
type Voicing struct {
	pitches []Pitch
}

// NewVoicing copies pitches into a new Voicing
func NewVoicing(pitches ...Pitch) Voicing {
	return Voicing{pitches: slices.Clone(pitches)}
}

// Len returns the number of voices
func (v Voicing) Len() int { return len(v.pitches) }

// At returns the pitch of voice i
func (v Voicing) At(i int) Pitch { return v.pitches[i] }

// Pitches returns a copy of the voice pitches
func (v Voicing) Pitches() []Pitch { return slices.Clone(v.pitches) }

// Top returns the last (top) voice, or 0 for an empty voicing
func (v Voicing) Top() Pitch {
	if len(v.pitches) == 0 {
		return 0
	}
	return v.pitches[len(v.pitches)-1]
}

// Max returns the highest sounding pitch
func (v Voicing) Max() Pitch {
	if len(v.pitches) == 0 {
		return 0
	}
	return slices.Max(v.pitches)
}

// Classes returns the set of pitch classes sounded
func (v Voicing) Classes() PitchClassSet {
	var s PitchClassSet
	for _, p := range v.pitches {
		s = s.Add(p.Class())
	}
	return s
}

// Equal reports whether both voicings hold the same pitches in the same order
func (v Voicing) Equal(o Voicing) bool {
	return slices.Equal(v.pitches, o.pitches)
}

// Ints returns the pitches as plain MIDI numbers
func (v Voicing) Ints() []int {
	out := make([]int, len(v.pitches))
	for i, p := range v.pitches {
		out[i] = int(p)
	}
	return out
}

func (v Voicing) String() string {
	names := make([]string, len(v.pitches))
	for i, p := range v.pitches {
		names[i] = p.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

// MarshalJSON encodes the voicing as a list of MIDI numbers
func (v Voicing) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Ints())
}

// UnmarshalJSON decodes a list of MIDI numbers
func (v *Voicing) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	v.pitches = make([]Pitch, len(ints))
	for i, n := range ints {
		v.pitches[i] = Pitch(n)
	}
	return nil
}

// with returns a copy of v with voice i replaced
func (v Voicing) with(i int, p Pitch) Voicing {
	out := v.Pitches()
	out[i] = p
	return Voicing{pitches: out}
}

// MelodyConstraint is the optional melody pitch for one step
type MelodyConstraint struct {
	Pitch Pitch
	Set   bool
}

// Melody returns a set constraint for p
func Melody(p Pitch) MelodyConstraint {
	return MelodyConstraint{Pitch: p, Set: true}
}

func mod12(n int) int {
	return ((n % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
