package models

import (
	"time"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
)

// HarmonizeRequest wraps a melody and the harmonization parameters
type HarmonizeRequest struct {
	Melody        []Note         `json:"melody" binding:"required"`
	Style         string         `json:"style"`
	Complexity    string         `json:"complexity"` // "simple", "medium", "complex"
	TimeSignature *TimeSignature `json:"time_signature,omitempty"`
	Tempo         float64        `json:"tempo,omitempty"`

	// Rendering parameters
	Rhythm     string `json:"rhythm,omitempty"` // rhythm template name, per-style default when empty
	DoubleBass bool   `json:"double_bass"`
}

// BatchRequest harmonizes several independent melodies
type BatchRequest struct {
	Requests []HarmonizeRequest `json:"requests" binding:"required"`
}

// BatchItem is the outcome of one melody of a batch
type BatchItem struct {
	Index  int              `json:"index"`
	Result *HarmonizeResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// VoicingRequest runs only the voicing engine over explicit chords
type VoicingRequest struct {
	Chords []string `json:"chords" binding:"required"` // chord symbols ("Am7") or, with Key set, Roman numerals
	Key    string   `json:"key,omitempty"`             // "C major", "A minor"
	Melody []string `json:"melody,omitempty"`          // optional note names aligned with Chords, "" for none
	Style  string   `json:"style"`
}

// ChordVoicing is one voiced chord of a harmonization
type ChordVoicing struct {
	Measure       int                    `json:"measure"`
	Symbol        string                 `json:"symbol"`
	Chord         harmony.ChordSpec      `json:"chord"`
	Classes       []harmony.PitchClass   `json:"pitch_classes"`
	Voicing       harmony.Voicing        `json:"voicing"`
	Melody        *int                   `json:"melody,omitempty"`
	Perturbed     []int                  `json:"perturbed_voices,omitempty"`
	Unresolved    []harmony.ParallelPair `json:"unresolved_parallels,omitempty"`
	Error         string                 `json:"error,omitempty"`
	StartBeats    float64                `json:"startBeats"`
	DurationBeats float64                `json:"durationBeats"`
}

// CadenceMark is a cadence found between two melody notes
type CadenceMark struct {
	Note int    `json:"note"` // index into the melody of the arrival note
	Type string `json:"type"` // "PAC", "HC", "DC"
}

// AnalysisSummary is the serialisable view of a melody analysis
type AnalysisSummary struct {
	Key           string             `json:"key"`
	Tonic         harmony.PitchClass `json:"tonic"`
	Mode          string             `json:"mode"`
	Measures      int                `json:"measures"`
	Phrases       [][2]int           `json:"phrases"` // [first, last] note indices
	Contour       []int              `json:"contour"`
	PeakNotes     []int              `json:"peak_notes"`
	Cadences      []CadenceMark      `json:"cadences"`
	Tension       []float64          `json:"tension"`
	StyleFeatures map[string]float64 `json:"style_features"`
}

// HarmonizeResult is the complete output of one harmonization
type HarmonizeResult struct {
	ID            string          `json:"id,omitempty"`
	Style         string          `json:"style"`
	Complexity    string          `json:"complexity"`
	TimeSignature TimeSignature   `json:"time_signature"`
	Tempo         float64         `json:"tempo"`
	Analysis      AnalysisSummary `json:"analysis"`
	Chords        []ChordEvent    `json:"chords"`
	Voicings      []ChordVoicing  `json:"voicings"`
	Melody        []NoteEvent     `json:"melody"`
	Harmony       []NoteEvent     `json:"harmony"`
	Bass          []NoteEvent     `json:"bass,omitempty"`
}

// UnresolvedCount returns the number of parallels kept across all chords
func (r *HarmonizeResult) UnresolvedCount() int {
	n := 0
	for _, v := range r.Voicings {
		n += len(v.Unresolved)
	}
	return n
}

// Harmonization is a persisted harmonization record
type Harmonization struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	Subject    string    `gorm:"index" json:"subject,omitempty"` // authenticated caller, empty without auth
	RequestID  string    `gorm:"index" json:"request_id"`
	Style      string    `gorm:"not null;index" json:"style"`
	Complexity string    `gorm:"not null" json:"complexity"`
	Key        string    `json:"key"`
	Chords     int       `gorm:"not null" json:"chords"`
	Unresolved int       `gorm:"default:0" json:"unresolved_parallels"`
	DurationMS int       `gorm:"not null" json:"duration_ms"`
	Result     string    `gorm:"type:text" json:"-"` // HarmonizeResult as JSON
}
