// Package analysis extracts the musical structure of a monophonic melody:
// key, phrases, rhythm, contour, cadences and tension.
package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

// beatEpsilon absorbs floating-point noise in beat positions
const beatEpsilon = 1e-6

// maxPhraseNotes is the longest phrase before a break is forced
const maxPhraseNotes = 9

// Phrase is an inclusive range of Timeline indices
type Phrase struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CadenceType names a melodic cadence
type CadenceType string

const (
	CadencePerfectAuthentic CadenceType = "PAC"
	CadenceHalf             CadenceType = "HC"
	CadenceDeceptive        CadenceType = "DC"
)

// Cadence marks the arrival note of a cadence
type Cadence struct {
	Note int         `json:"note"`
	Type CadenceType `json:"type"`
}

// TensionPoint is the tension of one sounding note, in [0, 1]
type TensionPoint struct {
	Note  int     `json:"note"`
	Value float64 `json:"value"`
}

// MelodyAnalysis is everything downstream harmonization needs to know about a melody.
// Note indices refer to Timeline, which holds the notes in order with rests made explicit.
type MelodyAnalysis struct {
	Key            Key
	TimeSignature  models.TimeSignature
	Timeline       []models.Note
	Measures       int
	Phrases        []Phrase
	RhythmPatterns [][]float64
	Contour        []int
	PeakNotes      []int
	Cadences       []Cadence
	Tension        []TensionPoint
	StyleFeatures  map[string]float64
}

// Analyze runs every analysis over notes. A zero or invalid time signature
// falls back to 4/4.
func Analyze(notes []models.Note, ts models.TimeSignature) MelodyAnalysis {
	if !ts.Valid() {
		ts = models.DefaultTimeSignature
	}
	timeline := Timeline(notes)
	key := DetectKey(timeline)
	rhythm := rhythmPatterns(timeline, ts)

	return MelodyAnalysis{
		Key:            key,
		TimeSignature:  ts,
		Timeline:       timeline,
		Measures:       countMeasures(timeline, ts),
		Phrases:        detectPhrases(timeline),
		RhythmPatterns: rhythm,
		Contour:        contour(timeline),
		PeakNotes:      peakNotes(timeline),
		Cadences:       detectCadences(timeline, key),
		Tension:        tension(timeline, key),
		StyleFeatures:  styleFeatures(timeline, rhythm, ts),
	}
}

// Timeline sorts notes by start and inserts a rest into every gap, including
// one before a late first note. The input slice is not modified.
func Timeline(notes []models.Note) []models.Note {
	sorted := make([]models.Note, len(notes))
	copy(sorted, notes)
	models.SortNotes(sorted)

	out := make([]models.Note, 0, len(sorted)*2)
	cursor := 0.0
	for _, n := range sorted {
		if gap := n.StartBeats - cursor; gap > beatEpsilon {
			out = append(out, models.Note{Rest: true, StartBeats: cursor, DurationBeats: gap})
		}
		out = append(out, n)
		cursor = math.Max(cursor, n.EndBeats())
	}
	return out
}

// MeasureOf returns the zero-based measure containing beat
func MeasureOf(beat float64, ts models.TimeSignature) int {
	return int(math.Floor((beat + beatEpsilon) / ts.BeatsPerMeasure()))
}

func countMeasures(timeline []models.Note, ts models.TimeSignature) int {
	if len(timeline) == 0 {
		return 0
	}
	end := timeline[len(timeline)-1].EndBeats()
	for _, n := range timeline {
		end = math.Max(end, n.EndBeats())
	}
	return max(1, int(math.Ceil(end/ts.BeatsPerMeasure()-beatEpsilon)))
}

// sounding returns the Timeline indices of notes that are not rests
func sounding(timeline []models.Note) []int {
	idx := make([]int, 0, len(timeline))
	for i, n := range timeline {
		if !n.Rest {
			idx = append(idx, i)
		}
	}
	return idx
}

// detectPhrases splits the timeline after a breathing point, a cadential rhythm,
// or once a phrase reaches maxPhraseNotes
func detectPhrases(timeline []models.Note) []Phrase {
	var phrases []Phrase
	start := 0
	for i := range timeline {
		if i == len(timeline)-1 {
			break
		}
		if isBreathingPoint(timeline[i], timeline[i+1]) ||
			isCadentialRhythm(timeline[start:i+1]) ||
			i-start+1 >= maxPhraseNotes {
			phrases = append(phrases, Phrase{Start: start, End: i})
			start = i + 1
		}
	}
	if start < len(timeline) {
		phrases = append(phrases, Phrase{Start: start, End: len(timeline) - 1})
	}
	return phrases
}

func isBreathingPoint(cur, next models.Note) bool {
	if cur.Rest || next.Rest {
		return true
	}
	if cur.DurationBeats > next.DurationBeats*2 {
		return true
	}
	// descending leap wider than a fifth
	return cur.Pitch-next.Pitch > 7
}

var cadentialRhythms = [][]float64{
	{1, 1, 2},
	{0.5, 0.5, 2},
	{1, 2, 2},
}

func isCadentialRhythm(phrase []models.Note) bool {
	if len(phrase) < 3 {
		return false
	}
	last := phrase[len(phrase)-3:]
	for _, pattern := range cadentialRhythms {
		match := true
		for i, n := range last {
			if math.Abs(n.DurationBeats-pattern[i]) >= 0.1 {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// rhythmPatterns lists the durations of events starting in each measure
func rhythmPatterns(timeline []models.Note, ts models.TimeSignature) [][]float64 {
	patterns := make([][]float64, countMeasures(timeline, ts))
	for _, n := range timeline {
		m := MeasureOf(n.StartBeats, ts)
		if m < 0 || m >= len(patterns) {
			continue
		}
		patterns[m] = append(patterns[m], n.DurationBeats)
	}
	return patterns
}

// contour is the direction of each step between consecutive sounding notes
func contour(timeline []models.Note) []int {
	idx := sounding(timeline)
	if len(idx) < 2 {
		return []int{}
	}
	out := make([]int, len(idx)-1)
	for k := 1; k < len(idx); k++ {
		d := timeline[idx[k]].Pitch - timeline[idx[k-1]].Pitch
		switch {
		case d > 0:
			out[k-1] = 1
		case d < 0:
			out[k-1] = -1
		}
	}
	return out
}

// peakNotes returns notes strictly higher than both sounding neighbours
func peakNotes(timeline []models.Note) []int {
	idx := sounding(timeline)
	peaks := []int{}
	for k := 1; k+1 < len(idx); k++ {
		p := timeline[idx[k]].Pitch
		if p > timeline[idx[k-1]].Pitch && p > timeline[idx[k+1]].Pitch {
			peaks = append(peaks, idx[k])
		}
	}
	return peaks
}

// styleFeatures scores rhythmic complexity, pitch range and syncopation in [0, 1]
func styleFeatures(timeline []models.Note, rhythm [][]float64, ts models.TimeSignature) map[string]float64 {
	features := map[string]float64{
		"rhythmic_complexity": 0,
		"pitch_range":         0,
		"syncopation":         0,
	}

	unique := make(map[string]struct{}, len(rhythm))
	for _, p := range rhythm {
		unique[patternKey(p)] = struct{}{}
	}
	features["rhythmic_complexity"] = math.Min(1, float64(len(unique))/10)

	idx := sounding(timeline)
	if len(idx) == 0 {
		return features
	}
	lo, hi := timeline[idx[0]].Pitch, timeline[idx[0]].Pitch
	syncopated := 0
	for _, i := range idx {
		n := timeline[i]
		lo = min(lo, n.Pitch)
		hi = max(hi, n.Pitch)
		if isSyncopated(n, ts) {
			syncopated++
		}
	}
	features["pitch_range"] = math.Min(1, float64(hi-lo)/24)
	features["syncopation"] = math.Min(1, float64(syncopated)/float64(len(idx)))
	return features
}

// isSyncopated reports a note of a beat or longer that starts off the beat
func isSyncopated(n models.Note, ts models.TimeSignature) bool {
	pos := math.Mod(n.StartBeats, ts.BeatsPerMeasure())
	_, frac := math.Modf(pos)
	offBeat := frac > beatEpsilon && frac < 1-beatEpsilon
	return offBeat && n.DurationBeats >= 1
}

func patternKey(p []float64) string {
	parts := make([]string, len(p))
	for i, d := range p {
		parts[i] = fmt.Sprintf("%.3f", d)
	}
	return strings.Join(parts, ",")
}
