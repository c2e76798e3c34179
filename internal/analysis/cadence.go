package analysis

import (
	"math"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

// detectCadences looks at each pair of consecutive sounding notes: dominant to
// tonic is a perfect authentic cadence, arriving on the dominant a half cadence,
// and dominant to the relative minor tonic a deceptive one.
func detectCadences(timeline []models.Note, key Key) []Cadence {
	idx := sounding(timeline)
	cadences := []Cadence{}
	for k := 0; k+1 < len(idx); k++ {
		cur := harmony.Pitch(timeline[idx[k]].Pitch).Class()
		next := harmony.Pitch(timeline[idx[k+1]].Pitch).Class()

		switch {
		case next == key.Tonic:
			if cur == key.Dominant() {
				cadences = append(cadences, Cadence{Note: idx[k+1], Type: CadencePerfectAuthentic})
			}
		case next == key.Dominant():
			cadences = append(cadences, Cadence{Note: idx[k+1], Type: CadenceHalf})
		case cur == key.Dominant() && next == key.RelativeMinorTonic():
			cadences = append(cadences, Cadence{Note: idx[k+1], Type: CadenceDeceptive})
		}
	}
	return cadences
}

// tension scores each sounding note: +0.5 outside the key's scale, plus the
// leap from the previous note in octaves, plus the distance from middle C in
// two-octave units, clamped to [0, 1]
func tension(timeline []models.Note, key Key) []TensionPoint {
	scale := key.Scale()
	idx := sounding(timeline)
	points := make([]TensionPoint, 0, len(idx))
	for k, i := range idx {
		p := timeline[i].Pitch
		t := 0.0
		if !scale.Has(harmony.Pitch(p).Class()) {
			t += 0.5
		}
		if k > 0 {
			t += math.Abs(float64(p-timeline[idx[k-1]].Pitch)) / 12
		}
		t += float64(p-60) / 24
		points = append(points, TensionPoint{Note: i, Value: math.Max(0, math.Min(1, t))})
	}
	return points
}

// Summary converts the analysis to its serialisable form
func (a MelodyAnalysis) Summary() models.AnalysisSummary {
	s := models.AnalysisSummary{
		Key:           a.Key.String(),
		Tonic:         a.Key.Tonic,
		Mode:          a.Key.Mode.String(),
		Measures:      a.Measures,
		Phrases:       make([][2]int, len(a.Phrases)),
		Contour:       a.Contour,
		PeakNotes:     a.PeakNotes,
		Cadences:      make([]models.CadenceMark, len(a.Cadences)),
		Tension:       make([]float64, len(a.Tension)),
		StyleFeatures: a.StyleFeatures,
	}
	for i, p := range a.Phrases {
		s.Phrases[i] = [2]int{p.Start, p.End}
	}
	for i, c := range a.Cadences {
		s.Cadences[i] = models.CadenceMark{Note: c.Note, Type: string(c.Type)}
	}
	for i, t := range a.Tension {
		s.Tension[i] = t.Value
	}
	return s
}
