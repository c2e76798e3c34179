package harmony

import "fmt"

// rootStartOctave is where the root starts before being folded into the preferred range
const rootStartOctave = 4

// Place voices the pitch classes in classes with root at the bottom.
// The root is folded into cfg.PreferredRange, the other classes are stacked in
// ascending pitch-class order, each within [MinSpacing, MaxSpacing] of the voice
// below when that window admits the class. When a melody pitch is given and the
// top voice is below it, the top voice is raised by octaves to the lowest
// position at or above it.
func Place(root PitchClass, classes PitchClassSet, cfg VoicingConfig, melody MelodyConstraint) (Voicing, error) {
	if classes == 0 || !root.Valid() {
		return Voicing{}, ErrEmptyChord
	}
	if !classes.Has(root) {
		return Voicing{}, fmt.Errorf("%w: root %s not in %s", ErrEmptyChord, root, classes)
	}

	pitches := make([]Pitch, 0, classes.Len())
	pitches = append(pitches, placeRoot(root, cfg.PreferredRange))

	for _, pc := range classes.Classes() {
		if pc == root {
			continue
		}
		pitches = append(pitches, stackAbove(pitches[len(pitches)-1], pc, cfg))
	}

	v := Voicing{pitches: pitches}
	if melody.Set {
		v = applyMelody(v, melody.Pitch)
	}
	return v, nil
}

// placeRoot folds pc into r starting from octave 4. A root that lands on the
// upper boundary drops an octave when the lower octave is still in range.
func placeRoot(pc PitchClass, r Range) Pitch {
	p := InOctave(pc, rootStartOctave)
	for p < r.Low {
		p += semitonesPerOctave
	}
	for p > r.High && p-semitonesPerOctave >= r.Low {
		p -= semitonesPerOctave
	}
	if p == r.High && p-semitonesPerOctave >= r.Low {
		p -= semitonesPerOctave
	}
	return p
}

// stackAbove places pc relative to below: starting in below's octave it rises by
// octaves while the interval undershoots MinSpacing and falls while it overshoots
// MaxSpacing. If the window cannot hold the class, the closest position strictly
// above below is used so voices never cross.
func stackAbove(below Pitch, pc PitchClass, cfg VoicingConfig) Pitch {
	p := InOctave(pc, below.Octave())
	for int(p-below) < cfg.MinSpacing {
		p += semitonesPerOctave
	}
	for int(p-below) > cfg.MaxSpacing {
		p -= semitonesPerOctave
	}
	if p <= below {
		p += semitonesPerOctave
	}
	return p
}

// applyMelody raises the top voice by octaves until it is at or above melody.
// A top voice already at or above the melody is left where it is, as are the
// other voices.
func applyMelody(v Voicing, melody Pitch) Voicing {
	n := v.Len()
	if n == 0 || v.At(n-1) >= melody {
		return v
	}
	top := v.At(n - 1)
	for top < melody {
		top += semitonesPerOctave
	}
	return v.with(n-1, top)
}
