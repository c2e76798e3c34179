package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

// Mode is the key mode
type Mode int

const (
	ModeMajor Mode = iota
	ModeMinor
)

func (m Mode) String() string {
	if m == ModeMinor {
		return "minor"
	}
	return "major"
}

// Key is a tonic with a mode
type Key struct {
	Tonic harmony.PitchClass
	Mode  Mode
	// Score is the profile correlation that selected the key, 0 when defaulted
	Score float64
}

// DefaultKey is used when a melody has no sounding notes
var DefaultKey = Key{Tonic: 0, Mode: ModeMajor}

func (k Key) String() string {
	return fmt.Sprintf("%s %s", k.Tonic, k.Mode)
}

var (
	majorScale = []int{0, 2, 4, 5, 7, 9, 11}
	minorScale = []int{0, 2, 3, 5, 7, 8, 10}
)

// Scale returns the pitch classes of the key's diatonic scale (natural minor for minor keys)
func (k Key) Scale() harmony.PitchClassSet {
	steps := majorScale
	if k.Mode == ModeMinor {
		steps = minorScale
	}
	var s harmony.PitchClassSet
	for _, st := range steps {
		s = s.Add(k.Tonic.Transpose(st))
	}
	return s
}

// Dominant returns the fifth scale degree
func (k Key) Dominant() harmony.PitchClass {
	return k.Tonic.Transpose(7)
}

// RelativeMinorTonic returns the tonic of the relative minor; a minor key is its own
func (k Key) RelativeMinorTonic() harmony.PitchClass {
	if k.Mode == ModeMinor {
		return k.Tonic
	}
	return k.Tonic.Transpose(9)
}

// ParseKey parses "C major", "F# minor", "Bbm" or "A" (major)
func ParseKey(s string) (Key, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 || len(fields) > 2 {
		return Key{}, fmt.Errorf("invalid key: %q", s)
	}
	name := fields[0]
	mode := ModeMajor
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "major", "maj":
		case "minor", "min":
			mode = ModeMinor
		default:
			return Key{}, fmt.Errorf("invalid key mode: %q", fields[1])
		}
	} else if len(name) > 1 && strings.HasSuffix(name, "m") {
		name = strings.TrimSuffix(name, "m")
		mode = ModeMinor
	}
	pc, ok := ParsePitchClass(name)
	if !ok {
		return Key{}, fmt.Errorf("invalid key tonic: %q", name)
	}
	return Key{Tonic: pc, Mode: mode}, nil
}

var letterClasses = map[byte]harmony.PitchClass{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// ParsePitchClass parses a note letter with any number of #/b accidentals
func ParsePitchClass(name string) (harmony.PitchClass, bool) {
	if name == "" {
		return 0, false
	}
	pc, ok := letterClasses[strings.ToUpper(name[:1])[0]]
	if !ok {
		return 0, false
	}
	for _, r := range name[1:] {
		switch r {
		case '#', '♯':
			pc = pc.Transpose(1)
		case 'b', '♭':
			pc = pc.Transpose(-1)
		default:
			return 0, false
		}
	}
	return pc, true
}

// Krumhansl-Kessler probe-tone profiles, index 0 = tonic
var (
	majorProfile = []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}
	minorProfile = []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}
)

// DetectKey estimates the key of a melody by correlating its duration-weighted
// pitch-class histogram with the major and minor profiles in all 24 keys.
// Ties keep the lower tonic and prefer major.
func DetectKey(notes []models.Note) Key {
	hist := make([]float64, 12)
	total := 0.0
	for _, n := range notes {
		if n.Rest || n.DurationBeats <= 0 {
			continue
		}
		hist[harmony.Pitch(n.Pitch).Class()] += n.DurationBeats
		total += n.DurationBeats
	}
	if total == 0 {
		return DefaultKey
	}

	best := DefaultKey
	best.Score = math.Inf(-1)
	rotated := make([]float64, 12)
	for tonic := 0; tonic < 12; tonic++ {
		for i := range rotated {
			rotated[i] = hist[(i+tonic)%12]
		}
		for _, mode := range []Mode{ModeMajor, ModeMinor} {
			profile := majorProfile
			if mode == ModeMinor {
				profile = minorProfile
			}
			r := stat.Correlation(rotated, profile, nil)
			if math.IsNaN(r) {
				continue
			}
			if r > best.Score {
				best = Key{Tonic: harmony.PitchClass(tonic), Mode: mode, Score: r}
			}
		}
	}
	if math.IsInf(best.Score, -1) {
		return DefaultKey
	}
	return best
}
