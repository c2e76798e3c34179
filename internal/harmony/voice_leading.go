package harmony

// maxLeap is the largest per-voice move (a tritone) octave minimization allows
const maxLeap = 6

// perturbSteps are tried in order of size, downward first
var perturbSteps = []Pitch{-1, 1, -2, 2}

// ParallelPair records two adjacent voices that moved by the same interval in the same direction
type ParallelPair struct {
	Lower  int `json:"lower"`
	Upper  int `json:"upper"`
	Motion int `json:"motion"`
}

// Transition is the result of leading one voicing into the next
type Transition struct {
	Voicing Voicing
	// Reverted lists voices whose octave minimization was undone to keep spacing
	Reverted []int
	// Perturbed lists voices nudged off a parallel
	Perturbed []int
	// Unresolved lists parallels no perturbation could clear; they are kept as is
	Unresolved []ParallelPair
}

// LeadFrom re-voices next so each voice moves as little as possible from prev.
//
// Voices are paired by index when both voicings have the same size, otherwise by
// pitch class. Paired voices are moved by octaves to within a tritone of their
// partner and unpaired voices are restacked above wherever the voice below ends
// up. A voice that leaves the preferred range by more than an octave, or leaves
// an adjacent interval outside [MinSpacing, MaxSpacing] where next had it
// inside, falls back to its position in next; the check repeats until nothing
// moves, so the result is always in ascending order. When voice crossing is not
// allowed, adjacent voices moving in parallel are nudged by up to two semitones
// onto any tone of classes; parallels that cannot be cleared are reported in
// Transition.Unresolved.
//
// classes is the resolved pitch-class set of the new chord; zero means next's own classes.
func LeadFrom(prev, next Voicing, classes PitchClassSet, cfg VoicingConfig) Transition {
	n := next.Len()
	if prev.Len() == 0 || n == 0 {
		return Transition{Voicing: next}
	}
	if classes == 0 {
		classes = next.Classes()
	}

	partner := align(prev, next)
	input := next.Pitches()
	target := next.Pitches()
	for i, j := range partner {
		if j >= 0 {
			target[i] = nearestOctave(input[i], prev.At(j))
		}
	}

	// spacing and register take priority over leap size
	t := Transition{}
	placed := make([]bool, n)
	var work []Pitch
	for {
		work = arrange(input, target, partner, placed, cfg)
		i := rejected(work, input, placed, cfg)
		if i < 0 {
			break
		}
		placed[i] = true
		if partner[i] >= 0 {
			t.Reverted = append(t.Reverted, i)
		}
	}

	if !cfg.VoiceCrossingAllowed {
		motion := func(i int) (int, bool) {
			if partner[i] < 0 {
				return 0, false
			}
			return int(work[i] - prev.At(partner[i])), true
		}
		parallel := func(i int) bool {
			lo, okLo := motion(i - 1)
			hi, okHi := motion(i)
			return okLo && okHi && lo != 0 && lo == hi
		}

		pairs, count := 0, 0
		for i := 1; i < n; i++ {
			if partner[i] >= 0 && partner[i-1] >= 0 {
				pairs++
				if parallel(i) {
					count++
				}
			}
		}
		tolerated := cfg.ParallelMotionThreshold > 0 && float64(count)/float64(max(pairs, 1)) <= cfg.ParallelMotionThreshold

		if count > 0 && !tolerated {
			for i := 1; i < n; i++ {
				if !parallel(i) {
					continue
				}
				if p, ok := perturb(work, i, classes, cfg, parallel); ok {
					work[i] = p
					t.Perturbed = append(t.Perturbed, i)
					continue
				}
				m, _ := motion(i)
				t.Unresolved = append(t.Unresolved, ParallelPair{Lower: i - 1, Upper: i, Motion: m})
			}
		}
	}

	t.Voicing = Voicing{pitches: work}
	return t
}

// arrange lays out the voices: placed voices at input, paired voices at their
// octave-minimized target, unpaired voices stacked on the voice below
func arrange(input, target []Pitch, partner []int, placed []bool, cfg VoicingConfig) []Pitch {
	w := make([]Pitch, len(input))
	for i := range w {
		switch {
		case placed[i]:
			w[i] = input[i]
		case partner[i] >= 0:
			w[i] = target[i]
		case i > 0:
			w[i] = stackAbove(w[i-1], input[i].Class(), cfg)
		default:
			w[i] = input[i]
		}
	}
	return w
}

// rejected returns the first voice that has to fall back to input, or -1.
// Register is checked before spacing. A pair that is too close blames its upper
// voice first, a pair that is too wide its lower voice.
func rejected(w, input []Pitch, placed []bool, cfg VoicingConfig) int {
	moved := func(i int) bool { return !placed[i] && w[i] != input[i] }

	slack := cfg.slackRange()
	for i := range w {
		if moved(i) && !slack.Contains(w[i]) {
			return i
		}
	}

	for i := 1; i < len(w); i++ {
		gap := w[i] - w[i-1]
		if cfg.spaced(gap) || gap == input[i]-input[i-1] {
			continue
		}
		first, second := i, i-1
		if int(gap) > cfg.MaxSpacing {
			first, second = i-1, i
		}
		if moved(first) {
			return first
		}
		if moved(second) {
			return second
		}
	}
	return -1
}

// align pairs each voice of next with a voice of prev, -1 when unpaired
func align(prev, next Voicing) []int {
	partner := make([]int, next.Len())
	if prev.Len() == next.Len() {
		for i := range partner {
			partner[i] = i
		}
		return partner
	}
	used := make([]bool, prev.Len())
	for i := range partner {
		partner[i] = -1
		pc := next.At(i).Class()
		for j := 0; j < prev.Len(); j++ {
			if !used[j] && prev.At(j).Class() == pc {
				partner[i] = j
				used[j] = true
				break
			}
		}
	}
	return partner
}

// nearestOctave moves p by octaves until it is within a tritone of target
func nearestOctave(p, target Pitch) Pitch {
	for abs(int(p-target)) > maxLeap {
		if p < target {
			p += semitonesPerOctave
		} else {
			p -= semitonesPerOctave
		}
	}
	return p
}

// perturb looks for the smallest nudge of voice i that lands on any tone of
// classes, stays in register, keeps both adjacent intervals within spacing and
// clears the parallel with both neighbours. The voice may give up its own pitch
// class for another chord tone. w is restored before returning.
func perturb(w []Pitch, i int, classes PitchClassSet, cfg VoicingConfig, parallel func(int) bool) (Pitch, bool) {
	original := w[i]
	defer func() { w[i] = original }()

	slack := cfg.slackRange()
	for _, step := range perturbSteps {
		cand := original + step
		if !classes.Has(cand.Class()) || !slack.Contains(cand) {
			continue
		}
		if i > 0 && !cfg.spaced(cand-w[i-1]) {
			continue
		}
		if i < len(w)-1 && !cfg.spaced(w[i+1]-cand) {
			continue
		}
		w[i] = cand
		if parallel(i) || (i < len(w)-1 && parallel(i+1)) {
			continue
		}
		return cand, true
	}
	return original, false
}
