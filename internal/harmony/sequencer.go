package harmony

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/logger"
)

// Step is the outcome of voicing one chord of a sequence
type Step struct {
	Index   int
	Chord   ChordSpec
	Classes PitchClassSet
	Voicing Voicing
	// Perturbed voices were nudged off a parallel while leading into this step
	Perturbed []int
	// Unresolved parallels accepted while leading into this step
	Unresolved []ParallelPair
	// Err is set when this chord could not be voiced (ErrEmptyChord); other steps still run
	Err error
}

// Sequencer voices whole chord sequences for one style.
// It holds only read-only state and is safe for concurrent use.
type Sequencer struct {
	style Style
	cfg   VoicingConfig
}

// Option customises a Sequencer
type Option func(*Sequencer)

// WithConfig overrides the style's voicing configuration
func WithConfig(cfg VoicingConfig) Option {
	return func(s *Sequencer) {
		s.cfg = cfg
	}
}

// NewSequencer creates a sequencer for style
func NewSequencer(style Style, opts ...Option) *Sequencer {
	s := &Sequencer{style: style, cfg: style.Config()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Style returns the sequencer's style
func (s *Sequencer) Style() Style { return s.style }

// Config returns the voicing configuration in use
func (s *Sequencer) Config() VoicingConfig { return s.cfg }

// Sequence voices chords in order, threading each emitted voicing into the next
// step. melody is either empty or aligned 1:1 with chords. Configuration and
// alignment problems are returned before any chord is processed; a chord that
// cannot be voiced is reported in its Step and the previous voicing carries on.
func (s *Sequencer) Sequence(chords []ChordSpec, melody []MelodyConstraint) ([]Step, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid voicing config for %s: %w", s.style, err)
	}
	if len(melody) > 0 && len(melody) != len(chords) {
		return nil, fmt.Errorf("%w: %d melody pitches for %d chords", ErrAlignmentMismatch, len(melody), len(chords))
	}

	steps := make([]Step, 0, len(chords))
	var prev Voicing
	for i, chord := range chords {
		var m MelodyConstraint
		if len(melody) > 0 {
			m = melody[i]
		}
		step := s.voice(i, chord, m, prev)
		if step.Err == nil {
			prev = step.Voicing
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Voicings is Sequence for callers that treat any failed step as fatal
func (s *Sequencer) Voicings(chords []ChordSpec, melody []MelodyConstraint) ([]Voicing, error) {
	steps, err := s.Sequence(chords, melody)
	if err != nil {
		return nil, err
	}
	out := make([]Voicing, len(steps))
	for i, st := range steps {
		if st.Err != nil {
			return nil, fmt.Errorf("chord %d (%s): %w", i, st.Chord, st.Err)
		}
		out[i] = st.Voicing
	}
	return out, nil
}

func (s *Sequencer) voice(i int, chord ChordSpec, melody MelodyConstraint, prev Voicing) Step {
	step := Step{Index: i, Chord: chord}
	step.Classes = Resolve(chord, s.style)
	if step.Classes == 0 {
		step.Err = ErrEmptyChord
		logger.Warn("Chord resolved to no pitch classes", logger.Fields{
			"step":  i,
			"chord": chord.String(),
			"style": s.style.String(),
		})
		return step
	}

	v, err := Place(chord.Root, step.Classes, s.cfg, melody)
	if err != nil {
		step.Err = err
		return step
	}

	if prev.Len() > 0 {
		t := LeadFrom(prev, v, step.Classes, s.cfg)
		v = t.Voicing
		step.Perturbed = t.Perturbed
		step.Unresolved = t.Unresolved
		for _, p := range t.Unresolved {
			logger.Warn("Parallel motion kept, no perturbation cleared it", logger.Fields{
				"step":   i,
				"lower":  p.Lower,
				"upper":  p.Upper,
				"motion": p.Motion,
				"style":  s.style.String(),
			})
		}
		if melody.Set && v.Max() < melody.Pitch {
			v = applyMelody(v, melody.Pitch)
		}
	}

	step.Voicing = v
	return step
}
