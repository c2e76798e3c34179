package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/analysis"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/logger"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/progression"
)

var (
	// ErrInvalidRequest wraps every request validation failure
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyMelody means the melody holds no sounding note
	ErrEmptyMelody = errors.New("melody has no notes")
	// ErrTooManyChords means the chord sequence exceeds the configured limit
	ErrTooManyChords = errors.New("too many chords")
	// ErrUnknownRhythm means the requested rhythm template does not exist
	ErrUnknownRhythm = errors.New("unknown rhythm template")
)

const (
	defaultTempo     = 120.0
	defaultMaxChords = 256
	maxBatchSize     = 32
)

// Harmonizer runs the full pipeline: melody analysis, progression selection,
// voicing and rendering. It is safe for concurrent use.
type Harmonizer struct {
	defaultStyle harmony.Style
	maxChords    int
	concurrency  int
	recorder     metrics.Recorder
}

// Option configures a Harmonizer
type Option func(*Harmonizer)

// WithDefaultStyle sets the style used when a request names none
func WithDefaultStyle(style harmony.Style) Option {
	return func(h *Harmonizer) { h.defaultStyle = style }
}

// WithMaxChords bounds the chord sequence length of a single request
func WithMaxChords(n int) Option {
	return func(h *Harmonizer) {
		if n > 0 {
			h.maxChords = n
		}
	}
}

// WithBatchConcurrency bounds how many melodies of a batch run at once
func WithBatchConcurrency(n int) Option {
	return func(h *Harmonizer) {
		if n > 0 {
			h.concurrency = n
		}
	}
}

// WithRecorder sends a measurement for every harmonization
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Harmonizer) {
		if r != nil {
			h.recorder = r
		}
	}
}

// NewHarmonizer creates a harmonizer
func NewHarmonizer(opts ...Option) *Harmonizer {
	h := &Harmonizer{
		defaultStyle: harmony.DefaultStyle,
		maxChords:    defaultMaxChords,
		concurrency:  4,
		recorder:     metrics.Nop{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MaxChords returns the chord sequence limit
func (h *Harmonizer) MaxChords() int { return h.maxChords }

// Style resolves a requested style name, falling back to the default style
func (h *Harmonizer) Style(name string) harmony.Style {
	if name == "" {
		return h.defaultStyle
	}
	return harmony.LookupStyle(name)
}

// Harmonize analyses the melody, chooses one chord per measure, voices the
// chords and renders melody, harmony and optional bass note events.
func (h *Harmonizer) Harmonize(ctx context.Context, req models.HarmonizeRequest) (*models.HarmonizeResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := models.DefaultTimeSignature
	if req.TimeSignature != nil {
		if !req.TimeSignature.Valid() {
			return nil, fmt.Errorf("%w: time signature %d/%d", ErrInvalidRequest,
				req.TimeSignature.Numerator, req.TimeSignature.Denominator)
		}
		ts = *req.TimeSignature
	}

	// one chord per measure, so the melody may not run past maxChords measures
	notes, err := resolveNotes(req.Melody, float64(h.maxChords)*ts.BeatsPerMeasure())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	tempo := req.Tempo
	if tempo == 0 {
		tempo = defaultTempo
	}
	if tempo < 0 {
		return nil, fmt.Errorf("%w: tempo %.1f", ErrInvalidRequest, tempo)
	}

	style := h.Style(req.Style)
	complexity, err := progression.ParseComplexity(req.Complexity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	rhythm := req.Rhythm
	if rhythm == "" {
		rhythm = DefaultRhythm(style, ts)
	}
	tmpl, ok := GetRhythmTemplate(rhythm)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrUnknownRhythm, rhythm)
	}

	a := analysis.Analyze(notes, ts)
	if a.Measures > h.maxChords {
		return nil, fmt.Errorf("%w: %w: %d measures, limit %d", ErrInvalidRequest, ErrTooManyChords, a.Measures, h.maxChords)
	}

	plan, err := progression.Build(a, style, complexity)
	if err != nil {
		return nil, fmt.Errorf("failed to build progression: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := harmony.NewSequencer(style)
	steps, err := seq.Sequence(plan.Chords, plan.Melody)
	if err != nil {
		return nil, fmt.Errorf("failed to voice progression: %w", err)
	}

	bpm := ts.BeatsPerMeasure()
	voicings := chordVoicings(steps, plan.Melody, bpm)

	result := &models.HarmonizeResult{
		ID:            uuid.New().String(),
		Style:         style.String(),
		Complexity:    complexity.String(),
		TimeSignature: ts,
		Tempo:         tempo,
		Analysis:      a.Summary(),
		Chords:        make([]models.ChordEvent, len(voicings)),
		Voicings:      voicings,
		Melody:        renderMelody(a.Timeline),
		Harmony:       renderHarmony(voicings, tmpl),
	}
	for i, cv := range voicings {
		result.Chords[i] = models.ChordEvent{
			ChordSymbol:   cv.Symbol,
			Degree:        cv.Chord.Degree,
			StartBeats:    cv.StartBeats,
			DurationBeats: cv.DurationBeats,
		}
	}
	if req.DoubleBass {
		result.Bass = renderBass(voicings, seq.Config().PreferredBassRange)
	}

	duration := time.Since(start)
	unresolved := result.UnresolvedCount()
	logger.LogHarmonization(ctx, result.Style, len(voicings), duration, logger.Fields{
		"key":        a.Key.String(),
		"complexity": result.Complexity,
		"rhythm":     tmpl.Name,
		"unresolved": unresolved,
	})
	h.recorder.RecordHarmonization(ctx, metrics.Harmonization{
		Style:      result.Style,
		Chords:     len(voicings),
		Unresolved: unresolved,
		Duration:   duration,
		Success:    true,
	})
	return result, nil
}

// HarmonizeBatch harmonizes independent melodies concurrently. A failing
// melody is reported in its item; only cancellation aborts the batch.
func (h *Harmonizer) HarmonizeBatch(ctx context.Context, reqs []models.HarmonizeRequest) ([]models.BatchItem, error) {
	if len(reqs) > maxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds %d melodies", ErrInvalidRequest, len(reqs), maxBatchSize)
	}

	items := make([]models.BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			items[i].Index = i
			// the HTTP recovery middleware does not see panics in these goroutines
			defer func() {
				if r := recover(); r != nil {
					items[i].Result = nil
					items[i].Error = fmt.Sprintf("internal error: %v", r)
					logger.Error("Batch item panicked", fmt.Errorf("panic: %v", r), logger.Fields{"index": i})
				}
			}()
			result, err := h.Harmonize(gctx, req)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				items[i].Error = err.Error()
				logger.Warn("Batch item failed", logger.Fields{"index": i, "error": err})
				h.recorder.RecordHarmonization(gctx, metrics.Harmonization{Style: h.Style(req.Style).String()})
				return nil
			}
			items[i].Result = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// VoiceChords runs only the voicing engine over explicit chords. Chords are
// chord symbols, or Roman numerals when a key is given.
func (h *Harmonizer) VoiceChords(ctx context.Context, req models.VoicingRequest) ([]models.ChordVoicing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Chords) == 0 {
		return nil, fmt.Errorf("%w: no chords", ErrInvalidRequest)
	}
	if len(req.Chords) > h.maxChords {
		return nil, fmt.Errorf("%w: %w: %d chords, limit %d", ErrInvalidRequest, ErrTooManyChords, len(req.Chords), h.maxChords)
	}

	specs, err := parseChords(req.Chords, req.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var melody []harmony.MelodyConstraint
	if len(req.Melody) > 0 {
		melody = make([]harmony.MelodyConstraint, len(req.Melody))
		for i, name := range req.Melody {
			if name == "" {
				continue
			}
			p, err := NoteNameToMIDI(name)
			if err != nil {
				return nil, fmt.Errorf("%w: melody %d: %w", ErrInvalidRequest, i, err)
			}
			melody[i] = harmony.Melody(harmony.Pitch(p))
		}
	}

	steps, err := harmony.NewSequencer(h.Style(req.Style)).Sequence(specs, melody)
	if err != nil {
		if errors.Is(err, harmony.ErrAlignmentMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return nil, err
	}
	return chordVoicings(steps, melody, models.DefaultTimeSignature.BeatsPerMeasure()), nil
}

func parseChords(chords []string, key string) ([]harmony.ChordSpec, error) {
	specs := make([]harmony.ChordSpec, len(chords))
	if key != "" {
		k, err := analysis.ParseKey(key)
		if err != nil {
			return nil, err
		}
		for i, numeral := range chords {
			if specs[i], err = progression.ParseRoman(numeral, k); err != nil {
				return nil, fmt.Errorf("chord %d: %w", i, err)
			}
		}
		return specs, nil
	}
	for i, symbol := range chords {
		spec, err := progression.ParseChordSymbol(symbol)
		if err != nil {
			return nil, fmt.Errorf("chord %d: %w", i, err)
		}
		specs[i] = spec
	}
	return specs, nil
}

// chordVoicings lays steps out one per measure
func chordVoicings(steps []harmony.Step, melody []harmony.MelodyConstraint, bpm float64) []models.ChordVoicing {
	out := make([]models.ChordVoicing, len(steps))
	for i, st := range steps {
		cv := models.ChordVoicing{
			Measure:       i,
			Symbol:        progression.ChordSymbol(st.Chord),
			Chord:         st.Chord,
			Classes:       st.Classes.Classes(),
			Voicing:       st.Voicing,
			Perturbed:     st.Perturbed,
			Unresolved:    st.Unresolved,
			StartBeats:    float64(i) * bpm,
			DurationBeats: bpm,
		}
		if i < len(melody) && melody[i].Set {
			p := int(melody[i].Pitch)
			cv.Melody = &p
		}
		if st.Err != nil {
			cv.Error = st.Err.Error()
		}
		out[i] = cv
	}
	return out
}
