package metrics

import (
	"context"
	"time"
)

// Harmonization is the measurement taken for one harmonized melody
type Harmonization struct {
	Style      string
	Chords     int
	Unresolved int
	Duration   time.Duration
	Success    bool
}

// Recorder receives harmonization measurements
type Recorder interface {
	RecordHarmonization(ctx context.Context, h Harmonization)
}

// Recorders fans a measurement out to every recorder in the list
type Recorders []Recorder

// RecordHarmonization implements Recorder
func (rs Recorders) RecordHarmonization(ctx context.Context, h Harmonization) {
	for _, r := range rs {
		if r != nil {
			r.RecordHarmonization(ctx, h)
		}
	}
}

// Nop discards all measurements
type Nop struct{}

// RecordHarmonization implements Recorder
func (Nop) RecordHarmonization(context.Context, Harmonization) {}
