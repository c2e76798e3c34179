package harmony

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/logger"
)

// Style is a harmonization style. Every table keyed by style is an exhaustive switch.
type Style int

const (
	StylePop Style = iota
	StyleJazz
	StyleRock
	StyleClassical
	StyleBlues
	StyleCountry
	StyleLatin
	StyleHipHop
)

// DefaultStyle is used when a requested style is unknown
const DefaultStyle = StylePop

// Styles lists every style in declaration order
var Styles = []Style{StylePop, StyleJazz, StyleRock, StyleClassical, StyleBlues, StyleCountry, StyleLatin, StyleHipHop}

func (s Style) String() string {
	switch s {
	case StylePop:
		return "pop"
	case StyleJazz:
		return "jazz"
	case StyleRock:
		return "rock"
	case StyleClassical:
		return "classical"
	case StyleBlues:
		return "blues"
	case StyleCountry:
		return "country"
	case StyleLatin:
		return "latin"
	case StyleHipHop:
		return "hiphop"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// MarshalText encodes the style by name
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a style name, rejecting unknown ones
func (s *Style) UnmarshalText(text []byte) error {
	parsed, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStyle maps a style name to its Style
func ParseStyle(name string) (Style, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "")
	for _, s := range Styles {
		if s.String() == key {
			return s, nil
		}
	}
	return DefaultStyle, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// LookupStyle is ParseStyle with graceful fallback to DefaultStyle
func LookupStyle(name string) Style {
	s, err := ParseStyle(name)
	if err != nil {
		logger.Warn("Unknown style, falling back to default", logger.Fields{
			"style":    name,
			"fallback": DefaultStyle.String(),
		})
	}
	return s
}

// Range is an inclusive pitch range
type Range struct {
	Low  Pitch `json:"low"`
	High Pitch `json:"high"`
}

// Contains reports whether p lies in r
func (r Range) Contains(p Pitch) bool {
	return p >= r.Low && p <= r.High
}

// VoicingConfig holds the per-style voicing constraints
type VoicingConfig struct {
	PreferredRange     Range `json:"preferred_range"`
	PreferredBassRange Range `json:"preferred_bass_range"`
	// MinSpacing and MaxSpacing bound the semitones between adjacent voices
	MinSpacing           int  `json:"min_spacing"`
	MaxSpacing           int  `json:"max_spacing"`
	VoiceCrossingAllowed bool `json:"voice_crossing_allowed"`
	// ParallelMotionThreshold is the fraction of parallel adjacent pairs tolerated; 0 disallows all
	ParallelMotionThreshold float64 `json:"parallel_motion_threshold"`
}

// Validate checks the config before any chord is processed
func (c VoicingConfig) Validate() error {
	if c.MinSpacing > c.MaxSpacing {
		return fmt.Errorf("%w (min=%d, max=%d)", ErrUnreachableSpacing, c.MinSpacing, c.MaxSpacing)
	}
	if c.MinSpacing < 1 {
		return fmt.Errorf("%w (min=%d)", ErrInvalidSpacing, c.MinSpacing)
	}
	if c.PreferredRange.Low > c.PreferredRange.High {
		return fmt.Errorf("%w: preferred range %d-%d", ErrInvalidRange, c.PreferredRange.Low, c.PreferredRange.High)
	}
	if c.PreferredBassRange.Low > c.PreferredBassRange.High {
		return fmt.Errorf("%w: bass range %d-%d", ErrInvalidRange, c.PreferredBassRange.Low, c.PreferredBassRange.High)
	}
	if c.ParallelMotionThreshold < 0 || c.ParallelMotionThreshold > 1 {
		return fmt.Errorf("parallel motion threshold %.2f outside [0, 1]", c.ParallelMotionThreshold)
	}
	return nil
}

// slackRange is the preferred range widened by an octave each way
func (c VoicingConfig) slackRange() Range {
	return Range{
		Low:  c.PreferredRange.Low - semitonesPerOctave,
		High: c.PreferredRange.High + semitonesPerOctave,
	}
}

// spaced reports whether an interval between adjacent voices lies within [MinSpacing, MaxSpacing]
func (c VoicingConfig) spaced(interval Pitch) bool {
	return int(interval) >= max(c.MinSpacing, 1) && int(interval) <= c.MaxSpacing
}

var (
	defaultRange     = Range{Low: 48, High: 72} // C3-C5
	defaultBassRange = Range{Low: 36, High: 48} // C2-C3
)

// Config returns the voicing configuration for s
func (s Style) Config() VoicingConfig {
	cfg := VoicingConfig{
		PreferredRange:     defaultRange,
		PreferredBassRange: defaultBassRange,
		MinSpacing:         3,
		MaxSpacing:         12,
	}
	switch s {
	case StylePop:
	case StyleJazz:
		cfg.MinSpacing = 2
		cfg.MaxSpacing = 10
		cfg.VoiceCrossingAllowed = true
	case StyleRock, StyleBlues, StyleCountry, StyleLatin, StyleHipHop:
		cfg.VoiceCrossingAllowed = true
	case StyleClassical:
		cfg.MinSpacing = 2
		cfg.MaxSpacing = 16
	default:
		return DefaultStyle.Config()
	}
	return cfg
}

// extensions returns the extensions a style adds to chords of quality q
func (s Style) extensions(q ChordQuality) []Extension {
	switch s {
	case StylePop:
		if q == QualityDominant {
			return []Extension{Ext7}
		}
	case StyleJazz:
		switch q {
		case QualityMajor:
			return []Extension{Ext11}
		case QualityDominant:
			return []Extension{Ext7, Ext11}
		case QualityMinor, QualityOther:
		}
	case StyleBlues:
		switch q {
		case QualityMajor, QualityMinor:
			return []Extension{Ext7}
		case QualityDominant:
			return []Extension{Ext7, Ext9}
		case QualityOther:
		}
	case StyleClassical, StyleRock, StyleCountry, StyleLatin, StyleHipHop:
	}
	return nil
}
