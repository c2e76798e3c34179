package harmony

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		input    string
		expected Style
		wantErr  bool
	}{
		{"pop", StylePop, false},
		{" JAZZ ", StyleJazz, false},
		{"Hip-Hop", StyleHipHop, false},
		{"classical", StyleClassical, false},
		{"polka", DefaultStyle, true},
		{"", DefaultStyle, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseStyle(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStyle)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestLookupStyleFallsBack(t *testing.T) {
	assert.Equal(t, StyleBlues, LookupStyle("blues"))
	assert.Equal(t, DefaultStyle, LookupStyle("polka"))
}

func TestStyleJSON(t *testing.T) {
	var payload struct {
		Style Style `json:"style"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"style":"latin"}`), &payload))
	assert.Equal(t, StyleLatin, payload.Style)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"style":"latin"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"style":"polka"}`), &payload))
}

func TestStyleConfigs(t *testing.T) {
	for _, s := range Styles {
		assert.NoError(t, s.Config().Validate(), "style %s", s)
	}

	jazz := StyleJazz.Config()
	assert.Equal(t, 2, jazz.MinSpacing)
	assert.Equal(t, 10, jazz.MaxSpacing)
	assert.True(t, jazz.VoiceCrossingAllowed)

	classical := StyleClassical.Config()
	assert.Equal(t, 16, classical.MaxSpacing)
	assert.False(t, classical.VoiceCrossingAllowed)

	assert.Equal(t, StylePop.Config(), Style(99).Config())
}

func TestVoicingConfigValidate(t *testing.T) {
	valid := StylePop.Config()

	tests := []struct {
		name   string
		mutate func(*VoicingConfig)
		target error
	}{
		{"min above max", func(c *VoicingConfig) { c.MinSpacing, c.MaxSpacing = 14, 10 }, ErrUnreachableSpacing},
		{"zero min spacing", func(c *VoicingConfig) { c.MinSpacing = 0 }, ErrInvalidSpacing},
		{"inverted preferred range", func(c *VoicingConfig) { c.PreferredRange = Range{72, 48} }, ErrInvalidRange},
		{"inverted bass range", func(c *VoicingConfig) { c.PreferredBassRange = Range{48, 36} }, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.target)
		})
	}

	cfg := valid
	cfg.ParallelMotionThreshold = 1.5
	assert.Error(t, cfg.Validate())
}
