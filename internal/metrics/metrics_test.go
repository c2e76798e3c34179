package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRecorder struct {
	mu   sync.Mutex
	seen []Harmonization
}

func (c *captureRecorder) RecordHarmonization(_ context.Context, h Harmonization) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, h)
}

func TestRecordersFanOut(t *testing.T) {
	a, b := &captureRecorder{}, &captureRecorder{}
	rs := Recorders{a, nil, b, Nop{}}

	h := Harmonization{Style: "jazz", Chords: 8, Unresolved: 1, Duration: time.Millisecond, Success: true}
	rs.RecordHarmonization(context.Background(), h)

	assert.Equal(t, []Harmonization{h}, a.seen)
	assert.Equal(t, []Harmonization{h}, b.seen)
}

func TestCloudWatchDisabledOutsideProduction(t *testing.T) {
	c, err := NewClient(context.Background(), "development", "")
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.Equal(t, defaultNamespace, c.namespace)

	// no client configured, so these must be no-ops
	assert.NotPanics(t, func() {
		c.RecordAPIRequest("/health", 200, time.Millisecond)
		c.RecordHarmonization(context.Background(), Harmonization{Style: "pop"})
	})
}

func TestSentryMetricsWithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	assert.NotPanics(t, func() {
		m.RecordAPIRequest(context.Background(), "/api/v1/harmonize", 500, time.Second)
		m.RecordHarmonization(context.Background(), Harmonization{Style: "rock", Chords: 4})
		m.RecordPerformanceMetric("voicing", time.Millisecond, map[string]interface{}{"chords": 4})
	})
}

func TestBoolToString(t *testing.T) {
	assert.Equal(t, "true", boolToString(true))
	assert.Equal(t, "false", boolToString(false))
}
