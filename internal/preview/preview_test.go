package preview

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

func TestRenderWritesPlayableWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	events := []models.NoteEvent{
		{MidiNoteNumber: 60, Velocity: 80, StartBeats: 0, DurationBeats: 1},
		{MidiNoteNumber: 64, Velocity: 80, StartBeats: 0, DurationBeats: 1},
		{MidiNoteNumber: 67, Velocity: 127, StartBeats: 0.5, DurationBeats: 0.5},
	}
	require.NoError(t, Render(f, events, 120, 8000))
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(8000), d.SampleRate)
	assert.Equal(t, uint16(1), d.NumChans)
	assert.Equal(t, uint16(16), d.BitDepth)
	// one beat at 120 bpm plus the release tail
	assert.Len(t, buf.Data, 6000)

	peak := 0
	for _, s := range buf.Data {
		peak = max(peak, s, -s)
	}
	assert.Positive(t, peak)
	assert.LessOrEqual(t, peak, 32767)
	assert.Zero(t, buf.Data[len(buf.Data)-1], "tail is silent")
}

func TestRenderErrors(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	require.NoError(t, err)
	defer f.Close()

	assert.ErrorIs(t, Render(f, nil, 120, 0), ErrNothingToRender)
	assert.ErrorIs(t, Render(f, []models.NoteEvent{{MidiNoteNumber: 60, DurationBeats: 0}}, 120, 0), ErrNothingToRender)
	assert.ErrorIs(t, Render(f, []models.NoteEvent{{MidiNoteNumber: 60, DurationBeats: 4000}}, 120, 0), ErrTooLong)
}

func TestEnvelope(t *testing.T) {
	env := envelope(1000, 10000)
	require.Len(t, env, 1000)
	assert.InDelta(t, 0.0, env[0], 1e-9)
	assert.InDelta(t, 0.0, env[999], 1e-9)
	assert.Equal(t, 1.0, env[500])
	for i := 1; i < 100; i++ {
		assert.GreaterOrEqual(t, env[i], env[i-1], "attack rises at %d", i)
	}

	// notes shorter than two ramps still start and end at zero
	short := envelope(4, 10000)
	assert.InDelta(t, 0.0, short[0], 1e-9)
	assert.InDelta(t, 0.0, short[3], 1e-9)
}

func TestFrequencyAndGain(t *testing.T) {
	assert.InDelta(t, 440.0, frequency(69), 1e-9)
	assert.InDelta(t, 261.6256, frequency(60), 1e-3)
	assert.InDelta(t, voiceGain, gain(127), 1e-9)
	assert.InDelta(t, voiceGain*100/127, gain(0), 1e-9)
}

func TestBytesMatchesFileRendering(t *testing.T) {
	events := []models.NoteEvent{{MidiNoteNumber: 57, Velocity: 90, StartBeats: 0.5, DurationBeats: 2}}

	data, err := Bytes(events, 90, 8000)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ref.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Render(f, events, 90, 8000))
	require.NoError(t, f.Close())
	want, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, want, data)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
}

func TestSeekBuffer(t *testing.T) {
	var b seekBuffer
	_, _ = b.Write([]byte("abcdef"))
	pos, err := b.Seek(2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)
	_, _ = b.Write([]byte("XY"))
	assert.Equal(t, "abXYef", string(b.buf))

	pos, err = b.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)
	_, _ = b.Write([]byte("g"))
	assert.Equal(t, "abXYefg", string(b.buf))

	_, err = b.Seek(-10, io.SeekCurrent)
	assert.Error(t, err)
}
