// Package preview renders note events to a short WAV file for auditioning.
package preview

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mjibson/go-dsp/window"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

const (
	DefaultSampleRate = 22050
	defaultTempo      = 120.0

	bitDepth   = 16
	tailSecs   = 0.25
	rampSecs   = 0.01
	maxSeconds = 600
	headroom   = 0.9
	voiceGain  = 0.2
)

var (
	// ErrNothingToRender means no event has a positive duration
	ErrNothingToRender = errors.New("no notes to render")
	// ErrTooLong means the rendering would exceed the preview length limit
	ErrTooLong = fmt.Errorf("preview longer than %d seconds", maxSeconds)
)

// Render mixes events as sine voices into a mono 16-bit WAV written to ws.
// Each voice gets a Hann-shaped attack and release so note edges do not click.
func Render(ws io.WriteSeeker, events []models.NoteEvent, tempo float64, sampleRate int) error {
	if tempo <= 0 {
		tempo = defaultTempo
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	secsPerBeat := 60 / tempo

	end := 0.0
	for _, e := range events {
		if e.DurationBeats > 0 {
			end = math.Max(end, e.StartBeats+e.DurationBeats)
		}
	}
	if end == 0 {
		return ErrNothingToRender
	}
	total := end*secsPerBeat + tailSecs
	if total > maxSeconds {
		return ErrTooLong
	}

	mix := make([]float64, int(math.Ceil(total*float64(sampleRate))))
	for _, e := range events {
		if e.DurationBeats <= 0 || e.MidiNoteNumber < 0 || e.MidiNoteNumber > 127 {
			continue
		}
		start := int(math.Max(e.StartBeats, 0) * secsPerBeat * float64(sampleRate))
		n := int(e.DurationBeats * secsPerBeat * float64(sampleRate))
		addVoice(mix, start, n, frequency(e.MidiNoteNumber), gain(e.Velocity), sampleRate)
	}

	return encode(ws, mix, sampleRate)
}

func addVoice(mix []float64, start, n int, freq, amp float64, sampleRate int) {
	n = min(n, len(mix)-start)
	if n <= 0 {
		return
	}
	env := envelope(n, sampleRate)
	step := 2 * math.Pi * freq / float64(sampleRate)
	for i := range n {
		mix[start+i] += amp * env[i] * math.Sin(step*float64(i))
	}
}

// envelope is flat at 1 with the rising and falling halves of a Hann window at the ends
func envelope(n, sampleRate int) []float64 {
	ramp := max(min(int(rampSecs*float64(sampleRate)), n/2), 1)
	hann := window.Hann(2 * ramp)

	env := make([]float64, n)
	for i := range env {
		switch {
		case i < ramp:
			env[i] = hann[i]
		case i >= n-ramp:
			env[i] = hann[2*ramp-(n-i)]
		default:
			env[i] = 1
		}
	}
	return env
}

func encode(ws io.WriteSeeker, mix []float64, sampleRate int) error {
	peak := 0.0
	for _, s := range mix {
		peak = math.Max(peak, math.Abs(s))
	}
	scale := 1.0
	if peak > headroom {
		scale = headroom / peak
	}

	const full = 1<<(bitDepth-1) - 1
	data := make([]int, len(mix))
	for i, s := range mix {
		data[i] = int(math.Round(s * scale * full))
	}

	enc := wav.NewEncoder(ws, sampleRate, bitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish wav: %w", err)
	}
	return nil
}

func frequency(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

func gain(velocity int) float64 {
	if velocity <= 0 {
		velocity = 100
	}
	return voiceGain * float64(min(velocity, 127)) / 127
}

// Bytes renders events and returns the complete WAV file
func Bytes(events []models.NoteEvent, tempo float64, sampleRate int) ([]byte, error) {
	var b seekBuffer
	if err := Render(&b, events, tempo, sampleRate); err != nil {
		return nil, err
	}
	return b.buf, nil
}

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, errors.New("negative seek position")
	}
	b.pos = int(pos)
	return pos, nil
}
