// Package midi reads melodies from and writes harmonizations to Standard MIDI Files.
package midi

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

// TicksPerQuarter is the resolution of written files
const TicksPerQuarter = 960

const defaultTempo = 120.0

var (
	// ErrNoNotes means the file has no track with notes
	ErrNoNotes = errors.New("midi file has no notes")
	// ErrUnsupportedTimeFormat means the file uses SMPTE timing
	ErrUnsupportedTimeFormat = errors.New("only metric (ticks per quarter) time format is supported")
)

// Melody is a monophonic line read from a MIDI file
type Melody struct {
	Notes         []models.Note
	Tempo         float64
	TimeSignature models.TimeSignature
	TrackName     string
}

// ReadMelody reads the first track holding notes. Overlapping notes are made
// monophonic by cutting the sounding note when the next one starts; gaps are
// left for the analysis to read as rests.
func ReadMelody(r io.Reader) (*Melody, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read midi: %w", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrUnsupportedTimeFormat
	}
	resolution := float64(ticks.Ticks4th())

	m := &Melody{Tempo: defaultTempo, TimeSignature: models.DefaultTimeSignature}
	tempoSet, meterSet := false, false
	for _, tr := range s.Tracks {
		for _, ev := range tr {
			var bpm float64
			var num, denom uint8
			switch {
			case !tempoSet && ev.Message.GetMetaTempo(&bpm):
				m.Tempo = bpm
				tempoSet = true
			case !meterSet && ev.Message.GetMetaMeter(&num, &denom):
				m.TimeSignature = models.TimeSignature{Numerator: int(num), Denominator: int(denom)}
				meterSet = true
			}
		}
	}

	for _, tr := range s.Tracks {
		notes, name := trackNotes(tr, resolution)
		if len(notes) > 0 {
			m.Notes = notes
			m.TrackName = name
			return m, nil
		}
	}
	return nil, ErrNoNotes
}

func trackNotes(tr smf.Track, resolution float64) ([]models.Note, string) {
	var (
		notes   []models.Note
		name    string
		abs     uint64
		current *models.Note
		key     uint8
	)
	end := func(at uint64) {
		if current == nil {
			return
		}
		current.DurationBeats = float64(at)/resolution - current.StartBeats
		if current.DurationBeats > 0 {
			notes = append(notes, *current)
		}
		current = nil
	}

	for _, ev := range tr {
		abs += uint64(ev.Delta)
		msg := gomidi.Message(ev.Message)

		var ch, k, vel uint8
		var text string
		switch {
		case msg.GetNoteStart(&ch, &k, &vel):
			end(abs)
			current = &models.Note{Pitch: int(k), Velocity: int(vel), StartBeats: float64(abs) / resolution}
			key = k
		case msg.GetNoteEnd(&ch, &k):
			if current != nil && k == key {
				end(abs)
			}
		case name == "" && ev.Message.GetMetaTrackName(&text):
			name = text
		}
	}
	end(abs)
	return notes, name
}

// Track is one named channel of note events
type Track struct {
	Name    string
	Channel uint8
	Notes   []models.NoteEvent
}

// Song is everything written to a file: a tempo and meter track plus note tracks
type Song struct {
	Tempo         float64
	TimeSignature models.TimeSignature
	Tracks        []Track
}

// SongFromResult lays a harmonization out as melody, harmony and bass tracks
func SongFromResult(res *models.HarmonizeResult) Song {
	song := Song{
		Tempo:         res.Tempo,
		TimeSignature: res.TimeSignature,
		Tracks: []Track{
			{Name: "Melody", Channel: 0, Notes: res.Melody},
			{Name: "Harmony (" + res.Style + ")", Channel: 1, Notes: res.Harmony},
		},
	}
	if len(res.Bass) > 0 {
		song.Tracks = append(song.Tracks, Track{Name: "Bass", Channel: 2, Notes: res.Bass})
	}
	return song
}

type timedMessage struct {
	tick uint32
	off  bool
	msg  gomidi.Message
}

// Write encodes song as a format 1 Standard MIDI File
func Write(w io.Writer, song Song) error {
	tempo := song.Tempo
	if tempo <= 0 {
		tempo = defaultTempo
	}
	ts := song.TimeSignature
	if !ts.Valid() {
		ts = models.DefaultTimeSignature
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var meta smf.Track
	meta.Add(0, smf.MetaMeter(uint8(ts.Numerator), uint8(ts.Denominator)))
	meta.Add(0, smf.MetaTempo(tempo))
	meta.Close(0)
	if err := s.Add(meta); err != nil {
		return fmt.Errorf("failed to add tempo track: %w", err)
	}

	for _, t := range song.Tracks {
		tr, err := encodeTrack(t)
		if err != nil {
			return err
		}
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("failed to add track %q: %w", t.Name, err)
		}
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write midi: %w", err)
	}
	return nil
}

func encodeTrack(t Track) (smf.Track, error) {
	msgs := make([]timedMessage, 0, 2*len(t.Notes))
	for _, n := range t.Notes {
		if n.MidiNoteNumber < 0 || n.MidiNoteNumber > 127 {
			return nil, fmt.Errorf("track %q: note %d outside the MIDI range", t.Name, n.MidiNoteNumber)
		}
		if n.DurationBeats <= 0 {
			continue
		}
		key := uint8(n.MidiNoteNumber)
		vel := uint8(min(max(n.Velocity, 1), 127))
		start := toTicks(n.StartBeats)
		msgs = append(msgs,
			timedMessage{tick: start, msg: gomidi.NoteOn(t.Channel, key, vel)},
			timedMessage{tick: max(toTicks(n.StartBeats+n.DurationBeats), start+1), off: true, msg: gomidi.NoteOff(t.Channel, key)},
		)
	}
	// note-offs first at equal ticks so repeated strikes retrigger
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].tick != msgs[j].tick {
			return msgs[i].tick < msgs[j].tick
		}
		return msgs[i].off && !msgs[j].off
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(t.Name))
	var last uint32
	for _, m := range msgs {
		tr.Add(m.tick-last, m.msg)
		last = m.tick
	}
	tr.Close(0)
	return tr, nil
}

func toTicks(beats float64) uint32 {
	if beats <= 0 {
		return 0
	}
	return uint32(math.Round(beats * TicksPerQuarter))
}
