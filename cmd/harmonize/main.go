// Command harmonize reads a melody from a MIDI file and writes it back with
// chords, optionally rendering a WAV preview.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/config"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/midi"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/preview"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/services"
)

var errUsage = errors.New("usage")

type options struct {
	in         string
	out        string
	wav        string
	style      string
	complexity string
	rhythm     string
	bass       bool
	asJSON     bool
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			log.Printf("❌ %v", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("harmonize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "Input MIDI file holding the melody (required)")
	fs.StringVar(&opts.out, "out", "", "Output MIDI file (default: <in>.harmonized.mid)")
	fs.StringVar(&opts.wav, "wav", "", "Also render a WAV preview to this path")
	fs.StringVar(&opts.style, "style", cfg.DefaultStyle, "Style: "+styleNames())
	fs.StringVar(&opts.complexity, "complexity", "medium", "Complexity: simple, medium, complex")
	fs.StringVar(&opts.rhythm, "rhythm", "", "Comping rhythm template (default: per style)")
	fs.BoolVar(&opts.bass, "bass", false, "Add a bass track doubling the chord roots")
	fs.BoolVar(&opts.asJSON, "json", false, "Print the full result as JSON instead of a summary")

	if err := fs.Parse(args); err != nil {
		return opts, errUsage
	}
	if opts.in == "" {
		fmt.Fprintln(stderr, "harmonize: -in is required")
		fs.Usage()
		return opts, errUsage
	}
	if opts.out == "" {
		opts.out = strings.TrimSuffix(opts.in, ".mid") + ".harmonized.mid"
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg := config.Load()
	opts, err := parseFlags(args, cfg, os.Stderr)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.in)
	if err != nil {
		return fmt.Errorf("failed to open melody: %w", err)
	}
	melody, err := midi.ReadMelody(f)
	f.Close()
	if err != nil {
		return err
	}

	h := services.NewHarmonizer(
		services.WithDefaultStyle(harmony.LookupStyle(cfg.DefaultStyle)),
		services.WithMaxChords(cfg.MaxChords),
	)
	result, err := h.Harmonize(ctx, models.HarmonizeRequest{
		Melody:        melody.Notes,
		Style:         opts.style,
		Complexity:    opts.complexity,
		Rhythm:        opts.rhythm,
		Tempo:         melody.Tempo,
		TimeSignature: &melody.TimeSignature,
		DoubleBass:    opts.bass,
	})
	if err != nil {
		return err
	}

	if err := writeFile(opts.out, func(w *os.File) error {
		return midi.Write(w, midi.SongFromResult(result))
	}); err != nil {
		return err
	}

	if opts.wav != "" {
		events := append(append(append([]models.NoteEvent{}, result.Melody...), result.Harmony...), result.Bass...)
		if err := writeFile(opts.wav, func(w *os.File) error {
			return preview.Render(w, events, result.Tempo, cfg.PreviewSampleRate)
		}); err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printSummary(stdout, result, opts)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, result *models.HarmonizeResult, opts options) {
	symbols := make([]string, len(result.Chords))
	for i, c := range result.Chords {
		symbols[i] = c.ChordSymbol
	}
	fmt.Fprintf(w, "🎵 Key: %s  Style: %s  Complexity: %s\n", result.Analysis.Key, result.Style, result.Complexity)
	fmt.Fprintf(w, "🎹 Chords: %s\n", strings.Join(symbols, " | "))
	if n := result.UnresolvedCount(); n > 0 {
		fmt.Fprintf(w, "⚠️  %d parallel motions could not be avoided\n", n)
	}
	fmt.Fprintf(w, "✅ Wrote %s\n", opts.out)
	if opts.wav != "" {
		fmt.Fprintf(w, "✅ Wrote %s\n", opts.wav)
	}
}

func styleNames() string {
	names := make([]string, len(harmony.Styles))
	for i, s := range harmony.Styles {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
