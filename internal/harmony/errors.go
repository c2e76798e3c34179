package harmony

import "errors"

var (
	// ErrUnknownStyle is returned by ParseStyle; LookupStyle falls back to DefaultStyle instead
	ErrUnknownStyle = errors.New("unknown style")
	// ErrEmptyChord means a ChordSpec resolved to no pitch classes
	ErrEmptyChord = errors.New("chord resolves to no pitch classes")
	// ErrUnreachableSpacing means MinSpacing > MaxSpacing
	ErrUnreachableSpacing = errors.New("unreachable spacing: min spacing exceeds max spacing")
	// ErrInvalidSpacing means MinSpacing is below one semitone
	ErrInvalidSpacing = errors.New("min spacing must be at least one semitone")
	// ErrInvalidRange means a range has low > high
	ErrInvalidRange = errors.New("invalid pitch range")
	// ErrAlignmentMismatch means melody pitches and chords differ in length
	ErrAlignmentMismatch = errors.New("melody pitches do not align with chords")
)
