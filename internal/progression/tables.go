package progression

import (
	"github.com/Conceptual-Machines/magda-harmonizer/internal/analysis"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/harmony"
)

// Progressions returns the Roman-numeral progressions for a style and mode,
// most idiomatic first. Unknown styles get the pop table.
func Progressions(style harmony.Style, mode analysis.Mode) [][]string {
	minor := mode == analysis.ModeMinor
	switch style {
	case harmony.StylePop:
		if minor {
			return [][]string{
				{"i", "iv", "V", "i"},
				{"i", "VI", "III", "V"},
				{"i", "iv", "v", "i"},
			}
		}
		return [][]string{
			{"I", "IV", "V", "I"},
			{"I", "vi", "IV", "V"},
			{"I", "V", "vi", "IV"},
		}
	case harmony.StyleJazz:
		if minor {
			return [][]string{
				{"iiø7", "V7", "i", "i"},
				{"i", "iv7", "iiø7", "V7"},
			}
		}
		return [][]string{
			{"ii7", "V7", "Imaj7", "Imaj7"},
			{"Imaj7", "vi7", "ii7", "V7"},
			{"iii7", "vi7", "ii7", "V7"},
		}
	case harmony.StyleRock:
		if minor {
			return [][]string{
				{"i", "VII", "VI", "VII"},
				{"i", "iv", "VII", "i"},
			}
		}
		return [][]string{
			{"I", "bVII", "IV", "I"},
			{"I", "IV", "V", "IV"},
			{"I", "V", "IV", "I"},
		}
	case harmony.StyleClassical:
		if minor {
			return [][]string{
				{"i", "iv", "V", "i"},
				{"i", "VI", "iv", "V"},
			}
		}
		return [][]string{
			{"I", "IV", "V", "I"},
			{"I", "ii", "V", "I"},
			{"I", "vi", "ii", "V"},
		}
	case harmony.StyleBlues:
		if minor {
			return [][]string{
				{"i7", "iv7", "i7", "V7"},
				{"i7", "i7", "iv7", "i7"},
			}
		}
		return [][]string{
			{"I7", "IV7", "I7", "V7"},
			{"I7", "I7", "IV7", "I7"},
		}
	case harmony.StyleCountry:
		if minor {
			return [][]string{
				{"i", "iv", "i", "V"},
				{"i", "VII", "iv", "i"},
			}
		}
		return [][]string{
			{"I", "IV", "I", "V"},
			{"I", "V", "IV", "I"},
		}
	case harmony.StyleLatin:
		if minor {
			return [][]string{
				{"i", "VII", "VI", "V"},
				{"i", "iv", "V", "i"},
			}
		}
		return [][]string{
			{"I", "IV", "V", "IV"},
			{"I", "vi", "ii", "V"},
		}
	case harmony.StyleHipHop:
		if minor {
			return [][]string{
				{"i", "VI", "III", "VII"},
				{"i", "iv", "VI", "V"},
			}
		}
		return [][]string{
			{"vi", "IV", "I", "V"},
			{"I", "vi", "iii", "IV"},
		}
	}
	return Progressions(harmony.DefaultStyle, mode)
}
