package harmony

// extensionOffset returns the semitones above the root for ext on a chord of quality q
func extensionOffset(ext Extension, q ChordQuality) (int, bool) {
	switch ext {
	case Ext7:
		if q == QualityDominant {
			return 10, true
		}
		return 11, true
	case Ext9:
		if q == QualityDominant {
			return 14, true
		}
		return 13, true
	case Ext11:
		return 17, true
	case Ext13:
		return 21, true
	}
	return 0, false
}

// Resolve returns the pitch classes of spec with the style's extensions and the
// spec's own extensions added. An extension landing on a base tone is skipped.
// Unknown qualities or styles contribute no extensions.
func Resolve(spec ChordSpec, style Style) PitchClassSet {
	base := spec.Base()
	if base == 0 {
		return base
	}
	out := base
	exts := append(style.extensions(spec.Quality), spec.Extensions...)
	for _, ext := range exts {
		offset, ok := extensionOffset(ext, spec.Quality)
		if !ok {
			continue
		}
		pc := spec.Root.Transpose(offset)
		if base.Has(pc) {
			continue
		}
		out = out.Add(pc)
	}
	return out
}
