package palettegen

const (
	DefaultThreshold = 40.0
	DefaultLimit     = 10
)

// Filter walks ranked in order and keeps a color only if it is farther than
// threshold from every color kept so far. A distance equal to threshold
// counts as similar. Scanning stops after limit colors are kept.
//
// The result is a subsequence of ranked, so feeding it back through Filter
// with the same threshold returns it unchanged.
func Filter(ranked []Color, threshold float64, limit int) []Color {
	if limit <= 0 {
		return []Color{}
	}
	kept := make([]Color, 0, min(limit, len(ranked)))
	for _, candidate := range ranked {
		if len(kept) == limit {
			break
		}
		if isDistinct(candidate, kept, threshold) {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// FilterDefault applies Filter with DefaultThreshold and DefaultLimit.
func FilterDefault(ranked []Color) []Color {
	return Filter(ranked, DefaultThreshold, DefaultLimit)
}

func isDistinct(c Color, kept []Color, threshold float64) bool {
	for _, k := range kept {
		if Distance(c, k) <= threshold {
			return false
		}
	}
	return true
}
