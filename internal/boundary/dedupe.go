package boundary

import (
	"strings"
	"unicode"

	"flowforge/internal/domain"
)

const overlapThreshold = 0.8

// SuppressDuplicates removes near-duplicate candidates, preserving input order
// of the survivors. Of two duplicates the longer title wins regardless of
// which comes first; of two equally long ones the earlier survives.
//
// Two candidates are duplicates when one normalized title is contained, on
// word boundaries, in the other, or when they share at least 80% of their
// words and neither carries a distinguishing suffix such as "Security" or
// "Group".
func SuppressDuplicates(candidates []domain.ProcessCandidate) []domain.ProcessCandidate {
	norms := make([]string, len(candidates))
	sets := make([]map[string]struct{}, len(candidates))
	for i, c := range candidates {
		norms[i] = normalizeTitle(c.Title)
		sets[i] = tokenSet(c.Title)
	}

	dropped := make([]bool, len(candidates))
	for i := range candidates {
		for j := 0; j < i && !dropped[i]; j++ {
			if dropped[j] || !duplicates(candidates[j].Title, candidates[i].Title, norms[j], norms[i], sets[j], sets[i]) {
				continue
			}
			if len(norms[i]) > len(norms[j]) {
				dropped[j] = true
			} else {
				dropped[i] = true
			}
		}
	}

	out := make([]domain.ProcessCandidate, 0, len(candidates))
	for i, c := range candidates {
		if !dropped[i] {
			out = append(out, c)
		}
	}
	return out
}

func duplicates(titleA, titleB, normA, normB string, setA, setB map[string]struct{}) bool {
	if containsWords(normA, normB) || containsWords(normB, normA) {
		return true
	}
	if hasVariantKeyword(titleA) || hasVariantKeyword(titleB) {
		return false
	}
	return tokenOverlap(setA, setB) >= overlapThreshold
}

// containsWords reports whether needle appears in haystack on word boundaries.
func containsWords(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range b {
		if _, ok := a[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(a), len(b)))
}

func tokenSet(title string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range words(title) {
		set[w] = struct{}{}
	}
	return set
}

func normalizeTitle(title string) string {
	return strings.Join(words(title), " ")
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
