package boundary

import (
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"flowforge/internal/domain"
)

const (
	minTitleLen    = 20
	maxTitleLen    = 150
	bodyLookahead  = 4
	minBodyLen     = 30
	maxSplitBase   = 80
	maxSplitSuffix = 30
)

// Detector finds process titles in raw text without any network call.
// A Detector holds no mutable state and is safe for concurrent use.
type Detector struct {
	matchers []Matcher
}

// NewDetector creates a Detector with the given matchers, or DefaultMatchers when none are passed.
func NewDetector(matchers ...Matcher) *Detector {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Detector{matchers: matchers}
}

var defaultDetector = NewDetector()

// Detect runs the default detector over text.
func Detect(text string) domain.DetectionResult {
	return defaultDetector.Detect(text)
}

type line struct {
	text   string // trimmed
	offset int    // byte offset of text within the document
}

// Detect scans text line by line and returns the surviving process candidates
// in document order. Zero matches is a valid result, not an error.
func (d *Detector) Detect(text string) domain.DetectionResult {
	lines := splitLines(text)

	candidates := d.structuralPass(lines)
	candidates = append(candidates, splitTitlePass(lines, candidates)...)
	candidates = SuppressDuplicates(candidates)

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Start < candidates[j].Start })
	for i := range candidates {
		if i+1 < len(candidates) {
			candidates[i].End = candidates[i+1].Start
		} else {
			candidates[i].End = len(text)
		}
	}

	result := domain.DetectionResult{
		ProcessCount: len(candidates),
		Titles:       candidates,
	}
	if result.ProcessCount >= 2 {
		for _, c := range candidates {
			if HasStrongKeyword(c.Title) {
				result.HighConfidence = true
				break
			}
		}
	}

	log.Printf("boundary.Detector: found %d process titles (high confidence: %v)", result.ProcessCount, result.HighConfidence)
	return result
}

func (d *Detector) structuralPass(lines []line) []domain.ProcessCandidate {
	var out []domain.ProcessCandidate
	for i, ln := range lines {
		title := trimOCREcho(ln.text)
		n := utf8.RuneCountInString(title)
		if n < minTitleLen || n > maxTitleLen {
			continue
		}
		if isStopLine(title) || !d.matchesShape(title) {
			continue
		}
		if !HasStrongKeyword(title) || !hasBodyAfter(lines, i) {
			continue
		}
		out = append(out, domain.ProcessCandidate{
			Title:      title,
			Start:      ln.offset,
			Provenance: domain.ProvenanceHeuristic,
		})
	}
	return out
}

func (d *Detector) matchesShape(title string) bool {
	for _, m := range d.matchers {
		if m.Match(title) {
			return true
		}
	}
	return false
}

// splitTitlePass joins titles that an export wrapped over two lines, such as
// "Manage Applications & Offer" followed by "Security".
func splitTitlePass(lines []line, existing []domain.ProcessCandidate) []domain.ProcessCandidate {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.Title] = true
	}

	var out []domain.ProcessCandidate
	for i := 0; i+1 < len(lines); i++ {
		base, next := lines[i].text, lines[i+1].text
		if base == "" || next == "" {
			continue
		}
		if utf8.RuneCountInString(base) > maxSplitBase || utf8.RuneCountInString(next) >= maxSplitSuffix {
			continue
		}
		if isStopLine(base) || !containsAny(strings.ToLower(base), splitBaseKeywords) || !hasVariantKeyword(next) {
			continue
		}
		combined := base + " " + next
		if utf8.RuneCountInString(combined) < minTitleLen || seen[combined] {
			continue
		}
		seen[combined] = true
		out = append(out, domain.ProcessCandidate{
			Title:      combined,
			Start:      lines[i].offset,
			Provenance: domain.ProvenanceHeuristic,
		})
	}
	return out
}

// hasBodyAfter guards against index and header lines: one of the next few
// lines must carry real body text.
func hasBodyAfter(lines []line, i int) bool {
	for j := i + 1; j < len(lines) && j <= i+bodyLookahead; j++ {
		if utf8.RuneCountInString(lines[j].text) >= minBodyLen && !pageMarkerRe.MatchString(lines[j].text) {
			return true
		}
	}
	return false
}

// trimOCREcho cuts OCR echoes such as "Onboarding (All)Onboarding" back to the
// first occurrence.
func trimOCREcho(title string) string {
	idx := strings.Index(title, "(All)")
	if idx < 0 {
		return title
	}
	end := idx + len("(All)")
	rest := strings.TrimSpace(title[end:])
	if rest != "" && strings.HasPrefix(title, rest) {
		return title[:end]
	}
	return title
}

func splitLines(text string) []line {
	raw := strings.Split(text, "\n")
	out := make([]line, 0, len(raw))
	offset := 0
	for _, r := range raw {
		lead := len(r) - len(strings.TrimLeft(r, " \t\r\f\v"))
		out = append(out, line{
			text:   strings.TrimSpace(r),
			offset: offset + lead,
		})
		offset += len(r) + 1
	}
	return out
}
