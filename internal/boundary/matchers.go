package boundary

import (
	"regexp"
	"strings"
)

// Matcher recognizes one structural shape of a process title line.
type Matcher struct {
	Name    string
	pattern *regexp.Regexp
}

// NewMatcher compiles a named title matcher. It panics on an invalid pattern.
func NewMatcher(name, pattern string) Matcher {
	return Matcher{Name: name, pattern: regexp.MustCompile(pattern)}
}

// Match reports whether a trimmed line has this matcher's shape.
func (m Matcher) Match(line string) bool {
	return m.pattern.MatchString(line)
}

// DefaultMatchers returns the title shapes in the order they are tried:
//
//	"Standard Requisition Process"   lines ending in the word Process
//	"Job Posting - Security"         title/subtitle pairs joined by a hyphen or en dash
//	"Onboarding Process (All)"       titles with an (All) suffix
//	"Onboarding Admin(All)"          role-scoped Admin/Employee + (All) titles
func DefaultMatchers() []Matcher {
	return []Matcher{
		NewMatcher("process-suffix", `^[A-Z].*\bProcess$`),
		NewMatcher("dash-pair", `^[A-Z].*\S\s+[-–]\s+[A-Z].*\S$`),
		NewMatcher("all-suffix", `^[A-Z].*\S\s+\(All\)$`),
		NewMatcher("role-all-suffix", `^[A-Z].*(?:Admin|Employee)\s*\(All\)$`),
	}
}

var (
	// strongKeywords must appear in a structural match before it becomes a candidate.
	strongKeywords = []string{"process", "requisition", "posting", "onboarding", "offer", "application"}

	// actorStopPhrases are swimlane and role labels that share title shapes in exported process maps.
	actorStopPhrases = []string{
		"hiring manager",
		"line manager",
		"recruiter",
		"recruitment partner",
		"hr business partner",
		"people & culture",
		"payroll officer",
		"approver",
		"swimlane",
		"table of contents",
	}

	pageMarkerRe = regexp.MustCompile(`(?i)(==\s*(start|end) of ocr for page \d+\s*==|\bpage\s+\d+(\s+of\s+\d+)?\b)`)

	// splitBaseKeywords mark the first line of a title that continues on the next line.
	splitBaseKeywords = []string{"manage", "raise requisition", "raise a requisition"}

	// variantKeywords are the short suffixes that distinguish sibling processes.
	variantKeywords = []string{"security", "parking", "group", "casual", "master"}
)

// HasStrongKeyword reports whether title mentions one of the strong process keywords.
func HasStrongKeyword(title string) bool {
	return containsAny(strings.ToLower(title), strongKeywords)
}

func isStopLine(line string) bool {
	if pageMarkerRe.MatchString(line) {
		return true
	}
	return containsAny(strings.ToLower(line), actorStopPhrases)
}

func hasVariantKeyword(title string) bool {
	return containsAny(strings.ToLower(title), variantKeywords)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
