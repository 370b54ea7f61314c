// Package segment cuts a document into the text spans that belong to
// individual process titles.
//
// All offsets and lengths are in bytes. Every cut is moved back to the nearest
// rune boundary so multi-byte characters are never split.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultSpanMaxChars is the fallback span size when a title cannot be located.
	DefaultSpanMaxChars = 5000

	// TruncationMarker is appended when SmartTruncate drops a trailing process.
	TruncationMarker = "\n\n[Document truncated. Multiple processes may follow.]"

	spanBuffer = 100
	tailRatio  = 0.7
)

// Locate finds the first occurrence of title in text. It tries an exact match,
// then a case-insensitive match, then a match that tolerates any run of
// whitespace between words (titles wrapped over two lines). It returns the
// byte offset and length of the match, or -1 and 0.
func Locate(text, title string) (int, int) {
	if title == "" {
		return -1, 0
	}
	if i := strings.Index(text, title); i >= 0 {
		return i, len(title)
	}
	if loc := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(title)).FindStringIndex(text); loc != nil {
		return loc[0], loc[1] - loc[0]
	}
	fields := strings.Fields(title)
	if len(fields) < 2 {
		return -1, 0
	}
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	if loc := regexp.MustCompile(`(?i)` + strings.Join(fields, `\s+`)).FindStringIndex(text); loc != nil {
		return loc[0], loc[1] - loc[0]
	}
	return -1, 0
}

// ExtractSpan returns the part of text that belongs to title: from 100 bytes
// before the title up to the nearest following occurrence of any other title
// (or the end of text), plus a 100 byte trailing buffer. When title cannot be
// found the first DefaultSpanMaxChars bytes are returned instead.
func ExtractSpan(text, title string, allTitles []string) string {
	start, n := Locate(text, title)
	if start < 0 {
		return Prefix(text, DefaultSpanMaxChars)
	}

	from := start + n
	end := len(text)
	for _, other := range allTitles {
		if other == title {
			continue
		}
		if pos, _ := Locate(text[from:], other); pos >= 0 && from+pos < end {
			end = from + pos
		}
	}

	lo := snapBack(text, max(0, start-spanBuffer))
	hi := snapBack(text, min(len(text), end+spanBuffer))
	return text[lo:hi]
}

// SmartTruncate shortens text to at most maxLength bytes while trying not to
// cut a process mid-body. If one of titles starts in the final 30% of the
// window, the cut moves to the start of the latest such title and
// TruncationMarker is appended. Otherwise text is cut at maxLength verbatim.
func SmartTruncate(text string, maxLength int, titles []string) string {
	if len(text) <= maxLength {
		return text
	}
	window := text[:snapBack(text, maxLength)]
	threshold := int(float64(maxLength) * tailRatio)

	cut := -1
	for _, t := range titles {
		if t == "" {
			continue
		}
		if pos := strings.LastIndex(window, t); pos > threshold && pos > cut {
			cut = pos
		}
	}
	if cut < 0 {
		return window
	}
	return text[:cut] + TruncationMarker
}

// Prefix returns at most n bytes of s, never splitting a rune.
func Prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:snapBack(s, n)]
}

func snapBack(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
