package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"flowforge/internal/domain"
)

const (
	exactPrefix   = "analysis:exact:"
	patternPrefix = "analysis:pattern:"
	parsePrefix   = "parse:"

	wordBucket = 100
	charBucket = 500
)

// Fingerprint returns the first 16 hex chars of the SHA-256 of text after
// lower-casing and collapsing all whitespace runs to one space.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// ExactKey is the key of the content-addressed analysis entry.
func ExactKey(fingerprint string) string {
	return exactPrefix + fingerprint
}

// ParseKey is the key of the input-type scoped parse entry.
func ParseKey(inputType domain.InputType, fingerprint string) string {
	return parsePrefix + string(inputType) + ":" + fingerprint
}

// PatternKey buckets text by word count (per 100) and character count (per 500).
// Documents of similar length share a key, so a hit is only an approximation.
func PatternKey(text string) string {
	words := len(strings.Fields(text))
	chars := utf8.RuneCountInString(text)
	return fmt.Sprintf("%s%dw:%dc", patternPrefix, (words/wordBucket)*wordBucket, (chars/charBucket)*charBucket)
}
