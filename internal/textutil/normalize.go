package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizer composes NFC normalization with removal of control characters
// other than newline and tab. Carriage returns are handled separately so
// CRLF input collapses to plain LF before the transform runs.
var normalizer = transform.Chain(
	norm.NFC,
	runes.Remove(runes.Predicate(func(r rune) bool {
		if r == '\n' || r == '\t' {
			return false
		}
		return unicode.IsControl(r)
	})),
)

// NormalizeText converts raw uploaded text into the canonical form the
// extractor operates on: NFC-normalized UTF-8, LF line endings, no control
// characters, invalid byte sequences dropped.
func NormalizeText(raw string) string {
	unified := strings.ReplaceAll(raw, "\r\n", "\n")
	unified = strings.ReplaceAll(unified, "\r", "\n")
	cleaned, _, err := transform.String(normalizer, unified)
	if err != nil {
		// transform.String only fails on short destination buffers for
		// this chain; fall back to the unified input.
		return unified
	}
	return strings.ToValidUTF8(cleaned, "")
}

// CountWords returns the number of whitespace-delimited words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// EstimatePages estimates a screenplay page count from word count using the
// provided density. Anything non-empty rounds up to at least one page.
func EstimatePages(text string, wordsPerPage int) int {
	if wordsPerPage <= 0 {
		wordsPerPage = 250
	}
	words := CountWords(text)
	if words == 0 {
		return 0
	}
	pages := (words + wordsPerPage - 1) / wordsPerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}
