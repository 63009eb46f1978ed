package textutil

import (
	"strings"
	"testing"
)

func TestNormalizeTextUnifiesLineEndings(t *testing.T) {
	got := NormalizeText("INT. KITCHEN - DAY\r\nJane enters.\rShe sits.")
	want := "INT. KITCHEN - DAY\nJane enters.\nShe sits."
	if got != want {
		t.Fatalf("NormalizeText = %q, want %q", got, want)
	}
}

func TestNormalizeTextStripsControlCharacters(t *testing.T) {
	got := NormalizeText("INT. LAB - NIGHT\x00\x07\nAction\tline.")
	if strings.ContainsAny(got, "\x00\x07") {
		t.Fatalf("control characters survived: %q", got)
	}
	if !strings.Contains(got, "Action\tline.") {
		t.Fatalf("tab should be preserved: %q", got)
	}
}

func TestNormalizeTextComposesToNFC(t *testing.T) {
	// "E" followed by a combining acute accent composes to a single rune.
	got := NormalizeText("CAFE\u0301")
	if got != "CAF\u00c9" {
		t.Fatalf("expected NFC composition, got %q", got)
	}
}

func TestEstimatePages(t *testing.T) {
	cases := []struct {
		name         string
		words        int
		wordsPerPage int
		want         int
	}{
		{"empty", 0, 250, 0},
		{"single word", 1, 250, 1},
		{"exactly one page", 250, 250, 1},
		{"just over one page", 251, 250, 2},
		{"default density", 500, 0, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := strings.TrimSpace(strings.Repeat("word ", tc.words))
			if got := EstimatePages(text, tc.wordsPerPage); got != tc.want {
				t.Fatalf("EstimatePages(%d words, %d/page) = %d, want %d", tc.words, tc.wordsPerPage, got, tc.want)
			}
		})
	}
}
