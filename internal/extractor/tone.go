package extractor

import "strings"

// toneLexicon maps a tone label to signal words. Entries are scored in slice
// order so ties resolve deterministically.
var toneLexicon = []struct {
	label string
	words []string
}{
	{"tense", []string{
		"gun", "knife", "blood", "scream", "screams", "panic", "terror",
		"afraid", "fear", "danger", "threat", "slams", "shatters", "freezes",
		"trembling", "chase", "explodes", "explosion", "sirens",
	}},
	{"somber", []string{
		"funeral", "grief", "tears", "mourning", "weeps", "coffin", "grave",
		"silence", "alone", "empty", "ashes", "sobs",
	}},
	{"romantic", []string{
		"kiss", "kisses", "love", "embrace", "tender", "caress", "gently",
		"candlelight", "blushes",
	}},
	{"comedic", []string{
		"laughs", "laughing", "joke", "grins", "giggles", "chuckles",
		"pratfall", "snorts", "deadpan",
	}},
	{"hopeful", []string{
		"smiles", "sunrise", "warm", "relief", "finally", "bright",
		"celebrates", "cheers",
	}},
}

// detectTone scores action and dialogue against the tone lexicon and returns
// the strongest label, or empty when nothing signals a mood.
func detectTone(action, dialogue string) string {
	text := strings.ToLower(action + " " + dialogue)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})
	counts := make(map[string]int, len(words))
	for _, word := range words {
		counts[word]++
	}

	bestLabel := ""
	bestScore := 0
	for _, entry := range toneLexicon {
		score := 0
		for _, signal := range entry.words {
			score += counts[signal]
		}
		if score > bestScore {
			bestScore = score
			bestLabel = entry.label
		}
	}
	return bestLabel
}
