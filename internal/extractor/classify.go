package extractor

import (
	"regexp"
	"strings"
)

// classifiedBody holds the structural classification of one scene's lines.
type classifiedBody struct {
	characters  []string
	actionLines []string
	action      string
	dialogue    string
	empty       bool
}

var transitionPattern = regexp.MustCompile(`^(?:FADE (?:IN|OUT|TO BLACK)\b.*|.*\b(?:CUT|DISSOLVE|WIPE) TO:.*|THE END\.?)$`)

// classifyBody walks a scene body and assigns each line a structural role.
// A short all-caps line followed by further text inside the scene is a
// character cue; lines under a cue up to the next blank line are dialogue
// (parentheticals attach to the cue but carry no payload); everything else
// is action. Shape alone never decides: an all-caps line with nothing under
// it is treated as shouted action, not a cue.
func classifyBody(body []string) classifiedBody {
	var out classifiedBody
	var dialogueBlocks []string
	seen := make(map[string]struct{})

	i := 0
	for i < len(body) {
		line := strings.TrimSpace(body[i])
		if line == "" {
			i++
			continue
		}
		if transitionPattern.MatchString(line) {
			i++
			continue
		}

		if name, ok := cueName(line); ok && hasDialogueBelow(body, i+1) {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				out.characters = append(out.characters, name)
			}

			var speech []string
			i++
			for i < len(body) {
				spoken := strings.TrimSpace(body[i])
				if spoken == "" {
					break
				}
				if isParenthetical(spoken) {
					i++
					continue
				}
				if _, nextCue := cueName(spoken); nextCue && hasDialogueBelow(body, i+1) {
					break
				}
				speech = append(speech, spoken)
				i++
			}
			if len(speech) > 0 {
				dialogueBlocks = append(dialogueBlocks, name+": "+strings.Join(speech, " "))
			}
			continue
		}

		out.actionLines = append(out.actionLines, line)
		i++
	}

	out.action = strings.Join(out.actionLines, " ")
	out.dialogue = strings.Join(dialogueBlocks, "\n")
	out.empty = out.action == "" && out.dialogue == "" && len(out.characters) == 0
	return out
}

// cueName reports whether a line has the shape of a character cue and returns
// the bare name with any extension ("(V.O.)", "(CONT'D)") stripped.
func cueName(line string) (string, bool) {
	if len(line) > 40 {
		return "", false
	}
	if transitionPattern.MatchString(line) {
		return "", false
	}
	if isHeading(line) {
		return "", false
	}
	name := strings.TrimSpace(cueExtensionPattern.ReplaceAllString(line, ""))
	if name == "" || strings.HasSuffix(name, ":") {
		return "", false
	}
	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= 'a' && r <= 'z':
			return "", false
		case r >= '0' && r <= '9', r == ' ', r == '.', r == '\'', r == '-':
		default:
			return "", false
		}
	}
	return name, hasLetter
}

// hasDialogueBelow reports whether a candidate cue actually introduces speech:
// the next non-blank line must exist and not itself look like a cue shape.
func hasDialogueBelow(body []string, from int) bool {
	for i := from; i < len(body); i++ {
		line := strings.TrimSpace(body[i])
		if line == "" {
			return false
		}
		if isParenthetical(line) {
			continue
		}
		_, looksLikeCue := cueName(line)
		return !looksLikeCue
	}
	return false
}

func isParenthetical(line string) bool {
	return strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")")
}

// propPattern matches runs of uppercase words embedded in otherwise
// mixed-case action, the screenwriting convention for introducing
// significant objects and sounds.
var propPattern = regexp.MustCompile(`\b[A-Z][A-Z']+(?:\s+[A-Z][A-Z']+)*\b`)

var propStoplist = map[string]struct{}{
	"INT": {}, "EXT": {}, "TO": {}, "THE": {}, "A": {}, "AND": {}, "OF": {},
	"VO": {}, "OS": {}, "ID": {}, "OK": {},
}

// detectProps pulls emphasized uppercase tokens out of mixed-case action
// lines. Fully uppercase lines are skipped (those are shouts or headings),
// as are time markers, camera terms, and names already known as characters.
func detectProps(actionLines []string, characters []string) []string {
	known := make(map[string]struct{}, len(characters))
	for _, name := range characters {
		known[strings.ToUpper(name)] = struct{}{}
	}

	var props []string
	seen := make(map[string]struct{})
	for _, line := range actionLines {
		if strings.ToUpper(line) == line {
			continue
		}
		for _, candidate := range propPattern.FindAllString(line, -1) {
			candidate = strings.TrimSpace(candidate)
			if len(candidate) < 2 {
				continue
			}
			if _, stop := propStoplist[candidate]; stop {
				continue
			}
			if _, marker := timeMarkers[candidate]; marker {
				continue
			}
			if _, isCharacter := known[candidate]; isCharacter {
				continue
			}
			if isCameraTerm(candidate) {
				continue
			}
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			props = append(props, candidate)
		}
	}
	return props
}

func isCameraTerm(candidate string) bool {
	for _, term := range cameraTerms {
		if candidate == term {
			return true
		}
	}
	return false
}

// detectCameraMovement scans action lines for explicit directing terms and
// returns them comma-joined in first-appearance order.
func detectCameraMovement(actionLines []string) string {
	var found []string
	seen := make(map[string]struct{})
	for _, line := range actionLines {
		upper := strings.ToUpper(line)
		for _, term := range cameraTerms {
			if !strings.Contains(upper, term) {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			found = append(found, term)
		}
	}
	return strings.Join(found, ", ")
}
