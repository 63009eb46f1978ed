package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoScenes indicates the document contains no recognizable scene heading.
// This is a hard failure rather than an empty-result success: a document
// without a single slugline is not a screenplay the pipeline can work with.
var ErrNoScenes = errors.New("no recognizable scene heading found")

// Scene is one extracted scene with every detectable field populated.
// JSON tags use omitempty so projected records stay compact.
type Scene struct {
	SceneNumber    int      `json:"sceneNumber,omitempty"`
	SceneHeading   string   `json:"sceneHeading,omitempty"`
	Location       string   `json:"location,omitempty"`
	Time           string   `json:"time,omitempty"`
	Characters     []string `json:"characters,omitempty"`
	Props          []string `json:"props,omitempty"`
	Tone           string   `json:"tone,omitempty"`
	CameraMovement string   `json:"cameraMovement,omitempty"`
	Action         string   `json:"action,omitempty"`
	Dialogue       string   `json:"dialogue,omitempty"`
}

// Options tunes a single extraction run.
type Options struct {
	// MaxScenes caps the number of returned scenes when positive. The capped
	// result is always a strict prefix of the uncapped result for the same
	// input: scene boundaries are resolved over the whole document first.
	MaxScenes int
}

// headingPattern matches slugline scene headings, optionally prefixed with a
// source scene number ("12  INT. LAB - NIGHT"). Compound prefixes are listed
// before their single-form counterparts so the longest form wins.
var headingPattern = regexp.MustCompile(`^\s*(?:\d+[A-Z]?[.)]?\s+)?(INT\./EXT\.|EXT\./INT\.|INT/EXT\.?|EXT/INT\.?|I/E\.?|E/I\.?|INT\.?|EXT\.?)[\s.]+(\S.*)$`)

var timeMarkers = map[string]struct{}{
	"DAY": {}, "NIGHT": {}, "MORNING": {}, "EVENING": {}, "AFTERNOON": {},
	"DAWN": {}, "DUSK": {}, "SUNRISE": {}, "SUNSET": {}, "CONTINUOUS": {},
	"LATER": {}, "MOMENTS": {}, "SAME": {},
}

// cameraTerms are scanned in order so output is deterministic. Multi-word
// terms precede their single-word prefixes.
var cameraTerms = []string{
	"SMASH CUT", "MATCH CUT", "CLOSE ON", "CLOSE-UP", "CLOSE UP", "WIDE SHOT",
	"TRACKING", "STEADICAM", "HANDHELD", "AERIAL", "CRANE", "DOLLY", "ZOOM",
	"PAN", "TILT", "POV",
}

var cueExtensionPattern = regexp.MustCompile(`\s*\((?:V\.O\.|O\.S\.|O\.C\.|CONT'D|CONT\.|VOICE OVER|OFF SCREEN)\)\s*$`)

// Extract parses screenplay text into ordered scenes. Scene numbers are
// assigned sequentially from 1 in document order; numbering embedded in the
// source survives inside SceneHeading but never reorders output. Returns
// ErrNoScenes when the text has no slugline at all.
func Extract(text string, opts Options) ([]Scene, []string, error) {
	lines := strings.Split(text, "\n")

	var headingIdx []int
	for i, line := range lines {
		if isHeading(line) {
			headingIdx = append(headingIdx, i)
		}
	}
	if len(headingIdx) == 0 {
		return nil, nil, ErrNoScenes
	}

	count := len(headingIdx)
	if opts.MaxScenes > 0 && count > opts.MaxScenes {
		count = opts.MaxScenes
	}

	scenes := make([]Scene, 0, count)
	var warnings []string
	for n := 0; n < count; n++ {
		start := headingIdx[n]
		end := len(lines)
		if n+1 < len(headingIdx) {
			end = headingIdx[n+1]
		}

		scene, sceneWarnings := buildScene(n+1, lines[start], lines[start+1:end])
		scenes = append(scenes, scene)
		warnings = append(warnings, sceneWarnings...)
	}

	return scenes, warnings, nil
}

// Project returns a copy of scene with only the selected columns populated.
// An empty selection yields an empty record; validation of the selection is
// the caller's concern.
func Project(scene Scene, columns ColumnSet) Scene {
	var out Scene
	if columns.Has(ColumnSceneNumber) {
		out.SceneNumber = scene.SceneNumber
	}
	if columns.Has(ColumnSceneHeading) {
		out.SceneHeading = scene.SceneHeading
	}
	if columns.Has(ColumnLocation) {
		out.Location = scene.Location
	}
	if columns.Has(ColumnTime) {
		out.Time = scene.Time
	}
	if columns.Has(ColumnCharacters) {
		out.Characters = append([]string(nil), scene.Characters...)
	}
	if columns.Has(ColumnProps) {
		out.Props = append([]string(nil), scene.Props...)
	}
	if columns.Has(ColumnTone) {
		out.Tone = scene.Tone
	}
	if columns.Has(ColumnCameraMovement) {
		out.CameraMovement = scene.CameraMovement
	}
	if columns.Has(ColumnAction) {
		out.Action = scene.Action
	}
	if columns.Has(ColumnDialogue) {
		out.Dialogue = scene.Dialogue
	}
	return out
}

// ProjectAll projects every scene in order.
func ProjectAll(scenes []Scene, columns ColumnSet) []Scene {
	out := make([]Scene, len(scenes))
	for i, scene := range scenes {
		out[i] = Project(scene, columns)
	}
	return out
}

func isHeading(line string) bool {
	return headingPattern.MatchString(line)
}

func buildScene(number int, headingLine string, body []string) (Scene, []string) {
	scene := Scene{
		SceneNumber:  number,
		SceneHeading: strings.TrimSpace(headingLine),
	}
	var warnings []string

	location, timeOfDay := splitHeading(headingLine)
	scene.Location = location
	scene.Time = timeOfDay
	if timeOfDay == "" {
		warnings = append(warnings, fmt.Sprintf("scene %d: heading has no time-of-day marker", number))
	}

	classified := classifyBody(body)
	scene.Characters = classified.characters
	scene.Action = classified.action
	scene.Dialogue = classified.dialogue
	if classified.empty {
		warnings = append(warnings, fmt.Sprintf("scene %d: no content between headings", number))
	}

	scene.Props = detectProps(classified.actionLines, classified.characters)
	scene.CameraMovement = detectCameraMovement(classified.actionLines)
	scene.Tone = detectTone(classified.action, classified.dialogue)

	return scene, warnings
}

// splitHeading separates location and time-of-day from the heading remainder.
// The convention is "PREFIX LOCATION - TIME"; when the trailing segment is not
// a recognized time marker it stays part of the location.
func splitHeading(headingLine string) (string, string) {
	match := headingPattern.FindStringSubmatch(headingLine)
	if match == nil {
		return "", ""
	}
	rest := strings.TrimSpace(match[2])

	if idx := strings.LastIndex(rest, " - "); idx >= 0 {
		location := strings.TrimSpace(rest[:idx])
		trailer := strings.TrimSpace(rest[idx+3:])
		if isTimeMarker(trailer) {
			return titleCase(location), titleCase(trailer)
		}
		return titleCase(rest), ""
	}

	// Some sources drop the dash: "INT. KITCHEN NIGHT".
	fields := strings.Fields(rest)
	if len(fields) > 1 {
		last := strings.Trim(fields[len(fields)-1], ".,")
		if _, ok := timeMarkers[last]; ok {
			location := strings.Join(fields[:len(fields)-1], " ")
			return titleCase(location), titleCase(last)
		}
	}
	return titleCase(rest), ""
}

func isTimeMarker(trailer string) bool {
	fields := strings.Fields(trailer)
	for _, field := range fields {
		if _, ok := timeMarkers[strings.Trim(field, ".,()")]; ok {
			return true
		}
	}
	return false
}

func titleCase(upper string) string {
	words := strings.Fields(strings.TrimSpace(upper))
	for i, word := range words {
		runes := []rune(word)
		if len(runes) <= 1 {
			continue
		}
		words[i] = string(runes[0]) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}
