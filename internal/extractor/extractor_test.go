package extractor_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"slugline/internal/extractor"
)

const sampleScript = `FADE IN:

INT. COFFEE SHOP - DAY

Jane sits at a corner table, nursing a cold espresso. A battered
LAPTOP glows in front of her. CLOSE ON her trembling hands.

JANE
(quietly)
He's late. He's never late.

MARCUS (V.O.)
Look under the table.

Jane reaches down and finds a brass KEY taped to the wood.

EXT. CITY STREET - NIGHT

Rain hammers the pavement. Jane runs, clutching the key. Sirens
wail somewhere behind her. The camera PANs across empty storefronts.

MARCUS
You can't outrun this, Jane.

JANE
Watch me.

INT. WAREHOUSE - NIGHT

The door creaks open. Darkness. A single bare BULB swings overhead.

CUT TO:

Jane steps inside, gun drawn.
`

func TestExtractFindsAllScenes(t *testing.T) {
	scenes, _, err := extractor.Extract(sampleScript, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}

	for i, scene := range scenes {
		if scene.SceneNumber != i+1 {
			t.Fatalf("scene %d has number %d", i, scene.SceneNumber)
		}
	}

	first := scenes[0]
	if first.SceneHeading != "INT. COFFEE SHOP - DAY" {
		t.Fatalf("unexpected heading %q", first.SceneHeading)
	}
	if first.Location != "Coffee Shop" || first.Time != "Day" {
		t.Fatalf("unexpected location/time %q / %q", first.Location, first.Time)
	}
	if !reflect.DeepEqual(first.Characters, []string{"JANE", "MARCUS"}) {
		t.Fatalf("unexpected characters %v", first.Characters)
	}
	if !strings.Contains(first.Dialogue, "JANE: He's late. He's never late.") {
		t.Fatalf("unexpected dialogue %q", first.Dialogue)
	}
	if !strings.Contains(first.Action, "Jane sits at a corner table") {
		t.Fatalf("unexpected action %q", first.Action)
	}
}

func TestExtractDetectsPropsAndCamera(t *testing.T) {
	scenes, _, err := extractor.Extract(sampleScript, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	first := scenes[0]
	wantProps := []string{"LAPTOP", "KEY"}
	if !reflect.DeepEqual(first.Props, wantProps) {
		t.Fatalf("props = %v, want %v", first.Props, wantProps)
	}
	if !strings.Contains(first.CameraMovement, "CLOSE ON") {
		t.Fatalf("camera movement = %q, want CLOSE ON", first.CameraMovement)
	}

	second := scenes[1]
	if !strings.Contains(second.CameraMovement, "PAN") {
		t.Fatalf("camera movement = %q, want PAN", second.CameraMovement)
	}
}

func TestExtractAssignsSequentialNumbersDespiteSourceNumbering(t *testing.T) {
	text := "7  INT. LAB - DAY\n\nAction here.\n\n3  EXT. ROOF - NIGHT\n\nMore action.\n"
	scenes, _, err := extractor.Extract(text, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if scenes[0].SceneNumber != 1 || scenes[1].SceneNumber != 2 {
		t.Fatalf("expected sequential numbering, got %d and %d", scenes[0].SceneNumber, scenes[1].SceneNumber)
	}
	if !strings.HasPrefix(scenes[0].SceneHeading, "7") {
		t.Fatalf("source number should survive in heading, got %q", scenes[0].SceneHeading)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	run := func() []extractor.Scene {
		scenes, _, err := extractor.Extract(sampleScript, extractor.Options{})
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		return scenes
	}
	first := run()
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, run()) {
			t.Fatal("repeated extraction produced different output")
		}
	}
}

func TestExtractMaxScenesIsStrictPrefix(t *testing.T) {
	full, _, err := extractor.Extract(sampleScript, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract full: %v", err)
	}
	capped, _, err := extractor.Extract(sampleScript, extractor.Options{MaxScenes: 2})
	if err != nil {
		t.Fatalf("Extract capped: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(capped))
	}
	if !reflect.DeepEqual(capped, full[:2]) {
		t.Fatalf("capped result is not a prefix of full result:\n%v\n%v", capped, full[:2])
	}
}

func TestExtractNoHeadingsFails(t *testing.T) {
	_, _, err := extractor.Extract("Just a short story about a dog.\nNothing else.", extractor.Options{})
	if !errors.Is(err, extractor.ErrNoScenes) {
		t.Fatalf("expected ErrNoScenes, got %v", err)
	}
}

func TestExtractLowercaseProseDoesNotTriggerHeadings(t *testing.T) {
	_, _, err := extractor.Extract("the interior was dark.\nint. means nothing here.\n", extractor.Options{})
	if !errors.Is(err, extractor.ErrNoScenes) {
		t.Fatalf("lowercase prose should not match headings, got %v", err)
	}
}

func TestExtractShoutedActionIsNotACue(t *testing.T) {
	text := "INT. BUNKER - NIGHT\n\nThe charges detonate.\n\nBOOM!\n\nDust settles over everything.\n"
	scenes, _, err := extractor.Extract(text, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(scenes[0].Characters) != 0 {
		t.Fatalf("expected no characters, got %v", scenes[0].Characters)
	}
	if !strings.Contains(scenes[0].Action, "BOOM!") {
		t.Fatalf("shouted line should be action, got %q", scenes[0].Action)
	}
}

func TestExtractWarnsOnMissingTimeMarker(t *testing.T) {
	text := "INT. VAULT\n\nGold everywhere.\n"
	scenes, warnings, err := extractor.Extract(text, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if scenes[0].Time != "" {
		t.Fatalf("expected empty time, got %q", scenes[0].Time)
	}
	found := false
	for _, warning := range warnings {
		if strings.Contains(warning, "time-of-day") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a time-of-day warning, got %v", warnings)
	}
}

func TestExtractTone(t *testing.T) {
	text := "INT. ALLEY - NIGHT\n\nA gun glints. She screams as the window shatters. Panic everywhere.\n"
	scenes, _, err := extractor.Extract(text, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if scenes[0].Tone != "tense" {
		t.Fatalf("tone = %q, want tense", scenes[0].Tone)
	}
}

func TestProjectLimitsFields(t *testing.T) {
	scenes, _, err := extractor.Extract(sampleScript, extractor.Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	columns, unknown := extractor.ParseColumns([]string{"sceneHeading", "characters"})
	if len(unknown) != 0 {
		t.Fatalf("unexpected unknown columns %v", unknown)
	}

	projected := extractor.ProjectAll(scenes, columns)
	if len(projected) != 3 {
		t.Fatalf("expected 3 projected scenes, got %d", len(projected))
	}
	for i, scene := range projected {
		if scene.SceneHeading == "" {
			t.Fatalf("scene %d missing heading", i)
		}
		if scene.SceneNumber != 0 || scene.Location != "" || scene.Time != "" ||
			scene.Props != nil || scene.Tone != "" || scene.CameraMovement != "" ||
			scene.Action != "" || scene.Dialogue != "" {
			t.Fatalf("scene %d has unselected fields populated: %+v", i, scene)
		}
	}
	if len(projected[0].Characters) == 0 {
		t.Fatal("expected characters in projection")
	}
}
