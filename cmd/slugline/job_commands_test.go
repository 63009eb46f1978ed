package main

import (
	"regexp"
	"testing"
)

var scriptIDPattern = regexp.MustCompile(`as ([0-9a-f-]{36})`)

func addTestScript(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	out, _, err := runCLI(t, []string{"script", "add", env.scriptPath}, env.configPath)
	if err != nil {
		t.Fatalf("script add: %v", err)
	}
	match := scriptIDPattern.FindStringSubmatch(out)
	if match == nil {
		t.Fatalf("no script id in output %q", out)
	}
	return match[1]
}

func TestJobCreateShowList(t *testing.T) {
	env := setupCLITestEnv(t)
	scriptID := addTestScript(t, env)

	out, _, err := runCLI(t, []string{"job", "create", "--script", scriptID, "--columns", "sceneNumber,sceneHeading"}, env.configPath)
	if err != nil {
		t.Fatalf("job create: %v", err)
	}
	requireContains(t, out, "Queued job 1 (pending)")
	requireContains(t, out, "sceneNumber, sceneHeading")

	out, _, err = runCLI(t, []string{"job", "show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("job show: %v", err)
	}
	requireContains(t, out, `"status": "pending"`)
	requireContains(t, out, scriptID)

	out, _, err = runCLI(t, []string{"job", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("job list: %v", err)
	}
	requireContains(t, out, "pending")

	// A second job for the same script conflicts while the first is active.
	if _, _, err := runCLI(t, []string{"job", "create", "--script", scriptID}, env.configPath); err == nil {
		t.Fatal("expected conflict error")
	}
}

func TestJobCreateRejectsUnknownColumns(t *testing.T) {
	env := setupCLITestEnv(t)
	scriptID := addTestScript(t, env)

	_, _, err := runCLI(t, []string{"job", "create", "--script", scriptID, "--columns", "sceneHeading,notAColumn"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
	requireContains(t, err.Error(), "notAColumn")
}

func TestJobShowRejectsBadID(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"job", "show", "zero"}, env.configPath); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestUserUsageAndTier(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"user", "usage"}, env.configPath)
	if err != nil {
		t.Fatalf("user usage: %v", err)
	}
	requireContains(t, out, "local (free)")

	out, _, err = runCLI(t, []string{"user", "set-tier", "premium"}, env.configPath)
	if err != nil {
		t.Fatalf("user set-tier: %v", err)
	}
	requireContains(t, out, "premium")

	out, _, err = runCLI(t, []string{"user", "usage"}, env.configPath)
	if err != nil {
		t.Fatalf("user usage after set-tier: %v", err)
	}
	requireContains(t, out, "no ceiling")

	if _, _, err := runCLI(t, []string{"user", "set-tier", "gold"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}
