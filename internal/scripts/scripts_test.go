package scripts_test

import (
	"context"
	"strings"
	"testing"

	"slugline/internal/scripts"
	"slugline/internal/testsupport"
)

const sampleText = "INT. LIBRARY - DAY\n\nDust motes drift through slanted light.\n"

func TestIngestFilePlainText(t *testing.T) {
	script, err := scripts.IngestFile("", "the_long_walk.txt", []byte(sampleText), "user-1", 250)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if script.ID == "" {
		t.Fatal("expected generated id")
	}
	if script.FileType != scripts.FileTypeText {
		t.Fatalf("file type = %q, want txt", script.FileType)
	}
	if script.Title != "the long walk" {
		t.Fatalf("title = %q", script.Title)
	}
	if script.PageCount < 1 {
		t.Fatalf("page count = %d, want >= 1", script.PageCount)
	}
	if len(script.Fingerprint) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(script.Fingerprint))
	}
	if script.OwnerUserID != "user-1" {
		t.Fatalf("owner = %q", script.OwnerUserID)
	}
}

func TestIngestFileDetectsFountainExtension(t *testing.T) {
	script, err := scripts.IngestFile("Draft", "draft.fountain", []byte(sampleText), "user-1", 250)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if script.FileType != scripts.FileTypeFountain {
		t.Fatalf("file type = %q, want fountain", script.FileType)
	}
	if script.Title != "Draft" {
		t.Fatalf("title = %q, want Draft", script.Title)
	}
}

func TestIngestFileNormalizesLineEndings(t *testing.T) {
	script, err := scripts.IngestFile("CRLF", "crlf.txt", []byte("INT. HALL - DAY\r\n\r\nEcho.\r\n"), "user-1", 250)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if strings.Contains(script.Content, "\r") {
		t.Fatal("content should not contain carriage returns")
	}
}

func TestIngestFileSameContentSameFingerprint(t *testing.T) {
	a, err := scripts.IngestFile("A", "a.txt", []byte(sampleText), "user-1", 250)
	if err != nil {
		t.Fatalf("IngestFile a: %v", err)
	}
	b, err := scripts.IngestFile("B", "b.txt", []byte(sampleText), "user-2", 250)
	if err != nil {
		t.Fatalf("IngestFile b: %v", err)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Fatal("identical content should produce identical fingerprints")
	}
	if a.ID == b.ID {
		t.Fatal("ids must be unique per upload")
	}
}

func TestIngestFileRejectsEmptyUpload(t *testing.T) {
	if _, err := scripts.IngestFile("Empty", "empty.txt", nil, "user-1", 250); err == nil {
		t.Fatal("expected error for empty upload")
	}
	if _, err := scripts.IngestFile("Blank", "blank.txt", []byte("   \n\n  "), "user-1", 250); err == nil {
		t.Fatal("expected error for whitespace-only upload")
	}
}

func TestIngestFileRejectsInvalidPDF(t *testing.T) {
	if _, err := scripts.IngestFile("Broken", "broken.pdf", []byte("%PDF-1.7 garbage"), "user-1", 250); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := scripts.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	script, err := scripts.IngestFile("Noir", "noir.txt", []byte(sampleText), "user-1", 250)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if err := store.Save(ctx, script); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fetched, err := store.GetByID(ctx, script.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Title != "Noir" || fetched.Content != script.Content {
		t.Fatalf("round trip mismatch: %+v", fetched)
	}

	if _, err := store.GetByID(ctx, "missing"); err != scripts.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreListByOwnerOmitsContent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := scripts.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, name := range []string{"one.txt", "two.txt"} {
		script, err := scripts.IngestFile("", name, []byte(sampleText+name), "user-1", 250)
		if err != nil {
			t.Fatalf("IngestFile %s: %v", name, err)
		}
		if err := store.Save(ctx, script); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}
	other, err := scripts.IngestFile("", "theirs.txt", []byte(sampleText), "user-2", 250)
	if err != nil {
		t.Fatalf("IngestFile theirs: %v", err)
	}
	if err := store.Save(ctx, other); err != nil {
		t.Fatalf("Save theirs: %v", err)
	}

	listed, err := store.ListByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(listed))
	}
	for _, script := range listed {
		if script.Content != "" {
			t.Fatal("list results should omit content")
		}
	}
}

func TestStoreFindByFingerprint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := scripts.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	script, err := scripts.IngestFile("Dup", "dup.txt", []byte(sampleText), "user-1", 250)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if err := store.Save(ctx, script); err != nil {
		t.Fatalf("Save: %v", err)
	}

	found, err := store.FindByFingerprint(ctx, "user-1", script.Fingerprint)
	if err != nil {
		t.Fatalf("FindByFingerprint: %v", err)
	}
	if found == nil || found.ID != script.ID {
		t.Fatalf("expected existing upload, got %+v", found)
	}

	none, err := store.FindByFingerprint(ctx, "user-2", script.Fingerprint)
	if err != nil {
		t.Fatalf("FindByFingerprint other owner: %v", err)
	}
	if none != nil {
		t.Fatal("fingerprint lookup must be scoped to the owner")
	}
}
