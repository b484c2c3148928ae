package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestArtifacts_SaveLoadRoundTrip(t *testing.T) {
	a, err := NewArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifacts: %v", err)
	}

	in := map[string][]string{"Linear Algebra": {"Matrix multiplication: basics"}}
	if err := a.Save(PrerequisitesFile, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !a.Exists(PrerequisitesFile) {
		t.Fatalf("Exists = false after Save")
	}

	var out map[string][]string
	if err := a.Load(PrerequisitesFile, &out); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out["Linear Algebra"]) != 1 {
		t.Fatalf("round trip lost data: %v", out)
	}

	// No temp files are left behind after a successful save.
	entries, err := os.ReadDir(a.Root())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != PrerequisitesFile {
			t.Fatalf("unexpected file in artifact dir: %s", e.Name())
		}
	}
}

func TestArtifacts_LoadMissing(t *testing.T) {
	a, err := NewArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifacts: %v", err)
	}
	var out map[string]string
	if err := a.Load(SlidesDataFile, &out); err == nil {
		t.Fatalf("expected error loading absent artifact")
	}
}

func TestArtifacts_ClearRemovesKnownFilesOnly(t *testing.T) {
	a, err := NewArtifacts(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifacts: %v", err)
	}
	if err := a.Save(SlidesDataFile, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	stray := filepath.Join(a.Root(), "notes.txt")
	if err := os.WriteFile(stray, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	if err := a.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if a.Exists(SlidesDataFile) {
		t.Fatalf("known artifact survived Clear")
	}
	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("Clear removed an unrelated file: %v", err)
	}
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	return db
}

func TestDB_RunLifecycle(t *testing.T) {
	db := newTestDB(t)

	run := &GenerationRun{PaperURL: "https://arxiv.org/abs/1706.03762", StudentLevel: 2}
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatalf("CreateRun did not assign an id")
	}
	if run.Status != RunStatusRunning {
		t.Fatalf("default status = %q", run.Status)
	}

	run.Status = RunStatusCompleted
	run.SlideCount = 12
	run.DeckPath = "output/deck.pptx"
	if err := db.UpdateRun(run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != RunStatusCompleted || got.SlideCount != 12 {
		t.Fatalf("reloaded run = %+v", got)
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns returned %d runs", len(runs))
	}
}

func TestDB_RenderCache(t *testing.T) {
	db := newTestDB(t)

	missing, err := db.LookupRender("nope")
	if err != nil {
		t.Fatalf("LookupRender: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown hash, got %+v", missing)
	}

	rec := &RenderRecord{Hash: "abc123", Formula: "$E=mc^2$", Name: "energy", Path: "formulas/energy.png"}
	if err := db.SaveRender(rec); err != nil {
		t.Fatalf("SaveRender: %v", err)
	}
	got, err := db.LookupRender("abc123")
	if err != nil {
		t.Fatalf("LookupRender: %v", err)
	}
	if got == nil || got.Path != "formulas/energy.png" {
		t.Fatalf("cached record = %+v", got)
	}
}
