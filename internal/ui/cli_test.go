package ui

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/javiermolinar/pupitre/internal/config"
	"github.com/javiermolinar/pupitre/internal/db"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

func TestVersionCmd(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "pupitre dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestShowCmd(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "show", "1")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}

	for _, want := range []string{
		"=== 1A ===",
		"P1-P2",
		"08:00-09:45",
		"Mathematics · Ada Lovelace @ Room 101",
		"Computer Science · Edsger Dijkstra",
		"Lessons: 7 (9 periods)",
		"Free: 27",
		"Teachers: 4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestShowCmdVerbose(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "show", "1", "-v")
	if err != nil {
		t.Fatalf("show -v failed: %v", err)
	}
	if !strings.Contains(out, "Computer Science · Edsger Dijkstra @ Lab A") {
		t.Errorf("expected full label in verbose output:\n%s", out)
	}
	if !strings.Contains(out, "  Ada Lovelace         3 periods") {
		t.Errorf("expected teacher load in verbose output:\n%s", out)
	}
}

func TestShowCmdUnknownClass(t *testing.T) {
	store, path := newTestRepo(t)

	if _, err := run(t, store, path, "show", "99"); err == nil {
		t.Error("expected error for an unknown class")
	}
	if _, err := run(t, store, path, "show", "abc"); err == nil {
		t.Error("expected error for a non numeric class")
	}
}

func TestExportCmd(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "export", "2")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		"Mon\tP1\t08:00-08:50\tPhysics · Alan Turing @ Lab A",
		"Mon\tP2\t08:55-09:45\tLiterature · Grace Hopper @ Room 102",
		"Tue\t-\tfree",
		"Wed\t-\tfree",
		"Thu\tP1-P2\t08:00-09:45\tMathematics · Ada Lovelace @ Room 101",
		"Fri\t-\tfree",
		"Sat\t-\tfree",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestPeriodsCmd(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "periods")
	if err != nil {
		t.Fatalf("periods failed: %v", err)
	}
	if !strings.Contains(out, "P1   08:00-08:50") {
		t.Errorf("periods output missing first period:\n%s", out)
	}
	if !strings.Contains(out, "P6   13:45-14:35") {
		t.Errorf("periods output missing last period:\n%s", out)
	}
}

func TestAssignCmd(t *testing.T) {
	store, path := newTestRepo(t)
	ctx := context.Background()

	out, err := run(t, store, path, "assign", "1", "thursday", "P4",
		"--course=4", "--teacher=3", "--room=4", "--periods=2", "--note=Field trip")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !strings.Contains(out, "Assigned Thu P4: History · Grace Hopper @ Library") {
		t.Errorf("unexpected assign output %q", out)
	}

	slots, err := store.GetTimetable(ctx, 1)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	found := 0
	for _, s := range slots {
		if s.DayOfWeek != timetable.Thursday {
			continue
		}
		found++
		if s.Description != "Field trip" {
			t.Errorf("expected note on Thu P%d, got %q", s.Period.Index, s.Description)
		}
	}
	if found != 2 {
		t.Errorf("expected 2 Thursday lessons, got %d", found)
	}
	if len(slots) != 11 {
		t.Errorf("expected 11 lessons after assign, got %d", len(slots))
	}
}

func TestAssignCmdKeepsExistingValues(t *testing.T) {
	store, path := newTestRepo(t)

	// Monday P3 is Literature with Grace Hopper in the Library.
	if _, err := run(t, store, path, "assign", "1", "mon", "3", "--room=2"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	slots, err := store.GetTimetable(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	s := findSlot(t, slots, timetable.Monday, 3)
	if got := timetable.RefLabel(s.ForCourse); got != "Literature" {
		t.Errorf("expected course to stay Literature, got %q", got)
	}
	if got := timetable.RefLabel(s.Room); got != "Room 102" {
		t.Errorf("expected room Room 102, got %q", got)
	}
}

func TestAssignCmdNoteOnlyIsNotSaved(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "assign", "1", "mon", "3", "--note=quiz")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !strings.Contains(out, "Nothing to save") {
		t.Errorf("expected nothing to save, got %q", out)
	}

	slots, err := store.GetTimetable(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	if s := findSlot(t, slots, timetable.Monday, 3); s.Description != "" {
		t.Errorf("expected no stored note, got %q", s.Description)
	}
}

func TestAssignCmdRejectsEmptyLesson(t *testing.T) {
	store, path := newTestRepo(t)

	_, err := run(t, store, path, "assign", "1", "sat", "1", "--note=Nothing")
	if err == nil {
		t.Fatal("expected error for a lesson without course, teacher or room")
	}
	if !strings.Contains(err.Error(), "is empty") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestAssignCmdConflict(t *testing.T) {
	store, path := newTestRepo(t)

	// Alan Turing teaches 1B on Monday P1.
	out, err := run(t, store, path, "assign", "3", "monday", "1", "--course=2", "--teacher=2")
	if err == nil {
		t.Fatal("expected conflict error")
	}
	var conflict *timetable.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *timetable.ConflictError, got %T: %v", err, err)
	}
	if !strings.Contains(out, "Conflict:") {
		t.Errorf("expected conflict warning in output, got %q", out)
	}

	slots, err := store.GetTimetable(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	if len(slots) != 2 {
		t.Errorf("expected class 3 to keep 2 lessons, got %d", len(slots))
	}
}

func TestMoveCmd(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "move", "1", "friday", "5", "saturday", "1")
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if !strings.Contains(out, "Moved Fri P5 to Sat P1") {
		t.Errorf("unexpected move output %q", out)
	}

	slots, err := store.GetTimetable(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	s := findSlot(t, slots, timetable.Saturday, 1)
	if got := timetable.RefLabel(s.ForCourse); got != "History" {
		t.Errorf("expected History on Saturday P1, got %q", got)
	}
	for _, s := range slots {
		if s.DayOfWeek == timetable.Friday {
			t.Errorf("expected Friday to be free, found %+v", s)
		}
	}
}

func TestMoveCmdFromFreeCell(t *testing.T) {
	store, path := newTestRepo(t)

	_, err := run(t, store, path, "move", "1", "saturday", "1", "monday", "6")
	if err == nil {
		t.Fatal("expected error moving a free cell")
	}
	if !strings.Contains(err.Error(), "nothing to move") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestClearCmd(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantOut   string
		wantCount int
	}{
		{
			name:      "single period",
			args:      []string{"clear", "1", "monday", "2"},
			wantOut:   "Cleared 1 period",
			wantCount: 8,
		},
		{
			name:      "whole block",
			args:      []string{"clear", "1", "monday", "2", "--block"},
			wantOut:   "Cleared 2 periods",
			wantCount: 7,
		},
		{
			name:      "free cell",
			args:      []string{"clear", "1", "saturday", "1"},
			wantOut:   "Sat P1 is already free",
			wantCount: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, path := newTestRepo(t)

			out, err := run(t, store, path, tt.args...)
			if err != nil {
				t.Fatalf("clear failed: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("expected output %q, got %q", tt.wantOut, out)
			}

			slots, err := store.GetTimetable(context.Background(), 1)
			if err != nil {
				t.Fatalf("GetTimetable failed: %v", err)
			}
			if len(slots) != tt.wantCount {
				t.Errorf("expected %d lessons, got %d", tt.wantCount, len(slots))
			}
		})
	}
}

func TestRegenerateCmd(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "regenerate", "1")
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if !strings.Contains(out, "Regenerated: 9 lessons on the timetable") {
		t.Errorf("unexpected regenerate output %q", out)
	}
}

func TestSeedCmdOnSeededDatabase(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "seed")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if !strings.Contains(out, "nothing seeded") {
		t.Errorf("unexpected seed output %q", out)
	}
}

func TestConfigShowCmd(t *testing.T) {
	store, path := newTestRepo(t)

	out, err := run(t, store, path, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"[backend]", "kind          = sqlite", "db_path       = " + path, "save_mode     = bulk"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestImportCmd(t *testing.T) {
	ctx := context.Background()
	store, path := newTestRepo(t)

	sourcePath := filepath.Join(t.TempDir(), "source.db")
	source, err := db.New(sourcePath)
	if err != nil {
		t.Fatalf("creating source repo: %v", err)
	}
	if _, err := source.Seed(ctx); err != nil {
		t.Fatalf("Seed (source) failed: %v", err)
	}
	if err := source.Close(); err != nil {
		t.Fatalf("closing source repo: %v", err)
	}

	if _, err := store.ReplaceSlots(ctx, 1, nil); err != nil {
		t.Fatalf("ReplaceSlots failed: %v", err)
	}

	out, err := run(t, store, path, "import", sourcePath, "1")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 9 lessons") {
		t.Errorf("unexpected import output %q", out)
	}

	slots, err := store.GetTimetable(ctx, 1)
	if err != nil {
		t.Fatalf("GetTimetable failed: %v", err)
	}
	if len(slots) != 9 {
		t.Fatalf("expected 9 lessons after import, got %d", len(slots))
	}
	s := findSlot(t, slots, timetable.Wednesday, 2)
	if got := timetable.RefLabel(s.Teacher); got != "Edsger Dijkstra" {
		t.Errorf("expected Edsger Dijkstra on Wednesday P2, got %q", got)
	}
}

func TestImportCmdSameDatabase(t *testing.T) {
	store, path := newTestRepo(t)

	_, err := run(t, store, path, "import", path, "1")
	if err == nil {
		t.Fatal("expected error importing the current database")
	}
	if !strings.Contains(err.Error(), "matches current database") {
		t.Errorf("unexpected error %v", err)
	}
}

// Helper functions

func newTestRepo(t *testing.T) (*db.SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := db.New(path)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return store, path
}

// run executes one command line on a fresh app backed by store and returns
// everything it printed.
func run(t *testing.T, store *db.SQLite, path string, args ...string) (string, error) {
	t.Helper()
	DisableColor()

	cfg := config.Default()
	cfg.Storage.DBPath = path
	app := NewApp(store, cfg)

	var buf bytes.Buffer
	app.root.SetOut(&buf)
	app.root.SetErr(&buf)
	app.root.SetArgs(args)
	err := app.root.ExecuteContext(context.Background())
	return buf.String(), err
}

func findSlot(t *testing.T, slots []timetable.Slot, day timetable.DayOfWeek, index int) timetable.Slot {
	t.Helper()
	for _, s := range slots {
		if s.DayOfWeek == day && s.Period.Index == index {
			return s
		}
	}
	t.Fatalf("no lesson on %s P%d", day, index)
	return timetable.Slot{}
}
