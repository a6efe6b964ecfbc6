package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/javiermolinar/pupitre/internal/db"
	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

func TestMountReturnsMountedMsg(t *testing.T) {
	store := newTestRepo(t)
	s := session.New()

	plan, err := s.BeginMount(1)
	if err != nil {
		t.Fatalf("BeginMount failed: %v", err)
	}

	msg := Mount(session.NewLoader(store, nil), plan)()

	mounted, ok := msg.(MountedMsg)
	if !ok {
		t.Fatalf("msg type = %T, want MountedMsg", msg)
	}
	if mounted.Outcome.Err != nil {
		t.Fatalf("mount failed: %v", mounted.Outcome.Err)
	}
	if err := s.ApplyMount(mounted.Outcome); err != nil {
		t.Fatalf("ApplyMount failed: %v", err)
	}
	if !s.Loaded() || s.Snapshot().Len() == 0 {
		t.Fatal("expected seeded timetable to be mounted")
	}
}

func TestSaveReturnsSavedMsg(t *testing.T) {
	store := newTestRepo(t)
	s := mountedSession(t, store, 2)

	addr := slotgrid.At(timetable.Saturday, 6)
	if err := s.Assign(addr, slotgrid.Assignment{Course: &timetable.Ref{ID: 1}}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	plan, err := s.BeginSave()
	if err != nil {
		t.Fatalf("BeginSave failed: %v", err)
	}

	msg := Save(session.NewSaveCoordinator(store, session.SaveModeBulk, nil), plan)()

	saved, ok := msg.(SavedMsg)
	if !ok {
		t.Fatalf("msg type = %T, want SavedMsg", msg)
	}
	res, err := s.ApplySave(saved.Outcome)
	if err != nil {
		t.Fatalf("ApplySave failed: %v", err)
	}
	if res.Pending != 0 {
		t.Errorf("pending = %d, want 0 after a clean save", res.Pending)
	}
}

func TestRegenerateReturnsRegeneratedMsg(t *testing.T) {
	store := newTestRepo(t)
	s := mountedSession(t, store, 1)

	plan, err := s.BeginRegenerate()
	if err != nil {
		t.Fatalf("BeginRegenerate failed: %v", err)
	}

	msg := Regenerate(session.NewRegenerateCoordinator(store, nil), plan)()

	regen, ok := msg.(RegeneratedMsg)
	if !ok {
		t.Fatalf("msg type = %T, want RegeneratedMsg", msg)
	}
	if regen.Outcome.Err != nil {
		t.Fatalf("regenerate failed: %v", regen.Outcome.Err)
	}
	if regen.Outcome.Ticket != plan.Ticket {
		t.Errorf("ticket = %+v, want %+v", regen.Outcome.Ticket, plan.Ticket)
	}
}

func TestCommandsWithoutPlanReturnErrMsg(t *testing.T) {
	for name, msg := range map[string]any{
		"mount":      Mount(nil, nil)(),
		"save":       Save(nil, nil)(),
		"regenerate": Regenerate(nil, nil)(),
	} {
		if _, ok := msg.(ErrMsg); !ok {
			t.Errorf("%s: msg type = %T, want ErrMsg", name, msg)
		}
	}
}

// Helper functions

func newTestRepo(t *testing.T) *db.SQLite {
	t.Helper()

	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return store
}

func mountedSession(t *testing.T, store *db.SQLite, classID int64) *session.Session {
	t.Helper()

	s := session.New()
	if err := session.NewLoader(store, nil).Mount(context.Background(), s, classID); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	return s
}
