package slotgrid

import (
	"errors"
	"testing"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

func TestOverlay_SetIsIdempotent(t *testing.T) {
	s := EmptySnapshot(testClassID)
	once := NewOverlay()
	twice := NewOverlay()
	addr := p(timetable.Monday, 1)

	if err := once.Set(addr, mathAda()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	for range 2 {
		if err := twice.Set(addr, mathAda()); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	a1, ok1 := Effective(s, once, addr)
	a2, ok2 := Effective(s, twice, addr)
	if ok1 != ok2 || !a1.Equal(a2) {
		t.Errorf("effective state differs: %+v vs %+v", a1, a2)
	}
	if once.Len() != twice.Len() {
		t.Errorf("entry count differs: %d vs %d", once.Len(), twice.Len())
	}
}

func TestOverlay_SetReplacesWholeEntry(t *testing.T) {
	o := NewOverlay()
	addr := p(timetable.Monday, 1)

	_ = o.Set(addr, Assignment{Course: courseMath, Teacher: teacherAda, Room: roomLab, Description: "lab"})
	_ = o.Set(addr, Assignment{Course: courseArt})

	a, ok := Effective(nil, o, addr)
	if !ok {
		t.Fatal("expected an assignment")
	}
	if a.Teacher != nil || a.Room != nil || a.Description != "" {
		t.Errorf("Set must not merge fields, got %+v", a)
	}
}

func TestOverlay_ClearHidesSnapshot(t *testing.T) {
	addr := p(timetable.Monday, 1)
	s := mustSnapshot(t, slotAt(1, addr, mathAda()))
	o := NewOverlay()

	if _, ok := Effective(s, o, addr); !ok {
		t.Fatal("snapshot assignment should show through an empty overlay")
	}
	if err := o.Clear(addr); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := Effective(s, o, addr); ok {
		t.Error("cleared entry should make the cell empty")
	}

	o.Forget(addr)
	if _, ok := Effective(s, o, addr); !ok {
		t.Error("forgotten entry should defer to the snapshot again")
	}
}

func TestOverlay_ApplyIsAllOrNothing(t *testing.T) {
	o := NewOverlay()
	m := Mutation{Ops: []Op{
		SetOp(p(timetable.Monday, 1), mathAda()),
		SetOp(At(timetable.Sunday, 101), artBob()),
	}}

	err := o.Apply(m)
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	if o.Len() != 0 {
		t.Errorf("failed mutation must not write anything, got %d entries", o.Len())
	}
}

func TestOverlay_CloneIsIndependent(t *testing.T) {
	o := NewOverlay()
	_ = o.Set(p(timetable.Monday, 1), mathAda())

	c := o.Clone()
	_ = o.Set(p(timetable.Monday, 2), artBob())

	if c.Len() != 1 {
		t.Errorf("clone should keep 1 entry, got %d", c.Len())
	}
}

func TestOverlay_Reconcile(t *testing.T) {
	mon1 := p(timetable.Monday, 1)
	mon2 := p(timetable.Monday, 2)
	mon3 := p(timetable.Monday, 3)
	tue1 := p(timetable.Tuesday, 1)

	fresh := mustSnapshot(t,
		slotAt(1, mon1, mathAda()),
		slotAt(2, mon2, artBob()),
	)

	o := NewOverlay()
	_ = o.Set(mon1, mathAda()) // confirmed
	_ = o.Set(mon2, mathAda()) // server has something else
	_ = o.Clear(mon3)          // confirmed: nothing there
	_ = o.Set(tue1, artBob())  // never persisted

	dropped := o.Reconcile(fresh)

	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped entries, got %v", dropped)
	}
	if _, ok := o.Get(mon1); ok {
		t.Error("MONDAY/101 matches the snapshot and should be dropped")
	}
	if _, ok := o.Get(mon3); ok {
		t.Error("cleared MONDAY/103 matches the empty snapshot and should be dropped")
	}
	if _, ok := o.Get(mon2); !ok {
		t.Error("MONDAY/102 differs from the snapshot and must stay")
	}
	if _, ok := o.Get(tue1); !ok {
		t.Error("TUESDAY/101 is not persisted and must stay")
	}
}

func TestOverlay_ReconcileKeepsDescriptionEdits(t *testing.T) {
	addr := p(timetable.Monday, 1)
	fresh := mustSnapshot(t, slotAt(1, addr, mathAda()))

	o := NewOverlay()
	edited := mathAda()
	edited.Description = "bring calculators"
	_ = o.Set(addr, edited)

	if dropped := o.Reconcile(fresh); len(dropped) != 0 {
		t.Errorf("entry with a different description must stay, dropped %v", dropped)
	}
}
