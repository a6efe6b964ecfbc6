package slotgrid

import (
	"testing"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

func TestDiff_Kinds(t *testing.T) {
	mon1 := p(timetable.Monday, 1)
	mon2 := p(timetable.Monday, 2)
	mon3 := p(timetable.Monday, 3)

	s := mustSnapshot(t,
		slotAt(11, mon1, mathAda()),
		slotAt(12, mon2, mathAda()),
	)
	o := NewOverlay()
	_ = o.Clear(mon1)
	_ = o.Set(mon2, artBob())
	_ = o.Set(mon3, mathAda())

	cs := Diff(s, o)
	if len(cs) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(cs))
	}

	tests := []struct {
		addr   Address
		kind   ChangeKind
		slotID int64
	}{
		{mon1, ChangeDelete, 11},
		{mon2, ChangeUpdate, 12},
		{mon3, ChangeCreate, 0},
	}
	for _, tt := range tests {
		c, ok := cs.Get(tt.addr)
		if !ok {
			t.Errorf("%s: expected a change", tt.addr)
			continue
		}
		if c.Kind != tt.kind {
			t.Errorf("%s: kind = %s, want %s", tt.addr, c.Kind, tt.kind)
		}
		if c.SlotID != tt.slotID {
			t.Errorf("%s: slot id = %d, want %d", tt.addr, c.SlotID, tt.slotID)
		}
	}

	del, _ := cs.Get(mon1)
	if del.Before == nil || del.After != nil {
		t.Errorf("delete should have Before only: %+v", del)
	}
	if cs.Count(ChangeCreate) != 1 {
		t.Errorf("expected 1 create, got %d", cs.Count(ChangeCreate))
	}
}

func TestDiff_UnchangedEntriesAreIgnored(t *testing.T) {
	mon1 := p(timetable.Monday, 1)
	mon2 := p(timetable.Monday, 2)
	s := mustSnapshot(t, slotAt(11, mon1, mathAda()))

	o := NewOverlay()
	sameButDescribed := mathAda()
	sameButDescribed.Description = "new description"
	_ = o.Set(mon1, sameButDescribed)
	_ = o.Clear(mon2)

	if cs := Diff(s, o); !cs.Empty() {
		t.Errorf("expected no changes, got %+v", cs)
	}
}

func TestDiff_RoomChangeCounts(t *testing.T) {
	mon1 := p(timetable.Monday, 1)
	s := mustSnapshot(t, slotAt(11, mon1, mathAda()))

	o := NewOverlay()
	withRoom := mathAda()
	withRoom.Room = roomLab
	_ = o.Set(mon1, withRoom)

	cs := Diff(s, o)
	if len(cs) != 1 || cs[0].Kind != ChangeUpdate {
		t.Errorf("room change should be an update, got %+v", cs)
	}
}

func TestDiff_AllNilAssignmentIsContent(t *testing.T) {
	mon1 := p(timetable.Monday, 1)
	o := NewOverlay()
	_ = o.Set(mon1, Assignment{})

	cs := Diff(EmptySnapshot(testClassID), o)
	if len(cs) != 1 || cs[0].Kind != ChangeCreate {
		t.Errorf("all-nil assignment on an empty cell is a create, got %+v", cs)
	}
}

func TestDiff_OrderIndependent(t *testing.T) {
	addrs := []Address{
		p(timetable.Friday, 2),
		p(timetable.Monday, 4),
		p(timetable.Wednesday, 1),
		p(timetable.Monday, 1),
	}
	s := EmptySnapshot(testClassID)

	forward := NewOverlay()
	for _, a := range addrs {
		_ = forward.Set(a, mathAda())
	}
	backward := NewOverlay()
	for i := len(addrs) - 1; i >= 0; i-- {
		_ = backward.Set(addrs[i], mathAda())
	}

	a, b := Diff(s, forward), Diff(s, backward)
	if len(a) != len(b) {
		t.Fatalf("length differs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Address != b[i].Address || a[i].Kind != b[i].Kind {
			t.Errorf("change %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if a[0].Address != p(timetable.Monday, 1) {
		t.Errorf("changes should start at MONDAY/101, got %s", a[0].Address)
	}
}

func TestDiff_EmptyOverlay(t *testing.T) {
	s := mustSnapshot(t, slotAt(11, p(timetable.Monday, 1), mathAda()))
	if cs := Diff(s, NewOverlay()); !cs.Empty() {
		t.Errorf("empty overlay should yield an empty change set, got %+v", cs)
	}
	if cs := Diff(s, nil); !cs.Empty() {
		t.Errorf("nil overlay should yield an empty change set, got %+v", cs)
	}
}

func TestChangeSet_SortFollowsColumns(t *testing.T) {
	// Period 90 is the first column even though its id is larger.
	catalog, err := NewPeriodCatalog([]timetable.Period{
		{ID: 50, Index: 2},
		{ID: 90, Index: 1},
	})
	if err != nil {
		t.Fatalf("NewPeriodCatalog failed: %v", err)
	}
	first := Address{Day: timetable.Monday, PeriodID: 90}
	second := Address{Day: timetable.Monday, PeriodID: 50}
	tuesday := Address{Day: timetable.Tuesday, PeriodID: 90}

	o := NewOverlay()
	_ = o.Set(tuesday, mathAda())
	_ = o.Set(second, mathAda())
	_ = o.Set(first, artBob())

	cs := Diff(EmptySnapshot(testClassID), o).Sort(catalog)

	want := []Address{first, second, tuesday}
	if len(cs) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(cs))
	}
	for i, addr := range want {
		if cs[i].Address != addr {
			t.Errorf("change %d: got %s, want %s", i, cs[i].Address, addr)
		}
	}

	if got := Diff(EmptySnapshot(testClassID), o).Sort(nil); len(got) != len(want) {
		t.Errorf("nil catalog should keep every change, got %d", len(got))
	}
}
