package session

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

const testClassID = 7

var (
	teacherAda = &timetable.Ref{ID: 9, Name: "Ada"}
	teacherBob = &timetable.Ref{ID: 10, Name: "Bob"}
	courseMath = &timetable.Ref{ID: 5, Name: "Math"}
	courseArt  = &timetable.Ref{ID: 6, Name: "Art"}
	roomLab    = &timetable.Ref{ID: 12, Name: "Lab"}
)

func mathAda() slotgrid.Assignment {
	return slotgrid.Assignment{Course: courseMath, Teacher: teacherAda}
}

func artBob() slotgrid.Assignment {
	return slotgrid.Assignment{Course: courseArt, Teacher: teacherBob}
}

func addr(day timetable.DayOfWeek, periodID int64) slotgrid.Address {
	return slotgrid.Address{Day: day, PeriodID: periodID}
}

type slotKey struct {
	classID  int64
	day      timetable.DayOfWeek
	periodID int64
}

// fakeBackend is an in-memory timetable.Backend. It records every call in
// order and lets tests inject failures.
type fakeBackend struct {
	mu      sync.Mutex
	periods []timetable.Period
	slots   map[slotKey]timetable.Slot
	nextID  int64
	calls   []string

	listErr     error
	getErr      error
	replaceErr  error
	optimizeErr error
	// failOn makes per-slot writes at these addresses fail.
	failOn map[slotgrid.Address]error
	// ignore makes the backend silently drop writes at these addresses.
	ignore map[slotgrid.Address]bool
	// optimize rewrites the class timetable when Optimize is called.
	optimize func(f *fakeBackend, classID int64)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		periods: []timetable.Period{
			{ID: 1, Index: 1, StartTime: "08:00", EndTime: "08:45"},
			{ID: 2, Index: 2, StartTime: "08:50", EndTime: "09:35"},
			{ID: 3, Index: 3, StartTime: "09:40", EndTime: "10:25"},
			{ID: 4, Index: 4, StartTime: "10:45", EndTime: "11:30"},
		},
		slots:  make(map[slotKey]timetable.Slot),
		nextID: 100,
	}
}

// seed stores an assignment directly, bypassing call recording.
func (f *fakeBackend) seed(classID int64, at slotgrid.Address, a slotgrid.Assignment) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(a.Payload(at, classID, 0))
}

func (f *fakeBackend) put(p timetable.SlotPayload) int64 {
	key := slotKey{classID: p.ForClassID, day: p.DayOfWeek, periodID: p.PeriodID}
	id := f.slots[key].ID
	if id == 0 {
		f.nextID++
		id = f.nextID
	}
	s := timetable.Slot{
		ID:        id,
		DayOfWeek: p.DayOfWeek,
		Period:    timetable.Period{ID: p.PeriodID},
		ForClass:  timetable.Ref{ID: p.ForClassID},
		Teacher:   refOf(p.TeacherID),
		ForCourse: refOf(p.ForCourseID),
		Room:      refOf(p.RoomID),
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	f.slots[key] = s
	return id
}

func refOf(id *int64) *timetable.Ref {
	if id == nil {
		return nil
	}
	return &timetable.Ref{ID: *id}
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeBackend) ListPeriods(ctx context.Context) ([]timetable.Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPeriods")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return slices.Clone(f.periods), nil
}

func (f *fakeBackend) GetTimetable(ctx context.Context, classID int64) ([]timetable.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTimetable")
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.classSlots(classID), nil
}

func (f *fakeBackend) classSlots(classID int64) []timetable.Slot {
	var out []timetable.Slot
	for k, s := range f.slots {
		if k.classID == classID {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeBackend) ReplaceSlots(ctx context.Context, classID int64, payload []timetable.SlotPayload) ([]timetable.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReplaceSlots")
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	keep := make(map[slotKey]bool)
	for _, p := range payload {
		if f.ignore[addr(p.DayOfWeek, p.PeriodID)] {
			continue
		}
		f.put(p)
		keep[slotKey{classID: classID, day: p.DayOfWeek, periodID: p.PeriodID}] = true
	}
	for k := range f.slots {
		if k.classID == classID && !keep[k] && !f.ignore[addr(k.day, k.periodID)] {
			delete(f.slots, k)
		}
	}
	return f.classSlots(classID), nil
}

func (f *fakeBackend) CreateSlot(ctx context.Context, p timetable.SlotPayload) (timetable.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSlot")
	if err := f.failOn[addr(p.DayOfWeek, p.PeriodID)]; err != nil {
		return timetable.Slot{}, err
	}
	id := f.put(p)
	return f.byID(id), nil
}

func (f *fakeBackend) UpdateSlot(ctx context.Context, id int64, p timetable.SlotPayload) (timetable.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateSlot")
	if err := f.failOn[addr(p.DayOfWeek, p.PeriodID)]; err != nil {
		return timetable.Slot{}, err
	}
	if f.byID(id).ID == 0 {
		return timetable.Slot{}, timetable.ErrNotFound
	}
	f.put(p)
	return f.byID(id), nil
}

func (f *fakeBackend) DeleteSlot(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSlot")
	for k, s := range f.slots {
		if s.ID == id {
			if err := f.failOn[addr(k.day, k.periodID)]; err != nil {
				return err
			}
			delete(f.slots, k)
			return nil
		}
	}
	return timetable.ErrNotFound
}

func (f *fakeBackend) Optimize(ctx context.Context, classID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Optimize")
	if f.optimizeErr != nil {
		return f.optimizeErr
	}
	if f.optimize != nil {
		f.optimize(f, classID)
	}
	return nil
}

func (f *fakeBackend) byID(id int64) timetable.Slot {
	for _, s := range f.slots {
		if s.ID == id {
			return s
		}
	}
	return timetable.Slot{}
}

// mounted returns a session with testClassID loaded from backend.
func mounted(t *testing.T, backend *fakeBackend, opts ...Option) *Session {
	t.Helper()
	s := New(opts...)
	if err := NewLoader(backend, nil).Mount(context.Background(), s, testClassID); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	return s
}
