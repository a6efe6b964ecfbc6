package slotgrid

import (
	"fmt"
	"slices"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// PersistedCell is one assignment as the backend last reported it.
type PersistedCell struct {
	SlotID     int64
	Assignment Assignment
	Slot       timetable.Slot // raw record, kept for identity
}

// Snapshot is the immutable last-fetched timetable of one class. It is
// replaced wholesale on every fetch and never patched.
type Snapshot struct {
	classID int64
	cells   map[Address]PersistedCell
}

// EmptySnapshot returns a snapshot with no persisted cells.
func EmptySnapshot(classID int64) *Snapshot {
	return &Snapshot{classID: classID, cells: map[Address]PersistedCell{}}
}

// NewSnapshot indexes slots by address. Sunday slots are dropped. Two slots
// on the same address, or a slot of another class, are rejected.
func NewSnapshot(classID int64, slots []timetable.Slot) (*Snapshot, error) {
	s := &Snapshot{
		classID: classID,
		cells:   make(map[Address]PersistedCell, len(slots)),
	}
	for _, slot := range slots {
		if !slot.DayOfWeek.Scheduled() {
			continue
		}
		if slot.ForClass.ID != 0 && slot.ForClass.ID != classID {
			return nil, fmt.Errorf("%w: slot %d is for class %d, not %d",
				ErrForeignSlot, slot.ID, slot.ForClass.ID, classID)
		}
		addr := Address{Day: slot.DayOfWeek, PeriodID: slot.Period.ID}
		if err := addr.Validate(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot.ID, err)
		}
		if prev, dup := s.cells[addr]; dup {
			return nil, fmt.Errorf("%w: %s held by slots %d and %d",
				ErrDuplicateAddress, addr, prev.SlotID, slot.ID)
		}
		s.cells[addr] = PersistedCell{
			SlotID:     slot.ID,
			Assignment: FromSlot(slot),
			Slot:       slot,
		}
	}
	return s, nil
}

// ClassID returns the class this snapshot was fetched for.
func (s *Snapshot) ClassID() int64 {
	if s == nil {
		return 0
	}
	return s.classID
}

// Len returns the number of persisted cells.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.cells)
}

// Get returns the persisted cell at addr.
func (s *Snapshot) Get(addr Address) (PersistedCell, bool) {
	if s == nil {
		return PersistedCell{}, false
	}
	c, ok := s.cells[addr]
	return c, ok
}

// Assignment returns the persisted assignment at addr.
func (s *Snapshot) Assignment(addr Address) (Assignment, bool) {
	c, ok := s.Get(addr)
	return c.Assignment, ok
}

// SlotID returns the persisted slot id at addr, or 0.
func (s *Snapshot) SlotID(addr Address) int64 {
	c, _ := s.Get(addr)
	return c.SlotID
}

// Addresses returns every persisted address ordered by day then period id.
func (s *Snapshot) Addresses() []Address {
	if s == nil {
		return nil
	}
	out := make([]Address, 0, len(s.cells))
	for a := range s.cells {
		out = append(out, a)
	}
	slices.SortFunc(out, compareAddress)
	return out
}

// Slots returns the raw records in address order.
func (s *Snapshot) Slots() []timetable.Slot {
	addrs := s.Addresses()
	out := make([]timetable.Slot, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, s.cells[a].Slot)
	}
	return out
}
