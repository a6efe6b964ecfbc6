package slotgrid

import (
	"maps"
	"slices"
)

// Entry is one overlay value: either an assignment or an explicit clear.
type Entry struct {
	Assignment Assignment
	Cleared    bool
}

// Op writes one overlay entry.
type Op struct {
	Address Address
	Entry   Entry
}

// SetOp assigns a at addr.
func SetOp(addr Address, a Assignment) Op {
	return Op{Address: addr, Entry: Entry{Assignment: a}}
}

// ClearOp marks addr as cleared.
func ClearOp(addr Address) Op {
	return Op{Address: addr, Entry: Entry{Cleared: true}}
}

// Mutation is a group of ops applied together or not at all.
type Mutation struct {
	Label string // e.g. "Move MONDAY/1 → TUESDAY/3"
	Ops   []Op
}

// Empty reports whether the mutation changes nothing.
func (m Mutation) Empty() bool {
	return len(m.Ops) == 0
}

// Overlay holds edits not yet saved. An address absent from the overlay
// defers to the snapshot.
type Overlay struct {
	entries map[Address]Entry
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{entries: make(map[Address]Entry)}
}

// Len returns the number of pending entries.
func (o *Overlay) Len() int {
	return len(o.entries)
}

// Get returns the entry at addr.
func (o *Overlay) Get(addr Address) (Entry, bool) {
	e, ok := o.entries[addr]
	return e, ok
}

// Set replaces whatever is at addr with a. No field merge takes place.
func (o *Overlay) Set(addr Address, a Assignment) error {
	return o.Apply(Mutation{Ops: []Op{SetOp(addr, a)}})
}

// Clear marks addr as empty regardless of the snapshot.
func (o *Overlay) Clear(addr Address) error {
	return o.Apply(Mutation{Ops: []Op{ClearOp(addr)}})
}

// Forget drops the entry at addr so it defers to the snapshot again.
func (o *Overlay) Forget(addr Address) {
	delete(o.entries, addr)
}

// Apply validates every op and then writes them all. On error the overlay
// is left untouched.
func (o *Overlay) Apply(m Mutation) error {
	for _, op := range m.Ops {
		if err := op.Address.Validate(); err != nil {
			return err
		}
	}
	for _, op := range m.Ops {
		e := op.Entry
		if e.Cleared {
			e.Assignment = Assignment{}
		} else {
			e.Assignment = e.Assignment.clone()
		}
		o.entries[op.Address] = e
	}
	return nil
}

// Addresses returns the pending addresses ordered by day then period id.
func (o *Overlay) Addresses() []Address {
	out := slices.Collect(maps.Keys(o.entries))
	slices.SortFunc(out, compareAddress)
	return out
}

// Clone returns an independent copy, used for undo history.
func (o *Overlay) Clone() *Overlay {
	return &Overlay{entries: maps.Clone(o.entries)}
}

// Reconcile drops every entry the snapshot already reflects: cleared entries
// where the snapshot has nothing, and assignments equal to the snapshot's.
// It returns the addresses that were dropped.
func (o *Overlay) Reconcile(s *Snapshot) []Address {
	var dropped []Address
	for _, addr := range o.Addresses() {
		e := o.entries[addr]
		persisted, ok := s.Assignment(addr)
		if e.Cleared && !ok || !e.Cleared && ok && e.Assignment.Equal(persisted) {
			delete(o.entries, addr)
			dropped = append(dropped, addr)
		}
	}
	return dropped
}

// Effective merges overlay over snapshot at addr. The second result is false
// when the cell is empty.
func Effective(s *Snapshot, o *Overlay, addr Address) (Assignment, bool) {
	if o != nil {
		if e, ok := o.Get(addr); ok {
			if e.Cleared {
				return Assignment{}, false
			}
			return e.Assignment, true
		}
	}
	return s.Assignment(addr)
}
