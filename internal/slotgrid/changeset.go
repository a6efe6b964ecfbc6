package slotgrid

import (
	"maps"
	"slices"
)

// ChangeKind says how a changed address must be persisted.
type ChangeKind int

const (
	ChangeCreate ChangeKind = iota + 1
	ChangeUpdate
	ChangeDelete
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreate:
		return "create"
	case ChangeUpdate:
		return "update"
	case ChangeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Change is one address whose effective content differs from the snapshot.
type Change struct {
	Address Address
	Kind    ChangeKind
	SlotID  int64       // persisted id, 0 for creates
	Before  *Assignment // nil when the snapshot is empty
	After   *Assignment // nil when the effective cell is empty
}

// ChangeSet lists changes. Diff orders them by day then period id; Sort
// puts them in grid column order.
type ChangeSet []Change

// Sort orders cs by day, then by the column of each period in c. A nil
// catalog leaves cs as it is.
func (cs ChangeSet) Sort(c *PeriodCatalog) ChangeSet {
	if c == nil {
		return cs
	}
	slices.SortStableFunc(cs, func(a, b Change) int {
		return c.Compare(a.Address, b.Address)
	})
	return cs
}

// Empty reports whether nothing needs saving.
func (cs ChangeSet) Empty() bool {
	return len(cs) == 0
}

// Get returns the change at addr, if any.
func (cs ChangeSet) Get(addr Address) (Change, bool) {
	for _, c := range cs {
		if c.Address == addr {
			return c, true
		}
	}
	return Change{}, false
}

// Count returns the number of changes of kind k.
func (cs ChangeSet) Count(k ChangeKind) int {
	n := 0
	for _, c := range cs {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Diff compares the overlay against the snapshot. An address is changed when
// exactly one side has content, or both do and the teacher, course or room
// differ. Only overlay addresses can differ, so the result does not depend on
// map iteration order.
func Diff(s *Snapshot, o *Overlay) ChangeSet {
	if o == nil || o.Len() == 0 {
		return nil
	}
	addrs := slices.Collect(maps.Keys(o.entries))
	slices.SortFunc(addrs, compareAddress)

	var cs ChangeSet
	for _, addr := range addrs {
		before, had := s.Assignment(addr)
		after, has := Effective(s, o, addr)

		var kind ChangeKind
		switch {
		case !had && has:
			kind = ChangeCreate
		case had && !has:
			kind = ChangeDelete
		case had && has && !before.SameContent(after):
			kind = ChangeUpdate
		default:
			continue
		}

		c := Change{Address: addr, Kind: kind, SlotID: s.SlotID(addr)}
		if had {
			b := before
			c.Before = &b
		}
		if has {
			a := after
			c.After = &a
		}
		cs = append(cs, c)
	}
	return cs
}
