package slotgrid

import (
	"errors"
	"fmt"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Drag errors.
var (
	ErrNothingToDrag   = errors.New("cell is empty, nothing to drag")
	ErrNotDragging     = errors.New("no drag in progress")
	ErrAlreadyDragging = errors.New("a drag is already in progress")
	ErrEmptyResource   = errors.New("resource carries no teacher, course or room")
)

// Resource is a palette entry: a teacher, a course, or a pairing of them,
// optionally with its own room.
type Resource struct {
	Label   string
	Teacher *timetable.Ref
	Course  *timetable.Ref
	Room    *timetable.Ref
}

// Name returns the label, or a label derived from the refs.
func (r Resource) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return Assignment{Teacher: r.Teacher, Course: r.Course, Room: r.Room}.Label()
}

// Source is where a drag starts: PaletteSource or CellSource.
type Source interface{ source() }

// PaletteSource drags an unplaced resource.
type PaletteSource struct {
	Resource Resource
}

// CellSource drags the assignment of an occupied cell.
type CellSource struct {
	Address Address
}

func (PaletteSource) source() {}
func (CellSource) source()    {}

// Target is where a drag ends: CellTarget or PaletteTarget.
type Target interface{ target() }

// CellTarget drops onto a grid address.
type CellTarget struct {
	Address Address
}

// PaletteTarget drops back onto the palette, which unassigns a dragged cell.
type PaletteTarget struct{}

func (CellTarget) target()    {}
func (PaletteTarget) target() {}

// Lookup returns the effective assignment at an address.
type Lookup func(Address) (Assignment, bool)

// DragReconciler turns a drag gesture into an overlay mutation. It never
// writes anything itself; the caller applies the returned Mutation.
type DragReconciler struct {
	lookup Lookup
	active Source
}

// NewDragReconciler reads cell contents through lookup.
func NewDragReconciler(lookup Lookup) *DragReconciler {
	return &DragReconciler{lookup: lookup}
}

// Dragging reports whether a drag is in progress.
func (d *DragReconciler) Dragging() bool {
	return d.active != nil
}

// Active returns the source of the drag in progress, or nil.
func (d *DragReconciler) Active() Source {
	return d.active
}

// Start begins a drag. Empty cells cannot be dragged.
func (d *DragReconciler) Start(src Source) error {
	if d.active != nil {
		return ErrAlreadyDragging
	}
	switch s := src.(type) {
	case CellSource:
		if err := s.Address.Validate(); err != nil {
			return err
		}
		if _, ok := d.lookup(s.Address); !ok {
			return fmt.Errorf("%w: %s", ErrNothingToDrag, s.Address)
		}
	case PaletteSource:
		r := s.Resource
		if r.Teacher == nil && r.Course == nil && r.Room == nil {
			return ErrEmptyResource
		}
	default:
		return fmt.Errorf("unsupported drag source %T", src)
	}
	d.active = src
	return nil
}

// Cancel abandons the drag in progress.
func (d *DragReconciler) Cancel() {
	d.active = nil
}

// Drop ends the drag on target and returns the mutation it implies. The drag
// is over after Drop whatever the outcome. An empty Mutation is a no-op.
func (d *DragReconciler) Drop(target Target) (Mutation, error) {
	src := d.active
	d.active = nil
	if src == nil {
		return Mutation{}, ErrNotDragging
	}
	return Reconcile(src, target, d.lookup)
}

// Reconcile computes the mutation for dropping src onto target.
//
//   - palette → cell: the target gets the resource's teacher and course. Its
//     room and description survive unless the resource brings a room.
//   - cell → other cell: a move. The source is cleared and the target
//     overwritten in the same mutation.
//   - cell → same cell: no-op.
//   - cell → palette: the source is cleared.
//   - palette → palette: no-op.
func Reconcile(src Source, target Target, lookup Lookup) (Mutation, error) {
	switch s := src.(type) {
	case PaletteSource:
		t, ok := target.(CellTarget)
		if !ok {
			return Mutation{}, nil
		}
		if err := t.Address.Validate(); err != nil {
			return Mutation{}, err
		}
		a := Assignment{
			Teacher: cloneRef(s.Resource.Teacher),
			Course:  cloneRef(s.Resource.Course),
		}
		if existing, ok := lookup(t.Address); ok {
			a.Room = existing.Room
			a.Description = existing.Description
		}
		if s.Resource.Room != nil {
			a.Room = cloneRef(s.Resource.Room)
		}
		return Mutation{
			Label: fmt.Sprintf("Assign %s → %s", s.Resource.Name(), t.Address),
			Ops:   []Op{SetOp(t.Address, a)},
		}, nil

	case CellSource:
		moving, ok := lookup(s.Address)
		if !ok {
			return Mutation{}, fmt.Errorf("%w: %s", ErrNothingToDrag, s.Address)
		}
		switch t := target.(type) {
		case PaletteTarget:
			return Mutation{
				Label: "Unassign " + s.Address.String(),
				Ops:   []Op{ClearOp(s.Address)},
			}, nil
		case CellTarget:
			if t.Address == s.Address {
				return Mutation{}, nil
			}
			if err := t.Address.Validate(); err != nil {
				return Mutation{}, err
			}
			return Mutation{
				Label: fmt.Sprintf("Move %s → %s", s.Address, t.Address),
				Ops:   []Op{ClearOp(s.Address), SetOp(t.Address, moving)},
			}, nil
		}
	}
	return Mutation{}, fmt.Errorf("unsupported drop %T → %T", src, target)
}
