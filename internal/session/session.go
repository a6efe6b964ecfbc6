// Package session owns one editing session over a class timetable: the
// mounted snapshot, the overlay of pending edits, undo history and the
// in-flight state of the network operations.
//
// A Session has a single writer. Network work is split in three steps so a
// UI event loop can run it off-loop:
//
//	plan, err := s.BeginSave()        // on the loop
//	out := saver.Execute(ctx, plan)   // anywhere, touches only the backend
//	res, err := s.ApplySave(out)      // back on the loop
//
// Responses whose ticket no longer matches the mounted class are dropped with
// timetable.ErrStaleResponse.
package session

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Session errors.
var (
	ErrNoClass           = errors.New("no class mounted")
	ErrNotLoaded         = errors.New("timetable not loaded yet")
	ErrOperationInFlight = errors.New("operation already in progress")
	ErrNoChanges         = errors.New("nothing to save")
	ErrNothingToUndo     = errors.New("nothing to undo")
)

const defaultMaxHistory = 50

// Ticket tags an in-flight request with the mount it was issued for.
type Ticket struct {
	ClassID int64
	Epoch   uint64
}

// HistoryEntry is one undoable overlay mutation.
type HistoryEntry struct {
	Label   string
	Overlay *slotgrid.Overlay // overlay before the mutation
}

// Session is the editing state of one class timetable.
type Session struct {
	log  *zap.Logger
	days []timetable.DayOfWeek

	classID int64
	epoch   uint64

	catalog   *slotgrid.PeriodCatalog
	snapshot  *slotgrid.Snapshot
	overlay   *slotgrid.Overlay
	resources *timetable.Resources
	drag      *slotgrid.DragReconciler

	history    []HistoryEntry
	maxHistory int

	loading      bool
	saving       bool
	regenerating bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithDays restricts the grid rows. Defaults to MONDAY through SATURDAY.
func WithDays(days []timetable.DayOfWeek) Option {
	return func(s *Session) {
		if len(days) > 0 {
			s.days = slices.Clone(days)
		}
	}
}

// WithMaxHistory bounds the undo stack.
func WithMaxHistory(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// New creates a session with nothing mounted.
func New(opts ...Option) *Session {
	s := &Session{
		log:        zap.NewNop(),
		days:       timetable.GridDays(),
		overlay:    slotgrid.NewOverlay(),
		maxHistory: defaultMaxHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.drag = slotgrid.NewDragReconciler(s.Effective)
	return s
}

// ClassID returns the mounted class, or 0.
func (s *Session) ClassID() int64 { return s.classID }

// Ticket returns the tag of the current mount.
func (s *Session) Ticket() Ticket { return Ticket{ClassID: s.classID, Epoch: s.epoch} }

// Days returns the grid rows.
func (s *Session) Days() []timetable.DayOfWeek { return slices.Clone(s.days) }

// Catalog returns the period catalog, or nil before the first load.
func (s *Session) Catalog() *slotgrid.PeriodCatalog { return s.catalog }

// Snapshot returns the last fetched snapshot, or nil before the first load.
func (s *Session) Snapshot() *slotgrid.Snapshot { return s.snapshot }

// Resources returns the palette resources, if the backend lists them.
func (s *Session) Resources() *timetable.Resources { return s.resources }

// Loaded reports whether the mounted class has a snapshot.
func (s *Session) Loaded() bool { return s.snapshot != nil && s.catalog != nil }

// Loading reports whether a mount is in flight.
func (s *Session) Loading() bool { return s.loading }

// Saving reports whether a save is in flight.
func (s *Session) Saving() bool { return s.saving }

// Regenerating reports whether a regenerate is in flight.
func (s *Session) Regenerating() bool { return s.regenerating }

// Pending returns the number of overlay entries.
func (s *Session) Pending() int { return s.overlay.Len() }

// Overlay returns a copy of the pending edits.
func (s *Session) Overlay() *slotgrid.Overlay { return s.overlay.Clone() }

// Effective returns the merged assignment at addr.
func (s *Session) Effective(addr slotgrid.Address) (slotgrid.Assignment, bool) {
	return slotgrid.Effective(s.snapshot, s.overlay, addr)
}

// Changes returns the diff between the overlay and the snapshot, ordered by
// day and then by grid column.
func (s *Session) Changes() slotgrid.ChangeSet {
	return slotgrid.Diff(s.snapshot, s.overlay).Sort(s.catalog)
}

// HasChanges reports whether anything needs saving.
func (s *Session) HasChanges() bool {
	return !s.Changes().Empty()
}

// CanSave reports whether Save would submit anything.
func (s *Session) CanSave() bool {
	return s.Loaded() && !s.busy() && s.HasChanges()
}

// CanRegenerate reports whether Regenerate may start.
func (s *Session) CanRegenerate() bool {
	return s.Loaded() && !s.busy()
}

// busy reports whether a save or regenerate is in flight.
func (s *Session) busy() bool {
	return s.saving || s.regenerating
}

// Display projects snapshot ⊕ overlay onto the catalog.
func (s *Session) Display() (*slotgrid.DisplayGrid, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	return slotgrid.Project(s.snapshot, s.overlay, s.catalog, s.days)
}

// ============================================================================
// Edits
// ============================================================================

// Apply writes a mutation to the overlay and records it for undo. Every op
// must target a catalog period on a grid day; otherwise nothing is written.
func (s *Session) Apply(m slotgrid.Mutation) error {
	if !s.Loaded() {
		return ErrNotLoaded
	}
	if m.Empty() {
		return nil
	}
	for _, op := range m.Ops {
		if err := s.checkAddress(op.Address); err != nil {
			return err
		}
	}

	before := s.overlay.Clone()
	if err := s.overlay.Apply(m); err != nil {
		return err
	}
	s.pushHistory(m.Label, before)

	s.log.Debug("overlay mutation",
		zap.Int64("class_id", s.classID),
		zap.String("label", m.Label),
		zap.Int("ops", len(m.Ops)),
		zap.Int("pending", s.overlay.Len()),
	)
	return nil
}

// Assign replaces the assignment at addr.
func (s *Session) Assign(addr slotgrid.Address, a slotgrid.Assignment) error {
	return s.Apply(slotgrid.Mutation{
		Label: "Assign " + addr.String(),
		Ops:   []slotgrid.Op{slotgrid.SetOp(addr, a)},
	})
}

// Clear empties the cell at addr.
func (s *Session) Clear(addr slotgrid.Address) error {
	if _, ok := s.Effective(addr); !ok {
		return nil
	}
	return s.Apply(slotgrid.Mutation{
		Label: "Clear " + addr.String(),
		Ops:   []slotgrid.Op{slotgrid.ClearOp(addr)},
	})
}

// Move moves the assignment at from to to, as a cell drag would.
func (s *Session) Move(from, to slotgrid.Address) error {
	if err := s.StartDrag(slotgrid.CellSource{Address: from}); err != nil {
		return err
	}
	return s.Drop(slotgrid.CellTarget{Address: to})
}

// StartDrag begins a drag gesture.
func (s *Session) StartDrag(src slotgrid.Source) error {
	if !s.Loaded() {
		return ErrNotLoaded
	}
	if c, ok := src.(slotgrid.CellSource); ok {
		if err := s.checkAddress(c.Address); err != nil {
			return err
		}
	}
	return s.drag.Start(src)
}

// Dragging returns the active drag source, or nil.
func (s *Session) Dragging() slotgrid.Source {
	return s.drag.Active()
}

// CancelDrag abandons the active drag.
func (s *Session) CancelDrag() {
	s.drag.Cancel()
}

// Drop ends the active drag on target and applies the resulting mutation.
func (s *Session) Drop(target slotgrid.Target) error {
	m, err := s.drag.Drop(target)
	if err != nil {
		return err
	}
	return s.Apply(m)
}

// Undo restores the overlay as it was before the last mutation.
func (s *Session) Undo() (string, error) {
	if len(s.history) == 0 {
		return "", ErrNothingToUndo
	}
	entry := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.overlay = entry.Overlay
	return entry.Label, nil
}

// UndoCount returns the number of undoable mutations.
func (s *Session) UndoCount() int {
	return len(s.history)
}

// Discard drops every pending edit.
func (s *Session) Discard() {
	s.overlay = slotgrid.NewOverlay()
	s.history = nil
	s.drag.Cancel()
}

func (s *Session) pushHistory(label string, before *slotgrid.Overlay) {
	if len(s.history) >= s.maxHistory {
		s.history = s.history[1:]
	}
	s.history = append(s.history, HistoryEntry{Label: label, Overlay: before})
}

func (s *Session) checkAddress(addr slotgrid.Address) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if !slices.Contains(s.days, addr.Day) {
		return fmt.Errorf("%w: %s", slotgrid.ErrDayNotInGrid, addr)
	}
	if !s.catalog.Contains(addr.PeriodID) {
		return fmt.Errorf("%w: %s", slotgrid.ErrUnknownPeriod, addr)
	}
	return nil
}

// current reports whether t still matches the mounted class.
func (s *Session) current(t Ticket) bool {
	return t == s.Ticket()
}

// replaceSnapshot swaps in a fresh snapshot and drops overlay entries it
// already reflects. Undo history is reset since it was recorded against the
// previous snapshot.
func (s *Session) replaceSnapshot(slots []timetable.Slot) ([]slotgrid.Address, error) {
	fresh, err := slotgrid.NewSnapshot(s.classID, slots)
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}
	s.snapshot = fresh
	dropped := s.overlay.Reconcile(fresh)
	s.history = nil
	return dropped, nil
}
