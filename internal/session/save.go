package session

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

// SaveMode selects how a save is submitted.
type SaveMode string

const (
	// SaveModeBulk replaces the whole class timetable in one call.
	SaveModeBulk SaveMode = "bulk"
	// SaveModePerSlot creates, updates and deletes slot by slot.
	SaveModePerSlot SaveMode = "per_slot"
)

// ParseSaveMode parses "bulk" or "per_slot". Empty means bulk.
func ParseSaveMode(s string) (SaveMode, error) {
	switch SaveMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SaveModeBulk:
		return SaveModeBulk, nil
	case SaveModePerSlot, "per-slot", "perslot":
		return SaveModePerSlot, nil
	default:
		return "", fmt.Errorf("invalid save mode %q (expected bulk or per_slot)", s)
	}
}

// PartialSaveError lists the addresses a per-slot save could not persist.
// Every other change was confirmed.
type PartialSaveError struct {
	Failed map[slotgrid.Address]error
	// compare orders Addresses; day then period id when nil.
	compare func(a, b slotgrid.Address) int
}

func (e *PartialSaveError) Error() string {
	addrs := e.Addresses()
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, fmt.Sprintf("%s: %v", a, e.Failed[a]))
	}
	return fmt.Sprintf("%d slot(s) not saved: %s", len(addrs), strings.Join(parts, "; "))
}

// Unwrap exposes the per-slot errors to errors.Is and errors.As.
func (e *PartialSaveError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, a := range e.Addresses() {
		out = append(out, e.Failed[a])
	}
	return out
}

// Addresses returns the failed addresses by day, then by grid column.
func (e *PartialSaveError) Addresses() []slotgrid.Address {
	out := make([]slotgrid.Address, 0, len(e.Failed))
	for a := range e.Failed {
		out = append(out, a)
	}
	compare := e.compare
	if compare == nil {
		compare = func(a, b slotgrid.Address) int {
			if c := cmp.Compare(a.Day.Order(), b.Day.Order()); c != 0 {
				return c
			}
			return cmp.Compare(a.PeriodID, b.PeriodID)
		}
	}
	slices.SortFunc(out, compare)
	return out
}

// SavePlan is everything needed to submit a save off the event loop.
type SavePlan struct {
	Ticket  Ticket
	ClassID int64
	// Payload holds one entry per non-empty effective address.
	Payload []timetable.SlotPayload
	Changes slotgrid.ChangeSet
	byAddr  map[slotgrid.Address]timetable.SlotPayload
}

// SaveOutcome is the result of SaveCoordinator.Execute.
type SaveOutcome struct {
	Ticket Ticket
	Mode   SaveMode
	Slots  []timetable.Slot // fresh timetable fetched after the submit
	Failed map[slotgrid.Address]error
	Err    error
}

// Result summarizes a finished save or regenerate.
type Result struct {
	NoOp       bool
	Reconciled []slotgrid.Address // overlay entries confirmed and dropped
	Pending    int                // overlay entries still pending
	Slots      int                // persisted slots after the refresh
}

// BeginSave marks a save in flight and builds its plan. It returns
// ErrNoChanges when the change set is empty, and a *timetable.ValidationError
// when an entry cannot be sent.
func (s *Session) BeginSave() (*SavePlan, error) {
	if s.classID == 0 {
		return nil, ErrNoClass
	}
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	if s.saving || s.regenerating {
		return nil, fmt.Errorf("save: %w", ErrOperationInFlight)
	}
	changes := s.Changes()
	if changes.Empty() {
		return nil, ErrNoChanges
	}

	plan, err := s.buildPlan(changes)
	if err != nil {
		return nil, err
	}
	s.saving = true
	return plan, nil
}

func (s *Session) buildPlan(changes slotgrid.ChangeSet) (*SavePlan, error) {
	addrs := append(s.snapshot.Addresses(), s.overlay.Addresses()...)
	slices.SortFunc(addrs, s.catalog.Compare)
	addrs = slices.Compact(addrs)

	plan := &SavePlan{
		Ticket:  s.Ticket(),
		ClassID: s.classID,
		Changes: changes,
		byAddr:  make(map[slotgrid.Address]timetable.SlotPayload, len(addrs)),
	}
	for _, addr := range addrs {
		a, ok := s.Effective(addr)
		if !ok {
			continue
		}
		p := a.Payload(addr, s.classID, s.snapshot.SlotID(addr))
		if err := p.Validate(); err != nil {
			return nil, err
		}
		plan.Payload = append(plan.Payload, p)
		plan.byAddr[addr] = p
	}
	return plan, nil
}

// ApplySave installs the fresh snapshot and drops every overlay entry it
// confirms. On failure the overlay and snapshot are left untouched.
func (s *Session) ApplySave(out *SaveOutcome) (Result, error) {
	if !s.current(out.Ticket) {
		return Result{}, timetable.ErrStaleResponse
	}
	s.saving = false
	if out.Err != nil {
		return Result{}, out.Err
	}

	dropped, err := s.replaceSnapshot(out.Slots)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Reconciled: dropped,
		Pending:    s.overlay.Len(),
		Slots:      s.snapshot.Len(),
	}
	if len(out.Failed) > 0 {
		return res, &PartialSaveError{Failed: out.Failed, compare: s.catalog.Compare}
	}
	return res, nil
}

// SaveCoordinator submits save plans to a backend.
type SaveCoordinator struct {
	backend timetable.Backend
	mode    SaveMode
	log     *zap.Logger
}

// NewSaveCoordinator creates a coordinator. An empty mode means bulk.
func NewSaveCoordinator(backend timetable.Backend, mode SaveMode, log *zap.Logger) *SaveCoordinator {
	if mode == "" {
		mode = SaveModeBulk
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SaveCoordinator{backend: backend, mode: mode, log: log}
}

// Mode returns the submit mode.
func (c *SaveCoordinator) Mode() SaveMode {
	return c.mode
}

// Execute submits the plan and, once the submit has returned, fetches the
// class timetable again. It never touches a Session.
func (c *SaveCoordinator) Execute(ctx context.Context, plan *SavePlan) *SaveOutcome {
	out := &SaveOutcome{Ticket: plan.Ticket, Mode: c.mode}
	log := c.log.With(zap.Int64("class_id", plan.ClassID), zap.String("mode", string(c.mode)))

	switch c.mode {
	case SaveModePerSlot:
		out.Failed = c.submitPerSlot(ctx, plan, log)
		if len(out.Failed) == len(plan.Changes) {
			// Nothing was confirmed; report the first failure as the cause.
			out.Err = out.Failed[plan.Changes[0].Address]
			return out
		}
	default:
		if _, err := c.backend.ReplaceSlots(ctx, plan.ClassID, plan.Payload); err != nil {
			log.Warn("save rejected", zap.Int("slots", len(plan.Payload)), zap.Error(err))
			out.Err = fmt.Errorf("saving timetable: %w", err)
			return out
		}
	}

	slots, err := c.backend.GetTimetable(ctx, plan.ClassID)
	if err != nil {
		log.Warn("refresh after save failed", zap.Error(err))
		out.Err = fmt.Errorf("refreshing timetable after save: %w", err)
		return out
	}
	out.Slots = slots

	log.Info("timetable saved",
		zap.Int("changes", len(plan.Changes)),
		zap.Int("failed", len(out.Failed)),
		zap.Int("slots", len(slots)),
	)
	return out
}

func (c *SaveCoordinator) submitPerSlot(ctx context.Context, plan *SavePlan, log *zap.Logger) map[slotgrid.Address]error {
	failed := make(map[slotgrid.Address]error)
	for _, ch := range plan.Changes {
		var err error
		switch ch.Kind {
		case slotgrid.ChangeCreate:
			_, err = c.backend.CreateSlot(ctx, plan.byAddr[ch.Address])
		case slotgrid.ChangeUpdate:
			_, err = c.backend.UpdateSlot(ctx, ch.SlotID, plan.byAddr[ch.Address])
		case slotgrid.ChangeDelete:
			err = c.backend.DeleteSlot(ctx, ch.SlotID)
		}
		if err != nil {
			log.Warn("slot not saved",
				zap.Stringer("address", ch.Address),
				zap.Stringer("kind", ch.Kind),
				zap.Error(err),
			)
			failed[ch.Address] = fmt.Errorf("%s %s: %w", ch.Kind, ch.Address, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return failed
}

// Save runs a whole save synchronously: plan, submit, refresh, reconcile.
// An empty change set returns a NoOp result without any backend call.
func (c *SaveCoordinator) Save(ctx context.Context, s *Session) (Result, error) {
	plan, err := s.BeginSave()
	if errors.Is(err, ErrNoChanges) {
		return Result{NoOp: true, Pending: s.Pending()}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return s.ApplySave(c.Execute(ctx, plan))
}
