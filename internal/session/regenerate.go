package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// RegeneratePlan is a pending optimize request.
type RegeneratePlan struct {
	Ticket  Ticket
	ClassID int64
}

// RegenerateOutcome is the result of RegenerateCoordinator.Execute.
type RegenerateOutcome struct {
	Ticket Ticket
	Slots  []timetable.Slot
	Err    error
}

// BeginRegenerate marks a regenerate in flight. It is refused while a save
// or another regenerate is running, since each replaces the snapshot.
func (s *Session) BeginRegenerate() (*RegeneratePlan, error) {
	if s.classID == 0 {
		return nil, ErrNoClass
	}
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	if s.regenerating || s.saving {
		return nil, fmt.Errorf("regenerate: %w", ErrOperationInFlight)
	}
	s.regenerating = true
	return &RegeneratePlan{Ticket: s.Ticket(), ClassID: s.classID}, nil
}

// ApplyRegenerate installs the regenerated snapshot. Overlay entries that
// differ from it are kept as manual overrides on top of the new schedule.
func (s *Session) ApplyRegenerate(out *RegenerateOutcome) (Result, error) {
	if !s.current(out.Ticket) {
		return Result{}, timetable.ErrStaleResponse
	}
	s.regenerating = false
	if out.Err != nil {
		return Result{}, out.Err
	}
	dropped, err := s.replaceSnapshot(out.Slots)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Reconciled: dropped,
		Pending:    s.overlay.Len(),
		Slots:      s.snapshot.Len(),
	}, nil
}

// RegenerateCoordinator triggers the backend optimizer and reloads.
type RegenerateCoordinator struct {
	backend timetable.Backend
	log     *zap.Logger
}

// NewRegenerateCoordinator creates a coordinator over backend.
func NewRegenerateCoordinator(backend timetable.Backend, log *zap.Logger) *RegenerateCoordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegenerateCoordinator{backend: backend, log: log}
}

// Execute calls Optimize and then fetches the regenerated timetable. If
// Optimize fails nothing is fetched.
func (c *RegenerateCoordinator) Execute(ctx context.Context, plan *RegeneratePlan) *RegenerateOutcome {
	out := &RegenerateOutcome{Ticket: plan.Ticket}
	log := c.log.With(zap.Int64("class_id", plan.ClassID))

	if err := c.backend.Optimize(ctx, plan.ClassID); err != nil {
		log.Warn("optimize failed", zap.Error(err))
		out.Err = fmt.Errorf("optimizing timetable: %w", err)
		return out
	}
	slots, err := c.backend.GetTimetable(ctx, plan.ClassID)
	if err != nil {
		log.Warn("refresh after optimize failed", zap.Error(err))
		out.Err = fmt.Errorf("refreshing timetable after optimize: %w", err)
		return out
	}
	out.Slots = slots
	log.Info("timetable regenerated", zap.Int("slots", len(slots)))
	return out
}

// Regenerate runs optimize, refresh and reconcile synchronously.
func (c *RegenerateCoordinator) Regenerate(ctx context.Context, s *Session) (Result, error) {
	plan, err := s.BeginRegenerate()
	if err != nil {
		return Result{}, err
	}
	return s.ApplyRegenerate(c.Execute(ctx, plan))
}
