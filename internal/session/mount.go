package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

// MountPlan describes the fetches needed to mount a class.
type MountPlan struct {
	Ticket        Ticket
	NeedCatalog   bool
	NeedResources bool
}

// MountOutcome carries what Loader.Execute fetched.
type MountOutcome struct {
	Ticket    Ticket
	Periods   []timetable.Period
	Slots     []timetable.Slot
	Resources *timetable.Resources
	Err       error
}

// BeginMount switches the session to classID. Pending edits, undo history
// and in-flight flags of the previous class are dropped; responses still in
// flight for it will be stale.
func (s *Session) BeginMount(classID int64) (*MountPlan, error) {
	if classID <= 0 {
		return nil, fmt.Errorf("%w: class id %d", ErrNoClass, classID)
	}
	s.epoch++
	s.classID = classID
	s.snapshot = nil
	s.overlay = slotgrid.NewOverlay()
	s.history = nil
	s.drag.Cancel()
	s.loading = true
	s.saving = false
	s.regenerating = false

	s.log.Debug("mount", zap.Int64("class_id", classID), zap.Uint64("epoch", s.epoch))

	return &MountPlan{
		Ticket:        s.Ticket(),
		NeedCatalog:   s.catalog == nil,
		NeedResources: s.resources == nil,
	}, nil
}

// ApplyMount installs the fetched catalog and snapshot.
func (s *Session) ApplyMount(out *MountOutcome) error {
	if !s.current(out.Ticket) {
		return timetable.ErrStaleResponse
	}
	s.loading = false
	if out.Err != nil {
		return out.Err
	}

	if out.Periods != nil {
		catalog, err := slotgrid.NewPeriodCatalog(out.Periods)
		if err != nil {
			return fmt.Errorf("building period catalog: %w", err)
		}
		s.catalog = catalog
	}
	if s.catalog == nil {
		return fmt.Errorf("mount class %d: %w", s.classID, ErrNotLoaded)
	}
	if out.Resources != nil {
		s.resources = out.Resources
	}

	snap, err := slotgrid.NewSnapshot(s.classID, out.Slots)
	if err != nil {
		return fmt.Errorf("building snapshot: %w", err)
	}
	s.snapshot = snap
	return nil
}

// Loader fetches what a mount needs.
type Loader struct {
	backend timetable.Backend
	log     *zap.Logger
}

// NewLoader creates a loader over backend.
func NewLoader(backend timetable.Backend, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{backend: backend, log: log}
}

// Execute runs the fetches of plan concurrently. It never touches a Session.
func (l *Loader) Execute(ctx context.Context, plan *MountPlan) *MountOutcome {
	out := &MountOutcome{Ticket: plan.Ticket}
	classID := plan.Ticket.ClassID

	g, gctx := errgroup.WithContext(ctx)
	if plan.NeedCatalog {
		g.Go(func() error {
			periods, err := l.backend.ListPeriods(gctx)
			if err != nil {
				return fmt.Errorf("listing periods: %w", err)
			}
			out.Periods = periods
			return nil
		})
	}
	g.Go(func() error {
		slots, err := l.backend.GetTimetable(gctx, classID)
		if err != nil {
			return fmt.Errorf("fetching timetable of class %d: %w", classID, err)
		}
		out.Slots = slots
		return nil
	})
	if lister, ok := l.backend.(timetable.ResourceLister); ok && plan.NeedResources {
		g.Go(func() error {
			res, err := lister.ListResources(gctx)
			if err != nil {
				// The palette is optional; the grid still works without it.
				l.log.Warn("listing resources failed", zap.Error(err))
				return nil
			}
			out.Resources = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		out.Err = err
		l.log.Error("mount failed", zap.Int64("class_id", classID), zap.Error(err))
		return out
	}
	l.log.Info("class loaded",
		zap.Int64("class_id", classID),
		zap.Int("slots", len(out.Slots)),
		zap.Int("periods", len(out.Periods)),
	)
	return out
}

// Mount runs a full mount synchronously.
func (l *Loader) Mount(ctx context.Context, s *Session, classID int64) error {
	plan, err := s.BeginMount(classID)
	if err != nil {
		return err
	}
	err = s.ApplyMount(l.Execute(ctx, plan))
	if errors.Is(err, timetable.ErrStaleResponse) {
		return nil
	}
	return err
}
