package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

func (a *App) assignCmd() *cobra.Command {
	var (
		courseID  int64
		teacherID int64
		roomID    int64
		note      string
		periods   int
	)

	cmd := &cobra.Command{
		Use:   "assign <class> <day> <period>",
		Short: "Place a lesson on a class timetable",
		Long: `Place a lesson on one or more consecutive periods and save.

Flags that are not given keep what the cell already holds, so a room can be
changed on its own. A note is only stored along with a course, teacher or
room change.

Example:
  pupitre assign 1 monday 3 --course=2 --teacher=2 --room=3 --periods=2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			classID, err := ParseClassID(args[0])
			if err != nil {
				return err
			}
			if periods < 1 {
				return errors.New("--periods must be at least 1")
			}
			s, err := a.mount(cmd.Context(), classID)
			if err != nil {
				return err
			}
			start, err := ParseAddress(s.Catalog(), args[1], args[2])
			if err != nil {
				return err
			}

			addrs, err := consecutive(s.Catalog(), start, periods)
			if err != nil {
				return err
			}
			ops := make([]slotgrid.Op, 0, len(addrs))
			for _, addr := range addrs {
				current, _ := s.Effective(addr)
				if courseID != 0 {
					current.Course = &timetable.Ref{ID: courseID}
				}
				if teacherID != 0 {
					current.Teacher = &timetable.Ref{ID: teacherID}
				}
				if roomID != 0 {
					current.Room = &timetable.Ref{ID: roomID}
				}
				if cmd.Flags().Changed("note") {
					current.Description = note
				}
				if current.Course == nil && current.Teacher == nil && current.Room == nil {
					return fmt.Errorf("%s is empty: give at least --course, --teacher or --room", addr)
				}
				ops = append(ops, slotgrid.SetOp(addr, current))
			}
			if err := s.Apply(slotgrid.Mutation{Label: "assign", Ops: ops}); err != nil {
				return err
			}
			if !s.HasChanges() {
				PrintResult(cmd.OutOrStdout(), "save", session.Result{NoOp: true})
				return nil
			}

			if err := a.save(cmd, s); err != nil {
				return err
			}
			if lesson, ok := s.Effective(start); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s: %s\n", describeAddress(s, start), formatLesson(lesson.Label()))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&courseID, "course", 0, "Course id")
	cmd.Flags().Int64Var(&teacherID, "teacher", 0, "Teacher id")
	cmd.Flags().Int64Var(&roomID, "room", 0, "Room id")
	cmd.Flags().StringVar(&note, "note", "", "Lesson note")
	cmd.Flags().IntVar(&periods, "periods", 1, "Number of consecutive periods")
	return cmd
}

func (a *App) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <class> <day> <period> <to-day> <to-period>",
		Short: "Move a lesson to another cell",
		Long: `Move the lesson in one cell to another and save. A lesson already in
the target cell is replaced, as a drag in the editor would.

Example:
  pupitre move 1 monday 3 friday 1`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			classID, err := ParseClassID(args[0])
			if err != nil {
				return err
			}
			s, err := a.mount(cmd.Context(), classID)
			if err != nil {
				return err
			}
			from, err := ParseAddress(s.Catalog(), args[1], args[2])
			if err != nil {
				return err
			}
			to, err := ParseAddress(s.Catalog(), args[3], args[4])
			if err != nil {
				return err
			}

			if err := s.Move(from, to); err != nil {
				if errors.Is(err, slotgrid.ErrNothingToDrag) {
					return fmt.Errorf("%s is free, nothing to move", describeAddress(s, from))
				}
				return err
			}
			if err := a.save(cmd, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", describeAddress(s, from), describeAddress(s, to))
			return nil
		},
	}
}

func (a *App) clearCmd() *cobra.Command {
	var block bool

	cmd := &cobra.Command{
		Use:   "clear <class> <day> <period>",
		Short: "Free a cell of a class timetable",
		Long: `Remove the lesson from a cell and save. With --block every period of
the lesson block is freed.

Example:
  pupitre clear 1 monday 2 --block`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			classID, err := ParseClassID(args[0])
			if err != nil {
				return err
			}
			s, err := a.mount(cmd.Context(), classID)
			if err != nil {
				return err
			}
			addr, err := ParseAddress(s.Catalog(), args[1], args[2])
			if err != nil {
				return err
			}

			targets := []slotgrid.Address{addr}
			if block {
				grid, err := s.Display()
				if err != nil {
					return err
				}
				if anchor, ok := grid.AnchorOf(addr); ok {
					targets = anchor.Covered
				}
			}
			ops := make([]slotgrid.Op, 0, len(targets))
			for _, t := range targets {
				ops = append(ops, slotgrid.ClearOp(t))
			}
			if err := s.Apply(slotgrid.Mutation{Label: "clear", Ops: ops}); err != nil {
				return err
			}

			if !s.HasChanges() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already free\n", describeAddress(s, addr))
				return nil
			}
			if err := a.save(cmd, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", len(targets), pluralize(len(targets), "period", "periods"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&block, "block", false, "Clear the whole lesson block")
	return cmd
}

func (a *App) regenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <class>",
		Short: "Let the backend rebuild a class timetable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classID, err := ParseClassID(args[0])
			if err != nil {
				return err
			}
			s, err := a.mount(cmd.Context(), classID)
			if err != nil {
				return err
			}
			backend, err := a.openBackend()
			if err != nil {
				return err
			}

			res, err := session.NewRegenerateCoordinator(backend, a.log.Named("regenerate")).Regenerate(cmd.Context(), s)
			if err != nil {
				return fmt.Errorf("regenerating: %s", timetable.UserMessage(err))
			}
			PrintResult(cmd.OutOrStdout(), "regenerate", res)
			return nil
		},
	}
}

// save submits the pending edits of s with the configured save mode.
func (a *App) save(cmd *cobra.Command, s *session.Session) error {
	backend, err := a.openBackend()
	if err != nil {
		return err
	}
	res, err := session.NewSaveCoordinator(backend, a.saveMode(), a.log.Named("save")).Save(cmd.Context(), s)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), formatWarn(timetable.UserMessage(err)))
		return fmt.Errorf("saving class %d: %w", s.ClassID(), err)
	}
	if res.Pending > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), formatWarn(fmt.Sprintf("%d edits were not confirmed", res.Pending)))
	}
	return nil
}

// consecutive returns n addresses starting at start on the same day.
func consecutive(catalog *slotgrid.PeriodCatalog, start slotgrid.Address, n int) ([]slotgrid.Address, error) {
	out := []slotgrid.Address{start}
	id := start.PeriodID
	for len(out) < n {
		next, ok := catalog.Next(id)
		if !ok {
			return nil, fmt.Errorf("only %d periods left on %s from %s", len(out), start.Day, start)
		}
		id = next.ID
		out = append(out, slotgrid.At(start.Day, id))
	}
	return out, nil
}

// describeAddress renders an address as "Mon P2".
func describeAddress(s *session.Session, addr slotgrid.Address) string {
	if c := s.Catalog(); c != nil {
		if p, ok := c.Lookup(addr.PeriodID); ok {
			return fmt.Sprintf("%s P%d", addr.Day.Short(), p.Index)
		}
	}
	return addr.String()
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
