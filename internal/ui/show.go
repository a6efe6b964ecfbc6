package ui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/summary"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

func (a *App) showCmd() *cobra.Command {
	var verbose bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "show <class>",
		Short: "Show the timetable of a class",
		Long: `Display the weekly timetable of a class, one line per lesson.

Consecutive periods with the same course and teacher are shown as one
block. Use 'pupitre' for the interactive editor.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				DisableColor()
			}
			classID, err := ParseClassID(args[0])
			if err != nil {
				return err
			}

			s, err := a.mount(cmd.Context(), classID)
			if err != nil {
				return err
			}
			grid, err := s.Display()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "=== %s ===\n\n", formatHeader(className(s)))
			PrintGrid(w, grid, PrintOpts{Verbose: verbose})

			week := summary.SummarizeWeek(grid)
			fmt.Fprintln(w)
			PrintStats(w, week, verbose)
			if week.TotalPeriods() > 0 {
				fmt.Fprintf(w, "Load: %s\n", LoadBar(week.Taught, week.TotalPeriods(), 20))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show lesson notes, full labels and teacher load")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

func (a *App) exportCmd() *cobra.Command {
	var toClipboard bool

	cmd := &cobra.Command{
		Use:   "export <class>",
		Short: "Print the timetable of a class as tab separated text",
		Long: `Print one tab separated line per lesson block:
day, period range, times, lesson and note.

Example:
  pupitre export 1 --copy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classID, err := ParseClassID(args[0])
			if err != nil {
				return err
			}
			s, err := a.mount(cmd.Context(), classID)
			if err != nil {
				return err
			}
			grid, err := s.Display()
			if err != nil {
				return err
			}

			text := grid.ExportText()
			if toClipboard {
				if err := clipboard.WriteAll(text); err != nil {
					return fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Copied %d lines to the clipboard\n", len(grid.ExportLines()))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&toClipboard, "copy", false, "Copy to the clipboard instead of printing")
	return cmd
}

func (a *App) periodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List the period catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			periods, err := backend.ListPeriods(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing periods: %w", err)
			}
			if len(periods) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No periods defined. Run 'pupitre seed' for demo data.")
				return nil
			}
			PrintPeriods(cmd.OutOrStdout(), periods)
			return nil
		},
	}
}

// mount loads classID into a fresh session.
func (a *App) mount(ctx context.Context, classID int64) (*session.Session, error) {
	backend, err := a.openBackend()
	if err != nil {
		return nil, err
	}

	days, err := a.config.Days()
	if err != nil {
		return nil, err
	}
	s := session.New(
		session.WithLogger(a.log.Named("session")),
		session.WithDays(days),
	)
	if err := session.NewLoader(backend, a.log.Named("loader")).Mount(ctx, s, classID); err != nil {
		return nil, fmt.Errorf("loading class %d: %w", classID, err)
	}
	return s, nil
}

// className returns the name of the mounted class, or "Class #id".
func className(s *session.Session) string {
	if res := s.Resources(); res != nil {
		for _, c := range res.Classes {
			if c.ID == s.ClassID() {
				return timetable.RefLabel(&c)
			}
		}
	}
	return fmt.Sprintf("Class #%d", s.ClassID())
}
