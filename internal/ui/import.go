package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/pupitre/internal/config"
	"github.com/javiermolinar/pupitre/internal/db"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

func (a *App) importCmd() *cobra.Command {
	var into int64

	cmd := &cobra.Command{
		Use:   "import <database_path> <class>",
		Short: "Import a class timetable from another database",
		Long: `Copy the timetable of a class from another pupitre database into the
configured backend, replacing what the target class holds.

Periods are matched by index and teachers, courses and rooms by name, so
both sides must use the same names.

Example:
  pupitre import /path/to/other.db 1 --into=3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			classID, err := ParseClassID(args[1])
			if err != nil {
				return err
			}
			if into == 0 {
				into = classID
			}

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			if a.config.Backend.Kind != config.BackendHTTP {
				destPath, err := resolvePath(a.config.Storage.DBPath)
				if err != nil {
					return err
				}
				if sourcePath == destPath {
					return fmt.Errorf("source database matches current database")
				}
			}

			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("source database does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking source database: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source database path is a directory: %s", sourcePath)
			}

			backend, err := a.openBackend()
			if err != nil {
				return err
			}
			count, err := importTimetable(cmd.Context(), backend, sourcePath, classID, into)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d lessons from %s\n", count, sourcePath)
			return nil
		},
	}

	cmd.Flags().Int64Var(&into, "into", 0, "Target class id (default: same id)")
	return cmd
}

// importTimetable replaces the timetable of class into on dest with the one
// of class from in the database at sourcePath.
func importTimetable(ctx context.Context, dest timetable.Backend, sourcePath string, from, into int64) (int, error) {
	source, err := db.New(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("opening source database: %w", err)
	}
	defer func() { _ = source.Close() }()

	slots, err := source.GetTimetable(ctx, from)
	if err != nil {
		return 0, fmt.Errorf("reading source timetable: %w", err)
	}

	lister, ok := dest.(timetable.ResourceLister)
	if !ok {
		return 0, fmt.Errorf("backend cannot list resources")
	}
	res, err := lister.ListResources(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing resources: %w", err)
	}
	periods, err := dest.ListPeriods(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing periods: %w", err)
	}

	periodByIndex := make(map[int]int64, len(periods))
	for _, p := range periods {
		periodByIndex[p.Index] = p.ID
	}
	teachers := byName(res.Teachers)
	courses := byName(res.Courses)
	rooms := byName(res.Rooms)

	payload := make([]timetable.SlotPayload, 0, len(slots))
	for _, s := range slots {
		periodID, ok := periodByIndex[s.Period.Index]
		if !ok {
			return 0, fmt.Errorf("no period P%d in the current catalog", s.Period.Index)
		}
		p := timetable.SlotPayload{
			DayOfWeek:  s.DayOfWeek,
			PeriodID:   periodID,
			ForClassID: into,
		}
		if p.TeacherID, err = matchRef(teachers, s.Teacher, "teacher"); err != nil {
			return 0, err
		}
		if p.ForCourseID, err = matchRef(courses, s.ForCourse, "course"); err != nil {
			return 0, err
		}
		if p.RoomID, err = matchRef(rooms, s.Room, "room"); err != nil {
			return 0, err
		}
		if s.Description != "" {
			desc := s.Description
			p.Description = &desc
		}
		if err := p.Validate(); err != nil {
			return 0, err
		}
		payload = append(payload, p)
	}

	saved, err := dest.ReplaceSlots(ctx, into, payload)
	if err != nil {
		return 0, fmt.Errorf("importing class %d: %w", into, err)
	}
	return len(saved), nil
}

func byName(refs []timetable.Ref) map[string]int64 {
	out := make(map[string]int64, len(refs))
	for _, r := range refs {
		out[strings.ToLower(r.Name)] = r.ID
	}
	return out
}

// matchRef resolves a source ref to the id of the same name on the target.
func matchRef(ids map[string]int64, r *timetable.Ref, kind string) (*int64, error) {
	if r == nil {
		return nil, nil
	}
	id, ok := ids[strings.ToLower(r.Name)]
	if !ok {
		return nil, fmt.Errorf("no %s named %q in the current database", kind, r.Name)
	}
	return &id, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
