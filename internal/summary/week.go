// Package summary provides shared week summary utilities.
package summary

import (
	"cmp"
	"slices"

	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

// WeekSummary holds aggregated data for one displayed week.
type WeekSummary struct {
	Blocks      int // lessons, a multi-period block counts once
	Taught      int // periods with a lesson
	Free        int // periods without one
	PerDay      map[timetable.DayOfWeek]int
	Teachers    []TeacherLoad
	BusiestDay  timetable.DayOfWeek
	BusiestLoad int
}

// TeacherLoad is the number of periods a teacher holds in the week.
type TeacherLoad struct {
	Teacher timetable.Ref
	Periods int
}

// TotalPeriods returns taught plus free periods.
func (s *WeekSummary) TotalPeriods() int {
	return s.Taught + s.Free
}

// LoadPercent returns the share of periods with a lesson.
func (s *WeekSummary) LoadPercent() int {
	if s.TotalPeriods() == 0 {
		return 0
	}
	return (s.Taught * 100) / s.TotalPeriods()
}

// SummarizeWeek counts lessons, free periods and teacher load of grid.
// Teachers are ordered by load, then by name.
func SummarizeWeek(grid *slotgrid.DisplayGrid) *WeekSummary {
	s := &WeekSummary{PerDay: make(map[timetable.DayOfWeek]int)}
	loads := make(map[int64]*TeacherLoad)

	for _, day := range grid.Days() {
		load := 0
		for _, c := range grid.Row(day) {
			switch c := c.(type) {
			case slotgrid.AnchorCell:
				s.Blocks++
				s.Taught++
				load++
				if t := c.Assignment.Teacher; t != nil {
					tl, ok := loads[t.ID]
					if !ok {
						tl = &TeacherLoad{Teacher: *t}
						loads[t.ID] = tl
					}
					tl.Periods += c.Span
				}
			case slotgrid.AbsorbedCell:
				s.Taught++
				load++
			default:
				s.Free++
			}
		}
		s.PerDay[day] = load
		if load > s.BusiestLoad {
			s.BusiestLoad = load
			s.BusiestDay = day
		}
	}

	for _, tl := range loads {
		s.Teachers = append(s.Teachers, *tl)
	}
	slices.SortFunc(s.Teachers, func(a, b TeacherLoad) int {
		if c := cmp.Compare(b.Periods, a.Periods); c != 0 {
			return c
		}
		return cmp.Compare(timetable.RefLabel(&a.Teacher), timetable.RefLabel(&b.Teacher))
	})
	return s
}
