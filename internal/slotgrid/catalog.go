package slotgrid

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// PeriodCatalog is the ordered set of periods shared by every day of the week.
// Columns are ordered by Period.Index, never by id.
type PeriodCatalog struct {
	periods []timetable.Period
	pos     map[int64]int
}

// NewPeriodCatalog sorts the periods by index. Duplicate ids or indexes are
// rejected since they would make column order ambiguous.
func NewPeriodCatalog(periods []timetable.Period) (*PeriodCatalog, error) {
	sorted := slices.Clone(periods)
	slices.SortFunc(sorted, func(a, b timetable.Period) int {
		return cmp.Compare(a.Index, b.Index)
	})

	c := &PeriodCatalog{
		periods: sorted,
		pos:     make(map[int64]int, len(sorted)),
	}
	for i, p := range sorted {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("period %d: %w", p.ID, err)
		}
		if _, dup := c.pos[p.ID]; dup {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicatePeriod, p.ID)
		}
		if i > 0 && sorted[i-1].Index == p.Index {
			return nil, fmt.Errorf("%w: index %d used by periods %d and %d",
				ErrDuplicatePeriod, p.Index, sorted[i-1].ID, p.ID)
		}
		c.pos[p.ID] = i
	}
	return c, nil
}

// Len returns the number of periods.
func (c *PeriodCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.periods)
}

// Periods returns a copy of the periods in column order.
func (c *PeriodCatalog) Periods() []timetable.Period {
	if c == nil {
		return nil
	}
	return slices.Clone(c.periods)
}

// At returns the period in column position i.
func (c *PeriodCatalog) At(i int) timetable.Period {
	return c.periods[i]
}

// Lookup returns the period with the given id.
func (c *PeriodCatalog) Lookup(id int64) (timetable.Period, bool) {
	if c == nil {
		return timetable.Period{}, false
	}
	i, ok := c.pos[id]
	if !ok {
		return timetable.Period{}, false
	}
	return c.periods[i], true
}

// Contains reports whether id is a known period.
func (c *PeriodCatalog) Contains(id int64) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Position returns the column of the period, or -1 if unknown.
func (c *PeriodCatalog) Position(id int64) int {
	if c == nil {
		return -1
	}
	if i, ok := c.pos[id]; ok {
		return i
	}
	return -1
}

// Next returns the period in the following column, if any.
func (c *PeriodCatalog) Next(id int64) (timetable.Period, bool) {
	i := c.Position(id)
	if i < 0 || i+1 >= len(c.periods) {
		return timetable.Period{}, false
	}
	return c.periods[i+1], true
}

// Prev returns the period in the preceding column, if any.
func (c *PeriodCatalog) Prev(id int64) (timetable.Period, bool) {
	i := c.Position(id)
	if i <= 0 {
		return timetable.Period{}, false
	}
	return c.periods[i-1], true
}

// Compare orders addresses by day, then by period index. Unknown periods sort
// after known ones.
func (c *PeriodCatalog) Compare(a, b Address) int {
	if d := cmp.Compare(a.Day.Order(), b.Day.Order()); d != 0 {
		return d
	}
	pa, pb := c.Position(a.PeriodID), c.Position(b.PeriodID)
	if pa < 0 || pb < 0 {
		if pa >= 0 {
			return -1
		}
		if pb >= 0 {
			return 1
		}
		return cmp.Compare(a.PeriodID, b.PeriodID)
	}
	return cmp.Compare(pa, pb)
}

// Addresses returns every day × period address in iteration order.
func (c *PeriodCatalog) Addresses(days []timetable.DayOfWeek) []Address {
	out := make([]Address, 0, len(days)*c.Len())
	for _, d := range sortedDays(days) {
		for _, p := range c.periods {
			out = append(out, Address{Day: d, PeriodID: p.ID})
		}
	}
	return out
}

func sortedDays(days []timetable.DayOfWeek) []timetable.DayOfWeek {
	out := slices.Clone(days)
	slices.SortFunc(out, func(a, b timetable.DayOfWeek) int {
		return cmp.Compare(a.Order(), b.Order())
	})
	return slices.Compact(out)
}
