package slotgrid

import (
	"fmt"
	"slices"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Cell is one rendered grid position. It is exactly one of EmptyCell,
// AnchorCell or AbsorbedCell.
type Cell interface {
	At() Address
	cell()
}

// EmptyCell renders as free.
type EmptyCell struct {
	Address Address
}

// AnchorCell starts a block covering Span consecutive periods.
type AnchorCell struct {
	Address    Address
	Span       int
	Assignment Assignment
	Covered    []Address // anchor first, then every absorbed address
}

// AbsorbedCell is covered by the block anchored at Anchor and must not be
// rendered on its own.
type AbsorbedCell struct {
	Address Address
	Anchor  Address
}

func (c EmptyCell) At() Address    { return c.Address }
func (c AnchorCell) At() Address   { return c.Address }
func (c AbsorbedCell) At() Address { return c.Address }

func (EmptyCell) cell()    {}
func (AnchorCell) cell()   {}
func (AbsorbedCell) cell() {}

// Placement is one effective assignment fed to Process.
type Placement struct {
	Address    Address
	Assignment Assignment
}

// DisplayGrid is the derived projection of (snapshot, overlay, catalog). It
// is rebuilt on every change and never edited.
type DisplayGrid struct {
	days    []timetable.DayOfWeek
	periods []timetable.Period
	cells   map[Address]Cell
}

// Process groups placements into blocks. Within a day a run keeps growing
// while the next period's index is exactly one more than the last one and
// the course and teacher match the anchor. Every day × period address of the
// result holds exactly one cell.
func Process(placements []Placement, catalog *PeriodCatalog, days []timetable.DayOfWeek) (*DisplayGrid, error) {
	days = sortedDays(days)
	inGrid := make(map[timetable.DayOfWeek]bool, len(days))
	for _, d := range days {
		if !d.Scheduled() {
			return nil, fmt.Errorf("%w: %s", ErrDayNotInGrid, d)
		}
		inGrid[d] = true
	}

	assigned := make(map[Address]Assignment, len(placements))
	for _, p := range placements {
		if !inGrid[p.Address.Day] {
			return nil, fmt.Errorf("%w: %s", ErrDayNotInGrid, p.Address)
		}
		if !catalog.Contains(p.Address.PeriodID) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPeriod, p.Address)
		}
		if _, dup := assigned[p.Address]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAddress, p.Address)
		}
		assigned[p.Address] = p.Assignment
	}

	periods := catalog.Periods()
	g := &DisplayGrid{
		days:    days,
		periods: periods,
		cells:   make(map[Address]Cell, len(days)*len(periods)),
	}

	for _, day := range days {
		for i := 0; i < len(periods); {
			anchor := Address{Day: day, PeriodID: periods[i].ID}
			a, ok := assigned[anchor]
			if !ok {
				g.cells[anchor] = EmptyCell{Address: anchor}
				i++
				continue
			}

			covered := []Address{anchor}
			j := i + 1
			for ; j < len(periods); j++ {
				if periods[j].Index != periods[j-1].Index+1 {
					break
				}
				next := Address{Day: day, PeriodID: periods[j].ID}
				na, ok := assigned[next]
				if !ok || !na.SameBlock(a) {
					break
				}
				covered = append(covered, next)
				g.cells[next] = AbsorbedCell{Address: next, Anchor: anchor}
			}

			g.cells[anchor] = AnchorCell{
				Address:    anchor,
				Span:       len(covered),
				Assignment: a,
				Covered:    covered,
			}
			i = j
		}
	}
	return g, nil
}

// Project builds the effective placements of snapshot ⊕ overlay over every
// catalog address and runs Process on them.
func Project(s *Snapshot, o *Overlay, catalog *PeriodCatalog, days []timetable.DayOfWeek) (*DisplayGrid, error) {
	var placements []Placement
	for _, addr := range catalog.Addresses(days) {
		if a, ok := Effective(s, o, addr); ok {
			placements = append(placements, Placement{Address: addr, Assignment: a})
		}
	}
	return Process(placements, catalog, days)
}

// Days returns the grid rows in order.
func (g *DisplayGrid) Days() []timetable.DayOfWeek {
	return slices.Clone(g.days)
}

// Periods returns the grid columns in order.
func (g *DisplayGrid) Periods() []timetable.Period {
	return slices.Clone(g.periods)
}

// Cell returns the cell at addr, or nil if addr is outside the grid.
func (g *DisplayGrid) Cell(addr Address) Cell {
	return g.cells[addr]
}

// Len returns the number of cells.
func (g *DisplayGrid) Len() int {
	return len(g.cells)
}

// Row returns the cells of one day in column order.
func (g *DisplayGrid) Row(day timetable.DayOfWeek) []Cell {
	out := make([]Cell, 0, len(g.periods))
	for _, p := range g.periods {
		if c, ok := g.cells[Address{Day: day, PeriodID: p.ID}]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Blocks returns every anchor in iteration order.
func (g *DisplayGrid) Blocks() []AnchorCell {
	var out []AnchorCell
	for _, d := range g.days {
		for _, c := range g.Row(d) {
			if a, ok := c.(AnchorCell); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

// AnchorOf resolves addr to the block that covers it. Empty cells and
// addresses outside the grid return false.
func (g *DisplayGrid) AnchorOf(addr Address) (AnchorCell, bool) {
	switch c := g.cells[addr].(type) {
	case AnchorCell:
		return c, true
	case AbsorbedCell:
		a, ok := g.cells[c.Anchor].(AnchorCell)
		return a, ok
	default:
		return AnchorCell{}, false
	}
}
