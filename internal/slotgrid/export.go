package slotgrid

import (
	"fmt"
	"strings"
)

// ExportLines renders one line per block: day, period range, times and the
// assignment label. Days without lessons print a single "free" line.
func (g *DisplayGrid) ExportLines() []string {
	byID := make(map[int64]int, len(g.periods))
	for i, p := range g.periods {
		byID[p.ID] = i
	}

	var lines []string
	for _, day := range g.days {
		var blocks []AnchorCell
		for _, c := range g.Row(day) {
			if a, ok := c.(AnchorCell); ok {
				blocks = append(blocks, a)
			}
		}
		if len(blocks) == 0 {
			lines = append(lines, fmt.Sprintf("%s\t-\tfree", day.Short()))
			continue
		}
		for _, b := range blocks {
			first := g.periods[byID[b.Address.PeriodID]]
			last := g.periods[byID[b.Covered[len(b.Covered)-1].PeriodID]]

			span := fmt.Sprintf("P%d", first.Index)
			if b.Span > 1 {
				span = fmt.Sprintf("P%d-P%d", first.Index, last.Index)
			}
			times := "-"
			if first.StartTime != "" && last.EndTime != "" {
				times = first.StartTime + "-" + last.EndTime
			}

			line := fmt.Sprintf("%s\t%s\t%s\t%s", day.Short(), span, times, b.Assignment.Label())
			if b.Assignment.Description != "" {
				line += "\t" + b.Assignment.Description
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// ExportText joins ExportLines with newlines.
func (g *DisplayGrid) ExportText() string {
	return strings.Join(g.ExportLines(), "\n")
}
