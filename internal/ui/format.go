package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/javiermolinar/pupitre/internal/session"
	"github.com/javiermolinar/pupitre/internal/slotgrid"
	"github.com/javiermolinar/pupitre/internal/summary"
	"github.com/javiermolinar/pupitre/internal/timetable"
)

// PrintOpts configures grid printing behavior.
type PrintOpts struct {
	Verbose       bool // Show notes
	MaxLabelWidth int  // Maximum lesson label width (0 = auto)
}

// CalcMaxLabelWidth calculates the maximum label width based on options.
func (o PrintOpts) CalcMaxLabelWidth(defaultWidth int) int {
	if o.MaxLabelWidth > 0 {
		return o.MaxLabelWidth
	}
	if !o.Verbose {
		return defaultWidth
	}
	// Base: "  Mon  P1-P2  08:00-09:45  " = ~28 chars
	available := termWidth() - 28
	if available > defaultWidth {
		return available
	}
	return defaultWidth
}

// PrintGrid prints every day of grid, one line per lesson block.
func PrintGrid(w io.Writer, grid *slotgrid.DisplayGrid, opts PrintOpts) {
	width := opts.CalcMaxLabelWidth(40)
	for _, day := range grid.Days() {
		var blocks []slotgrid.AnchorCell
		for _, c := range grid.Row(day) {
			if a, ok := c.(slotgrid.AnchorCell); ok {
				blocks = append(blocks, a)
			}
		}

		if len(blocks) == 0 {
			fmt.Fprintf(w, "  %s  %s\n", formatHeader(day.Short()), formatFree("free"))
			continue
		}
		for i, b := range blocks {
			dayLabel := "   "
			if i == 0 {
				dayLabel = day.Short()
			}
			PrintBlockRow(w, dayLabel, b, grid, opts, width)
		}
	}
}

// PrintBlockRow prints a single lesson block.
func PrintBlockRow(w io.Writer, dayLabel string, b slotgrid.AnchorCell, grid *slotgrid.DisplayGrid, opts PrintOpts, maxWidth int) {
	span, times := BlockRange(b, grid.Periods())

	label := truncate(b.Assignment.Label(), maxWidth)
	line := fmt.Sprintf("  %s  %-5s  %-11s  %s",
		formatHeader(dayLabel), span, formatMuted(times), formatLesson(label))
	if opts.Verbose && b.Assignment.Description != "" {
		line += "  " + formatNote(b.Assignment.Description)
	}
	fmt.Fprintln(w, line)
}

// BlockRange returns the "P1-P2" span and "08:00-09:45" times of a block.
func BlockRange(b slotgrid.AnchorCell, periods []timetable.Period) (string, string) {
	byID := make(map[int64]timetable.Period, len(periods))
	for _, p := range periods {
		byID[p.ID] = p
	}
	first := byID[b.Address.PeriodID]
	last := byID[b.Covered[len(b.Covered)-1].PeriodID]

	span := fmt.Sprintf("P%d", first.Index)
	if b.Span > 1 {
		span = fmt.Sprintf("P%d-P%d", first.Index, last.Index)
	}
	times := "-"
	if first.StartTime != "" && last.EndTime != "" {
		times = first.StartTime + "-" + last.EndTime
	}
	return span, times
}

// PrintStats prints the week summary. Verbose adds the load per teacher.
func PrintStats(w io.Writer, s *summary.WeekSummary, verbose bool) {
	fmt.Fprintf(w, "%s | %s | Teachers: %d\n",
		formatLesson(fmt.Sprintf("Lessons: %d (%d periods)", s.Blocks, s.Taught)),
		formatFree(fmt.Sprintf("Free: %d", s.Free)),
		len(s.Teachers))
	if s.BusiestDay != "" {
		fmt.Fprintf(w, "Busiest day: %s (%d periods)\n", s.BusiestDay.Short(), s.BusiestLoad)
	}
	if !verbose {
		return
	}
	for _, tl := range s.Teachers {
		fmt.Fprintf(w, "  %-20s %d %s\n", timetable.RefLabel(&tl.Teacher), tl.Periods, pluralize(tl.Periods, "period", "periods"))
	}
}

// LoadBar creates an ASCII bar showing the share of taught periods.
func LoadBar(taught, total, width int) string {
	if total == 0 {
		return "[" + strings.Repeat("░", width) + "] (0% taught)"
	}

	pct := (taught * 100) / total
	filled := (taught * width) / total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", formatLesson(bar), formatOK(fmt.Sprintf("(%d%% taught)", pct)))
}

// PrintPeriods prints the period catalog.
func PrintPeriods(w io.Writer, periods []timetable.Period) {
	for _, p := range periods {
		times := p.Label()
		if p.StartTime == "" {
			times = "-"
		}
		fmt.Fprintf(w, "  P%-2d  %s  %s\n", p.Index, times, formatMuted(fmt.Sprintf("#%d", p.ID)))
	}
}

// PrintResult prints the outcome of a save or regenerate.
func PrintResult(w io.Writer, verb string, res session.Result) {
	if res.NoOp {
		fmt.Fprintln(w, formatMuted("Nothing to "+verb))
		return
	}
	msg := fmt.Sprintf("%s: %d lessons on the timetable", capitalize(verb)+"d", res.Slots)
	fmt.Fprintln(w, formatOK(msg))
	if res.Pending > 0 {
		fmt.Fprintln(w, formatWarn(fmt.Sprintf("%d edits still pending", res.Pending)))
	}
}

// ParseAddress resolves "<day> <period>" arguments against catalog. The
// period is its 1-based index, with or without a leading "P".
func ParseAddress(catalog *slotgrid.PeriodCatalog, dayArg, periodArg string) (slotgrid.Address, error) {
	day, err := timetable.ParseDay(dayArg)
	if err != nil {
		return slotgrid.Address{}, err
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(periodArg), "P"))
	if err != nil {
		return slotgrid.Address{}, fmt.Errorf("period must be an index like 2 or P2, got %q", periodArg)
	}
	for _, p := range catalog.Periods() {
		if p.Index == idx {
			return slotgrid.At(day, p.ID), nil
		}
	}
	return slotgrid.Address{}, fmt.Errorf("no period P%d in the catalog", idx)
}

// ParseClassID parses a class id argument.
func ParseClassID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("class must be a positive id, got %q", arg)
	}
	return id, nil
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
