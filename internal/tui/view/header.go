package view

import (
	"github.com/javiermolinar/pupitre/internal/timetable"
)

// PeriodHeaders builds the grid column labels: a corner label for the day
// column, then one label per period. Wide columns show the time range, narrow
// ones fall back to "P<index>".
func PeriodHeaders(corner string, periods []timetable.Period, colWidth int) []string {
	labels := make([]string, 0, len(periods)+1)
	labels = append(labels, corner)
	for _, p := range periods {
		label := p.Label()
		if len(label) > colWidth {
			label = timetable.Period{Index: p.Index}.Label()
		}
		labels = append(labels, label)
	}
	return labels
}

// DayLabel is the row label of a grid day.
func DayLabel(d timetable.DayOfWeek) string {
	return d.Short()
}
