package slotgrid

import (
	"strconv"
	"strings"
	"testing"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

var (
	teacherAda  = &timetable.Ref{ID: 9, Name: "Ada"}
	teacherBob  = &timetable.Ref{ID: 10, Name: "Bob"}
	courseMath  = &timetable.Ref{ID: 5, Name: "Math"}
	courseArt   = &timetable.Ref{ID: 6, Name: "Art"}
	roomLab     = &timetable.Ref{ID: 12, Name: "Lab"}
	roomLibrary = &timetable.Ref{ID: 13, Name: "Library"}
)

const testClassID = 7

// testPeriods returns four consecutive periods whose ids do not follow their
// index, so tests catch code ordering by id.
func testPeriods() []timetable.Period {
	return []timetable.Period{
		{ID: 104, Index: 4, StartTime: "11:00", EndTime: "11:45"},
		{ID: 101, Index: 1, StartTime: "08:00", EndTime: "08:45"},
		{ID: 103, Index: 3, StartTime: "10:00", EndTime: "10:45"},
		{ID: 102, Index: 2, StartTime: "09:00", EndTime: "09:45"},
	}
}

func testCatalog(t *testing.T) *PeriodCatalog {
	t.Helper()
	c, err := NewPeriodCatalog(testPeriods())
	if err != nil {
		t.Fatalf("NewPeriodCatalog failed: %v", err)
	}
	return c
}

// p returns the address of the period with index i on day.
func p(day timetable.DayOfWeek, i int) Address {
	return Address{Day: day, PeriodID: int64(100 + i)}
}

func mathAda() Assignment {
	return Assignment{Course: courseMath, Teacher: teacherAda}
}

func artBob() Assignment {
	return Assignment{Course: courseArt, Teacher: teacherBob}
}

func slotAt(id int64, addr Address, a Assignment) timetable.Slot {
	return timetable.Slot{
		ID:          id,
		DayOfWeek:   addr.Day,
		Period:      timetable.Period{ID: addr.PeriodID, Index: int(addr.PeriodID - 100)},
		Teacher:     a.Teacher,
		ForCourse:   a.Course,
		Room:        a.Room,
		ForClass:    timetable.Ref{ID: testClassID},
		Description: a.Description,
	}
}

func mustSnapshot(t *testing.T, slots ...timetable.Slot) *Snapshot {
	t.Helper()
	s, err := NewSnapshot(testClassID, slots)
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	return s
}

// rowShape renders one day of a display grid in a compact notation:
// an anchor is the first letter of its course followed by its span, an
// absorbed cell is "^" and a free cell is "-". Cells are space separated.
//
// Example: "M2 ^ -" is a two-period Math block followed by a free period.
func rowShape(g *DisplayGrid, day timetable.DayOfWeek) string {
	var parts []string
	for _, c := range g.Row(day) {
		switch c := c.(type) {
		case EmptyCell:
			parts = append(parts, "-")
		case AbsorbedCell:
			parts = append(parts, "^")
		case AnchorCell:
			letter := "?"
			if c.Assignment.Course != nil && c.Assignment.Course.Name != "" {
				letter = c.Assignment.Course.Name[:1]
			}
			parts = append(parts, letter+strconv.Itoa(c.Span))
		}
	}
	return strings.Join(parts, " ")
}
