// Package timetable defines the core domain types for pupitre.
package timetable

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDay        = errors.New("day must be one of MONDAY..SUNDAY")
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart    = errors.New("end time must be after start time")
	ErrInvalidPeriodID   = errors.New("period id must be positive")
)

// DayOfWeek is the literal enumeration string used on the wire.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var dayOrder = map[DayOfWeek]int{
	Monday:    0,
	Tuesday:   1,
	Wednesday: 2,
	Thursday:  3,
	Friday:    4,
	Saturday:  5,
	Sunday:    6,
}

// GridDays returns the days that can hold assignments, in display order.
// Sunday is never scheduled.
func GridDays() []DayOfWeek {
	return []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// ParseDay parses a day name case-insensitively ("monday", "MONDAY", "Mon").
func ParseDay(s string) (DayOfWeek, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 3 {
		for d := range dayOrder {
			if strings.HasPrefix(string(d), s) {
				return d, nil
			}
		}
	}
	d := DayOfWeek(s)
	if _, ok := dayOrder[d]; !ok {
		return "", fmt.Errorf("%w: got %q", ErrInvalidDay, s)
	}
	return d, nil
}

// Valid returns true if d is a known day.
func (d DayOfWeek) Valid() bool {
	_, ok := dayOrder[d]
	return ok
}

// Scheduled returns true if the day appears in the grid.
func (d DayOfWeek) Scheduled() bool {
	return d.Valid() && d != Sunday
}

// Order returns the day position (Monday=0). Unknown days sort last.
func (d DayOfWeek) Order() int {
	if o, ok := dayOrder[d]; ok {
		return o
	}
	return len(dayOrder)
}

// Short returns the three-letter display name ("Mon").
func (d DayOfWeek) Short() string {
	if len(d) < 3 {
		return string(d)
	}
	return string(d[0]) + strings.ToLower(string(d[1:3]))
}

// Period is one column of the weekly grid. Index defines the order.
type Period struct {
	ID        int64  `json:"id"`
	Index     int    `json:"index"`
	StartTime string `json:"startTime,omitempty"` // "HH:MM"
	EndTime   string `json:"endTime,omitempty"`   // "HH:MM"
}

// Validate checks the period id and time range.
func (p Period) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidPeriodID
	}
	if p.StartTime == "" && p.EndTime == "" {
		return nil
	}
	if err := validateTimeFormat(p.StartTime); err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	if err := validateTimeFormat(p.EndTime); err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if p.EndTime <= p.StartTime {
		return ErrEndBeforeStart
	}
	return nil
}

// Label returns "HH:MM-HH:MM" or "P<index>" when times are unknown.
func (p Period) Label() string {
	if p.StartTime == "" {
		return fmt.Sprintf("P%d", p.Index)
	}
	return p.StartTime + "-" + p.EndTime
}

func validateTimeFormat(s string) error {
	if len(s) != 5 {
		return ErrInvalidTimeFormat
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTimeFormat
	}
	return nil
}

// Ref points at a teacher, course, room or class record.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// RefID returns the id of r, or 0 for nil.
func RefID(r *Ref) int64 {
	if r == nil {
		return 0
	}
	return r.ID
}

// SameRef reports whether a and b point at the same record. Two nil refs match.
func SameRef(a, b *Ref) bool {
	return RefID(a) == RefID(b)
}

// RefLabel returns the display name of r, falling back to "#id".
func RefLabel(r *Ref) string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d", r.ID)
}

// Resources lists the records a user can drag onto the grid.
type Resources struct {
	Teachers []Ref `json:"teachers"`
	Courses  []Ref `json:"courses"`
	Rooms    []Ref `json:"rooms"`
	Classes  []Ref `json:"classes"`
}
