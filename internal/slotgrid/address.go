// Package slotgrid is the in-memory timetable engine: the last fetched
// snapshot, the overlay of unsaved edits, the change set between them and the
// display projection that merges consecutive periods into blocks.
//
// Everything here is synchronous and free of I/O. The session package owns
// the network round-trips.
package slotgrid

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Grid errors.
var (
	ErrInvalidAddress   = errors.New("invalid grid address")
	ErrDuplicateAddress = errors.New("duplicate grid address")
	ErrUnknownPeriod    = errors.New("period is not in the catalog")
	ErrDuplicatePeriod  = errors.New("duplicate period in catalog")
	ErrDayNotInGrid     = errors.New("day is not part of the grid")
	ErrForeignSlot      = errors.New("slot belongs to another class")
)

// Address identifies one cell of the weekly grid.
type Address struct {
	Day      timetable.DayOfWeek
	PeriodID int64
}

// At is shorthand for Address{Day: day, PeriodID: periodID}.
func At(day timetable.DayOfWeek, periodID int64) Address {
	return Address{Day: day, PeriodID: periodID}
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d", a.Day, a.PeriodID)
}

// Validate returns ErrInvalidAddress unless the day is schedulable and the
// period id is positive.
func (a Address) Validate() error {
	if !a.Day.Scheduled() {
		return fmt.Errorf("%w: %s is not a grid day", ErrInvalidAddress, a.Day)
	}
	if a.PeriodID <= 0 {
		return fmt.Errorf("%w: period id %d", ErrInvalidAddress, a.PeriodID)
	}
	return nil
}

// compareAddress orders by day, then by period id. It only makes listings
// deterministic; anything shown or submitted in grid order goes through
// PeriodCatalog.Compare.
func compareAddress(a, b Address) int {
	if c := cmp.Compare(a.Day.Order(), b.Day.Order()); c != 0 {
		return c
	}
	return cmp.Compare(a.PeriodID, b.PeriodID)
}
