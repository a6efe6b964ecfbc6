package timetable

import "context"

// Backend is the storage surface the grid engine consumes. The HTTP client
// and the local SQLite store both implement it.
type Backend interface {
	// ListPeriods returns the weekly period catalog.
	ListPeriods(ctx context.Context) ([]Period, error)

	// GetTimetable returns every persisted slot of a class.
	GetTimetable(ctx context.Context, classID int64) ([]Slot, error)

	// ReplaceSlots replaces the whole timetable of a class.
	// Returns *ConflictError if a teacher or room is booked elsewhere.
	ReplaceSlots(ctx context.Context, classID int64, slots []SlotPayload) ([]Slot, error)

	// CreateSlot inserts a single slot.
	CreateSlot(ctx context.Context, slot SlotPayload) (Slot, error)

	// UpdateSlot rewrites an existing slot by id.
	UpdateSlot(ctx context.Context, id int64, slot SlotPayload) (Slot, error)

	// DeleteSlot removes a slot by id.
	DeleteSlot(ctx context.Context, id int64) error

	// Optimize asks the backend to regenerate the timetable of a class.
	// Completion is observed by fetching the timetable again.
	Optimize(ctx context.Context, classID int64) error
}

// ResourceLister is implemented by backends that can list palette resources.
type ResourceLister interface {
	ListResources(ctx context.Context) (*Resources, error)
}
