package slotgrid

import (
	"strings"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Assignment is what a cell holds. An assignment with every ref nil is still
// an assignment; an empty cell has no Assignment at all.
type Assignment struct {
	Teacher     *timetable.Ref
	Course      *timetable.Ref
	Room        *timetable.Ref
	Description string
}

// FromSlot extracts the assignment carried by a persisted slot.
func FromSlot(s timetable.Slot) Assignment {
	return Assignment{
		Teacher:     cloneRef(s.Teacher),
		Course:      cloneRef(s.ForCourse),
		Room:        cloneRef(s.Room),
		Description: s.Description,
	}
}

// SameContent reports whether a and b point at the same teacher, course and
// room. Description is ignored.
func (a Assignment) SameContent(b Assignment) bool {
	return timetable.SameRef(a.Teacher, b.Teacher) &&
		timetable.SameRef(a.Course, b.Course) &&
		timetable.SameRef(a.Room, b.Room)
}

// Equal is SameContent plus an identical description.
func (a Assignment) Equal(b Assignment) bool {
	return a.SameContent(b) && a.Description == b.Description
}

// SameBlock reports whether a and b belong to the same multi-period block:
// same course and same teacher. Room and description do not matter.
func (a Assignment) SameBlock(b Assignment) bool {
	return timetable.SameRef(a.Course, b.Course) && timetable.SameRef(a.Teacher, b.Teacher)
}

// Label returns a short "Course · Teacher @ Room" text for display.
func (a Assignment) Label() string {
	var parts []string
	if a.Course != nil {
		parts = append(parts, timetable.RefLabel(a.Course))
	}
	if a.Teacher != nil {
		parts = append(parts, timetable.RefLabel(a.Teacher))
	}
	label := strings.Join(parts, " · ")
	if a.Room != nil {
		label += " @ " + timetable.RefLabel(a.Room)
	}
	if label == "" {
		label = "(unassigned)"
	}
	return strings.TrimSpace(label)
}

// Payload builds the write shape of the assignment at addr for class classID.
func (a Assignment) Payload(addr Address, classID, slotID int64) timetable.SlotPayload {
	p := timetable.SlotPayload{
		ID:          slotID,
		DayOfWeek:   addr.Day,
		PeriodID:    addr.PeriodID,
		ForClassID:  classID,
		ForCourseID: timetable.Int64Ptr(timetable.RefID(a.Course)),
		TeacherID:   timetable.Int64Ptr(timetable.RefID(a.Teacher)),
		RoomID:      timetable.Int64Ptr(timetable.RefID(a.Room)),
	}
	if a.Description != "" {
		desc := a.Description
		p.Description = &desc
	}
	return p
}

func (a Assignment) clone() Assignment {
	return Assignment{
		Teacher:     cloneRef(a.Teacher),
		Course:      cloneRef(a.Course),
		Room:        cloneRef(a.Room),
		Description: a.Description,
	}
}

func cloneRef(r *timetable.Ref) *timetable.Ref {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
