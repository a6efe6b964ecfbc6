package timetable

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Slot is one persisted timetable entry as returned by the backend.
type Slot struct {
	ID          int64     `json:"id"`
	DayOfWeek   DayOfWeek `json:"dayOfWeek"`
	Period      Period    `json:"period"`
	Teacher     *Ref      `json:"teacher,omitempty"`
	ForCourse   *Ref      `json:"forCourse,omitempty"`
	Room        *Ref      `json:"room,omitempty"`
	ForClass    Ref       `json:"forClass"`
	Description string    `json:"description,omitempty"`
}

// slotWire accepts both the nested and the flat slot shapes.
type slotWire struct {
	ID          int64   `json:"id"`
	DayOfWeek   string  `json:"dayOfWeek"`
	Period      *Period `json:"period"`
	PeriodID    *int64  `json:"periodId"`
	Teacher     *Ref    `json:"teacher"`
	TeacherID   *int64  `json:"teacherId"`
	ForCourse   *Ref    `json:"forCourse"`
	ForCourseID *int64  `json:"forCourseId"`
	Room        *Ref    `json:"room"`
	RoomID      *int64  `json:"roomId"`
	ForClass    *Ref    `json:"forClass"`
	ForClassID  *int64  `json:"forClassId"`
	Description *string `json:"description"`
}

// UnmarshalJSON decodes a slot whose period and refs may be nested objects
// (period.id, teacher.id) or flat ids (periodId, teacherId).
func (s *Slot) UnmarshalJSON(data []byte) error {
	var w slotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	day, err := ParseDay(w.DayOfWeek)
	if err != nil {
		return fmt.Errorf("slot %d: %w", w.ID, err)
	}

	out := Slot{
		ID:        w.ID,
		DayOfWeek: day,
		Teacher:   pickRef(w.Teacher, w.TeacherID),
		ForCourse: pickRef(w.ForCourse, w.ForCourseID),
		Room:      pickRef(w.Room, w.RoomID),
	}
	if w.Period != nil {
		out.Period = *w.Period
	}
	if out.Period.ID == 0 && w.PeriodID != nil {
		out.Period.ID = *w.PeriodID
	}
	if out.Period.ID == 0 {
		return fmt.Errorf("slot %d: missing period reference", w.ID)
	}
	if c := pickRef(w.ForClass, w.ForClassID); c != nil {
		out.ForClass = *c
	}
	if w.Description != nil {
		out.Description = *w.Description
	}

	*s = out
	return nil
}

func pickRef(nested *Ref, flat *int64) *Ref {
	if nested != nil && nested.ID != 0 {
		return nested
	}
	if flat != nil && *flat != 0 {
		return &Ref{ID: *flat}
	}
	return nil
}

// SlotPayload is the write shape for one slot. The upsert key is
// (ForClassID, DayOfWeek, PeriodID). ID is the persisted slot id when known;
// it is never sent in the body.
type SlotPayload struct {
	ID          int64     `json:"-"`
	DayOfWeek   DayOfWeek `json:"dayOfWeek" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	PeriodID    int64     `json:"periodId" validate:"required,gt=0"`
	ForClassID  int64     `json:"forClassId" validate:"required,gt=0"`
	ForCourseID *int64    `json:"forCourseId,omitempty" validate:"omitempty,gt=0"`
	TeacherID   *int64    `json:"teacherId,omitempty" validate:"omitempty,gt=0"`
	RoomID      *int64    `json:"roomId,omitempty" validate:"omitempty,gt=0"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=255"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the payload locally. Failures are returned as
// *ValidationError and must never be sent to the backend.
func (p SlotPayload) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Day: p.DayOfWeek, PeriodID: p.PeriodID, Reason: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{
		Day:      p.DayOfWeek,
		PeriodID: p.PeriodID,
		Field:    fe.Field(),
		Reason:   validationReason(fe),
	}
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag()
	}
}

// Int64Ptr returns a pointer to v, or nil when v is zero.
func Int64Ptr(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
