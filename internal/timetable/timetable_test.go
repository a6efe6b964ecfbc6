package timetable

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		input   string
		want    DayOfWeek
		wantErr bool
	}{
		{"MONDAY", Monday, false},
		{"monday", Monday, false},
		{" Friday ", Friday, false},
		{"tue", Tuesday, false},
		{"Thu", Thursday, false},
		{"SUNDAY", Sunday, false},
		{"funday", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDay(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDay) {
					t.Fatalf("expected ErrInvalidDay, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDay(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestGridDaysExcludeSunday(t *testing.T) {
	days := GridDays()
	if len(days) != 6 {
		t.Fatalf("expected 6 grid days, got %d", len(days))
	}
	for i, d := range days {
		if d == Sunday {
			t.Error("Sunday must not be a grid day")
		}
		if d.Order() != i {
			t.Errorf("day %s has order %d, want %d", d, d.Order(), i)
		}
	}
	if Sunday.Scheduled() {
		t.Error("Sunday should never be scheduled")
	}
	if Monday.Short() != "Mon" {
		t.Errorf("expected Mon, got %s", Monday.Short())
	}
}

func TestPeriodValidate(t *testing.T) {
	if err := (Period{ID: 1, Index: 1, StartTime: "08:00", EndTime: "08:45"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Period{ID: 0}).Validate(); !errors.Is(err, ErrInvalidPeriodID) {
		t.Errorf("expected ErrInvalidPeriodID, got %v", err)
	}
	if err := (Period{ID: 1, StartTime: "9:00", EndTime: "10:00"}).Validate(); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Errorf("expected ErrInvalidTimeFormat, got %v", err)
	}
	if err := (Period{ID: 1, StartTime: "10:00", EndTime: "09:00"}).Validate(); !errors.Is(err, ErrEndBeforeStart) {
		t.Errorf("expected ErrEndBeforeStart, got %v", err)
	}
}

func TestSlotUnmarshal_Nested(t *testing.T) {
	data := `{
		"id": 11,
		"dayOfWeek": "MONDAY",
		"period": {"id": 3, "index": 2, "startTime": "09:00", "endTime": "09:45"},
		"teacher": {"id": 9, "name": "Ada"},
		"forCourse": {"id": 5, "name": "Math"},
		"forClass": {"id": 7},
		"description": "lab"
	}`

	var s Slot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.Period.ID != 3 || s.Period.Index != 2 {
		t.Errorf("unexpected period: %+v", s.Period)
	}
	if RefID(s.Teacher) != 9 || s.Teacher.Name != "Ada" {
		t.Errorf("unexpected teacher: %+v", s.Teacher)
	}
	if RefID(s.ForCourse) != 5 {
		t.Errorf("unexpected course: %+v", s.ForCourse)
	}
	if s.Room != nil {
		t.Errorf("expected nil room, got %+v", s.Room)
	}
	if s.ForClass.ID != 7 || s.Description != "lab" {
		t.Errorf("unexpected class/description: %+v", s)
	}
}

func TestSlotUnmarshal_Flat(t *testing.T) {
	data := `{"id": 4, "dayOfWeek": "tuesday", "periodId": 2, "teacherId": 9, "forCourseId": 5, "roomId": 12, "forClassId": 7}`

	var s Slot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s.DayOfWeek != Tuesday {
		t.Errorf("expected TUESDAY, got %s", s.DayOfWeek)
	}
	if s.Period.ID != 2 {
		t.Errorf("expected period 2, got %d", s.Period.ID)
	}
	if RefID(s.Teacher) != 9 || RefID(s.ForCourse) != 5 || RefID(s.Room) != 12 {
		t.Errorf("unexpected refs: %+v", s)
	}
	if s.ForClass.ID != 7 {
		t.Errorf("expected class 7, got %d", s.ForClass.ID)
	}
}

func TestSlotUnmarshal_MissingPeriod(t *testing.T) {
	var s Slot
	err := json.Unmarshal([]byte(`{"id": 1, "dayOfWeek": "MONDAY"}`), &s)
	if err == nil {
		t.Fatal("expected error for slot without period")
	}
}

func TestSlotPayloadValidate(t *testing.T) {
	valid := SlotPayload{DayOfWeek: Monday, PeriodID: 1, ForClassID: 7, TeacherID: Int64Ptr(9)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missingClass := valid
	missingClass.ForClassID = 0
	err := missingClass.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "forClassId" {
		t.Errorf("expected field forClassId, got %q", verr.Field)
	}

	sunday := valid
	sunday.DayOfWeek = Sunday
	if err := sunday.Validate(); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for SUNDAY, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&ConflictError{Dimension: ConflictTeacher}) {
		t.Error("conflicts are retryable")
	}
	if !IsRetryable(fmt.Errorf("save: %w", &NetworkError{Op: "save", Err: errors.New("timeout")})) {
		t.Error("wrapped network errors are retryable")
	}
	if IsRetryable(&ValidationError{Reason: "bad"}) {
		t.Error("validation errors are not retryable")
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(ErrStaleResponse); msg != "" {
		t.Errorf("stale responses must be silent, got %q", msg)
	}
	if msg := UserMessage(nil); msg != "" {
		t.Errorf("nil error must be silent, got %q", msg)
	}
	msg := UserMessage(&ConflictError{Dimension: ConflictRoom, RefID: 3, Day: Monday, PeriodID: 1})
	if msg == "" {
		t.Error("conflicts must produce a message")
	}
}
