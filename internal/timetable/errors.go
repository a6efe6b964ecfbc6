package timetable

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrStaleResponse = errors.New("response belongs to a class that is no longer selected")
)

// Conflict dimensions reported by the backend.
const (
	ConflictTeacher = "teacher"
	ConflictRoom    = "room"
	ConflictSlot    = "slot"
)

// ValidationError is a malformed edit caught before submission.
type ValidationError struct {
	Day      DayOfWeek
	PeriodID int64
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	where := ""
	if e.Day != "" || e.PeriodID != 0 {
		where = fmt.Sprintf(" at %s/%d", e.Day, e.PeriodID)
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid slot%s: %s", where, e.Reason)
	}
	return fmt.Sprintf("invalid slot%s: %s %s", where, e.Field, e.Reason)
}

// ConflictError reports a teacher or room already booked elsewhere at the
// same day and period.
type ConflictError struct {
	Dimension string    `json:"dimension"`
	Day       DayOfWeek `json:"dayOfWeek,omitempty"`
	PeriodID  int64     `json:"periodId,omitempty"`
	RefID     int64     `json:"refId,omitempty"`
	ClassID   int64     `json:"classId,omitempty"`
	Message   string    `json:"message,omitempty"`
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s #%d is already booked on %s period %d", e.Dimension, e.RefID, e.Day, e.PeriodID)
}

// NetworkError wraps a fetch, save or optimize call that did not complete.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the user can simply try the operation again.
func IsRetryable(err error) bool {
	var conflict *ConflictError
	var netErr *NetworkError
	return errors.As(err, &conflict) || errors.As(err, &netErr)
}

// UserMessage turns an engine error into the text shown to the user.
// It returns "" for errors that must not be surfaced.
func UserMessage(err error) string {
	if err == nil || errors.Is(err, ErrStaleResponse) {
		return ""
	}
	var (
		conflict *ConflictError
		verr     *ValidationError
		netErr   *NetworkError
	)
	switch {
	case errors.As(err, &conflict):
		return "Conflict: " + conflict.Error() + ". Pick another slot and save again."
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not reach the server (%s). Try again.", netErr.Op)
	default:
		return err.Error()
	}
}
