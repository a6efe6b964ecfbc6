package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// Optimize regenerates the timetable of classID by consolidating lessons
// into blocks. On every day the occupied periods stay occupied, but lessons
// sharing course and teacher are moved next to each other in the order the
// course first appears. A day whose new arrangement would double book a
// teacher or room of another class is left as it was.
func (s *SQLite) Optimize(ctx context.Context, classID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkExists(ctx, tx, TableClasses, classID); err != nil {
		return err
	}
	slots, err := querySlots(ctx, tx, ` WHERE s.class_id = ?`, classID)
	if err != nil {
		return err
	}

	for _, day := range timetable.GridDays() {
		var current []timetable.Slot
		for _, slot := range slots {
			if slot.DayOfWeek == day {
				current = append(current, slot)
			}
		}
		next := consolidate(current)
		if next == nil {
			continue
		}

		conflict := false
		for _, p := range next {
			err := checkConflictTx(ctx, tx, p, 0, classID)
			var cerr *timetable.ConflictError
			if errors.As(err, &cerr) {
				conflict = true
				break
			}
			if err != nil {
				return err
			}
		}
		if conflict {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM slots WHERE class_id = ? AND day_of_week = ?`, classID, day,
		); err != nil {
			return fmt.Errorf("clearing %s of class %d: %w", day, classID, err)
		}
		for _, p := range next {
			if _, err := insertSlotTx(ctx, tx, p.ID, p); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// consolidate returns the block-ordered payloads for one day of slots
// (already sorted by period index), or nil when nothing moves.
func consolidate(day []timetable.Slot) []timetable.SlotPayload {
	if len(day) < 2 {
		return nil
	}

	type blockKey struct{ course, teacher int64 }
	var order []blockKey
	groups := make(map[blockKey][]timetable.Slot)
	for _, slot := range day {
		k := blockKey{timetable.RefID(slot.ForCourse), timetable.RefID(slot.Teacher)}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], slot)
	}

	var arranged []timetable.Slot
	for _, k := range order {
		arranged = append(arranged, groups[k]...)
	}

	moved := false
	payload := make([]timetable.SlotPayload, len(day))
	for i, cell := range day {
		lesson := arranged[i]
		if lesson.ID != cell.ID {
			moved = true
		}
		desc := lesson.Description
		payload[i] = timetable.SlotPayload{
			ID:          cell.ID,
			DayOfWeek:   cell.DayOfWeek,
			PeriodID:    cell.Period.ID,
			ForClassID:  cell.ForClass.ID,
			ForCourseID: timetable.Int64Ptr(timetable.RefID(lesson.ForCourse)),
			TeacherID:   timetable.Int64Ptr(timetable.RefID(lesson.Teacher)),
			RoomID:      timetable.Int64Ptr(timetable.RefID(lesson.Room)),
			Description: &desc,
		}
	}
	if !moved {
		return nil
	}
	return payload
}
