// Package db provides the SQLite timetable store. It implements
// timetable.Backend so the console can run without a remote server, and it
// backs the development HTTP server.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/pupitre/internal/timetable"
)

// SQLite implements timetable.Backend using SQLite.
type SQLite struct {
	db *sql.DB
}

var _ timetable.Backend = (*SQLite)(nil)
var _ timetable.ResourceLister = (*SQLite)(nil)

// New opens (or creates) the database at path and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; SQLite would otherwise answer SQLITE_BUSY under
	// concurrent requests from the dev server.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ============================================================================
// Periods and resources
// ============================================================================

// ListPeriods returns every period ordered by index.
func (s *SQLite) ListPeriods(ctx context.Context) ([]timetable.Period, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, idx, start_time, end_time FROM periods ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("querying periods: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var periods []timetable.Period
	for rows.Next() {
		var p timetable.Period
		if err := rows.Scan(&p.ID, &p.Index, &p.StartTime, &p.EndTime); err != nil {
			return nil, fmt.Errorf("scanning period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating periods: %w", err)
	}
	return periods, nil
}

// CreatePeriod inserts a period and sets its id.
func (s *SQLite) CreatePeriod(ctx context.Context, p *timetable.Period) error {
	check := *p
	check.ID = 1 // not assigned yet
	if err := check.Validate(); err != nil {
		return fmt.Errorf("period %d: %w", p.Index, err)
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO periods (idx, start_time, end_time) VALUES (?, ?, ?)`,
		p.Index, p.StartTime, p.EndTime,
	)
	if err != nil {
		return fmt.Errorf("inserting period %d: %w", p.Index, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// Resource tables.
const (
	TableTeachers = "teachers"
	TableCourses  = "courses"
	TableRooms    = "rooms"
	TableClasses  = "classes"
)

func checkTable(table string) error {
	switch table {
	case TableTeachers, TableCourses, TableRooms, TableClasses:
		return nil
	default:
		return fmt.Errorf("unknown resource table %q", table)
	}
}

// CreateRef inserts a named teacher, course, room or class.
func (s *SQLite) CreateRef(ctx context.Context, table, name string) (timetable.Ref, error) {
	if err := checkTable(table); err != nil {
		return timetable.Ref{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return timetable.Ref{}, fmt.Errorf("%s: name is required", table)
	}
	result, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?)`, name)
	if err != nil {
		return timetable.Ref{}, fmt.Errorf("inserting into %s: %w", table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return timetable.Ref{}, fmt.Errorf("getting last insert id: %w", err)
	}
	return timetable.Ref{ID: id, Name: name}, nil
}

func (s *SQLite) listRefs(ctx context.Context, table string) ([]timetable.Ref, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM `+table+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var refs []timetable.Ref
	for rows.Next() {
		var r timetable.Ref
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return refs, nil
}

// ListResources returns every teacher, course, room and class.
func (s *SQLite) ListResources(ctx context.Context) (*timetable.Resources, error) {
	var (
		res timetable.Resources
		err error
	)
	if res.Teachers, err = s.listRefs(ctx, TableTeachers); err != nil {
		return nil, err
	}
	if res.Courses, err = s.listRefs(ctx, TableCourses); err != nil {
		return nil, err
	}
	if res.Rooms, err = s.listRefs(ctx, TableRooms); err != nil {
		return nil, err
	}
	if res.Classes, err = s.listRefs(ctx, TableClasses); err != nil {
		return nil, err
	}
	return &res, nil
}

// ============================================================================
// Slots
// ============================================================================

const slotSelect = `
	SELECT s.id, s.day_of_week, s.description,
	       p.id, p.idx, p.start_time, p.end_time,
	       c.id, c.name,
	       t.id, t.name,
	       co.id, co.name,
	       r.id, r.name
	FROM slots s
	JOIN periods p  ON p.id = s.period_id
	JOIN classes c  ON c.id = s.class_id
	LEFT JOIN teachers t ON t.id = s.teacher_id
	LEFT JOIN courses co ON co.id = s.course_id
	LEFT JOIN rooms r    ON r.id = s.room_id
`

const dayOrderBy = `
	ORDER BY CASE s.day_of_week
		WHEN 'MONDAY' THEN 0 WHEN 'TUESDAY' THEN 1 WHEN 'WEDNESDAY' THEN 2
		WHEN 'THURSDAY' THEN 3 WHEN 'FRIDAY' THEN 4 ELSE 5 END, p.idx
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(sc rowScanner) (timetable.Slot, error) {
	var (
		slot                 timetable.Slot
		day                  string
		teacherID, courseID  sql.NullInt64
		roomID               sql.NullInt64
		teacherName          sql.NullString
		courseName, roomName sql.NullString
	)
	err := sc.Scan(
		&slot.ID, &day, &slot.Description,
		&slot.Period.ID, &slot.Period.Index, &slot.Period.StartTime, &slot.Period.EndTime,
		&slot.ForClass.ID, &slot.ForClass.Name,
		&teacherID, &teacherName,
		&courseID, &courseName,
		&roomID, &roomName,
	)
	if err != nil {
		return timetable.Slot{}, err
	}
	slot.DayOfWeek = timetable.DayOfWeek(day)
	slot.Teacher = nullRef(teacherID, teacherName)
	slot.ForCourse = nullRef(courseID, courseName)
	slot.Room = nullRef(roomID, roomName)
	return slot, nil
}

func nullRef(id sql.NullInt64, name sql.NullString) *timetable.Ref {
	if !id.Valid {
		return nil
	}
	return &timetable.Ref{ID: id.Int64, Name: name.String}
}

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func description(p timetable.SlotPayload) string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func querySlots(ctx context.Context, q querier, where string, args ...any) ([]timetable.Slot, error) {
	rows, err := q.QueryContext(ctx, slotSelect+where+dayOrderBy, args...)
	if err != nil {
		return nil, fmt.Errorf("querying slots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var slots []timetable.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots: %w", err)
	}
	return slots, nil
}

func getSlot(ctx context.Context, q querier, id int64) (timetable.Slot, error) {
	slot, err := scanSlot(q.QueryRowContext(ctx, slotSelect+` WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return timetable.Slot{}, fmt.Errorf("slot %d: %w", id, timetable.ErrNotFound)
	}
	if err != nil {
		return timetable.Slot{}, fmt.Errorf("querying slot %d: %w", id, err)
	}
	return slot, nil
}

// GetTimetable returns every slot of a class.
func (s *SQLite) GetTimetable(ctx context.Context, classID int64) ([]timetable.Slot, error) {
	if err := checkExists(ctx, s.db, TableClasses, classID); err != nil {
		return nil, err
	}
	return querySlots(ctx, s.db, ` WHERE s.class_id = ?`, classID)
}

// GetSlot returns one slot by id.
func (s *SQLite) GetSlot(ctx context.Context, id int64) (timetable.Slot, error) {
	return getSlot(ctx, s.db, id)
}

// CreateSlot inserts one slot.
// Returns *timetable.ConflictError if the cell is taken or the teacher or
// room is booked elsewhere at the same time.
func (s *SQLite) CreateSlot(ctx context.Context, p timetable.SlotPayload) (timetable.Slot, error) {
	if err := p.Validate(); err != nil {
		return timetable.Slot{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timetable.Slot{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkRefsTx(ctx, tx, p); err != nil {
		return timetable.Slot{}, err
	}
	if err := checkCellFreeTx(ctx, tx, p, 0); err != nil {
		return timetable.Slot{}, err
	}
	if err := checkConflictTx(ctx, tx, p, 0, 0); err != nil {
		return timetable.Slot{}, err
	}

	id, err := insertSlotTx(ctx, tx, 0, p)
	if err != nil {
		return timetable.Slot{}, err
	}
	slot, err := getSlot(ctx, tx, id)
	if err != nil {
		return timetable.Slot{}, err
	}
	if err := tx.Commit(); err != nil {
		return timetable.Slot{}, fmt.Errorf("committing transaction: %w", err)
	}
	return slot, nil
}

// UpdateSlot rewrites slot id in place.
// Returns *timetable.ConflictError on a double booking.
func (s *SQLite) UpdateSlot(ctx context.Context, id int64, p timetable.SlotPayload) (timetable.Slot, error) {
	if err := p.Validate(); err != nil {
		return timetable.Slot{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timetable.Slot{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getSlot(ctx, tx, id); err != nil {
		return timetable.Slot{}, err
	}
	if err := checkRefsTx(ctx, tx, p); err != nil {
		return timetable.Slot{}, err
	}
	if err := checkCellFreeTx(ctx, tx, p, id); err != nil {
		return timetable.Slot{}, err
	}
	if err := checkConflictTx(ctx, tx, p, id, 0); err != nil {
		return timetable.Slot{}, err
	}

	query := `
		UPDATE slots
		SET class_id = ?, day_of_week = ?, period_id = ?, teacher_id = ?,
		    course_id = ?, room_id = ?, description = ?
		WHERE id = ?
	`
	_, err = tx.ExecContext(ctx, query,
		p.ForClassID, p.DayOfWeek, p.PeriodID, nullID(p.TeacherID),
		nullID(p.ForCourseID), nullID(p.RoomID), description(p), id,
	)
	if err != nil {
		return timetable.Slot{}, fmt.Errorf("updating slot %d: %w", id, err)
	}

	slot, err := getSlot(ctx, tx, id)
	if err != nil {
		return timetable.Slot{}, err
	}
	if err := tx.Commit(); err != nil {
		return timetable.Slot{}, fmt.Errorf("committing transaction: %w", err)
	}
	return slot, nil
}

// DeleteSlot removes a slot by id.
func (s *SQLite) DeleteSlot(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting slot %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("slot %d: %w", id, timetable.ErrNotFound)
	}
	return nil
}

// ReplaceSlots makes the payload the whole timetable of classID in one
// transaction. Existing rows keep their id when their (day, period) is still
// present; rows missing from the payload are deleted.
// Returns *timetable.ConflictError if a teacher or room is booked by another
// class at the same time, or if the payload holds the same cell twice.
func (s *SQLite) ReplaceSlots(ctx context.Context, classID int64, payload []timetable.SlotPayload) ([]timetable.Slot, error) {
	type cell struct {
		day      timetable.DayOfWeek
		periodID int64
	}
	seen := make(map[cell]bool, len(payload))
	for _, p := range payload {
		if p.ForClassID == 0 {
			p.ForClassID = classID
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if p.ForClassID != classID {
			return nil, &timetable.ValidationError{
				Day: p.DayOfWeek, PeriodID: p.PeriodID, Field: "forClassId",
				Reason: fmt.Sprintf("must be %d", classID),
			}
		}
		c := cell{p.DayOfWeek, p.PeriodID}
		if seen[c] {
			return nil, &timetable.ConflictError{
				Dimension: timetable.ConflictSlot, Day: p.DayOfWeek, PeriodID: p.PeriodID, ClassID: classID,
				Message: fmt.Sprintf("%s period %d appears twice in the payload", p.DayOfWeek, p.PeriodID),
			}
		}
		seen[c] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkExists(ctx, tx, TableClasses, classID); err != nil {
		return nil, err
	}

	existing, err := querySlots(ctx, tx, ` WHERE s.class_id = ?`, classID)
	if err != nil {
		return nil, err
	}
	ids := make(map[cell]int64, len(existing))
	for _, slot := range existing {
		ids[cell{slot.DayOfWeek, slot.Period.ID}] = slot.ID
	}

	for _, p := range payload {
		p.ForClassID = classID
		if err := checkRefsTx(ctx, tx, p); err != nil {
			return nil, err
		}
		if err := checkConflictTx(ctx, tx, p, 0, classID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE class_id = ?`, classID); err != nil {
		return nil, fmt.Errorf("clearing timetable of class %d: %w", classID, err)
	}
	for _, p := range payload {
		p.ForClassID = classID
		if _, err := insertSlotTx(ctx, tx, ids[cell{p.DayOfWeek, p.PeriodID}], p); err != nil {
			return nil, err
		}
	}

	slots, err := querySlots(ctx, tx, ` WHERE s.class_id = ?`, classID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return slots, nil
}

// insertSlotTx inserts p, reusing id when it is not zero.
func insertSlotTx(ctx context.Context, tx *sql.Tx, id int64, p timetable.SlotPayload) (int64, error) {
	query := `
		INSERT INTO slots (id, class_id, day_of_week, period_id, teacher_id, course_id, room_id, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var idArg any
	if id != 0 {
		idArg = id
	}
	result, err := tx.ExecContext(ctx, query,
		idArg, p.ForClassID, p.DayOfWeek, p.PeriodID,
		nullID(p.TeacherID), nullID(p.ForCourseID), nullID(p.RoomID), description(p),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting slot %s/%d: %w", p.DayOfWeek, p.PeriodID, err)
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return newID, nil
}

// ============================================================================
// Checks
// ============================================================================

var entityNames = map[string]string{
	"periods":     "period",
	TableTeachers: "teacher",
	TableCourses:  "course",
	TableRooms:    "room",
	TableClasses:  "class",
}

func checkExists(ctx context.Context, q querier, table string, id int64) error {
	entity, ok := entityNames[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", entity, id, timetable.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up %s %d: %w", entity, id, err)
	}
	return nil
}

// checkRefsTx makes sure every id in p points at an existing row.
func checkRefsTx(ctx context.Context, tx *sql.Tx, p timetable.SlotPayload) error {
	if err := checkExists(ctx, tx, "periods", p.PeriodID); err != nil {
		return err
	}
	if err := checkExists(ctx, tx, TableClasses, p.ForClassID); err != nil {
		return err
	}
	refs := []struct {
		table string
		id    *int64
	}{
		{TableTeachers, p.TeacherID},
		{TableCourses, p.ForCourseID},
		{TableRooms, p.RoomID},
	}
	for _, r := range refs {
		if r.id == nil {
			continue
		}
		if err := checkExists(ctx, tx, r.table, *r.id); err != nil {
			return err
		}
	}
	return nil
}

// checkCellFreeTx rejects a write onto a cell of the same class that is
// already held by another slot.
func checkCellFreeTx(ctx context.Context, tx *sql.Tx, p timetable.SlotPayload, excludeID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM slots
		WHERE class_id = ? AND day_of_week = ? AND period_id = ? AND id != ?
		LIMIT 1
	`, p.ForClassID, p.DayOfWeek, p.PeriodID, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking cell: %w", err)
	}
	return &timetable.ConflictError{
		Dimension: timetable.ConflictSlot,
		Day:       p.DayOfWeek,
		PeriodID:  p.PeriodID,
		ClassID:   p.ForClassID,
		Message:   fmt.Sprintf("%s period %d is already held by slot #%d", p.DayOfWeek, p.PeriodID, id),
	}
}

// checkConflictTx reports a teacher or room booked at the same day and
// period by another slot. excludeID skips one slot (the one being updated);
// excludeClassID skips a whole class (the one being replaced).
func checkConflictTx(ctx context.Context, tx *sql.Tx, p timetable.SlotPayload, excludeID, excludeClassID int64) error {
	dims := []struct {
		dimension string
		column    string
		id        *int64
	}{
		{timetable.ConflictTeacher, "teacher_id", p.TeacherID},
		{timetable.ConflictRoom, "room_id", p.RoomID},
	}
	for _, d := range dims {
		if d.id == nil {
			continue
		}
		query := `
			SELECT s.id, s.class_id, c.name
			FROM slots s JOIN classes c ON c.id = s.class_id
			WHERE s.day_of_week = ? AND s.period_id = ? AND s.` + d.column + ` = ?
			  AND s.id != ? AND s.class_id != ?
			LIMIT 1
		`
		var (
			slotID, classID int64
			className       string
		)
		err := tx.QueryRowContext(ctx, query, p.DayOfWeek, p.PeriodID, *d.id, excludeID, excludeClassID).
			Scan(&slotID, &classID, &className)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("checking %s conflict: %w", d.dimension, err)
		}
		return &timetable.ConflictError{
			Dimension: d.dimension,
			Day:       p.DayOfWeek,
			PeriodID:  p.PeriodID,
			RefID:     *d.id,
			ClassID:   classID,
			Message: fmt.Sprintf("%s #%d is already booked on %s period %d by class %q",
				d.dimension, *d.id, p.DayOfWeek, p.PeriodID, className),
		}
	}
	return nil
}
