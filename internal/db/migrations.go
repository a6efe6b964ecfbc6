package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS periods (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			idx        INTEGER NOT NULL UNIQUE,
			start_time TEXT NOT NULL DEFAULT '',
			end_time   TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS teachers (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS courses (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS rooms (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS classes (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS slots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			class_id    INTEGER NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
			day_of_week TEXT NOT NULL CHECK(day_of_week IN ('MONDAY', 'TUESDAY', 'WEDNESDAY', 'THURSDAY', 'FRIDAY', 'SATURDAY')),
			period_id   INTEGER NOT NULL REFERENCES periods(id),
			teacher_id  INTEGER REFERENCES teachers(id),
			course_id   INTEGER REFERENCES courses(id),
			room_id     INTEGER REFERENCES rooms(id),
			description TEXT NOT NULL DEFAULT '',
			UNIQUE(class_id, day_of_week, period_id)
		);

		CREATE INDEX IF NOT EXISTS idx_slots_teacher ON slots(day_of_week, period_id, teacher_id);
		CREATE INDEX IF NOT EXISTS idx_slots_room ON slots(day_of_week, period_id, room_id);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating timetable tables: %w", err)
	}

	return nil
}
