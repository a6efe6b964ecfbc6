package db

import (
	"context"
	"fmt"

	"github.com/javiermolinar/pupitre/internal/timetable"
)

var seedPeriods = []timetable.Period{
	{Index: 1, StartTime: "08:00", EndTime: "08:50"},
	{Index: 2, StartTime: "08:55", EndTime: "09:45"},
	{Index: 3, StartTime: "09:50", EndTime: "10:40"},
	{Index: 4, StartTime: "11:00", EndTime: "11:50"},
	{Index: 5, StartTime: "11:55", EndTime: "12:45"},
	{Index: 6, StartTime: "13:45", EndTime: "14:35"},
}

var (
	seedTeachers = []string{"Ada Lovelace", "Alan Turing", "Grace Hopper", "Edsger Dijkstra"}
	seedCourses  = []string{"Mathematics", "Physics", "Literature", "History", "Computer Science"}
	seedRooms    = []string{"Room 101", "Room 102", "Lab A", "Library"}
	seedClasses  = []string{"1A", "1B", "2A"}
)

// seedLesson places course/teacher/room (1-based positions in the seed
// lists) in a class at a day and period index.
type seedLesson struct {
	class   int
	day     timetable.DayOfWeek
	period  int
	course  int
	teacher int
	room    int
}

var seedLessons = []seedLesson{
	{1, timetable.Monday, 1, 1, 1, 1},
	{1, timetable.Monday, 2, 1, 1, 1},
	{1, timetable.Monday, 3, 3, 3, 4},
	{1, timetable.Tuesday, 1, 2, 2, 3},
	{1, timetable.Tuesday, 3, 1, 1, 1},
	{1, timetable.Tuesday, 4, 2, 2, 3},
	{1, timetable.Wednesday, 2, 5, 4, 3},
	{1, timetable.Wednesday, 3, 5, 4, 3},
	{1, timetable.Friday, 5, 4, 3, 4},
	{2, timetable.Monday, 1, 2, 2, 3},
	{2, timetable.Monday, 2, 3, 3, 2},
	{2, timetable.Thursday, 1, 1, 1, 1},
	{2, timetable.Thursday, 2, 1, 1, 1},
	{3, timetable.Tuesday, 1, 5, 4, 2},
	{3, timetable.Friday, 1, 1, 1, 1},
}

// Seed fills an empty database with demo periods, resources and lessons.
// It does nothing when periods already exist and reports whether it seeded.
func (s *SQLite) Seed(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM periods`).Scan(&count); err != nil {
		return false, fmt.Errorf("checking periods: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	periodIDs := make(map[int]int64, len(seedPeriods))
	for _, p := range seedPeriods {
		if err := s.CreatePeriod(ctx, &p); err != nil {
			return false, err
		}
		periodIDs[p.Index] = p.ID
	}

	refs := map[string][]timetable.Ref{}
	for table, names := range map[string][]string{
		TableTeachers: seedTeachers,
		TableCourses:  seedCourses,
		TableRooms:    seedRooms,
		TableClasses:  seedClasses,
	} {
		for _, name := range names {
			ref, err := s.CreateRef(ctx, table, name)
			if err != nil {
				return false, err
			}
			refs[table] = append(refs[table], ref)
		}
	}

	byClass := make(map[int64][]timetable.SlotPayload)
	var classOrder []int64
	for _, l := range seedLessons {
		classID := refs[TableClasses][l.class-1].ID
		if _, ok := byClass[classID]; !ok {
			classOrder = append(classOrder, classID)
		}
		byClass[classID] = append(byClass[classID], timetable.SlotPayload{
			DayOfWeek:   l.day,
			PeriodID:    periodIDs[l.period],
			ForClassID:  classID,
			ForCourseID: timetable.Int64Ptr(refs[TableCourses][l.course-1].ID),
			TeacherID:   timetable.Int64Ptr(refs[TableTeachers][l.teacher-1].ID),
			RoomID:      timetable.Int64Ptr(refs[TableRooms][l.room-1].ID),
		})
	}
	for _, classID := range classOrder {
		if _, err := s.ReplaceSlots(ctx, classID, byClass[classID]); err != nil {
			return false, fmt.Errorf("seeding class %d: %w", classID, err)
		}
	}
	return true, nil
}
