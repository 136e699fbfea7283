package engine

import (
	"github.com/edutools/timetable-optimizer/internal/models"
	"github.com/edutools/timetable-optimizer/pkg/errors"
)

// Resources is the read-only reference data one optimization run operates
// on. The optimizer never mutates it; runs share it freely.
type Resources struct {
	Courses  []models.Course
	Teachers []models.Teacher
	Rooms    []models.Room

	courseByID           map[string]models.Course
	teacherByID          map[string]models.Teacher
	roomByID             map[string]models.Room
	unavailableByTeacher map[string][]models.UnavailableBlock
}

// NewResources indexes the reference data for constant-time lookups during
// scoring and conflict detection.
func NewResources(courses []models.Course, teachers []models.Teacher, rooms []models.Room) *Resources {
	r := &Resources{
		Courses:              courses,
		Teachers:             teachers,
		Rooms:                rooms,
		courseByID:           make(map[string]models.Course, len(courses)),
		teacherByID:          make(map[string]models.Teacher, len(teachers)),
		roomByID:             make(map[string]models.Room, len(rooms)),
		unavailableByTeacher: make(map[string][]models.UnavailableBlock, len(teachers)),
	}
	for _, c := range courses {
		r.courseByID[c.ID] = c
	}
	for _, t := range teachers {
		r.teacherByID[t.ID] = t
		if blocks, err := t.UnavailableBlocks(); err == nil && len(blocks) > 0 {
			r.unavailableByTeacher[t.ID] = blocks
		}
	}
	for _, rm := range rooms {
		r.roomByID[rm.ID] = rm
	}
	return r
}

// Validate rejects empty reference data before any stage runs.
func (r *Resources) Validate() error {
	if len(r.Courses) == 0 {
		return errors.Clone(errors.ErrPreconditionFailed, "no courses available for optimization")
	}
	if len(r.Teachers) == 0 {
		return errors.Clone(errors.ErrPreconditionFailed, "no teachers available for optimization")
	}
	if len(r.Rooms) == 0 {
		return errors.Clone(errors.ErrPreconditionFailed, "no rooms available for optimization")
	}
	return nil
}

// Course looks up a course by ID.
func (r *Resources) Course(id string) (models.Course, bool) {
	c, ok := r.courseByID[id]
	return c, ok
}

// Teacher looks up a teacher by ID.
func (r *Resources) Teacher(id string) (models.Teacher, bool) {
	t, ok := r.teacherByID[id]
	return t, ok
}

// Room looks up a room by ID.
func (r *Resources) Room(id string) (models.Room, bool) {
	rm, ok := r.roomByID[id]
	return rm, ok
}

// TeacherUnavailable returns the decoded unavailability windows for a
// teacher. Decoded once at construction; malformed payloads read as always
// available.
func (r *Resources) TeacherUnavailable(id string) []models.UnavailableBlock {
	return r.unavailableByTeacher[id]
}
