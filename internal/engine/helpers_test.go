package engine

import (
	"time"

	"github.com/edutools/timetable-optimizer/internal/models"
)

func fixtureResources() *Resources {
	courses := []models.Course{
		{ID: "c-alg", Code: "MAT101", Name: "Algebra", Subject: "Math", DurationMinutes: 50, CurrentEnrollment: 25},
		{ID: "c-geo", Code: "MAT102", Name: "Geometry", Subject: "Math", DurationMinutes: 50, CurrentEnrollment: 22},
		{ID: "c-mech", Code: "PHY101", Name: "Mechanics", Subject: "Physics", DurationMinutes: 50, CurrentEnrollment: 20},
	}
	teachers := []models.Teacher{
		{ID: "t-math", FullName: "Ada Martin", Department: "Math", Active: true},
		{ID: "t-phys", FullName: "Paul Young", Department: "Physics", Active: true},
	}
	rooms := []models.Room{
		{ID: "r-101", Number: "101", Capacity: 30, Type: "classroom"},
		{ID: "r-102", Number: "102", Capacity: 30, Type: "classroom"},
	}
	return NewResources(courses, teachers, rooms)
}

func timedSlot(id int, courseID, teacherID, roomID string, day time.Weekday, hour, minute, duration int) models.ScheduleSlot {
	ts := models.NewTimeSlot(day, hour, minute, duration)
	return models.ScheduleSlot{
		ID:        id,
		CourseID:  courseID,
		TeacherID: teacherID,
		RoomID:    roomID,
		Time:      &ts,
		Status:    models.SlotStatusScheduled,
	}
}
