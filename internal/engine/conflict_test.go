package engine

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutools/timetable-optimizer/internal/models"
)

func TestScheduleConflictsTeacherOverlap(t *testing.T) {
	res := fixtureResources()
	s := &models.Schedule{
		Name: "test",
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50),
			timedSlot(2, "c-geo", "t-math", "r-102", time.Monday, 9, 30, 50),
		},
	}

	conflicts := ScheduleConflicts(s, res)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTeacher, conflicts[0].Type)
	assert.Equal(t, 1, conflicts[0].SlotID)
	assert.Equal(t, 2, conflicts[0].OtherSlotID)
}

func TestScheduleConflictsRoomOverlap(t *testing.T) {
	res := fixtureResources()
	s := &models.Schedule{
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50),
			timedSlot(2, "c-mech", "t-phys", "r-101", time.Monday, 9, 0, 50),
		},
	}

	conflicts := ScheduleConflicts(s, res)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictRoom, conflicts[0].Type)
}

func TestScheduleConflictsAdjacentSlotsClean(t *testing.T) {
	res := fixtureResources()
	s := &models.Schedule{
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 60),
			timedSlot(2, "c-geo", "t-math", "r-101", time.Monday, 10, 0, 60),
		},
	}

	assert.Empty(t, ScheduleConflicts(s, res))
}

func TestScheduleConflictsCapacity(t *testing.T) {
	res := NewResources(
		[]models.Course{{ID: "c-big", Name: "Big Lecture", Subject: "Math", CurrentEnrollment: 45}},
		[]models.Teacher{{ID: "t-math", Department: "Math", Active: true}},
		[]models.Room{{ID: "r-small", Number: "S1", Capacity: 20}},
	)
	s := &models.Schedule{
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-big", "t-math", "r-small", time.Monday, 9, 0, 50),
		},
	}

	conflicts := ScheduleConflicts(s, res)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictCapacity, conflicts[0].Type)
}

func TestScheduleConflictsTeacherUnavailable(t *testing.T) {
	res := NewResources(
		[]models.Course{{ID: "c-alg", Name: "Algebra", Subject: "Math", CurrentEnrollment: 25}},
		[]models.Teacher{{
			ID:          "t-math",
			Department:  "Math",
			Active:      true,
			Unavailable: types.JSONText(`[{"day":1,"start":540,"end":600}]`),
		}},
		[]models.Room{{ID: "r-101", Number: "101", Capacity: 30}},
	)
	s := &models.Schedule{
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50),
		},
	}

	conflicts := ScheduleConflicts(s, res)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictAvailability, conflicts[0].Type)
	assert.Equal(t, models.SeverityHigh, conflicts[0].Severity)
	assert.Equal(t, 1, conflicts[0].SlotID)
	assert.Zero(t, conflicts[0].OtherSlotID)

	conflicted := RefreshStatuses(s, res)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, models.SlotStatusConflict, s.Slots[0].Status)

	// Outside the window the same placement is clean.
	s.Slots[0].Time.Start = 10 * 60
	s.Slots[0].Time.End = 10*60 + 50
	assert.Empty(t, ScheduleConflicts(s, res))
}

func TestSlotConflictsIgnoresUnassignedAndSelf(t *testing.T) {
	res := fixtureResources()
	slot := timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50)

	others := []models.ScheduleSlot{
		slot,
		{ID: 2, CourseID: "c-geo"},
	}
	assert.Empty(t, SlotConflicts(slot, others, res))

	unassigned := models.ScheduleSlot{ID: 3, CourseID: "c-geo"}
	assert.Empty(t, SlotConflicts(unassigned, []models.ScheduleSlot{slot}, res))
}

func TestRefreshStatuses(t *testing.T) {
	res := fixtureResources()
	s := &models.Schedule{
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50),
			timedSlot(2, "c-geo", "t-math", "r-102", time.Monday, 9, 30, 50),
			{ID: 3, CourseID: "c-mech"},
		},
	}

	conflicted := RefreshStatuses(s, res)
	assert.Equal(t, 2, conflicted)
	assert.Equal(t, models.SlotStatusConflict, s.Slots[0].Status)
	assert.Equal(t, models.SlotStatusConflict, s.Slots[1].Status)
	assert.NotEmpty(t, s.Slots[0].ConflictNote)
	assert.Equal(t, models.SlotStatusUnassigned, s.Slots[2].Status)

	s.Slots[1].Time.Start = 11 * 60
	s.Slots[1].Time.End = 11*60 + 50
	conflicted = RefreshStatuses(s, res)
	assert.Zero(t, conflicted)
	assert.Equal(t, models.SlotStatusScheduled, s.Slots[0].Status)
	assert.Empty(t, s.Slots[0].ConflictNote)
}
