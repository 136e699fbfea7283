package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutools/timetable-optimizer/internal/engine"
	"github.com/edutools/timetable-optimizer/internal/models"
	appErrors "github.com/edutools/timetable-optimizer/pkg/errors"
)

func storedSchedule() *models.Schedule {
	nine := models.NewTimeSlot(time.Monday, 9, 0, 50)
	ten := models.NewTimeSlot(time.Monday, 10, 0, 50)
	return &models.Schedule{
		ID:     "sched-1",
		Name:   "fall-draft",
		Status: models.ScheduleStatusDraft,
		Slots: []models.ScheduleSlot{
			{ID: 1, CourseID: "c-alg", TeacherID: "t-math", RoomID: "r-101", Time: &nine, Status: models.SlotStatusScheduled},
			{ID: 2, CourseID: "c-mech", TeacherID: "t-phys", RoomID: "r-102", Time: &ten, Status: models.SlotStatusScheduled},
		},
	}
}

func newResolutionService(store *stubScheduleStore) *ResolutionService {
	f := newOptimizationFixture()
	return NewResolutionService(store, f.courses, f.teachers, f.rooms, fastOptimizerConfig(), nil, nil)
}

func TestResolutionServiceCheckMoveConflictsDryRun(t *testing.T) {
	store := &stubScheduleStore{schedule: storedSchedule()}
	svc := newResolutionService(store)

	// Slot 2 holds a different teacher and room, so sharing its hour is
	// clean.
	proposed := models.NewTimeSlot(time.Monday, 10, 0, 50)
	conflicts, err := svc.CheckMoveConflicts(context.Background(), "sched-1", 1, proposed)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Nothing was persisted and the stored slot kept its time.
	assert.Zero(t, store.saveCalls)
	assert.Equal(t, 9*60, store.schedule.Slots[0].Time.Start)
}

func TestResolutionServiceCheckMoveConflictsDetectsCollision(t *testing.T) {
	schedule := storedSchedule()
	schedule.Slots[1].TeacherID = "t-math"
	store := &stubScheduleStore{schedule: schedule}
	svc := newResolutionService(store)

	proposed := models.NewTimeSlot(time.Monday, 10, 30, 50)
	conflicts, err := svc.CheckMoveConflicts(context.Background(), "sched-1", 1, proposed)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictTeacher, conflicts[0].Type)
	assert.Equal(t, 1, conflicts[0].SlotID)
	assert.Equal(t, 2, conflicts[0].OtherSlotID)
}

func TestResolutionServiceCheckMoveConflictsHonoursUnavailability(t *testing.T) {
	store := &stubScheduleStore{schedule: storedSchedule()}
	f := newOptimizationFixture()
	teachers := f.teachers.teachers
	teachers[0].Unavailable = types.JSONText(`[{"day":2,"start":660,"end":720}]`)
	svc := NewResolutionService(store, f.courses, stubTeacherReader{teachers: teachers}, f.rooms, fastOptimizerConfig(), nil, nil)

	proposed := models.NewTimeSlot(time.Tuesday, 11, 0, 50)
	conflicts, err := svc.CheckMoveConflicts(context.Background(), "sched-1", 1, proposed)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictAvailability, conflicts[0].Type)
	assert.Equal(t, 1, conflicts[0].SlotID)
}

func TestResolutionServiceMoveSlotPersists(t *testing.T) {
	store := &stubScheduleStore{schedule: storedSchedule()}
	svc := newResolutionService(store)

	newTime := models.NewTimeSlot(time.Tuesday, 11, 0, 50)
	saved, err := svc.MoveSlot(context.Background(), "sched-1", 1, newTime)
	require.NoError(t, err)

	slot := saved.SlotByID(1)
	require.NotNil(t, slot)
	assert.Equal(t, time.Tuesday, slot.Time.Day)
	assert.Equal(t, 11*60, slot.Time.Start)
	assert.Equal(t, models.SlotStatusScheduled, slot.Status)
	assert.Equal(t, 1, store.saveCalls)
}

func TestResolutionServiceForceMoveMarksConflict(t *testing.T) {
	store := &stubScheduleStore{schedule: storedSchedule()}
	svc := newResolutionService(store)

	clear := models.NewTimeSlot(time.Friday, 8, 0, 50)
	saved, err := svc.ForceMove(context.Background(), "sched-1", 1, clear)
	require.NoError(t, err)

	slot := saved.SlotByID(1)
	require.NotNil(t, slot)
	assert.Equal(t, models.SlotStatusConflict, slot.Status)
	assert.NotEmpty(t, slot.ConflictNote)
}

func TestResolutionServiceSwapSlotsInvolution(t *testing.T) {
	store := &stubScheduleStore{schedule: storedSchedule()}
	svc := newResolutionService(store)

	original := store.schedule.Clone()

	swapped, err := svc.SwapSlots(context.Background(), "sched-1", 1, 2)
	require.NoError(t, err)

	a := swapped.SlotByID(1)
	b := swapped.SlotByID(2)
	assert.Equal(t, "t-phys", a.TeacherID)
	assert.Equal(t, "r-102", a.RoomID)
	assert.Equal(t, 10*60, a.Time.Start)
	assert.Equal(t, "t-math", b.TeacherID)
	assert.Equal(t, "r-101", b.RoomID)
	assert.Equal(t, 9*60, b.Time.Start)

	restored, err := svc.SwapSlots(context.Background(), "sched-1", 1, 2)
	require.NoError(t, err)

	for _, id := range []int{1, 2} {
		want := original.SlotByID(id)
		got := restored.SlotByID(id)
		assert.Equal(t, want.TeacherID, got.TeacherID)
		assert.Equal(t, want.RoomID, got.RoomID)
		assert.Equal(t, *want.Time, *got.Time)
	}
}

func TestResolutionServiceSwapSameSlotRejected(t *testing.T) {
	svc := newResolutionService(&stubScheduleStore{schedule: storedSchedule()})

	_, err := svc.SwapSlots(context.Background(), "sched-1", 1, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolutionServiceSlotNotFound(t *testing.T) {
	svc := newResolutionService(&stubScheduleStore{schedule: storedSchedule()})

	_, err := svc.MoveSlot(context.Background(), "sched-1", 99, models.NewTimeSlot(time.Monday, 9, 0, 50))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolutionServiceScheduleNotFound(t *testing.T) {
	svc := newResolutionService(&stubScheduleStore{})

	_, err := svc.MoveSlot(context.Background(), "missing", 1, models.NewTimeSlot(time.Monday, 9, 0, 50))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolutionServiceAutoResolveNeverRegresses(t *testing.T) {
	schedule := storedSchedule()
	overlap := models.NewTimeSlot(time.Monday, 9, 0, 50)
	schedule.Slots[1].TeacherID = "t-math"
	schedule.Slots[1].Time = &overlap
	store := &stubScheduleStore{schedule: schedule}
	svc := newResolutionService(store)

	f := newOptimizationFixture()
	res := engine.NewResources(f.courses.courses, f.teachers.teachers, f.rooms.rooms)
	before := engine.RefreshStatuses(schedule.Clone(), res)
	require.Equal(t, 2, before)

	resolved, err := svc.AutoResolve(context.Background(), "sched-1", 42)
	require.NoError(t, err)

	after := 0
	for _, slot := range resolved.Slots {
		if slot.Status == models.SlotStatusConflict {
			after++
		}
	}
	assert.LessOrEqual(t, after, before)
	assert.Equal(t, 1, store.saveCalls)
}
