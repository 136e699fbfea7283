package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutools/timetable-optimizer/internal/models"
	"github.com/edutools/timetable-optimizer/pkg/config"
	appErrors "github.com/edutools/timetable-optimizer/pkg/errors"
)

type stubCourseReader struct {
	courses []models.Course
	err     error
}

func (s stubCourseReader) ListAll(context.Context) ([]models.Course, error) {
	return s.courses, s.err
}

type stubTeacherReader struct {
	teachers []models.Teacher
	err      error
}

func (s stubTeacherReader) ListActive(context.Context) ([]models.Teacher, error) {
	return s.teachers, s.err
}

type stubRoomReader struct {
	rooms []models.Room
	err   error
}

func (s stubRoomReader) ListAll(context.Context) ([]models.Room, error) {
	return s.rooms, s.err
}

type stubScheduleStore struct {
	schedule  *models.Schedule
	saveErr   error
	findErr   error
	saveCalls int
}

func (s *stubScheduleStore) Save(_ context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saveCalls++
	if schedule.ID == "" {
		schedule.ID = "sched-1"
	}
	s.schedule = schedule.Clone()
	return schedule, nil
}

func (s *stubScheduleStore) FindByID(context.Context, string) (*models.Schedule, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.schedule == nil {
		return nil, sql.ErrNoRows
	}
	return s.schedule.Clone(), nil
}

func (s *stubScheduleStore) SaveSlot(_ context.Context, _ string, slot models.ScheduleSlot) (*models.ScheduleSlot, error) {
	return &slot, nil
}

type optimizationFixture struct {
	courses  stubCourseReader
	teachers stubTeacherReader
	rooms    stubRoomReader
	store    *stubScheduleStore
}

func newOptimizationFixture() optimizationFixture {
	return optimizationFixture{
		courses: stubCourseReader{courses: []models.Course{
			{ID: "c-alg", Name: "Algebra", Subject: "Math", DurationMinutes: 50, CurrentEnrollment: 25},
			{ID: "c-geo", Name: "Geometry", Subject: "Math", DurationMinutes: 50, CurrentEnrollment: 22},
			{ID: "c-mech", Name: "Mechanics", Subject: "Physics", DurationMinutes: 50, CurrentEnrollment: 20},
		}},
		teachers: stubTeacherReader{teachers: []models.Teacher{
			{ID: "t-math", Department: "Math", Active: true},
			{ID: "t-phys", Department: "Physics", Active: true},
		}},
		rooms: stubRoomReader{rooms: []models.Room{
			{ID: "r-101", Number: "101", Capacity: 30},
			{ID: "r-102", Number: "102", Capacity: 30},
		}},
		store: &stubScheduleStore{},
	}
}

func fastOptimizerConfig() config.OptimizerConfig {
	return config.OptimizerConfig{
		Scenario:           "HIGH_SCHOOL",
		Seed:               7,
		PopulationSize:     15,
		Generations:        10,
		AnnealingSteps:     200,
		InitialTemperature: 1000,
		CoolingRate:        0.95,
	}
}

func newOptimizationService(f optimizationFixture) *OptimizationService {
	return NewOptimizationService(
		f.courses, f.teachers, f.rooms, f.store,
		nil, fastOptimizerConfig(), config.SolverConfig{Timeout: time.Second},
		nil, nil, nil, nil,
	)
}

func TestOptimizationServiceOptimizeSuccess(t *testing.T) {
	f := newOptimizationFixture()
	svc := newOptimizationService(f)

	resp, err := svc.Optimize(context.Background(), OptimizeRequest{Name: "fall-draft"})
	require.NoError(t, err)

	assert.Equal(t, "sched-1", resp.Schedule.ID)
	assert.Equal(t, models.ScheduleStatusDraft, resp.Schedule.Status)
	assert.Len(t, resp.Schedule.Slots, 3)
	assert.Equal(t, 1, f.store.saveCalls)
	assert.False(t, resp.SolverApplied)
	assert.Equal(t, "sched-1", resp.Metrics.ScheduleID)
	assert.LessOrEqual(t, resp.FinalEnergy, resp.InitialEnergy)
}

func TestOptimizationServiceOptimizeValidatesRequest(t *testing.T) {
	svc := newOptimizationService(newOptimizationFixture())

	_, err := svc.Optimize(context.Background(), OptimizeRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Optimize(context.Background(), OptimizeRequest{Name: "x", Scenario: "KINDERGARTEN"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOptimizationServiceOptimizeAbortsOnEmptyReferenceData(t *testing.T) {
	f := newOptimizationFixture()
	f.teachers = stubTeacherReader{}
	svc := newOptimizationService(f)

	_, err := svc.Optimize(context.Background(), OptimizeRequest{Name: "fall-draft"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.store.saveCalls, "no partial schedule may be persisted")
}

func TestOptimizationServiceOptimizePersistFailure(t *testing.T) {
	f := newOptimizationFixture()
	f.store.saveErr = assert.AnError
	svc := newOptimizationService(f)

	_, err := svc.Optimize(context.Background(), OptimizeRequest{Name: "fall-draft"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestOptimizationServiceOptimizeReproducibleWithSeed(t *testing.T) {
	first, err := newOptimizationService(newOptimizationFixture()).
		Optimize(context.Background(), OptimizeRequest{Name: "repro", Seed: 123})
	require.NoError(t, err)

	second, err := newOptimizationService(newOptimizationFixture()).
		Optimize(context.Background(), OptimizeRequest{Name: "repro", Seed: 123})
	require.NoError(t, err)

	require.Len(t, second.Schedule.Slots, len(first.Schedule.Slots))
	for i := range first.Schedule.Slots {
		assert.Equal(t, first.Schedule.Slots[i].TeacherID, second.Schedule.Slots[i].TeacherID)
		assert.Equal(t, first.Schedule.Slots[i].RoomID, second.Schedule.Slots[i].RoomID)
		assert.Equal(t, *first.Schedule.Slots[i].Time, *second.Schedule.Slots[i].Time)
	}
}

func TestOptimizationServiceReportComputesWhenUncached(t *testing.T) {
	f := newOptimizationFixture()
	svc := newOptimizationService(f)

	resp, err := svc.Optimize(context.Background(), OptimizeRequest{Name: "fall-draft"})
	require.NoError(t, err)

	report, err := svc.Report(context.Background(), resp.Schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Metrics.SlotCount, report.SlotCount)
	assert.InDelta(t, resp.Metrics.QualityScore, report.QualityScore, 1e-9)
}
