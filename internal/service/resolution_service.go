package service

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/edutools/timetable-optimizer/internal/engine"
	"github.com/edutools/timetable-optimizer/internal/models"
	"github.com/edutools/timetable-optimizer/pkg/config"
	appErrors "github.com/edutools/timetable-optimizer/pkg/errors"
)

// ResolutionService applies manual conflict-resolution operations to stored
// schedules. Every path funnels through the same detector the pipeline
// uses, so manual and automatic conflict semantics never diverge.
type ResolutionService struct {
	store    scheduleStore
	courses  courseReader
	teachers teacherReader
	rooms    roomReader

	optimizer config.OptimizerConfig
	cache     *ReportCache
	logger    *zap.Logger
}

// NewResolutionService constructs a ResolutionService. The cache is
// optional.
func NewResolutionService(
	store scheduleStore,
	courses courseReader,
	teachers teacherReader,
	rooms roomReader,
	optimizer config.OptimizerConfig,
	cache *ReportCache,
	logger *zap.Logger,
) *ResolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolutionService{
		store:     store,
		courses:   courses,
		teachers:  teachers,
		rooms:     rooms,
		optimizer: optimizer,
		cache:     cache,
		logger:    logger,
	}
}

// CheckMoveConflicts dry-runs a slot move against the full slot set,
// excluding the slot itself, and reports the conflicts the move would
// introduce. Nothing is persisted.
func (s *ResolutionService) CheckMoveConflicts(ctx context.Context, scheduleID string, slotID int, proposed models.TimeSlot) ([]models.Conflict, error) {
	schedule, res, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	slot := schedule.SlotByID(slotID)
	if slot == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}

	candidate := slot.Clone()
	t := proposed
	candidate.Time = &t

	others := make([]models.ScheduleSlot, 0, len(schedule.Slots)-1)
	for _, other := range schedule.Slots {
		if other.ID != slotID {
			others = append(others, other)
		}
	}
	return engine.SlotConflicts(candidate, others, res), nil
}

// MoveSlot overwrites a slot's placement unconditionally and persists the
// schedule with refreshed statuses.
func (s *ResolutionService) MoveSlot(ctx context.Context, scheduleID string, slotID int, newTime models.TimeSlot) (*models.Schedule, error) {
	schedule, res, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	slot := schedule.SlotByID(slotID)
	if slot == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}

	t := newTime
	slot.Time = &t
	engine.RefreshStatuses(schedule, res)

	return s.persist(ctx, schedule, "move")
}

// ForceMove applies a placement despite conflicts, explicitly marking the
// slot CONFLICT so the override stays visible.
func (s *ResolutionService) ForceMove(ctx context.Context, scheduleID string, slotID int, newTime models.TimeSlot) (*models.Schedule, error) {
	schedule, res, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	slot := schedule.SlotByID(slotID)
	if slot == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}

	t := newTime
	slot.Time = &t
	engine.RefreshStatuses(schedule, res)

	slot = schedule.SlotByID(slotID)
	slot.Status = models.SlotStatusConflict
	if slot.ConflictNote == "" {
		slot.ConflictNote = "placement forced by manual override"
	}

	return s.persist(ctx, schedule, "force-move")
}

// SwapSlots exchanges teacher, room and time between two slots atomically:
// the exchange happens on a working copy and is committed in one save, so
// either both slots change or neither does. Re-running the swap restores
// the original state.
func (s *ResolutionService) SwapSlots(ctx context.Context, scheduleID string, slotA, slotB int) (*models.Schedule, error) {
	if slotA == slotB {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot swap a slot with itself")
	}

	schedule, res, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	working := schedule.Clone()
	a := working.SlotByID(slotA)
	b := working.SlotByID(slotB)
	if a == nil || b == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
	}

	a.TeacherID, b.TeacherID = b.TeacherID, a.TeacherID
	a.RoomID, b.RoomID = b.RoomID, a.RoomID
	a.Time, b.Time = b.Time, a.Time
	engine.RefreshStatuses(working, res)

	return s.persist(ctx, working, "swap")
}

// AutoResolve runs a bounded annealing pass seeded from the stored
// schedule and persists the conflict-reduced result.
func (s *ResolutionService) AutoResolve(ctx context.Context, scheduleID string, seed int64) (*models.Schedule, error) {
	schedule, res, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	eval := engine.NewEvaluator(res, engine.Scenario(s.optimizer.Scenario))
	sa := engine.NewAnnealingStage(res, eval, engine.AnnealingConfig{
		InitialTemperature: s.optimizer.InitialTemperature,
		CoolingRate:        s.optimizer.CoolingRate,
		Iterations:         s.optimizer.AnnealingSteps,
	}, rng)

	resolved, err := sa.Refine(ctx, schedule)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	conflicts := engine.RefreshStatuses(resolved, res)
	s.logger.Sugar().Infow("auto-resolve complete",
		"schedule_id", scheduleID, "remaining_conflicts", conflicts)

	return s.persist(ctx, resolved, "auto-resolve")
}

func (s *ResolutionService) load(ctx context.Context, scheduleID string) (*models.Schedule, *engine.Resources, error) {
	schedule, err := s.store.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	return schedule, engine.NewResources(courses, teachers, rooms), nil
}

func (s *ResolutionService) persist(ctx context.Context, schedule *models.Schedule, op string) (*models.Schedule, error) {
	saved, err := s.store.Save(ctx, schedule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule")
	}
	s.cache.Invalidate(ctx, saved.ID)
	s.logger.Sugar().Infow("resolution applied", "schedule_id", saved.ID, "operation", op)
	return saved, nil
}
