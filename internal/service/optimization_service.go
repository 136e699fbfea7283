package service

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edutools/timetable-optimizer/internal/engine"
	"github.com/edutools/timetable-optimizer/internal/models"
	"github.com/edutools/timetable-optimizer/pkg/config"
	appErrors "github.com/edutools/timetable-optimizer/pkg/errors"
)

type courseReader interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type teacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type roomReader interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type scheduleStore interface {
	Save(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	SaveSlot(ctx context.Context, scheduleID string, slot models.ScheduleSlot) (*models.ScheduleSlot, error)
}

// OptimizeRequest is the payload for one optimization run.
type OptimizeRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Scenario string `json:"scenario" validate:"omitempty,oneof=HIGH_SCHOOL ELEMENTARY UNIVERSITY"`
	Seed     int64  `json:"seed"`
}

// OptimizeResponse reports the persisted schedule and how the run went.
type OptimizeResponse struct {
	Schedule      *models.Schedule       `json:"schedule"`
	Metrics       engine.ScheduleMetrics `json:"metrics"`
	SolverApplied bool                   `json:"solver_applied"`
	SolverReason  string                 `json:"solver_reason,omitempty"`
	InitialEnergy float64                `json:"initial_energy"`
	FinalEnergy   float64                `json:"final_energy"`
	Duration      time.Duration          `json:"duration"`
}

// OptimizationService runs the full pipeline against a consistent snapshot
// of the reference data and persists the winning schedule.
type OptimizationService struct {
	courses  courseReader
	teachers teacherReader
	rooms    roomReader
	store    scheduleStore
	solver   engine.Solver

	optimizer config.OptimizerConfig
	solverCfg config.SolverConfig

	cache     *ReportCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOptimizationService constructs an OptimizationService. The solver,
// cache and metrics collaborators are optional.
func NewOptimizationService(
	courses courseReader,
	teachers teacherReader,
	rooms roomReader,
	store scheduleStore,
	solver engine.Solver,
	optimizer config.OptimizerConfig,
	solverCfg config.SolverConfig,
	cache *ReportCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *OptimizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptimizationService{
		courses:   courses,
		teachers:  teachers,
		rooms:     rooms,
		store:     store,
		solver:    solver,
		optimizer: optimizer,
		solverCfg: solverCfg,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Optimize executes one full run: load snapshot, cluster, evolve, anneal,
// solver pass, score, persist.
func (s *OptimizationService) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimization request")
	}

	res, err := s.loadResources(ctx)
	if err != nil {
		return nil, err
	}

	scenario := engine.Scenario(req.Scenario)
	if scenario == "" {
		scenario = engine.Scenario(s.optimizer.Scenario)
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.optimizer.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	adapter := engine.NewSolverAdapter(s.solver, res, s.solverCfg.Timeout, s.logger)
	pipeline := engine.NewPipeline(res, adapter, engine.PipelineConfig{
		Scenario: scenario,
		Genetic: engine.GeneticConfig{
			PopulationSize: s.optimizer.PopulationSize,
			Generations:    s.optimizer.Generations,
			TournamentSize: s.optimizer.TournamentSize,
			CrossoverRate:  s.optimizer.CrossoverRate,
			MutationRate:   s.optimizer.MutationRate,
		},
		Annealing: engine.AnnealingConfig{
			InitialTemperature: s.optimizer.InitialTemperature,
			CoolingRate:        s.optimizer.CoolingRate,
			Iterations:         s.optimizer.AnnealingSteps,
		},
	}, rng, s.logger)

	s.logger.Sugar().Infow("optimization run starting",
		"name", req.Name, "scenario", scenario, "seed", seed,
		"courses", len(res.Courses), "teachers", len(res.Teachers), "rooms", len(res.Rooms))

	result, err := pipeline.Run(ctx, req.Name)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	saved, err := s.store.Save(ctx, result.Outcome.Schedule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule")
	}

	metrics := result.Metrics
	metrics.ScheduleID = saved.ID

	s.metrics.ObserveRun(string(scenario), result.Outcome.Optimized, result.Duration, result.FinalEnergy, metrics.QualityScore)
	if s.solver != nil && !result.Outcome.Optimized {
		s.metrics.RecordSolverFallback()
	}
	s.cache.Set(ctx, saved.ID, metrics)

	return &OptimizeResponse{
		Schedule:      saved,
		Metrics:       metrics,
		SolverApplied: result.Outcome.Optimized,
		SolverReason:  result.Outcome.Reason,
		InitialEnergy: result.InitialEnergy,
		FinalEnergy:   result.FinalEnergy,
		Duration:      result.Duration,
	}, nil
}

// Report returns the quality metrics for a stored schedule, from cache
// when possible.
func (s *OptimizationService) Report(ctx context.Context, scheduleID string) (*engine.ScheduleMetrics, error) {
	if cached, ok := s.cache.Get(ctx, scheduleID); ok {
		return cached, nil
	}

	schedule, err := s.store.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}

	res, err := s.loadResources(ctx)
	if err != nil {
		return nil, err
	}

	engine.RefreshStatuses(schedule, res)
	metrics := engine.Score(schedule, res)
	s.cache.Set(ctx, scheduleID, metrics)
	return &metrics, nil
}

// loadResources takes one consistent snapshot of the reference data for
// the duration of a run.
func (s *OptimizationService) loadResources(ctx context.Context) (*engine.Resources, error) {
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	res := engine.NewResources(courses, teachers, rooms)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}
