package engine

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// PipelineConfig bundles the stage parameters for one run.
type PipelineConfig struct {
	Scenario  Scenario
	Genetic   GeneticConfig
	Annealing AnnealingConfig
}

// Result is the output of one optimization run.
type Result struct {
	Outcome       SolveOutcome
	Metrics       ScheduleMetrics
	InitialEnergy float64
	FinalEnergy   float64
	Generations   int
	Duration      time.Duration
}

// Pipeline runs clustering, genetic search, annealing refinement and the
// external solver pass in strict sequence. Each run owns its mutable state
// privately; the reference data is shared read-only.
type Pipeline struct {
	res    *Resources
	eval   *Evaluator
	solver *SolverAdapter
	cfg    PipelineConfig
	rng    *rand.Rand
	logger *zap.Logger
}

// NewPipeline wires a pipeline for one scenario. The random generator is
// the run's single source of randomness; pass a seeded one for
// reproducible runs.
func NewPipeline(res *Resources, solver *SolverAdapter, cfg PipelineConfig, rng *rand.Rand, logger *zap.Logger) *Pipeline {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		res:    res,
		eval:   NewEvaluator(res, cfg.Scenario),
		solver: solver,
		cfg:    cfg,
		rng:    rng,
		logger: logger,
	}
}

// Run executes the full pipeline and produces a draft schedule with its
// quality metrics. Aborts before any stage when the reference data is
// unusable; between stages it honors cancellation cooperatively so no
// partially-mutated schedule escapes.
func (p *Pipeline) Run(ctx context.Context, name string) (*Result, error) {
	started := time.Now()

	if err := p.res.Validate(); err != nil {
		return nil, err
	}

	clusters := BuildClusters(p.res.Courses, p.res.Teachers)
	p.logger.Sugar().Infow("clustering complete", "schedule", name, "clusters", len(clusters))

	ga := NewGeneticStage(p.res, p.eval, clusters, p.cfg.Genetic, p.rng)
	best, err := ga.Evolve(ctx)
	if err != nil {
		return nil, err
	}

	schedule := best.ToSchedule(name)
	RefreshStatuses(schedule, p.res)
	initialEnergy := p.eval.Energy(schedule)
	p.logger.Sugar().Infow("genetic stage complete",
		"schedule", name, "fitness", best.Fitness, "energy", initialEnergy)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sa := NewAnnealingStage(p.res, p.eval, p.cfg.Annealing, p.rng)
	refined, err := sa.Refine(ctx, schedule)
	if err != nil {
		return nil, err
	}
	RefreshStatuses(refined, p.res)
	p.logger.Sugar().Infow("annealing stage complete",
		"schedule", name, "energy", p.eval.Energy(refined))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome := p.solver.Refine(ctx, refined)
	final := outcome.Schedule
	RefreshStatuses(final, p.res)
	finalEnergy := p.eval.Energy(final)

	result := &Result{
		Outcome:       outcome,
		Metrics:       Score(final, p.res),
		InitialEnergy: initialEnergy,
		FinalEnergy:   finalEnergy,
		Generations:   p.cfg.Genetic.withDefaults().Generations,
		Duration:      time.Since(started),
	}
	p.logger.Sugar().Infow("optimization run complete",
		"schedule", name,
		"optimized_by_solver", outcome.Optimized,
		"initial_energy", initialEnergy,
		"final_energy", finalEnergy,
		"quality", result.Metrics.QualityScore,
		"duration", result.Duration)
	return result, nil
}
