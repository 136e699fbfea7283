package engine

import (
	"context"
	"math"
	"math/rand"

	"github.com/edutools/timetable-optimizer/internal/models"
)

// AnnealingConfig tunes the local-search refinement.
type AnnealingConfig struct {
	InitialTemperature float64
	CoolingRate        float64
	Iterations         int
}

func (c AnnealingConfig) withDefaults() AnnealingConfig {
	if c.InitialTemperature <= 0 {
		c.InitialTemperature = 1000
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		c.CoolingRate = 0.95
	}
	if c.Iterations <= 0 {
		c.Iterations = 1000
	}
	return c
}

// AnnealingStage refines a schedule by stochastic local search with the
// Metropolis acceptance rule and a geometric cooling schedule.
type AnnealingStage struct {
	cfg  AnnealingConfig
	res  *Resources
	eval *Evaluator
	rng  *rand.Rand
}

// NewAnnealingStage wires the stage.
func NewAnnealingStage(res *Resources, eval *Evaluator, cfg AnnealingConfig, rng *rand.Rand) *AnnealingStage {
	return &AnnealingStage{cfg: cfg.withDefaults(), res: res, eval: eval, rng: rng}
}

// Refine runs the configured number of iterations and returns the best
// schedule found; the result never scores worse than the input.
// Cancellation is checked every 100 iterations.
func (a *AnnealingStage) Refine(ctx context.Context, input *models.Schedule) (*models.Schedule, error) {
	current := input.Clone()
	RefreshStatuses(current, a.res)
	currentEnergy := a.eval.Energy(current)

	best := current.Clone()
	bestEnergy := currentEnergy

	temperature := a.cfg.InitialTemperature
	for i := 0; i < a.cfg.Iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		neighbor := a.neighbor(current)
		RefreshStatuses(neighbor, a.res)
		neighborEnergy := a.eval.Energy(neighbor)

		if a.accept(currentEnergy, neighborEnergy, temperature) {
			current = neighbor
			currentEnergy = neighborEnergy
			if currentEnergy < bestEnergy {
				best = current.Clone()
				bestEnergy = currentEnergy
			}
		}

		temperature *= a.cfg.CoolingRate
	}

	return best, nil
}

func (a *AnnealingStage) accept(currentEnergy, neighborEnergy, temperature float64) bool {
	if neighborEnergy < currentEnergy {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return a.rng.Float64() < math.Exp(-(neighborEnergy-currentEnergy)/temperature)
}

// neighbor deep-copies the current schedule and exchanges the start times
// of two uniformly-chosen timed slots. Each slot keeps its own duration.
func (a *AnnealingStage) neighbor(current *models.Schedule) *models.Schedule {
	next := current.Clone()

	timed := make([]int, 0, len(next.Slots))
	for i := range next.Slots {
		if next.Slots[i].Time != nil {
			timed = append(timed, i)
		}
	}
	if len(timed) < 2 {
		return next
	}

	i := timed[a.rng.Intn(len(timed))]
	j := timed[a.rng.Intn(len(timed))]
	for j == i {
		j = timed[a.rng.Intn(len(timed))]
	}

	ti, tj := next.Slots[i].Time, next.Slots[j].Time
	di, dj := ti.Duration(), tj.Duration()
	ti.Start, tj.Start = tj.Start, ti.Start
	ti.End = ti.Start + di
	tj.End = tj.Start + dj

	return next
}
