package engine

import (
	"context"
	"math/rand"
	"sort"

	"github.com/edutools/timetable-optimizer/internal/models"
	"github.com/edutools/timetable-optimizer/pkg/errors"
)

// GeneticConfig tunes the evolutionary search.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	TournamentSize int
	CrossoverRate  float64
	MutationRate   float64
}

func (c GeneticConfig) withDefaults() GeneticConfig {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 100
	}
	if c.Generations <= 0 {
		c.Generations = 200
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = 5
	}
	if c.CrossoverRate <= 0 {
		c.CrossoverRate = 0.8
	}
	if c.MutationRate <= 0 {
		c.MutationRate = 0.1
	}
	return c
}

// GeneticStage evolves a population of full assignments toward lower
// energy. All randomness flows through the injected generator so runs are
// reproducible under a fixed seed.
type GeneticStage struct {
	cfg      GeneticConfig
	res      *Resources
	eval     *Evaluator
	clusters []CourseCluster
	grid     []models.TimeSlot
	required map[string]int
	rng      *rand.Rand
}

// NewGeneticStage wires the stage. Genes draw their placements from the
// teaching grid.
func NewGeneticStage(res *Resources, eval *Evaluator, clusters []CourseCluster, cfg GeneticConfig, rng *rand.Rand) *GeneticStage {
	return &GeneticStage{
		cfg:      cfg.withDefaults(),
		res:      res,
		eval:     eval,
		clusters: clusters,
		grid:     TeachingGrid(),
		required: requiredInstances(res.Courses),
		rng:      rng,
	}
}

// Evolve runs the configured number of generations and returns the single
// fittest chromosome. Cancellation is checked once per generation.
func (g *GeneticStage) Evolve(ctx context.Context) (*Chromosome, error) {
	population := g.initialize()
	if len(population) == 0 {
		return nil, errors.Clone(errors.ErrPreconditionFailed, "no course instances to schedule")
	}

	for gen := 0; gen < g.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parents := g.selectParents(population)
		offspring := g.breed(parents)
		population = g.survivors(population, offspring)
	}

	return population[0].Clone(), nil
}

func (g *GeneticStage) initialize() []*Chromosome {
	population := make([]*Chromosome, 0, g.cfg.PopulationSize)
	for i := 0; i < g.cfg.PopulationSize; i++ {
		ch := g.randomChromosome()
		if len(ch.Genes) == 0 {
			return nil
		}
		g.evaluate(ch)
		population = append(population, ch)
	}
	sortByFitness(population)
	return population
}

func (g *GeneticStage) randomChromosome() *Chromosome {
	ch := &Chromosome{}
	for _, cluster := range g.clusters {
		for _, course := range cluster.Courses {
			gene := Gene{
				CourseID: course.ID,
				RoomID:   g.res.Rooms[g.rng.Intn(len(g.res.Rooms))].ID,
				Time:     g.grid[g.rng.Intn(len(g.grid))],
			}
			if n := len(cluster.CompatibleTeachers); n > 0 {
				gene.TeacherID = cluster.CompatibleTeachers[g.rng.Intn(n)].ID
			}
			ch.Genes = append(ch.Genes, gene)
		}
	}
	return ch
}

// evaluate recomputes the cached fitness from the chromosome's current
// genes.
func (g *GeneticStage) evaluate(ch *Chromosome) {
	s := ch.ToSchedule("")
	RefreshStatuses(s, g.res)
	ch.Fitness = Fitness(g.eval.Energy(s))
}

// selectParents runs tournaments of the configured size, sampling with
// replacement, until a full parent pool is chosen.
func (g *GeneticStage) selectParents(population []*Chromosome) []*Chromosome {
	parents := make([]*Chromosome, 0, g.cfg.PopulationSize)
	for len(parents) < g.cfg.PopulationSize {
		best := population[g.rng.Intn(len(population))]
		for i := 1; i < g.cfg.TournamentSize; i++ {
			candidate := population[g.rng.Intn(len(population))]
			if candidate.Fitness > best.Fitness {
				best = candidate
			}
		}
		parents = append(parents, best)
	}
	return parents
}

func (g *GeneticStage) breed(parents []*Chromosome) []*Chromosome {
	offspring := make([]*Chromosome, 0, len(parents))
	for i := 0; i+1 < len(parents); i += 2 {
		c1, c2 := g.crossover(parents[i], parents[i+1])
		g.mutate(c1)
		g.mutate(c2)
		g.evaluate(c1)
		g.evaluate(c2)
		offspring = append(offspring, c1, c2)
	}
	return offspring
}

// crossover performs uniform crossover at the configured rate. Uniform
// mixing keeps exactly one gene per course position, so children can only
// become invalid through upstream corruption; validation still guards the
// population and falls back to the parents.
func (g *GeneticStage) crossover(p1, p2 *Chromosome) (*Chromosome, *Chromosome) {
	if g.rng.Float64() >= g.cfg.CrossoverRate {
		return p1.Clone(), p2.Clone()
	}

	c1 := &Chromosome{Genes: make([]Gene, len(p1.Genes))}
	c2 := &Chromosome{Genes: make([]Gene, len(p2.Genes))}
	for i := range p1.Genes {
		if g.rng.Float64() < 0.5 {
			c1.Genes[i] = p1.Genes[i]
			c2.Genes[i] = p2.Genes[i]
		} else {
			c1.Genes[i] = p2.Genes[i]
			c2.Genes[i] = p1.Genes[i]
		}
	}

	if !c1.Valid(g.required) || !c2.Valid(g.required) {
		return p1.Clone(), p2.Clone()
	}
	return c1, c2
}

// mutate re-rolls each gene's time slot independently at the mutation rate;
// teacher and room assignments are never touched here.
func (g *GeneticStage) mutate(ch *Chromosome) {
	for i := range ch.Genes {
		if g.rng.Float64() < g.cfg.MutationRate {
			ch.Genes[i].Time = g.grid[g.rng.Intn(len(g.grid))]
		}
	}
}

// survivors merges the current population with its offspring and keeps the
// top slice by fitness. Elitist truncation guarantees the best fitness
// never decreases between generations.
func (g *GeneticStage) survivors(population, offspring []*Chromosome) []*Chromosome {
	merged := make([]*Chromosome, 0, len(population)+len(offspring))
	merged = append(merged, population...)
	merged = append(merged, offspring...)
	sortByFitness(merged)
	if len(merged) > g.cfg.PopulationSize {
		merged = merged[:g.cfg.PopulationSize]
	}
	return merged
}

func sortByFitness(population []*Chromosome) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Fitness > population[j].Fitness
	})
}
