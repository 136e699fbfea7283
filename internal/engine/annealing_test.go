package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutools/timetable-optimizer/internal/models"
)

func conflictedSchedule() *models.Schedule {
	return &models.Schedule{
		Name: "conflicted",
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50),
			timedSlot(2, "c-geo", "t-math", "r-102", time.Monday, 9, 0, 50),
			timedSlot(3, "c-mech", "t-phys", "r-101", time.Monday, 10, 0, 50),
		},
	}
}

func TestAnnealingNeverRegresses(t *testing.T) {
	res := fixtureResources()
	eval := NewEvaluator(res, ScenarioHighSchool)

	for seed := int64(1); seed <= 5; seed++ {
		input := conflictedSchedule()
		RefreshStatuses(input, res)
		inputEnergy := eval.Energy(input)

		sa := NewAnnealingStage(res, eval, AnnealingConfig{Iterations: 300}, rand.New(rand.NewSource(seed)))
		best, err := sa.Refine(context.Background(), input)
		require.NoError(t, err)

		RefreshStatuses(best, res)
		assert.LessOrEqual(t, eval.Energy(best), inputEnergy, "seed %d regressed", seed)
	}
}

func TestAnnealingDoesNotMutateInput(t *testing.T) {
	res := fixtureResources()
	eval := NewEvaluator(res, ScenarioHighSchool)

	input := conflictedSchedule()
	RefreshStatuses(input, res)
	starts := make([]int, len(input.Slots))
	for i, slot := range input.Slots {
		starts[i] = slot.Time.Start
	}

	sa := NewAnnealingStage(res, eval, AnnealingConfig{Iterations: 200}, rand.New(rand.NewSource(1)))
	_, err := sa.Refine(context.Background(), input)
	require.NoError(t, err)

	for i, slot := range input.Slots {
		assert.Equal(t, starts[i], slot.Time.Start, "input slot %d was mutated", i)
	}
}

func TestAnnealingPreservesSlotDurations(t *testing.T) {
	res := fixtureResources()
	eval := NewEvaluator(res, ScenarioHighSchool)

	input := &models.Schedule{
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50),
			timedSlot(2, "c-geo", "t-math", "r-102", time.Monday, 11, 0, 100),
		},
	}
	RefreshStatuses(input, res)

	sa := NewAnnealingStage(res, eval, AnnealingConfig{Iterations: 100}, rand.New(rand.NewSource(2)))
	best, err := sa.Refine(context.Background(), input)
	require.NoError(t, err)

	durations := map[string]int{}
	for _, slot := range best.Slots {
		durations[slot.CourseID] = slot.Time.Duration()
	}
	assert.Equal(t, 50, durations["c-alg"])
	assert.Equal(t, 100, durations["c-geo"])
}

func TestAnnealingSingleTimedSlotIsNoop(t *testing.T) {
	res := fixtureResources()
	eval := NewEvaluator(res, ScenarioHighSchool)

	input := &models.Schedule{
		Slots: []models.ScheduleSlot{
			timedSlot(1, "c-alg", "t-math", "r-101", time.Monday, 9, 0, 50),
			{ID: 2, CourseID: "c-geo"},
		},
	}
	RefreshStatuses(input, res)

	sa := NewAnnealingStage(res, eval, AnnealingConfig{Iterations: 50}, rand.New(rand.NewSource(3)))
	best, err := sa.Refine(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 9*60, best.Slots[0].Time.Start)
}

func TestAnnealingHonoursCancellation(t *testing.T) {
	res := fixtureResources()
	eval := NewEvaluator(res, ScenarioHighSchool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sa := NewAnnealingStage(res, eval, AnnealingConfig{}, rand.New(rand.NewSource(4)))
	_, err := sa.Refine(ctx, conflictedSchedule())
	assert.ErrorIs(t, err, context.Canceled)
}
