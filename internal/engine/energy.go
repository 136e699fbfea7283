package engine

import (
	"math"
	"sort"

	"github.com/edutools/timetable-optimizer/internal/models"
)

// Scenario selects the institution-specific penalty rules.
type Scenario string

const (
	ScenarioHighSchool Scenario = "HIGH_SCHOOL"
	ScenarioElementary Scenario = "ELEMENTARY"
	ScenarioUniversity Scenario = "UNIVERSITY"
)

// Energy term weights.
const (
	weightConflict = 100.0
	weightWorkload = 50.0
	weightGaps     = 10.0
	weightScenario = 25.0
)

// PenaltyFunc scores scenario-specific violations of a schedule.
type PenaltyFunc func(s *models.Schedule, res *Resources) float64

// Evaluator computes schedule energy. It is a pure read over slot state;
// the scenario penalty is bound once at construction.
type Evaluator struct {
	res     *Resources
	penalty PenaltyFunc
}

// NewEvaluator binds the reference data and the scenario's penalty rule.
// Unknown scenarios carry no extra penalty.
func NewEvaluator(res *Resources, scenario Scenario) *Evaluator {
	table := map[Scenario]PenaltyFunc{
		ScenarioHighSchool: highSchoolPenalty,
		ScenarioUniversity: universityPenalty,
	}
	penalty, ok := table[scenario]
	if !ok {
		penalty = func(*models.Schedule, *Resources) float64 { return 0 }
	}
	return &Evaluator{res: res, penalty: penalty}
}

// Energy returns the scalar badness of a schedule; lower is better. Slot
// statuses must be current (see RefreshStatuses) before calling.
func (e *Evaluator) Energy(s *models.Schedule) float64 {
	conflictCount := 0
	for _, slot := range s.Slots {
		if slot.Status == models.SlotStatusConflict {
			conflictCount++
		}
	}

	return weightConflict*float64(conflictCount) +
		weightWorkload*workloadStdDev(s) +
		weightGaps*float64(gapCount(s)) +
		weightScenario*e.penalty(s, e.res)
}

// Fitness converts energy into the genetic stage's goodness score.
func Fitness(energy float64) float64 {
	return 1 / (1 + energy)
}

// workloadStdDev is the population standard deviation of per-teacher
// assigned-slot counts. Teachers without any slot are excluded; absence is
// not an overload signal.
func workloadStdDev(s *models.Schedule) float64 {
	loads := teacherLoads(s)
	if len(loads) == 0 {
		return 0
	}

	var sum float64
	for _, n := range loads {
		sum += float64(n)
	}
	mean := sum / float64(len(loads))

	var variance float64
	for _, n := range loads {
		d := float64(n) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(loads)))
}

// gapCount counts, per teacher, adjacent slot pairs (sorted by start time)
// separated by more than 60 minutes.
func gapCount(s *models.Schedule) int {
	byTeacher := make(map[string][]*models.TimeSlot)
	for i := range s.Slots {
		slot := s.Slots[i]
		if slot.TeacherID == "" || slot.Time == nil {
			continue
		}
		byTeacher[slot.TeacherID] = append(byTeacher[slot.TeacherID], slot.Time)
	}

	gaps := 0
	for _, times := range byTeacher {
		sort.Slice(times, func(i, j int) bool { return times[i].Start < times[j].Start })
		for i := 1; i < len(times); i++ {
			if times[i].Start-times[i-1].End > 60 {
				gaps++
			}
		}
	}
	return gaps
}

func teacherLoads(s *models.Schedule) map[string]int {
	loads := make(map[string]int)
	for _, slot := range s.Slots {
		if slot.TeacherID == "" || slot.Time == nil {
			continue
		}
		loads[slot.TeacherID]++
	}
	return loads
}

// highSchoolPenalty counts advanced-placement courses placed before 08:30
// or after 14:00.
func highSchoolPenalty(s *models.Schedule, res *Resources) float64 {
	const earliest, latest = 8*60 + 30, 14 * 60

	penalty := 0.0
	for _, slot := range s.Slots {
		if slot.Time == nil {
			continue
		}
		course, ok := res.Course(slot.CourseID)
		if !ok || !course.IsAP() {
			continue
		}
		if slot.Time.Start < earliest || slot.Time.Start > latest {
			penalty++
		}
	}
	return penalty
}

// universityPenalty counts laboratory courses squeezed into blocks shorter
// than 90 minutes.
func universityPenalty(s *models.Schedule, res *Resources) float64 {
	penalty := 0.0
	for _, slot := range s.Slots {
		if slot.Time == nil {
			continue
		}
		course, ok := res.Course(slot.CourseID)
		if !ok || !course.IsLab() {
			continue
		}
		if slot.Time.Duration() < 90 {
			penalty++
		}
	}
	return penalty
}
