package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edutools/timetable-optimizer/internal/models"
)

// Distinguished solver failures. Anything else a solver returns is treated
// as an execution failure too; the adapter never propagates either.
var (
	ErrInvalidProblem  = errors.New("solver: invalid problem")
	ErrSolverExecution = errors.New("solver: execution failed")
)

// SolverProblem is the external engine's input representation.
type SolverProblem struct {
	Slots     []models.ScheduleSlot
	Teachers  []models.Teacher
	Rooms     []models.Room
	TimeSlots []models.TimeSlot
	Courses   []models.Course
}

// SolverSolution is the external engine's output: a full slot assignment
// plus feasibility and scoring.
type SolverSolution struct {
	Slots     []models.ScheduleSlot
	Feasible  bool
	HardScore int
	SoftScore int
}

// Solver is the contract for the external constraint-satisfaction engine.
// It may be internally parallel; the adapter treats it as one blocking call.
type Solver interface {
	Solve(ctx context.Context, problem SolverProblem) (*SolverSolution, error)
}

// SolveOutcome reports whether the solver improved the schedule or the
// pipeline degraded to the pre-solver result, and why.
type SolveOutcome struct {
	Schedule  *models.Schedule
	Optimized bool
	Reason    string
}

// SolverAdapter translates schedules to and from the external engine and
// shields the pipeline from its failures.
type SolverAdapter struct {
	solver  Solver
	res     *Resources
	timeout time.Duration
	logger  *zap.Logger
}

// NewSolverAdapter wires the adapter. A nil solver is allowed and makes
// every refinement an Unchanged outcome.
func NewSolverAdapter(solver Solver, res *Resources, timeout time.Duration, logger *zap.Logger) *SolverAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolverAdapter{solver: solver, res: res, timeout: timeout, logger: logger}
}

// Refine hands the schedule to the external solver for a final feasibility
// pass. Any failure, timeout or infeasible answer degrades gracefully: the
// input schedule comes back unchanged with the reason recorded.
func (a *SolverAdapter) Refine(ctx context.Context, s *models.Schedule) SolveOutcome {
	if a == nil || a.solver == nil {
		return SolveOutcome{Schedule: s, Reason: "solver not configured"}
	}

	problem := a.buildProblem(s)

	solveCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	solution, err := a.solver.Solve(solveCtx, problem)
	if err != nil {
		a.logger.Sugar().Warnw("solver failed, keeping pre-solver schedule",
			"schedule", s.Name, "slots", len(s.Slots), "error", err)
		return SolveOutcome{Schedule: s, Reason: "solver failure: " + err.Error()}
	}
	if !solution.Feasible {
		a.logger.Sugar().Warnw("solver found no feasible assignment, keeping pre-solver schedule",
			"schedule", s.Name, "hard_score", solution.HardScore, "soft_score", solution.SoftScore)
		return SolveOutcome{Schedule: s, Reason: "solver found no feasible assignment"}
	}
	if len(solution.Slots) != len(s.Slots) {
		a.logger.Sugar().Warnw("solver returned wrong slot count, keeping pre-solver schedule",
			"schedule", s.Name, "want", len(s.Slots), "got", len(solution.Slots))
		return SolveOutcome{Schedule: s, Reason: "solver returned wrong slot count"}
	}

	return SolveOutcome{Schedule: a.rebuild(s, solution), Optimized: true}
}

// buildProblem collects the distinct teachers, rooms and time tuples the
// schedule actually uses. Time tuples are deduplicated by composite key;
// when none exist, the standard grid stands in.
func (a *SolverAdapter) buildProblem(s *models.Schedule) SolverProblem {
	teacherSeen := make(map[string]bool)
	roomSeen := make(map[string]bool)
	timeSeen := make(map[string]bool)

	problem := SolverProblem{
		Slots:   append([]models.ScheduleSlot(nil), s.Slots...),
		Courses: a.res.Courses,
	}
	for _, slot := range s.Slots {
		if slot.TeacherID != "" && !teacherSeen[slot.TeacherID] {
			teacherSeen[slot.TeacherID] = true
			if t, ok := a.res.Teacher(slot.TeacherID); ok {
				problem.Teachers = append(problem.Teachers, t)
			}
		}
		if slot.RoomID != "" && !roomSeen[slot.RoomID] {
			roomSeen[slot.RoomID] = true
			if r, ok := a.res.Room(slot.RoomID); ok {
				problem.Rooms = append(problem.Rooms, r)
			}
		}
		if slot.Time != nil && !timeSeen[slot.Time.Key()] {
			timeSeen[slot.Time.Key()] = true
			problem.TimeSlots = append(problem.TimeSlots, *slot.Time)
		}
	}

	if len(problem.Teachers) == 0 {
		problem.Teachers = a.res.Teachers
	}
	if len(problem.Rooms) == 0 {
		problem.Rooms = a.res.Rooms
	}
	if len(problem.TimeSlots) == 0 {
		problem.TimeSlots = StandardGrid()
	}
	return problem
}

// rebuild materializes the solver's assignment, preserving the original
// schedule metadata. Statuses are re-derived incrementally against the
// slots already placed, so a solved slot is SCHEDULED only when it clears
// every earlier placement.
func (a *SolverAdapter) rebuild(original *models.Schedule, solution *SolverSolution) *models.Schedule {
	out := original.Clone()
	out.Slots = out.Slots[:0]

	for _, solved := range solution.Slots {
		slot := solved.Clone()
		switch {
		case !slot.Assigned():
			slot.Status = models.SlotStatusUnassigned
		case len(SlotConflicts(slot, out.Slots, a.res)) > 0:
			slot.Status = models.SlotStatusConflict
		default:
			slot.Status = models.SlotStatusScheduled
		}
		out.Slots = append(out.Slots, slot)
	}
	return out
}
