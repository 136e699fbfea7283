package engine

import (
	"github.com/edutools/timetable-optimizer/internal/models"
)

// Gene binds one course instance to a teacher/room/time triple. An empty
// teacher means no qualified teacher exists for the course's subject.
type Gene struct {
	CourseID  string
	TeacherID string
	RoomID    string
	Time      models.TimeSlot
}

// Chromosome is one full candidate assignment, one gene per course
// instance, with its cached fitness. Chromosomes never outlive the genetic
// stage; only the best one is materialized into a schedule.
type Chromosome struct {
	Genes   []Gene
	Fitness float64
}

// Clone returns an independent copy.
func (c *Chromosome) Clone() *Chromosome {
	out := &Chromosome{
		Genes:   make([]Gene, len(c.Genes)),
		Fitness: c.Fitness,
	}
	copy(out.Genes, c.Genes)
	return out
}

// Valid reports whether the multiset of course references equals the
// required course-instance set exactly: no empty course, no duplicates,
// none missing.
func (c *Chromosome) Valid(required map[string]int) bool {
	if len(c.Genes) == 0 {
		return false
	}
	seen := make(map[string]int, len(required))
	for _, g := range c.Genes {
		if g.CourseID == "" {
			return false
		}
		seen[g.CourseID]++
	}
	if len(seen) != len(required) {
		return false
	}
	for id, want := range required {
		if seen[id] != want {
			return false
		}
	}
	return true
}

// ToSchedule materializes the chromosome into a draft schedule. Slot arena
// IDs start at 1 so the zero value never aliases a real slot.
func (c *Chromosome) ToSchedule(name string) *models.Schedule {
	s := &models.Schedule{
		Name:   name,
		Status: models.ScheduleStatusDraft,
		Slots:  make([]models.ScheduleSlot, len(c.Genes)),
	}
	for i, g := range c.Genes {
		t := g.Time
		s.Slots[i] = models.ScheduleSlot{
			ID:        i + 1,
			CourseID:  g.CourseID,
			TeacherID: g.TeacherID,
			RoomID:    g.RoomID,
			Time:      &t,
			Status:    models.SlotStatusUnassigned,
		}
	}
	return s
}

// requiredInstances maps each course ID to the number of genes a valid
// chromosome must carry for it. Each course contributes one instance.
func requiredInstances(courses []models.Course) map[string]int {
	required := make(map[string]int, len(courses))
	for _, c := range courses {
		required[c.ID]++
	}
	return required
}
