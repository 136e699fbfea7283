package engine

import (
	"fmt"

	"github.com/edutools/timetable-optimizer/internal/models"
)

// SlotConflicts checks one slot against a set of other slots. Unassigned
// slots are never conflict candidates. Pure read; callers decide what to do
// with the results.
func SlotConflicts(slot models.ScheduleSlot, others []models.ScheduleSlot, res *Resources) []models.Conflict {
	if !slot.Assigned() {
		return nil
	}

	var conflicts []models.Conflict
	for _, other := range others {
		if other.ID == slot.ID || !other.Assigned() {
			continue
		}
		if !slot.Time.Overlaps(*other.Time) {
			continue
		}
		if slot.TeacherID == other.TeacherID {
			conflicts = append(conflicts, models.Conflict{
				Type:        models.ConflictTeacher,
				Severity:    models.SeverityCritical,
				Description: fmt.Sprintf("teacher %s double-booked at %s", slot.TeacherID, slot.Time),
				SlotID:      slot.ID,
				OtherSlotID: other.ID,
			})
		}
		if slot.RoomID == other.RoomID {
			conflicts = append(conflicts, models.Conflict{
				Type:        models.ConflictRoom,
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("room %s double-booked at %s", slot.RoomID, slot.Time),
				SlotID:      slot.ID,
				OtherSlotID: other.ID,
			})
		}
	}

	if c := capacityConflict(slot, res); c != nil {
		conflicts = append(conflicts, *c)
	}
	if c := availabilityConflict(slot, res); c != nil {
		conflicts = append(conflicts, *c)
	}
	return conflicts
}

// ScheduleConflicts runs the pairwise scan over a whole schedule, reporting
// one conflict per offending pair and dimension.
func ScheduleConflicts(s *models.Schedule, res *Resources) []models.Conflict {
	var conflicts []models.Conflict
	for i := range s.Slots {
		a := s.Slots[i]
		if !a.Assigned() {
			continue
		}
		for j := i + 1; j < len(s.Slots); j++ {
			b := s.Slots[j]
			if !b.Assigned() || !a.Time.Overlaps(*b.Time) {
				continue
			}
			if a.TeacherID == b.TeacherID {
				conflicts = append(conflicts, models.Conflict{
					Type:        models.ConflictTeacher,
					Severity:    models.SeverityCritical,
					Description: fmt.Sprintf("teacher %s double-booked at %s", a.TeacherID, a.Time),
					SlotID:      a.ID,
					OtherSlotID: b.ID,
				})
			}
			if a.RoomID == b.RoomID {
				conflicts = append(conflicts, models.Conflict{
					Type:        models.ConflictRoom,
					Severity:    models.SeverityHigh,
					Description: fmt.Sprintf("room %s double-booked at %s", a.RoomID, a.Time),
					SlotID:      a.ID,
					OtherSlotID: b.ID,
				})
			}
		}
		if c := capacityConflict(a, res); c != nil {
			conflicts = append(conflicts, *c)
		}
		if c := availabilityConflict(a, res); c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	return conflicts
}

func capacityConflict(slot models.ScheduleSlot, res *Resources) *models.Conflict {
	if res == nil || slot.RoomID == "" {
		return nil
	}
	course, okC := res.Course(slot.CourseID)
	room, okR := res.Room(slot.RoomID)
	if !okC || !okR {
		return nil
	}
	if course.CurrentEnrollment > room.Capacity {
		return &models.Conflict{
			Type:        models.ConflictCapacity,
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("course %s enrollment %d exceeds room %s capacity %d", course.ID, course.CurrentEnrollment, room.ID, room.Capacity),
			SlotID:      slot.ID,
		}
	}
	return nil
}

// availabilityConflict reports a slot placed inside one of its teacher's
// unavailability windows.
func availabilityConflict(slot models.ScheduleSlot, res *Resources) *models.Conflict {
	if res == nil || slot.TeacherID == "" || slot.Time == nil {
		return nil
	}
	for _, block := range res.TeacherUnavailable(slot.TeacherID) {
		if block.Day != slot.Time.Day {
			continue
		}
		if slot.Time.Start < block.End && block.Start < slot.Time.End {
			return &models.Conflict{
				Type:        models.ConflictAvailability,
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("teacher %s is unavailable at %s", slot.TeacherID, slot.Time),
				SlotID:      slot.ID,
			}
		}
	}
	return nil
}

// RefreshStatuses recomputes every slot's status from current placements and
// returns the number of slots in conflict. This is the only mutation the
// detector performs, and only when invoked explicitly.
func RefreshStatuses(s *models.Schedule, res *Resources) int {
	conflicted := make(map[int]string)
	mark := func(id int, desc string) {
		if _, ok := conflicted[id]; !ok {
			conflicted[id] = desc
		}
	}
	for _, c := range ScheduleConflicts(s, res) {
		mark(c.SlotID, c.Description)
		if c.OtherSlotID != 0 {
			mark(c.OtherSlotID, c.Description)
		}
	}

	count := 0
	for i := range s.Slots {
		slot := &s.Slots[i]
		switch {
		case !slot.Assigned():
			slot.Status = models.SlotStatusUnassigned
			slot.ConflictNote = ""
		case conflicted[slot.ID] != "":
			slot.Status = models.SlotStatusConflict
			slot.ConflictNote = conflicted[slot.ID]
			count++
		default:
			slot.Status = models.SlotStatusScheduled
			slot.ConflictNote = ""
		}
	}
	return count
}
