package models

import "time"

// Schedule lifecycle states.
const (
	ScheduleStatusDraft     = "DRAFT"
	ScheduleStatusPublished = "PUBLISHED"
	ScheduleStatusArchived  = "ARCHIVED"
)

// Slot placement states.
const (
	SlotStatusUnassigned = "UNASSIGNED"
	SlotStatusScheduled  = "SCHEDULED"
	SlotStatusConflict   = "CONFLICT"
)

// ScheduleSlot is one course placement inside a schedule. Slots live in the
// owning schedule's arena and are addressed by their integer ID; entity
// references are plain IDs so copying a slot never shares mutable state.
type ScheduleSlot struct {
	ID           int       `db:"slot_index" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	RoomID       string    `db:"room_id" json:"room_id"`
	Time         *TimeSlot `db:"-" json:"time,omitempty"`
	Status       string    `db:"status" json:"status"`
	ConflictNote string    `db:"conflict_note" json:"conflict_note,omitempty"`
}

// Assigned reports whether the slot has a teacher, a room and a time.
func (s ScheduleSlot) Assigned() bool {
	return s.TeacherID != "" && s.RoomID != "" && s.Time != nil
}

// Clone returns an independent copy of the slot.
func (s ScheduleSlot) Clone() ScheduleSlot {
	out := s
	if s.Time != nil {
		t := *s.Time
		out.Time = &t
	}
	return out
}

// Schedule is a complete weekly timetable. It owns its slot arena
// exclusively; optimization stages copy the whole schedule rather than
// sharing slots.
type Schedule struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Status    string         `db:"status" json:"status"`
	StartDate *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time     `db:"end_date" json:"end_date,omitempty"`
	Slots     []ScheduleSlot `db:"-" json:"slots"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Clone performs a deep copy of the schedule and its slot arena.
func (s *Schedule) Clone() *Schedule {
	out := *s
	out.Slots = make([]ScheduleSlot, len(s.Slots))
	for i, slot := range s.Slots {
		out.Slots[i] = slot.Clone()
	}
	return &out
}

// SlotByID returns the slot with the given arena ID, or nil.
func (s *Schedule) SlotByID(id int) *ScheduleSlot {
	for i := range s.Slots {
		if s.Slots[i].ID == id {
			return &s.Slots[i]
		}
	}
	return nil
}
