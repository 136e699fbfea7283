package models

import (
	"fmt"
	"time"
)

// TimeSlot is a placement on the weekly grid. Start and End are minutes
// since midnight; the range is half-open, so back-to-back slots do not
// overlap.
type TimeSlot struct {
	Day    time.Weekday `json:"day"`
	Start  int          `json:"start"`
	End    int          `json:"end"`
	Period int          `json:"period,omitempty"`
}

// NewTimeSlot builds a slot from an hour:minute start and a duration in minutes.
func NewTimeSlot(day time.Weekday, hour, minute, durationMinutes int) TimeSlot {
	start := hour*60 + minute
	return TimeSlot{Day: day, Start: start, End: start + durationMinutes}
}

// Overlaps reports whether two slots share any time on the same day.
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	if t.Day != other.Day {
		return false
	}
	return t.Start < other.End && other.Start < t.End
}

// Duration returns the slot length in minutes.
func (t TimeSlot) Duration() int {
	return t.End - t.Start
}

// Key returns the day/start/end composite used to deduplicate slots.
func (t TimeSlot) Key() string {
	return fmt.Sprintf("%d:%d:%d", t.Day, t.Start, t.End)
}

// String renders the slot as "Mon 09:00-09:50".
func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d",
		t.Day.String()[:3], t.Start/60, t.Start%60, t.End/60, t.End%60)
}
