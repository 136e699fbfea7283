package engine

import (
	"time"

	"github.com/edutools/timetable-optimizer/internal/models"
)

const lessonMinutes = 50

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// TeachingGrid is the pool of candidate placements the genetic stage draws
// from: every weekday, on-the-hour starts from 08:00 through 13:00, fixed
// lesson length.
func TeachingGrid() []models.TimeSlot {
	grid := make([]models.TimeSlot, 0, len(weekdays)*6)
	for _, day := range weekdays {
		for hour := 8; hour <= 13; hour++ {
			grid = append(grid, models.NewTimeSlot(day, hour, 0, lessonMinutes))
		}
	}
	return grid
}

// StandardGrid is the fallback 5-day, 6-period grid handed to the external
// solver when a schedule carries no usable time tuples. Period 5 starts
// after the midday break.
func StandardGrid() []models.TimeSlot {
	startHours := []int{8, 9, 10, 11, 13, 14}
	grid := make([]models.TimeSlot, 0, len(weekdays)*len(startHours))
	for _, day := range weekdays {
		for period, hour := range startHours {
			slot := models.NewTimeSlot(day, hour, 0, lessonMinutes)
			slot.Period = period + 1
			grid = append(grid, slot)
		}
	}
	return grid
}
