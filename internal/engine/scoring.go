package engine

import (
	"time"

	"github.com/edutools/timetable-optimizer/internal/models"
)

// Weekly capacity assumptions behind the utilization ratios.
const (
	roomPeriodsPerWeek    = 40
	teacherIdealLoad      = 30
	balanceStdDevCeiling  = 10
	gapSatisfactionWeight = 0.05
)

// ScheduleMetrics is the quality breakdown for one schedule. Component
// scores are ratios in [0,1]; QualityScore is their weighted blend on a
// 0-100 scale.
type ScheduleMetrics struct {
	ScheduleID          string    `json:"schedule_id,omitempty"`
	SlotCount           int       `json:"slot_count"`
	ConflictCount       int       `json:"conflict_count"`
	RoomUtilization     float64   `json:"room_utilization"`
	TeacherUtilization  float64   `json:"teacher_utilization"`
	ConflictRate        float64   `json:"conflict_rate"`
	WorkloadBalance     float64   `json:"workload_balance"`
	StudentSatisfaction float64   `json:"student_satisfaction"`
	ComplianceScore     float64   `json:"compliance_score"`
	QualityScore        float64   `json:"quality_score"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// Score computes the quality breakdown for a schedule. Slot statuses must
// be current.
func Score(s *models.Schedule, res *Resources) ScheduleMetrics {
	m := ScheduleMetrics{
		ScheduleID:  s.ID,
		SlotCount:   len(s.Slots),
		GeneratedAt: time.Now().UTC(),
	}

	assigned := 0
	for _, slot := range s.Slots {
		if slot.Assigned() {
			assigned++
		}
		if slot.Status == models.SlotStatusConflict {
			m.ConflictCount++
		}
	}

	if len(res.Rooms) > 0 {
		m.RoomUtilization = capRatio(float64(assigned) / float64(len(res.Rooms)*roomPeriodsPerWeek))
	}
	if len(res.Teachers) > 0 {
		avgLoad := float64(assigned) / float64(len(res.Teachers))
		m.TeacherUtilization = capRatio(avgLoad / teacherIdealLoad)
	}
	if len(s.Slots) > 0 {
		m.ConflictRate = float64(m.ConflictCount) / float64(len(s.Slots))
	}

	m.WorkloadBalance = floorRatio(1 - workloadStdDev(s)/balanceStdDevCeiling)

	gaps := gapCount(s)
	m.StudentSatisfaction = floorRatio(1 - float64(gaps)*gapSatisfactionWeight - m.ConflictRate*0.5)

	teacherPairs, roomPairs := 0, 0
	for _, c := range ScheduleConflicts(s, res) {
		switch c.Type {
		case models.ConflictTeacher:
			teacherPairs++
		case models.ConflictRoom:
			roomPairs++
		}
	}
	m.ComplianceScore = floorRatio(1 - 0.1*float64(teacherPairs+roomPairs))

	m.QualityScore = (0.15*m.RoomUtilization +
		0.20*m.TeacherUtilization +
		0.30*(1-m.ConflictRate) +
		0.15*m.WorkloadBalance +
		0.10*m.StudentSatisfaction +
		0.10*m.ComplianceScore) * 100

	return m
}

func capRatio(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func floorRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
