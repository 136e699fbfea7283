package models

// Conflict dimensions.
const (
	ConflictTeacher      = "TEACHER_CONFLICT"
	ConflictRoom         = "ROOM_CONFLICT"
	ConflictCapacity     = "CAPACITY_CONFLICT"
	ConflictAvailability = "AVAILABILITY_CONFLICT"
)

// Conflict severities.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
)

// Conflict describes one detected collision between slots. Conflicts are
// derived on demand and never persisted.
type Conflict struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	SlotID      int    `json:"slot_id"`
	OtherSlotID int    `json:"other_slot_id,omitempty"`
}
