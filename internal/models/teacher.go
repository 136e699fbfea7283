package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Teacher represents an instructor record.
type Teacher struct {
	ID               string         `db:"id" json:"id"`
	FullName         string         `db:"full_name" json:"full_name"`
	Email            string         `db:"email" json:"email"`
	Department       string         `db:"department" json:"department"`
	Active           bool           `db:"active" json:"active"`
	Certifications   pq.StringArray `db:"certifications" json:"certifications,omitempty"`
	MaxHoursPerDay   int            `db:"max_hours_per_day" json:"max_hours_per_day"`
	MaxHoursPerWeek  int            `db:"max_hours_per_week" json:"max_hours_per_week"`
	PreferredRoomID  *string        `db:"preferred_room_id" json:"preferred_room_id,omitempty"`
	RoomRestrictions pq.StringArray `db:"room_restrictions" json:"room_restrictions,omitempty"`
	Unavailable      types.JSONText `db:"unavailable" json:"unavailable,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// UnavailableBlock is a recurring window during which a teacher cannot be
// scheduled.
type UnavailableBlock struct {
	Day   time.Weekday `json:"day"`
	Start int          `json:"start"`
	End   int          `json:"end"`
}

// UnavailableBlocks decodes the stored unavailability payload. A missing or
// empty payload means the teacher is always available.
func (t Teacher) UnavailableBlocks() ([]UnavailableBlock, error) {
	if len(t.Unavailable) == 0 {
		return nil, nil
	}
	var blocks []UnavailableBlock
	if err := json.Unmarshal(t.Unavailable, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}
