package models

import (
	"time"

	"github.com/lib/pq"
)

// Room represents a physical teaching space.
type Room struct {
	ID        string         `db:"id" json:"id"`
	Number    string         `db:"number" json:"number"`
	Building  *string        `db:"building" json:"building,omitempty"`
	Capacity  int            `db:"capacity" json:"capacity"`
	Type      string         `db:"type" json:"type"`
	Equipment pq.StringArray `db:"equipment" json:"equipment,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
