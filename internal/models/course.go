package models

import (
	"strings"
	"time"
)

// Course represents a teachable course offering.
type Course struct {
	ID                string    `db:"id" json:"id"`
	Code              string    `db:"code" json:"code"`
	Name              string    `db:"name" json:"name"`
	Subject           string    `db:"subject" json:"subject"`
	DurationMinutes   int       `db:"duration_minutes" json:"duration_minutes"`
	SessionsPerWeek   int       `db:"sessions_per_week" json:"sessions_per_week"`
	MaxEnrollment     int       `db:"max_enrollment" json:"max_enrollment"`
	CurrentEnrollment int       `db:"current_enrollment" json:"current_enrollment"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// IsAP reports whether the course is an advanced-placement offering.
func (c Course) IsAP() bool {
	return strings.Contains(c.Name, "AP")
}

// IsLab reports whether the course is a laboratory offering.
func (c Course) IsLab() bool {
	return strings.Contains(strings.ToLower(c.Name), "lab")
}
