package appointment

import (
	"time"

	"github.com/dentflow/dentflow/pkg/civil"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment is a booked visit. Time is the start of day stored as "HH:MM"
// (24h), which keeps chronological and lexical order identical.
type Appointment struct {
	ID            int64      `json:"id"`
	PatientID     int64      `json:"patient_id"`
	Date          civil.Date `json:"date"`
	Time          string     `json:"time"`
	Duration      int        `json:"duration"`
	TreatmentType string     `json:"treatment_type,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`

	// PatientName is populated on reads via the patient join.
	PatientName string `json:"patient_name,omitempty"`
}

// StartsAt combines date and time for comparisons against the clock.
func (a *Appointment) StartsAt() time.Time {
	t, err := time.Parse("15:04", a.Time)
	if err != nil {
		return a.Date.Time()
	}
	d := a.Date.Time()
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
}
