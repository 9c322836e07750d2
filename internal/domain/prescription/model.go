package prescription

import (
	"time"

	"github.com/dentflow/dentflow/pkg/civil"
)

// Medication is one line of a prescription.
type Medication struct {
	ID             int64  `json:"id"`
	PrescriptionID int64  `json:"prescription_id"`
	Name           string `json:"name"`
	Dosage         string `json:"dosage,omitempty"`
	Frequency      string `json:"frequency,omitempty"`
	Duration       string `json:"duration,omitempty"`
	Instructions   string `json:"instructions,omitempty"`
}

// Prescription is a dated diagnosis with its prescribed medications. The
// medications live and die with the prescription.
type Prescription struct {
	ID          int64         `json:"id"`
	PatientID   int64         `json:"patient_id"`
	Date        civil.Date    `json:"date"`
	Diagnosis   string        `json:"diagnosis,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Medications []*Medication `json:"medications"`

	// PatientName is populated on reads via the patient join.
	PatientName string `json:"patient_name,omitempty"`
}
