package patient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dentflow/dentflow/pkg/civil"
)

// Patient is a clinic patient record, identity fields plus the clinical
// narrative carried over between visits.
type Patient struct {
	ID                   int64       `json:"id"`
	FirstName            string      `json:"first_name"`
	LastName             string      `json:"last_name"`
	DateOfBirth          *civil.Date `json:"date_of_birth,omitempty"`
	Gender               string      `json:"gender,omitempty"`
	Phone                string      `json:"phone,omitempty"`
	Email                string      `json:"email,omitempty"`
	Address              string      `json:"address,omitempty"`
	ChiefComplaint       string      `json:"chief_complaint,omitempty"`
	MedicalDentalHistory string      `json:"medical_dental_history,omitempty"`
	OnExamination        string      `json:"on_examination,omitempty"`
	Diagnosis            string      `json:"diagnosis,omitempty"`
	TreatmentPlan        string      `json:"treatment_plan,omitempty"`
	TreatmentDone        string      `json:"treatment_done,omitempty"`
	Recall               string      `json:"recall,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
}

// FullName joins first and last name for display and search results.
func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Age returns whole years since date of birth, or -1 when unknown.
func (p *Patient) Age() int {
	if p.DateOfBirth == nil || p.DateOfBirth.IsZero() {
		return -1
	}
	now := time.Now()
	dob := p.DateOfBirth.Time()
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	return years
}

func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		alias
		FullName string `json:"full_name"`
	}{alias(p), p.FullName()})
}
