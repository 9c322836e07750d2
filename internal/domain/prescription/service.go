package prescription

import (
	"context"
	"fmt"
	"strings"

	"github.com/dentflow/dentflow/internal/platform/db"
	"github.com/dentflow/dentflow/internal/platform/listquery"
)

type Service struct {
	prescriptions Repository
	runTx         db.RunnerFunc
}

func NewService(prescriptions Repository, runTx db.RunnerFunc) *Service {
	if runTx == nil {
		runTx = db.Passthrough
	}
	return &Service{prescriptions: prescriptions, runTx: runTx}
}

// keepMedications drops rows without a name; partially filled forms submit
// empty medication lines.
func keepMedications(meds []*Medication) []*Medication {
	var out []*Medication
	for _, m := range meds {
		if strings.TrimSpace(m.Name) != "" {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) validate(p *Prescription) error {
	if p.PatientID == 0 {
		return fmt.Errorf("patient_id is required")
	}
	if p.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

// Create stores the prescription and its medications in one transaction.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if err := s.validate(p); err != nil {
		return err
	}
	p.Medications = keepMedications(p.Medications)

	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		return s.prescriptions.InsertMedications(ctx, p.ID, p.Medications)
	})
}

func (s *Service) Get(ctx context.Context, id int64) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

// Update rewrites the prescription and replaces its medication list
// atomically.
func (s *Service) Update(ctx context.Context, p *Prescription) error {
	if err := s.validate(p); err != nil {
		return err
	}
	p.Medications = keepMedications(p.Medications)

	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.prescriptions.Update(ctx, p); err != nil {
			return err
		}
		if err := s.prescriptions.DeleteMedications(ctx, p.ID); err != nil {
			return err
		}
		return s.prescriptions.InsertMedications(ctx, p.ID, p.Medications)
	})
}

// Delete removes the prescription and its medications in one transaction.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.prescriptions.DeleteMedications(ctx, id); err != nil {
			return err
		}
		return s.prescriptions.Delete(ctx, id)
	})
}

func (s *Service) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.List(ctx, q, limit, offset)
}
