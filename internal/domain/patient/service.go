package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/dentflow/dentflow/internal/platform/listquery"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

var validGenders = map[string]bool{
	"": true, "male": true, "female": true, "other": true,
}

func (s *Service) validate(p *Patient) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("first_name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return fmt.Errorf("last_name is required")
	}
	if !validGenders[p.Gender] {
		return fmt.Errorf("invalid gender: %s", p.Gender)
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return fmt.Errorf("invalid email: %s", p.Email)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

// Delete removes a patient. Patients with appointments, prescriptions, or
// invoices cannot be removed; the dependent records must go first.
func (s *Service) Delete(ctx context.Context, id int64) error {
	has, err := s.patients.HasDependents(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("patient has existing appointments, prescriptions, or invoices")
	}
	return s.patients.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, q, limit, offset)
}
