package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dentflow/dentflow/internal/domain/patient"
	"github.com/dentflow/dentflow/internal/platform/listquery"
	"github.com/dentflow/dentflow/pkg/civil"
)

// PatientDirectory is the patient lookup used for validation and the
// invoice-copy email.
type PatientDirectory interface {
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
}

// Notifier delivers a copy of a new invoice to the patient. sent is false
// when delivery was skipped (toggle off, no address).
type Notifier interface {
	SendInvoiceCopy(ctx context.Context, i *Invoice, p *patient.Patient) (sent bool, err error)
}

type Service struct {
	invoices Repository
	patients PatientDirectory
	notifier Notifier
}

func NewService(invoices Repository, patients PatientDirectory, notifier Notifier) *Service {
	return &Service{invoices: invoices, patients: patients, notifier: notifier}
}

func (s *Service) validate(ctx context.Context, i *Invoice) (*patient.Patient, error) {
	if i.PatientID == 0 {
		return nil, fmt.Errorf("patient_id is required")
	}
	p, err := s.patients.GetByID(ctx, i.PatientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient %d not found", i.PatientID)
		}
		return nil, err
	}
	if i.Date.IsZero() {
		i.Date = civil.Today()
	}
	if i.DueDate == nil {
		due := i.Date.AddDays(30)
		i.DueDate = &due
	}
	return p, nil
}

// Create computes the invoice and stores it. The paid amount and status pass
// through the payment state machine so a freshly created invoice is already
// consistent. A copy is emailed best-effort when the clinic has that enabled.
func (s *Service) Create(ctx context.Context, i *Invoice) error {
	p, err := s.validate(ctx, i)
	if err != nil {
		return err
	}
	if err := i.Compute(); err != nil {
		return err
	}
	requested := i.Status
	i.Status = ""
	if err := i.ApplyPayment(requested, i.PaidAmount); err != nil {
		return err
	}
	if err := s.invoices.Create(ctx, i); err != nil {
		return err
	}
	i.PatientName = p.FullName()

	if s.notifier != nil {
		// Failure never undoes the invoice.
		_, _ = s.notifier.SendInvoiceCopy(ctx, i, p)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

// Update replaces the invoice wholesale: the item list is swapped out, every
// derived field recomputed, and the status rederived against the new total.
func (s *Service) Update(ctx context.Context, i *Invoice) error {
	current, err := s.invoices.GetByID(ctx, i.ID)
	if err != nil {
		return err
	}
	if _, err := s.validate(ctx, i); err != nil {
		return err
	}
	if err := i.Compute(); err != nil {
		return err
	}
	requested := i.Status
	i.Status = current.Status
	if err := i.ApplyPayment(requested, i.PaidAmount); err != nil {
		return err
	}
	i.CreatedAt = current.CreatedAt
	return s.invoices.Update(ctx, i)
}

// UpdateStatus runs just the payment state machine against the stored
// invoice.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string, paidAmount decimal.Decimal) (*Invoice, error) {
	i, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := i.ApplyPayment(status, paidAmount); err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.invoices.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.List(ctx, q, limit, offset)
}
