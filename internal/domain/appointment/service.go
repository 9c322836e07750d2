package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dentflow/dentflow/internal/domain/patient"
	"github.com/dentflow/dentflow/internal/platform/listquery"
)

// PatientDirectory is the patient lookup the service needs for validation
// and confirmation email.
type PatientDirectory interface {
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
}

// Notifier delivers the confirmation email for a booked appointment.
// sent is false when delivery was skipped (no address, reminders disabled);
// err is set only when delivery was attempted and failed.
type Notifier interface {
	SendConfirmation(ctx context.Context, a *Appointment, p *patient.Patient) (sent bool, err error)
}

type Service struct {
	appointments Repository
	patients     PatientDirectory
	notifier     Notifier
}

func NewService(appointments Repository, patients PatientDirectory, notifier Notifier) *Service {
	return &Service{appointments: appointments, patients: patients, notifier: notifier}
}

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusCompleted: true, StatusCancelled: true,
}

func (s *Service) validate(ctx context.Context, a *Appointment) (*patient.Patient, error) {
	if a.PatientID == 0 {
		return nil, fmt.Errorf("patient_id is required")
	}
	p, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient %d not found", a.PatientID)
		}
		return nil, err
	}
	if a.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if _, err := time.Parse("15:04", a.Time); err != nil {
		return nil, fmt.Errorf("invalid time %q, expected HH:MM", a.Time)
	}
	if a.Duration == 0 {
		a.Duration = 30
	}
	if a.Duration < 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validStatuses[a.Status] {
		return nil, fmt.Errorf("invalid status: %s", a.Status)
	}
	return p, nil
}

// Create books the appointment and sends the confirmation email best-effort.
// The returned message reports the email outcome; a failed send never undoes
// the booking.
func (s *Service) Create(ctx context.Context, a *Appointment) (string, error) {
	p, err := s.validate(ctx, a)
	if err != nil {
		return "", err
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return "", err
	}
	a.PatientName = p.FullName()

	msg := "Appointment created successfully"
	if s.notifier != nil {
		sent, sendErr := s.notifier.SendConfirmation(ctx, a, p)
		switch {
		case sendErr != nil:
			msg = "Appointment created, but the confirmation email could not be sent"
		case sent:
			msg = "Appointment created and confirmation email sent"
		}
	}
	return msg, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	if _, err := s.validate(ctx, a); err != nil {
		return err
	}
	return s.appointments.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q listquery.Params, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, q, limit, offset)
}

// ResendConfirmation re-sends the confirmation email for an existing
// appointment.
func (s *Service) ResendConfirmation(ctx context.Context, id int64) (string, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	p, err := s.patients.GetByID(ctx, a.PatientID)
	if err != nil {
		return "", err
	}
	if p.Email == "" {
		return "", fmt.Errorf("patient has no email address")
	}
	if s.notifier == nil {
		return "", fmt.Errorf("email is not configured")
	}
	sent, err := s.notifier.SendConfirmation(ctx, a, p)
	if err != nil {
		return "", fmt.Errorf("send confirmation email: %w", err)
	}
	if !sent {
		return "", fmt.Errorf("appointment reminder emails are disabled in settings")
	}
	return "Confirmation email sent", nil
}
