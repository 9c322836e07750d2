package appointment

import (
	"context"
	"strconv"
	"time"

	"github.com/dentflow/dentflow/internal/domain/patient"
	"github.com/dentflow/dentflow/internal/domain/settings"
	"github.com/dentflow/dentflow/internal/platform/mail"
)

// SettingsSource provides the clinic settings the notifier needs (clinic
// name, reminder toggle).
type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// MailNotifier sends confirmation email through the mail manager, honoring
// the clinic's reminder toggle.
type MailNotifier struct {
	mgr      *mail.Manager
	settings SettingsSource
}

func NewMailNotifier(mgr *mail.Manager, settings SettingsSource) *MailNotifier {
	return &MailNotifier{mgr: mgr, settings: settings}
}

func (n *MailNotifier) SendConfirmation(ctx context.Context, a *Appointment, p *patient.Patient) (bool, error) {
	if p.Email == "" {
		return false, nil
	}

	clinicName := "Dental Clinic"
	if n.settings != nil {
		cfg, err := n.settings.Get(ctx)
		if err == nil {
			if !cfg.EmailAppointmentReminders {
				return false, nil
			}
			clinicName = cfg.ClinicName
		}
	}

	displayTime := a.Time
	if t, err := time.Parse("15:04", a.Time); err == nil {
		displayTime = t.Format("03:04 PM")
	}

	data := map[string]string{
		"clinic_name":  clinicName,
		"patient_name": p.FullName(),
		"date":         a.Date.Format("January 2, 2006"),
		"time":         displayTime,
		"treatment":    a.TreatmentType,
		"duration":     strconv.Itoa(a.Duration),
	}

	rec, err := n.mgr.SendTemplate(ctx, mail.TemplateAppointmentConfirmation, data, p.Email)
	if rec != nil {
		n.mgr.Tag(rec.ID, "appointment", a.ID)
	}
	if err != nil {
		return true, err
	}
	return true, nil
}
