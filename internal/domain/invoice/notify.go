package invoice

import (
	"context"

	"github.com/dentflow/dentflow/internal/domain/patient"
	"github.com/dentflow/dentflow/internal/domain/settings"
	"github.com/dentflow/dentflow/internal/platform/mail"
)

// SettingsSource provides the clinic settings the notifier needs.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// MailNotifier emails invoice copies when the clinic has the toggle on.
type MailNotifier struct {
	mgr      *mail.Manager
	settings SettingsSource
}

func NewMailNotifier(mgr *mail.Manager, settings SettingsSource) *MailNotifier {
	return &MailNotifier{mgr: mgr, settings: settings}
}

func (n *MailNotifier) SendInvoiceCopy(ctx context.Context, i *Invoice, p *patient.Patient) (bool, error) {
	if p.Email == "" {
		return false, nil
	}

	clinicName := "Dental Clinic"
	amount := i.TotalAmount.StringFixed(2)
	if n.settings != nil {
		cfg, err := n.settings.Get(ctx)
		if err == nil {
			if !cfg.EmailInvoiceCopy {
				return false, nil
			}
			clinicName = cfg.ClinicName
			amount = cfg.CurrencySymbol + i.TotalAmount.StringFixed(2)
		}
	}

	data := map[string]string{
		"clinic_name":    clinicName,
		"patient_name":   p.FullName(),
		"invoice_number": i.Number(),
		"date":           i.Date.Format("January 2, 2006"),
		"amount":         amount,
	}

	rec, err := n.mgr.SendTemplate(ctx, mail.TemplateInvoiceCopy, data, p.Email)
	if rec != nil {
		n.mgr.Tag(rec.ID, "invoice", i.ID)
	}
	if err != nil {
		return true, err
	}
	return true, nil
}
