package settings

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DayHours is the clinic's opening window for one weekday.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// Hours maps lowercase weekday names to opening windows. Stored as JSONB.
type Hours map[string]DayHours

func (h Hours) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *Hours) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	case nil:
		*h = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into settings.Hours", src)
	}
}

// Settings is the clinic-wide configuration singleton.
type Settings struct {
	ID                        int64           `json:"id"`
	ClinicName                string          `json:"clinic_name"`
	Address                   string          `json:"address,omitempty"`
	Phone                     string          `json:"phone,omitempty"`
	Email                     string          `json:"email,omitempty"`
	Hours                     Hours           `json:"hours"`
	InvoicePrefix             string          `json:"invoice_prefix"`
	DefaultTaxRate            decimal.Decimal `json:"default_tax_rate"`
	InvoiceFooter             string          `json:"invoice_footer,omitempty"`
	CurrencyCode              string          `json:"currency_code"`
	CurrencySymbol            string          `json:"currency_symbol"`
	EmailAppointmentReminders bool            `json:"email_appointment_reminders"`
	EmailInvoiceCopy          bool            `json:"email_invoice_copy"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

// CurrencyDisplay is the symbol-plus-code label shown next to amounts,
// e.g. "$ (USD)".
func (s *Settings) CurrencyDisplay() string {
	return s.CurrencySymbol + " (" + s.CurrencyCode + ")"
}

func (s Settings) MarshalJSON() ([]byte, error) {
	type alias Settings
	return json.Marshal(struct {
		alias
		CurrencyDisplay string `json:"currency_display"`
	}{alias(s), s.CurrencyDisplay()})
}

// Currencies lists the supported currency codes and their symbols.
var Currencies = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"AUD": "A$",
	"CAD": "C$",
}

// Defaults returns the settings materialized on first read: weekdays open
// 10:00 to 20:00, weekend closed, USD, no tax.
func Defaults() *Settings {
	hours := Hours{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		hours[day] = DayHours{Open: "10:00", Close: "20:00"}
	}
	hours["saturday"] = DayHours{Closed: true}
	hours["sunday"] = DayHours{Closed: true}

	return &Settings{
		ClinicName:                "Dental Clinic",
		Hours:                     hours,
		InvoicePrefix:             "INV-",
		DefaultTaxRate:            decimal.Zero,
		CurrencyCode:              "USD",
		CurrencySymbol:            "$",
		EmailAppointmentReminders: true,
		EmailInvoiceCopy:          false,
	}
}
