package invoice

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dentflow/dentflow/pkg/civil"
)

const (
	StatusUnpaid        = "unpaid"
	StatusPartiallyPaid = "partially_paid"
	StatusPaid          = "paid"
	StatusCancelled     = "cancelled"
)

// LineItem is one billed row on an invoice. Total is derived, never trusted
// from input.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// LineItems is the item list stored as a JSONB column.
type LineItems []LineItem

func (li LineItems) Value() (driver.Value, error) {
	if li == nil {
		li = LineItems{}
	}
	return json.Marshal(li)
}

func (li *LineItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, li)
	case string:
		return json.Unmarshal([]byte(v), li)
	case nil:
		*li = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into invoice.LineItems", src)
	}
}

// Invoice is a bill for a patient. Monetary fields are derived from the item
// list and tax rate; paid amount and status always agree.
type Invoice struct {
	ID          int64           `json:"id"`
	PatientID   int64           `json:"patient_id"`
	Date        civil.Date      `json:"date"`
	DueDate     *civil.Date     `json:"due_date,omitempty"`
	Items       LineItems       `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	// PatientName is populated on reads via the patient join.
	PatientName string `json:"patient_name,omitempty"`
}

// Number is the display number, derived from the invoice year and id. It is
// never stored; editing the date renumbers the invoice.
func (i *Invoice) Number() string {
	return fmt.Sprintf("INV-%d-%05d", i.Date.Year(), i.ID)
}

// Balance is the amount still owed.
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

func (i Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	return json.Marshal(struct {
		alias
		Number string `json:"invoice_number"`
	}{alias(i), i.Number()})
}
