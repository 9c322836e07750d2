package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Compute rederives every monetary field from the item list and tax rate.
// It runs on every create and edit; stored totals are never trusted to
// survive an item change.
func (i *Invoice) Compute() error {
	if len(i.Items) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	if i.TaxRate.IsNegative() {
		return fmt.Errorf("tax_rate must not be negative")
	}

	subtotal := decimal.Zero
	for idx := range i.Items {
		item := &i.Items[idx]
		if item.Quantity < 0 {
			return fmt.Errorf("item %d: quantity must not be negative", idx+1)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit_price must not be negative", idx+1)
		}
		// Amounts are held at cent precision so the computed values match
		// what the NUMERIC(12,2) columns store back.
		item.Total = item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)).Round(2)
		subtotal = subtotal.Add(item.Total)
	}

	i.Subtotal = subtotal
	i.TaxAmount = subtotal.Mul(i.TaxRate).Div(hundred).Round(2)
	i.TotalAmount = subtotal.Add(i.TaxAmount)
	return nil
}

// ApplyPayment normalizes the paid amount for the requested status and then
// rederives the status from the amount, so the two can never disagree:
//
//	paid           -> amount snaps to the total
//	unpaid         -> amount snaps to zero
//	partially_paid -> submitted amount is kept
//	cancelled      -> terminal; the amount is kept once it passes the bounds
//
// An amount that is negative or above the total is rejected without changing
// the invoice, cancellations included.
func (i *Invoice) ApplyPayment(requestedStatus string, amount decimal.Decimal) error {
	if i.Status == StatusCancelled && requestedStatus != StatusCancelled {
		return fmt.Errorf("invoice is cancelled")
	}

	switch requestedStatus {
	case StatusCancelled:
		if amount.IsNegative() {
			return fmt.Errorf("paid_amount must not be negative")
		}
		if amount.GreaterThan(i.TotalAmount) {
			return fmt.Errorf("paid_amount %s exceeds invoice total %s", amount, i.TotalAmount)
		}
		i.PaidAmount = amount
		i.Status = StatusCancelled
		return nil
	case StatusPaid:
		amount = i.TotalAmount
	case StatusUnpaid:
		amount = decimal.Zero
	case StatusPartiallyPaid, "":
		// keep the submitted amount
	default:
		return fmt.Errorf("invalid status: %s", requestedStatus)
	}

	if amount.IsNegative() {
		return fmt.Errorf("paid_amount must not be negative")
	}
	if amount.GreaterThan(i.TotalAmount) {
		return fmt.Errorf("paid_amount %s exceeds invoice total %s", amount, i.TotalAmount)
	}

	i.PaidAmount = amount
	switch {
	case i.TotalAmount.GreaterThan(decimal.Zero) && amount.Equal(i.TotalAmount):
		i.Status = StatusPaid
	case amount.GreaterThan(decimal.Zero):
		i.Status = StatusPartiallyPaid
	default:
		i.Status = StatusUnpaid
	}
	return nil
}
