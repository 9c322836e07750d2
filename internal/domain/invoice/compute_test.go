package invoice

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dentflow/dentflow/pkg/civil"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testInvoice() *Invoice {
	date, _ := civil.ParseDate("2025-03-10")
	return &Invoice{
		PatientID: 1,
		Date:      date,
		TaxRate:   dec("10"),
		Items: LineItems{
			{Description: "Cleaning", Quantity: 1, UnitPrice: dec("100")},
			{Description: "X-Ray", Quantity: 2, UnitPrice: dec("25")},
		},
	}
}

func TestComputeTotals(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !inv.Items[0].Total.Equal(dec("100")) {
		t.Errorf("item 0 total = %s, want 100", inv.Items[0].Total)
	}
	if !inv.Items[1].Total.Equal(dec("50")) {
		t.Errorf("item 1 total = %s, want 50", inv.Items[1].Total)
	}
	if !inv.Subtotal.Equal(dec("150")) {
		t.Errorf("subtotal = %s, want 150", inv.Subtotal)
	}
	if !inv.TaxAmount.Equal(dec("15")) {
		t.Errorf("tax_amount = %s, want 15", inv.TaxAmount)
	}
	if !inv.TotalAmount.Equal(dec("165")) {
		t.Errorf("total_amount = %s, want 165", inv.TotalAmount)
	}
	// total == subtotal + tax always
	if !inv.TotalAmount.Equal(inv.Subtotal.Add(inv.TaxAmount)) {
		t.Error("total_amount != subtotal + tax_amount")
	}
}

func TestComputeRequiresItems(t *testing.T) {
	inv := testInvoice()
	inv.Items = nil
	if err := inv.Compute(); err == nil {
		t.Fatal("expected error for empty item list")
	}
}

func TestComputeRejectsNegatives(t *testing.T) {
	inv := testInvoice()
	inv.Items[0].Quantity = -1
	if err := inv.Compute(); err == nil {
		t.Error("expected error for negative quantity")
	}

	inv = testInvoice()
	inv.Items[1].UnitPrice = dec("-5")
	if err := inv.Compute(); err == nil {
		t.Error("expected error for negative unit price")
	}

	inv = testInvoice()
	inv.TaxRate = dec("-1")
	if err := inv.Compute(); err == nil {
		t.Error("expected error for negative tax rate")
	}
}

func TestComputeZeroTaxRate(t *testing.T) {
	inv := testInvoice()
	inv.TaxRate = decimal.Zero
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !inv.TaxAmount.Equal(decimal.Zero) {
		t.Errorf("tax_amount = %s, want 0", inv.TaxAmount)
	}
	if !inv.TotalAmount.Equal(inv.Subtotal) {
		t.Errorf("total_amount = %s, want %s", inv.TotalAmount, inv.Subtotal)
	}
}

func TestComputeFractionalTax(t *testing.T) {
	inv := testInvoice()
	inv.Items = LineItems{{Description: "Filling", Quantity: 3, UnitPrice: dec("33.33")}}
	inv.TaxRate = dec("7.5")
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !inv.Subtotal.Equal(dec("99.99")) {
		t.Errorf("subtotal = %s, want 99.99", inv.Subtotal)
	}
	if !inv.TotalAmount.Equal(inv.Subtotal.Add(inv.TaxAmount)) {
		t.Error("total_amount != subtotal + tax_amount")
	}
	// 7.5% of 99.99 is 7.49925; stored columns hold cents, so the computed
	// amount rounds to match.
	if !inv.TaxAmount.Equal(dec("7.50")) {
		t.Errorf("tax_amount = %s, want 7.50", inv.TaxAmount)
	}
}

func TestComputeRoundsToCents(t *testing.T) {
	inv := testInvoice()
	inv.Items = LineItems{{Description: "Sealant", Quantity: 3, UnitPrice: dec("0.333")}}
	inv.TaxRate = decimal.Zero
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !inv.Items[0].Total.Equal(dec("1.00")) {
		t.Errorf("item total = %s, want 1.00", inv.Items[0].Total)
	}
	if !inv.Subtotal.Equal(dec("1.00")) {
		t.Errorf("subtotal = %s, want 1.00", inv.Subtotal)
	}
	if inv.TotalAmount.Exponent() < -2 {
		t.Errorf("total_amount %s carries sub-cent precision", inv.TotalAmount)
	}
}

func TestApplyPaymentPaidSnapsToTotal(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Client submits paid with a stale zero amount; amount snaps to the total.
	if err := inv.ApplyPayment(StatusPaid, decimal.Zero); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if inv.Status != StatusPaid {
		t.Errorf("status = %s, want paid", inv.Status)
	}
	if !inv.PaidAmount.Equal(dec("165")) {
		t.Errorf("paid_amount = %s, want 165", inv.PaidAmount)
	}
}

func TestApplyPaymentUnpaidResetsAmount(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	inv.PaidAmount = dec("50")
	inv.Status = StatusPartiallyPaid

	if err := inv.ApplyPayment(StatusUnpaid, dec("50")); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if inv.Status != StatusUnpaid {
		t.Errorf("status = %s, want unpaid", inv.Status)
	}
	if !inv.PaidAmount.IsZero() {
		t.Errorf("paid_amount = %s, want 0", inv.PaidAmount)
	}
}

func TestApplyPaymentPartialKeepsAmount(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if err := inv.ApplyPayment(StatusPartiallyPaid, dec("60")); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if inv.Status != StatusPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", inv.Status)
	}
	if !inv.PaidAmount.Equal(dec("60")) {
		t.Errorf("paid_amount = %s, want 60", inv.PaidAmount)
	}
}

func TestApplyPaymentRederivesFromAmount(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Submitted as partial but the amount covers the total: status becomes paid.
	if err := inv.ApplyPayment(StatusPartiallyPaid, dec("165")); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if inv.Status != StatusPaid {
		t.Errorf("status = %s, want paid", inv.Status)
	}

	// And a zero amount lands back on unpaid.
	if err := inv.ApplyPayment(StatusPartiallyPaid, decimal.Zero); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if inv.Status != StatusUnpaid {
		t.Errorf("status = %s, want unpaid", inv.Status)
	}
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	inv.PaidAmount = dec("40")
	inv.Status = StatusPartiallyPaid

	err := inv.ApplyPayment(StatusPartiallyPaid, dec("200"))
	if err == nil {
		t.Fatal("expected error for amount above total")
	}
	// Nothing changed.
	if inv.Status != StatusPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", inv.Status)
	}
	if !inv.PaidAmount.Equal(dec("40")) {
		t.Errorf("paid_amount = %s, want 40", inv.PaidAmount)
	}
}

func TestApplyPaymentRejectsNegativeAmount(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if err := inv.ApplyPayment("", dec("-1")); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestApplyPaymentCancelledIsTerminal(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if err := inv.ApplyPayment(StatusCancelled, decimal.Zero); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if inv.Status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", inv.Status)
	}

	for _, next := range []string{StatusPaid, StatusUnpaid, StatusPartiallyPaid, ""} {
		if err := inv.ApplyPayment(next, dec("10")); err == nil {
			t.Errorf("expected error transitioning cancelled -> %q", next)
		}
	}
}

func TestApplyPaymentCancelledChecksAmountBounds(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	inv.PaidAmount = dec("40")
	inv.Status = StatusPartiallyPaid

	if err := inv.ApplyPayment(StatusCancelled, dec("999")); err == nil {
		t.Fatal("expected error cancelling with amount above total")
	}
	if err := inv.ApplyPayment(StatusCancelled, dec("-1")); err == nil {
		t.Fatal("expected error cancelling with negative amount")
	}
	// The rejected cancellations changed nothing.
	if inv.Status != StatusPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", inv.Status)
	}
	if !inv.PaidAmount.Equal(dec("40")) {
		t.Errorf("paid_amount = %s, want 40", inv.PaidAmount)
	}

	// A cancellation within bounds keeps the submitted amount.
	if err := inv.ApplyPayment(StatusCancelled, dec("40")); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if inv.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", inv.Status)
	}
	if !inv.PaidAmount.Equal(dec("40")) {
		t.Errorf("paid_amount = %s, want 40", inv.PaidAmount)
	}
}

func TestApplyPaymentInvalidStatus(t *testing.T) {
	inv := testInvoice()
	if err := inv.Compute(); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if err := inv.ApplyPayment("refunded", decimal.Zero); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
