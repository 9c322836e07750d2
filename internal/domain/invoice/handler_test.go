package invoice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dentflow/dentflow/internal/platform/auth"
)

func newTestServer(t *testing.T) (*echo.Echo, *mockRepo) {
	t.Helper()
	svc, repo := newTestService()
	e := echo.New()
	api := e.Group("/api/v1", auth.DevAuthMiddleware())
	NewHandler(svc).RegisterRoutes(api)
	return e, repo
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreate(t *testing.T) {
	e, repo := newTestServer(t)

	body := `{
		"patient_id": 1,
		"date": "2025-03-10",
		"tax_rate": "10",
		"items": [
			{"description": "Cleaning", "quantity": 1, "unit_price": "100"},
			{"description": "X-Ray", "quantity": 2, "unit_price": "25"}
		]
	}`
	rec := doJSON(e, http.MethodPost, "/api/v1/invoices", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["total_amount"] != "165" {
		t.Errorf("total_amount = %v, want 165", got["total_amount"])
	}
	if got["invoice_number"] != "INV-2025-00001" {
		t.Errorf("invoice_number = %v", got["invoice_number"])
	}
	if got["status"] != StatusUnpaid {
		t.Errorf("status = %v, want unpaid", got["status"])
	}
	if len(repo.invoices) != 1 {
		t.Errorf("stored %d invoices, want 1", len(repo.invoices))
	}
}

func TestHandlerCreateValidationError(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/invoices", `{"patient_id": 1, "date": "2025-03-10", "items": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/invoices/99", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/invoices/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-numeric id", rec.Code)
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	e, repo := newTestServer(t)
	if err := repo.Create(context.Background(), computeForTest(t, newInvoiceInput())); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	rec := doJSON(e, http.MethodPut, "/api/v1/invoices/1/status", `{"status": "paid"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["status"] != StatusPaid {
		t.Errorf("status = %v, want paid", got["status"])
	}
	if got["paid_amount"] != "165" {
		t.Errorf("paid_amount = %v, want 165", got["paid_amount"])
	}
}

func TestHandlerUpdateStatusOverpayment(t *testing.T) {
	e, repo := newTestServer(t)
	if err := repo.Create(context.Background(), computeForTest(t, newInvoiceInput())); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	rec := doJSON(e, http.MethodPut, "/api/v1/invoices/1/status", `{"status": "partially_paid", "paid_amount": "500"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerDelete(t *testing.T) {
	e, repo := newTestServer(t)
	if err := repo.Create(context.Background(), computeForTest(t, newInvoiceInput())); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	rec := doJSON(e, http.MethodDelete, "/api/v1/invoices/1", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if len(repo.invoices) != 0 {
		t.Errorf("invoice not deleted")
	}

	rec = doJSON(e, http.MethodDelete, "/api/v1/invoices/1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 on second delete", rec.Code)
	}
}

func computeForTest(t *testing.T, i *Invoice) *Invoice {
	t.Helper()
	if err := i.Compute(); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if err := i.ApplyPayment(i.Status, i.PaidAmount); err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	return i
}
