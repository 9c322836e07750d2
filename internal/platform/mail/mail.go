// Package mail delivers clinic email (appointment confirmations, invoice
// copies) with template rendering and an in-memory delivery log that backs
// the resend endpoint.
package mail

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender is the interface for delivering a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Record is the stored outcome of one delivery attempt.
type Record struct {
	ID         string            `json:"id"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	RefKind    string            `json:"ref_kind,omitempty"`
	RefID      int64             `json:"ref_id,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Template defines a reusable email template rendered with {{key}} replacement.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateAppointmentConfirmation confirms a newly booked appointment.
const TemplateAppointmentConfirmation = "appointment-confirmation"

// TemplateInvoiceCopy accompanies an invoice sent to the patient.
const TemplateInvoiceCopy = "invoice-copy"

// TemplateEngine holds the registered templates.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in clinic
// templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateAppointmentConfirmation,
			Subject: "Appointment Confirmation - {{clinic_name}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Your appointment has been confirmed.\n\n" +
				"Date: {{date}}\n" +
				"Time: {{time}}\n" +
				"Treatment: {{treatment}}\n" +
				"Duration: {{duration}} minutes\n\n" +
				"Please arrive 10 minutes before your scheduled time.\n\n" +
				"Best regards,\n{{clinic_name}}",
		},
		{
			ID:      TemplateInvoiceCopy,
			Subject: "Invoice {{invoice_number}} - {{clinic_name}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Please find your invoice details below.\n\n" +
				"Invoice: {{invoice_number}}\n" +
				"Date: {{date}}\n" +
				"Amount due: {{amount}}\n\n" +
				"Best regards,\n{{clinic_name}}",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Register adds or replaces a template in the engine.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Manager renders, sends, and logs clinic email.
type Manager struct {
	sender    Sender
	templates *TemplateEngine
	mu        sync.RWMutex
	records   map[string]*Record
}

// NewManager constructs a Manager around the given sender.
func NewManager(sender Sender, tpl *TemplateEngine) *Manager {
	return &Manager{
		sender:    sender,
		templates: tpl,
		records:   make(map[string]*Record),
	}
}

// SendTemplate renders a template and delivers it, logging the outcome. The
// record is kept whether or not delivery succeeded so failed sends can be
// retried later.
func (m *Manager) SendTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Record, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	rec := &Record{
		ID:         uuid.NewString(),
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}

	sendErr := m.sender.Send(ctx, recipient, subject, body)
	if sendErr != nil {
		rec.Status = "failed"
		rec.Error = sendErr.Error()
	} else {
		rec.Status = "sent"
		sentAt := time.Now().UTC()
		rec.SentAt = &sentAt
	}

	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()

	return rec, sendErr
}

// Tag associates a record with a domain entity, e.g. ("appointment", 42).
func (m *Manager) Tag(recordID, kind string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[recordID]; ok {
		rec.RefKind = kind
		rec.RefID = id
	}
}

// Get returns a record by id.
func (m *Manager) Get(id string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec, ok
}

// ByRef returns all records tagged with the given entity, newest first.
func (m *Manager) ByRef(kind string, id int64) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Record
	for _, rec := range m.records {
		if rec.RefKind == kind && rec.RefID == id {
			out = append(out, rec)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Retry re-attempts delivery of a previously failed record.
func (m *Manager) Retry(ctx context.Context, id string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("record %q not found", id)
	}

	sendErr := m.sender.Send(ctx, rec.Recipient, rec.Subject, rec.Body)

	m.mu.Lock()
	if sendErr != nil {
		rec.Status = "failed"
		rec.Error = sendErr.Error()
	} else {
		rec.Status = "sent"
		rec.Error = ""
		sentAt := time.Now().UTC()
		rec.SentAt = &sentAt
	}
	m.mu.Unlock()

	if sendErr != nil {
		return rec, sendErr
	}
	return rec, nil
}

// Stats summarizes the delivery log.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := map[string]int{"total": 0, "sent": 0, "failed": 0}
	for _, rec := range m.records {
		stats["total"]++
		stats[rec.Status]++
	}
	return stats
}
