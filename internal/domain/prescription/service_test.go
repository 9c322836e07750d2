package prescription

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/dentflow/dentflow/internal/platform/listquery"
	"github.com/dentflow/dentflow/pkg/civil"
)

// -- Mock Repository --

type mockRepo struct {
	nextID        int64
	prescriptions map[int64]*Prescription
	medications   map[int64][]*Medication
	failInsert    bool
	calls         []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		prescriptions: make(map[int64]*Prescription),
		medications:   make(map[int64][]*Medication),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	m.calls = append(m.calls, "create")
	m.nextID++
	p.ID = m.nextID
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	p.Medications = m.medications[id]
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Prescription) error {
	m.calls = append(m.calls, "update")
	if _, ok := m.prescriptions[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	m.calls = append(m.calls, "delete")
	if _, ok := m.prescriptions[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.prescriptions, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, _ listquery.Params, limit, offset int) ([]*Prescription, int, error) {
	var all []*Prescription
	for _, p := range m.prescriptions {
		all = append(all, p)
	}
	return all, len(all), nil
}

func (m *mockRepo) InsertMedications(_ context.Context, id int64, meds []*Medication) error {
	m.calls = append(m.calls, "insert_medications")
	if m.failInsert {
		return fmt.Errorf("insert failed")
	}
	m.medications[id] = append(m.medications[id], meds...)
	return nil
}

func (m *mockRepo) DeleteMedications(_ context.Context, id int64) error {
	m.calls = append(m.calls, "delete_medications")
	delete(m.medications, id)
	return nil
}

func (m *mockRepo) MedicationsFor(_ context.Context, ids []int64) (map[int64][]*Medication, error) {
	out := make(map[int64][]*Medication)
	for _, id := range ids {
		out[id] = m.medications[id]
	}
	return out, nil
}

func testPrescription() *Prescription {
	date, _ := civil.ParseDate("2025-02-01")
	return &Prescription{
		PatientID: 1,
		Date:      date,
		Diagnosis: "Pulpitis",
		Medications: []*Medication{
			{Name: "Amoxicillin", Dosage: "500mg", Frequency: "3x daily"},
			{Name: "", Dosage: "ignored"},
			{Name: "Ibuprofen", Dosage: "400mg"},
		},
	}
}

// -- Tests --

func TestCreateSkipsUnnamedMedications(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	p := testPrescription()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	meds := repo.medications[p.ID]
	if len(meds) != 2 {
		t.Fatalf("stored %d medications, want 2", len(meds))
	}
	if meds[0].Name != "Amoxicillin" || meds[1].Name != "Ibuprofen" {
		t.Errorf("got %v, %v", meds[0].Name, meds[1].Name)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	p := testPrescription()
	p.PatientID = 0
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for missing patient_id")
	}

	p = testPrescription()
	p.Date = civil.Date{}
	if err := svc.Create(context.Background(), p); err == nil {
		t.Error("expected error for missing date")
	}
}

func TestUpdateReplacesMedications(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	p := testPrescription()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.Medications = []*Medication{{Name: "Paracetamol"}}
	if err := svc.Update(context.Background(), p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	meds := repo.medications[p.ID]
	if len(meds) != 1 || meds[0].Name != "Paracetamol" {
		t.Errorf("medications = %+v", meds)
	}
}

func TestDeleteRemovesMedicationsFirst(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	p := testPrescription()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	repo.calls = nil
	if err := svc.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// The medication rows go before the prescription row so the FK never
	// dangles mid-transaction.
	want := []string{"delete_medications", "delete"}
	if len(repo.calls) != 2 || repo.calls[0] != want[0] || repo.calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", repo.calls, want)
	}
	if len(repo.medications[p.ID]) != 0 {
		t.Error("medications survived delete")
	}
}

func TestCreateAbortsWhenMedicationsFail(t *testing.T) {
	repo := newMockRepo()
	repo.failInsert = true
	svc := NewService(repo, nil)

	p := testPrescription()
	if err := svc.Create(context.Background(), p); err == nil {
		t.Fatal("expected error when medication insert fails")
	}
}
