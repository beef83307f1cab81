package medical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo[T Record] struct {
	patients map[uuid.UUID]bool
	items    []T
}

func (m *mockRepo[T]) Add(_ context.Context, rec T) error {
	h := rec.header()
	if !m.patients[h.PatientID] {
		return ErrPatientNotFound
	}
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	m.items = append(m.items, rec)
	return nil
}

func (m *mockRepo[T]) ListByPatient(_ context.Context, patientID uuid.UUID) ([]T, error) {
	var out []T
	for _, it := range m.items {
		if it.header().PatientID == patientID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockRepo[T]) Delete(_ context.Context, patientID, id uuid.UUID) error {
	for i, it := range m.items {
		h := it.header()
		if h.ID == id && h.PatientID == patientID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func newMockRepos(patients ...uuid.UUID) Repos {
	known := make(map[uuid.UUID]bool)
	for _, p := range patients {
		known[p] = true
	}
	return Repos{
		Conditions:   &mockRepo[*Condition]{patients: known},
		Allergies:    &mockRepo[*Allergy]{patients: known},
		Medications:  &mockRepo[*Medication]{patients: known},
		Vaccinations: &mockRepo[*Vaccination]{patients: known},
		Insurance:    &mockRepo[*Insurance]{patients: known},
		Contacts:     &mockRepo[*Contact]{patients: known},
	}
}

var fixedToday = time.Date(2025, time.March, 10, 15, 30, 0, 0, time.UTC)

func newTestService(patients ...uuid.UUID) *Service {
	return newService(newMockRepos(patients...), func() time.Time { return fixedToday })
}

func strPtr(s string) *string { return &s }

// -- Tests --

func TestMedication_DefaultsStartDateToToday(t *testing.T) {
	pid := uuid.New()
	svc := newTestService(pid)

	m := &Medication{MedicationName: "  Lisinopril "}
	if err := svc.Medications.Add(context.Background(), pid, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.MedicationName != "Lisinopril" {
		t.Errorf("expected trimmed name, got %q", m.MedicationName)
	}
	if m.StartDate == nil || m.StartDate.Format(DateLayout) != "2025-03-10" {
		t.Errorf("expected start date today, got %v", m.StartDate)
	}
	if m.ID == uuid.Nil || m.PatientID != pid {
		t.Errorf("header not filled: %+v", m.Header)
	}
}

func TestMedication_EndBeforeStart(t *testing.T) {
	pid := uuid.New()
	svc := newTestService(pid)
	m := &Medication{
		MedicationName: "Amoxicillin",
		StartDate:      NewDate(fixedToday),
		EndDate:        NewDate(fixedToday.AddDate(0, 0, -1)),
	}
	var ve *ValidationError
	if err := svc.Medications.Add(context.Background(), pid, m); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestActiveMedications(t *testing.T) {
	pid := uuid.New()
	svc := newTestService(pid)
	ctx := context.Background()

	meds := []*Medication{
		{MedicationName: "Ongoing"},
		{MedicationName: "EndsToday", StartDate: NewDate(fixedToday.AddDate(0, -1, 0)), EndDate: NewDate(fixedToday)},
		{MedicationName: "Finished", StartDate: NewDate(fixedToday.AddDate(-1, 0, 0)), EndDate: NewDate(fixedToday.AddDate(0, 0, -2))},
	}
	for _, m := range meds {
		if err := svc.Medications.Add(ctx, pid, m); err != nil {
			t.Fatalf("add %s: %v", m.MedicationName, err)
		}
	}

	active, err := svc.ActiveMedications(ctx, pid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active medications, got %d", len(active))
	}
	for _, m := range active {
		if m.MedicationName == "Finished" {
			t.Error("finished medication reported active")
		}
	}
}

func TestAllergy_Severity(t *testing.T) {
	pid := uuid.New()
	svc := newTestService(pid)
	ctx := context.Background()

	a := &Allergy{Allergen: "Penicillin", Severity: strPtr("life-threatening")}
	if err := svc.Allergies.Add(ctx, pid, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *a.Severity != "Life-threatening" {
		t.Errorf("expected canonical severity, got %q", *a.Severity)
	}

	bad := &Allergy{Allergen: "Peanuts", Severity: strPtr("catastrophic")}
	var ve *ValidationError
	if err := svc.Allergies.Add(ctx, pid, bad); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	blank := &Allergy{Allergen: "Latex", Severity: strPtr("  ")}
	if err := svc.Allergies.Add(ctx, pid, blank); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blank.Severity != nil {
		t.Error("expected blank severity to be cleared")
	}
}

func TestRequiredFields(t *testing.T) {
	pid := uuid.New()
	svc := newTestService(pid)
	ctx := context.Background()

	checks := map[string]error{
		"condition":   svc.Conditions.Add(ctx, pid, &Condition{}),
		"allergy":     svc.Allergies.Add(ctx, pid, &Allergy{Allergen: " "}),
		"medication":  svc.Medications.Add(ctx, pid, &Medication{}),
		"vaccination": svc.Vaccinations.Add(ctx, pid, &Vaccination{}),
		"insurance":   svc.Insurance.Add(ctx, pid, &Insurance{ProviderName: "Aetna"}),
		"contact":     svc.Contacts.Add(ctx, pid, &Contact{ContactName: "Jane"}),
	}
	for kind, err := range checks {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", kind, err)
		}
	}
}

func TestInsurance_DefaultsActive(t *testing.T) {
	pid := uuid.New()
	svc := newTestService(pid)
	ins := &Insurance{ProviderName: "Blue Cross", PolicyNumber: "BC-1"}
	if err := svc.Insurance.Add(context.Background(), pid, ins); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ins.IsActive == nil || !*ins.IsActive {
		t.Error("expected policy to default to active")
	}
}

func TestContact_DefaultPriority(t *testing.T) {
	pid := uuid.New()
	svc := newTestService(pid)
	c := &Contact{ContactName: "Jane Doe", PhonePrimary: "555-0101"}
	if err := svc.Contacts.Add(context.Background(), pid, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PriorityOrder != 1 {
		t.Errorf("expected priority 1, got %d", c.PriorityOrder)
	}
	neg := &Contact{ContactName: "X", PhonePrimary: "1", PriorityOrder: -2}
	if err := svc.Contacts.Add(context.Background(), pid, neg); err == nil {
		t.Error("expected negative priority to be rejected")
	}
}

func TestCollection_UnknownPatient(t *testing.T) {
	svc := newTestService()
	err := svc.Conditions.Add(context.Background(), uuid.New(), &Condition{ConditionName: "Asthma"})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}

	items, err := svc.Conditions.List(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil list, got %v", items)
	}
}

func TestCollection_DeleteScopedToPatient(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	svc := newTestService(owner, other)
	ctx := context.Background()

	v := &Vaccination{VaccineName: "Tetanus"}
	if err := svc.Vaccinations.Add(ctx, owner, v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Vaccinations.Delete(ctx, other, v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting another patient's record, got %v", err)
	}
	if err := svc.Vaccinations.Delete(ctx, owner, v.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, _ := svc.Vaccinations.List(ctx, owner)
	if len(items) != 0 {
		t.Errorf("expected no vaccinations after delete, got %d", len(items))
	}
}
