package emergency

import (
	"context"

	"github.com/google/uuid"

	"github.com/mias/mias/internal/domain/medical"
	"github.com/mias/mias/internal/domain/patient"
	"github.com/mias/mias/pkg/pagination"
)

type Repository interface {
	// SetToken stores token on the patient, replacing any earlier one.
	SetToken(ctx context.Context, patientID uuid.UUID, token string) error
	// PatientIDByToken yields ErrInvalidToken when no patient holds token.
	PatientIDByToken(ctx context.Context, token string) (uuid.UUID, error)
	// RecordAccess writes the log entry and stamps the patient's
	// last_emergency_access as one unit.
	RecordAccess(ctx context.Context, e *AccessLogEntry) error
	ListAccessLog(ctx context.Context, patientID uuid.UUID, pg pagination.Params) ([]*AccessLogEntry, int, error)
}

// PatientReader loads registry entries. *patient.Service satisfies it.
type PatientReader interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// Records supplies the clinical lists shown in an emergency summary.
type Records interface {
	Allergies(ctx context.Context, patientID uuid.UUID) ([]*medical.Allergy, error)
	ActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*medical.Medication, error)
	Conditions(ctx context.Context, patientID uuid.UUID) ([]*medical.Condition, error)
	Contacts(ctx context.Context, patientID uuid.UUID) ([]*medical.Contact, error)
}

// MedicalRecords adapts the medical service to Records.
func MedicalRecords(svc *medical.Service) Records {
	return medicalRecords{svc: svc}
}

type medicalRecords struct {
	svc *medical.Service
}

func (m medicalRecords) Allergies(ctx context.Context, id uuid.UUID) ([]*medical.Allergy, error) {
	return m.svc.Allergies.List(ctx, id)
}

func (m medicalRecords) ActiveMedications(ctx context.Context, id uuid.UUID) ([]*medical.Medication, error) {
	return m.svc.ActiveMedications(ctx, id)
}

func (m medicalRecords) Conditions(ctx context.Context, id uuid.UUID) ([]*medical.Condition, error) {
	return m.svc.Conditions.List(ctx, id)
}

func (m medicalRecords) Contacts(ctx context.Context, id uuid.UUID) ([]*medical.Contact, error) {
	return m.svc.Contacts.List(ctx, id)
}
