package medical

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores one record kind. Add fills the header; a missing
// patient yields ErrPatientNotFound.
type Repository[T Record] interface {
	Add(ctx context.Context, rec T) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]T, error)
	Delete(ctx context.Context, patientID, id uuid.UUID) error
}

// Repos groups the per-kind repositories.
type Repos struct {
	Conditions   Repository[*Condition]
	Allergies    Repository[*Allergy]
	Medications  Repository[*Medication]
	Vaccinations Repository[*Vaccination]
	Insurance    Repository[*Insurance]
	Contacts     Repository[*Contact]
}
