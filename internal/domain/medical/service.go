package medical

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Collection manages one record kind for a patient.
type Collection[T Record] struct {
	repo Repository[T]
	now  func() time.Time
}

func newCollection[T Record](repo Repository[T], now func() time.Time) *Collection[T] {
	return &Collection[T]{repo: repo, now: now}
}

// Add validates rec and stores it under patientID.
func (c *Collection[T]) Add(ctx context.Context, patientID uuid.UUID, rec T) error {
	if err := rec.normalize(c.now()); err != nil {
		return err
	}
	rec.header().PatientID = patientID
	return c.repo.Add(ctx, rec)
}

// List returns the patient's records; an unknown patient has none.
func (c *Collection[T]) List(ctx context.Context, patientID uuid.UUID) ([]T, error) {
	items, err := c.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	return c.repo.Delete(ctx, patientID, id)
}

type Service struct {
	Conditions   *Collection[*Condition]
	Allergies    *Collection[*Allergy]
	Medications  *Collection[*Medication]
	Vaccinations *Collection[*Vaccination]
	Insurance    *Collection[*Insurance]
	Contacts     *Collection[*Contact]
}

func NewService(repos Repos) *Service {
	return newService(repos, time.Now)
}

func newService(repos Repos, now func() time.Time) *Service {
	return &Service{
		Conditions:   newCollection(repos.Conditions, now),
		Allergies:    newCollection(repos.Allergies, now),
		Medications:  newCollection(repos.Medications, now),
		Vaccinations: newCollection(repos.Vaccinations, now),
		Insurance:    newCollection(repos.Insurance, now),
		Contacts:     newCollection(repos.Contacts, now),
	}
}

// ActiveMedications filters the patient's medications to those still in
// use today.
func (s *Service) ActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*Medication, error) {
	all, err := s.Medications.List(ctx, patientID)
	if err != nil {
		return nil, err
	}
	today := s.Medications.now()
	active := make([]*Medication, 0, len(all))
	for _, m := range all {
		if m.Active(today) {
			active = append(active, m)
		}
	}
	return active, nil
}
