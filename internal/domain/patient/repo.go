package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mias/mias/pkg/pagination"
)

type Repository interface {
	// Create inserts p and assigns its ID. A taken license number yields
	// ErrDuplicateLicense.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByLicense(ctx context.Context, licenseNumber string) (*Patient, error)
	// Search matches term against license number and names; an empty term
	// lists everyone.
	Search(ctx context.Context, term string, pg pagination.Params) ([]*Patient, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateField(ctx context.Context, id uuid.UUID, column string, value *string) error
	SetPINHash(ctx context.Context, id uuid.UUID, hash string) error
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
