package patient

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mias/mias/internal/platform/aamva"
	"github.com/mias/mias/internal/platform/auth"
	"github.com/mias/mias/internal/platform/metrics"
	"github.com/mias/mias/pkg/pagination"
	"github.com/mias/mias/pkg/secrets"
)

type Service struct {
	repo   Repository
	tokens *auth.TokenIssuer
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger, now: time.Now}
}

// ScanRegistration is a front-desk registration: the raw barcode scan plus
// details the license does not carry.
type ScanRegistration struct {
	Raw       string  `json:"raw"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	BloodType *string `json:"blood_type"`
	PIN       string  `json:"pin"`
}

// ScanError carries the parser's failure reason for a rejected scan.
type ScanError struct {
	Reason string
}

func (e *ScanError) Error() string { return e.Reason }

func (e *ScanError) Is(target error) bool { return target == ErrInvalidScan }

// RegisterFromScan parses a license scan and registers the holder.
func (s *Service) RegisterFromScan(ctx context.Context, req ScanRegistration) (*Patient, error) {
	o := aamva.ParseOutcome(req.Raw)
	aamva.Observe(req.Raw, o)

	rec, err := aamva.PrepareForPersistence(o)
	if err != nil {
		return nil, &ScanError{Reason: o.Reason()}
	}
	if rec.LicenseNumber == nil {
		return nil, &ScanError{Reason: "license number missing from scan"}
	}

	p := &Patient{
		LicenseNumber: *rec.LicenseNumber,
		FirstName:     rec.FirstName,
		LastName:      rec.LastName,
		Address:       rec.Address,
		City:          rec.City,
		State:         rec.State,
		ZipCode:       rec.ZipCode,
		Phone:         req.Phone,
		Email:         req.Email,
		BloodType:     req.BloodType,
	}
	if rec.DateOfBirth != nil {
		if dob, err := time.Parse(aamva.ISODate, *rec.DateOfBirth); err == nil {
			p.DateOfBirth = &dob
		}
	}

	if err := s.create(ctx, p, req.PIN, "scan"); err != nil {
		return nil, err
	}
	return p, nil
}

// Register creates a patient from manually entered details.
func (s *Service) Register(ctx context.Context, p *Patient, pin string) error {
	return s.create(ctx, p, pin, "manual")
}

func (s *Service) create(ctx context.Context, p *Patient, pin, source string) error {
	p.LicenseNumber = strings.TrimSpace(p.LicenseNumber)
	if p.LicenseNumber == "" {
		return invalid("license_number is required")
	}
	p.Phone = normalizeOptional(p.Phone)
	p.Email = normalizeOptional(p.Email)
	p.BloodType = normalizeOptional(p.BloodType)
	if err := validateContact(p); err != nil {
		return err
	}
	if p.BloodType != nil {
		bt := strings.ToUpper(*p.BloodType)
		p.BloodType = &bt
	}

	if pin != "" {
		hash, err := hashPIN(pin)
		if err != nil {
			return err
		}
		p.PINHash = &hash
	}

	if _, err := s.repo.GetByLicense(ctx, p.LicenseNumber); err == nil {
		return ErrDuplicateLicense
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	metrics.PatientsRegisteredTotal.WithLabelValues(source).Inc()
	s.logger.Info().
		Str("patient_id", p.ID.String()).
		Str("source", source).
		Bool("pin_set", p.HasPIN()).
		Msg("patient registered")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, term string, pg pagination.Params) ([]*Patient, int, error) {
	return s.repo.Search(ctx, term, pg)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// UpdateMedicalInfo changes one of phone, email or blood_type. An empty
// value clears the field.
func (s *Service) UpdateMedicalInfo(ctx context.Context, id uuid.UUID, field, value string) (*Patient, error) {
	column, ok := editableFields[field]
	if !ok {
		return nil, ErrFieldNotEditable
	}

	v := normalizeOptional(&value)
	check := &Patient{}
	switch field {
	case "email":
		check.Email = v
	case "blood_type":
		check.BloodType = v
	}
	if err := validateContact(check); err != nil {
		return nil, err
	}
	if field == "blood_type" && v != nil {
		upper := strings.ToUpper(*v)
		v = &upper
	}

	if err := s.repo.UpdateField(ctx, id, column, v); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// SetPIN enables or replaces the patient's portal PIN.
func (s *Service) SetPIN(ctx context.Context, id uuid.UUID, pin string) error {
	hash, err := hashPIN(pin)
	if err != nil {
		return err
	}
	return s.repo.SetPINHash(ctx, id, hash)
}

// LoginResult is returned to the patient portal after a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Patient   *Patient  `json:"patient"`
}

// Authenticate checks a license number and PIN and issues a patient
// token. Every failure returns ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, licenseNumber, pin string) (*LoginResult, error) {
	licenseNumber = strings.TrimSpace(licenseNumber)
	if licenseNumber == "" || !ValidPIN(pin) {
		return nil, ErrInvalidCredentials
	}

	p, err := s.repo.GetByLicense(ctx, licenseNumber)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !p.HasPIN() {
		return nil, ErrInvalidCredentials
	}
	if err := secrets.Verify(pin, *p.PINHash); err != nil {
		if errors.Is(err, secrets.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, p.ID, now); err != nil {
		return nil, err
	}
	p.LastLogin = &now
	s.logger.Info().Str("patient_id", p.ID.String()).Msg("portal login")

	token, exp, err := s.tokens.Issue(p.ID.String(), auth.RolePatient)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, Patient: p}, nil
}

func hashPIN(pin string) (string, error) {
	if !ValidPIN(pin) {
		return "", ErrInvalidPIN
	}
	return secrets.Hash(pin)
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validateContact(p *Patient) error {
	if p.BloodType != nil && !ValidBloodType(*p.BloodType) {
		return invalid("blood_type must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
	}
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			return invalid("email is not a valid address")
		}
	}
	return nil
}
